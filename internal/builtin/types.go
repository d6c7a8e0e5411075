package builtin

import (
	"strconv"
	"strings"

	"benzl/internal/errors"
	"benzl/internal/symtable"
	"benzl/internal/value"
)

func registerTypes(env *value.Environment) {
	register(env, "def-type", biDefType)
	register(env, "type-of", biTypeOf)
	register(env, "to-string", biToString)
	register(env, "to-number", biToNumber)
	register(env, "dict", biDict)
}

// biDefType receives its single QExpr argument unparsed, since QExpr is
// self-evaluating: {Name p1 p2:T} is never individually evaluated, so
// reserved primitive type names like Float survive as literal TypeRef
// values from the parser, while a user type name arrives as a Symbol and
// is resolved here, at declaration time (spec.md §4.6).
func biDefType(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "def-type", args, 1); err != nil {
		return err
	}
	decl := args[0]
	if decl.Tag != value.TagQExpr || len(decl.List) == 0 {
		return typeErr(pos, "def-type", 0, decl, "a non-empty List headed by the type name")
	}
	nameVal := decl.List[0]
	if nameVal.Tag != value.TagSymbol {
		return typeErr(pos, "def-type", 0, nameVal, "a Symbol naming the type")
	}
	props := make([]*value.Value, 0, len(decl.List)-1)
	for _, p := range decl.List[1:] {
		switch p.Tag {
		case value.TagSymbol:
			props = append(props, p)
		case value.TagKVPair:
			typ, errv := resolveTypeExpr(env, p.KV.Val)
			if errv != nil {
				return errv
			}
			kv := value.NewKVPair(&value.KVPair{Key: p.KV.Key, Val: typ})
			kv.Pos = p.Pos
			props = append(props, kv)
		default:
			return typeErr(pos, "def-type", 0, p, "a property Symbol or name:Type pair")
		}
	}
	typeVal := value.NewTypeRef(&value.TypeRef{
		Primitive: false,
		Name:      nameVal.Sym,
		Props:     props,
	})
	typeVal.Pos = pos
	if !env.Def(nameVal.Sym.Name, typeVal) {
		return value.NewError(errors.New(errors.AlreadyDeclared, pos, "type %q is already declared", nameVal.Sym.Name))
	}
	return typeVal
}

func biTypeOf(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "type-of", args, 1); err != nil {
		return err
	}
	v := args[0]
	if v.Tag == value.TagRecordInstance {
		return withPos(value.NewTypeRef(v.Rec.Type), pos)
	}
	if v.Tag == value.TagError {
		if v.Err.Caught {
			return withPos(value.PrimitiveTypeRef(value.TagError), pos)
		}
		return withPos(value.PrimitiveTypeRef(value.TagUnhandledError), pos)
	}
	return withPos(value.PrimitiveTypeRef(v.Tag), pos)
}

func biToString(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "to-string", args, 1); err != nil {
		return err
	}
	return withPos(value.NewString(value.ToString(args[0])), pos)
}

// biToNumber is the one String->Number conversion path; every other
// numeric cast goes through value.Cast (spec.md §4.1).
func biToNumber(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "to-number", args, 1); err != nil {
		return err
	}
	v := args[0]
	if value.IsNumeric(v) {
		return withPos(v, pos)
	}
	if v.Tag != value.TagString {
		return typeErr(pos, "to-number", 0, v, "a String or a number")
	}
	s := strings.TrimSpace(v.Str)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return withPos(value.NewInt(i), pos)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return withPos(value.NewFloat(f), pos)
	}
	return value.NewError(errors.New(errors.TypeError, pos, "to-number: %q is not a valid number", v.Str))
}

// biDict builds a Dict from k:v pairs, each already-evaluated by the
// ordinary SExpr argument-evaluation rule (spec.md §4.6).
func biDict(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	table := symtable.New[*value.Value]()
	for i, a := range args {
		if a.Tag != value.TagKVPair {
			return typeErr(pos, "dict", i, a, "a name:value pair")
		}
		table.Insert(value.HashName(a.KV.Key.Name), a.KV.Key.Name, a.KV.Val)
	}
	return withPos(value.NewDict(table), pos)
}
