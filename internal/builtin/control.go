package builtin

import (
	"benzl/internal/errors"
	"benzl/internal/value"
)

func registerControl(env *value.Environment) {
	register(env, "def", biDef)
	register(env, "set", biSet)
	register(env, "set-prop", biSetProp)
	register(env, "try", biTry)
	register(env, "lambda", biLambda)
	register(env, "fun", biFun)
}

// resolveTypeExpr turns a parsed type expression into an actual TypeRef
// Value: reserved primitive names already parse directly as TypeRef
// (self-evaluating), but a user type name parses as a bare Symbol that
// must be looked up in env at declaration time (spec.md §4.4, §4.6).
func resolveTypeExpr(env *value.Environment, expr *value.Value) (*value.Value, *value.Value) {
	switch expr.Tag {
	case value.TagTypeRef:
		return expr, nil
	case value.TagSymbol:
		found, ok := env.Get(expr.Sym.Name)
		if !ok {
			return nil, value.NewError(errors.New(errors.Unbound, expr.Pos, "unbound type %q", expr.Sym.Name))
		}
		if found.Tag != value.TagTypeRef {
			return nil, value.NewError(errors.New(errors.TypeError, expr.Pos, "%q is not a type", expr.Sym.Name))
		}
		return found, nil
	}
	return nil, value.NewError(errors.New(errors.TypeError, expr.Pos, "expected a type name"))
}

func nameAndTypeExpr(decl *value.Value) (string, *value.Value, bool) {
	switch decl.Tag {
	case value.TagSymbol:
		return decl.Sym.Name, nil, true
	case value.TagKVPair:
		return decl.KV.Key.Name, decl.KV.Val, true
	}
	return "", nil, false
}

// biDef requires {name} or {name:Type} as its single-element QExpr
// first argument; its value argument arrives already evaluated, since
// it is an ordinary SExpr child (spec.md §4.3).
func biDef(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "def", args, 2); err != nil {
		return err
	}
	decl := args[0]
	if decl.Tag != value.TagQExpr || len(decl.List) != 1 {
		return typeErr(pos, "def", 0, decl, "a single-element List naming the binding")
	}
	name, typeExpr, ok := nameAndTypeExpr(decl.List[0])
	if !ok {
		return typeErr(pos, "def", 0, decl.List[0], "a Symbol or name:Type pair")
	}
	val := args[1]
	var typ *value.Value
	if typeExpr != nil {
		t, errv := resolveTypeExpr(env, typeExpr)
		if errv != nil {
			return errv
		}
		typ = t
		cast, ok := value.MatchType(val, typ)
		if !ok {
			return value.NewError(errors.New(errors.TypeError, pos, "def %s: value does not match declared type", name))
		}
		val = cast
		if !env.DefTyped(name, val, typ) {
			return value.NewError(errors.New(errors.AlreadyDeclared, pos, "%q is already declared", name))
		}
		return val
	}
	if !env.Def(name, val) {
		return value.NewError(errors.New(errors.AlreadyDeclared, pos, "%q is already declared", name))
	}
	return val
}

func biSet(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "set", args, 2); err != nil {
		return err
	}
	decl := args[0]
	if decl.Tag != value.TagQExpr || len(decl.List) != 1 || decl.List[0].Tag != value.TagSymbol {
		return typeErr(pos, "set", 0, decl, "a single-element List naming the binding")
	}
	name := decl.List[0].Sym.Name
	val, result := env.Set(name, args[1])
	switch result {
	case value.SetUnbound:
		return value.NewError(errors.New(errors.Unbound, pos, "set: %q is not bound", name))
	case value.SetTypeMismatch:
		return value.NewError(errors.New(errors.TypeError, pos, "set %s: value does not match declared type", name))
	}
	return val
}

// biSetProp resolves obj by name and installs prop unconditionally on a
// Dict, or on a RecordInstance only if prop is one of its declared
// properties (spec.md §4.5).
func biSetProp(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "set-prop", args, 2); err != nil {
		return err
	}
	decl := args[0]
	if decl.Tag != value.TagQExpr || len(decl.List) != 2 {
		return typeErr(pos, "set-prop", 0, decl, "a {obj prop} List")
	}
	objSym, propSym := decl.List[0], decl.List[1]
	if objSym.Tag != value.TagSymbol || propSym.Tag != value.TagSymbol {
		return typeErr(pos, "set-prop", 0, decl, "two Symbols: {obj prop}")
	}
	obj, ok := env.Get(objSym.Sym.Name)
	if !ok {
		return value.NewError(errors.New(errors.Unbound, pos, "set-prop: %q is not bound", objSym.Sym.Name))
	}
	val := args[1]
	prop := propSym.Sym.Name
	switch obj.Tag {
	case value.TagDict:
		obj.Dict.Insert(value.HashName(prop), prop, val)
		return val
	case value.TagRecordInstance:
		if !obj.Rec.Props.Has(value.HashName(prop), prop) {
			return value.NewError(errors.New(errors.UnknownProperty, pos, "%s has no property %q", obj.Rec.Type.Name.Name, prop))
		}
		obj.Rec.Props.Insert(value.HashName(prop), prop, val)
		return val
	}
	return typeErr(pos, "set-prop", 0, obj, "a Dictionary or CustomTypeInstance")
}

// biTry evaluates its expr block manually rather than relying on the
// SExpr argument-evaluation loop, since that loop would propagate an
// uncaught error before try ever got a chance to catch it; both blocks
// arrive as QExpr (self-evaluating) for exactly this reason (spec.md
// §4.5, §9).
func biTry(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "try", args, 2); err != nil {
		return err
	}
	block, catchForm := args[0], args[1]
	if block.Tag != value.TagQExpr || len(block.List) != 1 {
		return typeErr(pos, "try", 0, block, "a single-expression List")
	}
	if catchForm.Tag != value.TagQExpr || len(catchForm.List) != 3 {
		return typeErr(pos, "try", 1, catchForm, "a {catch e {body}} form")
	}
	if catchForm.List[0].Tag != value.TagSymbol || catchForm.List[0].Sym.Name != "catch" {
		return typeErr(pos, "try", 1, catchForm, "a form starting with 'catch'")
	}
	if catchForm.List[1].Tag != value.TagSymbol {
		return typeErr(pos, "try", 1, catchForm.List[1], "a Symbol to bind the caught error to")
	}
	body := catchForm.List[2]
	if body.Tag != value.TagQExpr {
		return typeErr(pos, "try", 1, body, "a {..} block")
	}

	result := env.Eval(block.List[0])
	if !result.IsUncaughtError() {
		return result
	}

	caught := value.NewError(result.Err.Catch())
	catchEnv := env.Child()
	catchEnv.DefOrSet(catchForm.List[1].Sym.Name, caught)
	return evalAsSExpr(catchEnv, body)
}

// evalAsSExpr reinterprets a QExpr's children as a single SExpr call,
// the same reinterpretation builtin_eval performs on a QExpr argument in
// original_source's benzl-builtin-eval.c and the way a lambda body is
// evaluated in eval.go's applyLambda.
func evalAsSExpr(env *value.Environment, body *value.Value) *value.Value {
	wrapped := value.NewSExpr(body.List)
	wrapped.Pos = body.Pos
	return env.Eval(wrapped)
}

func biLambda(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "lambda", args, 2); err != nil {
		return err
	}
	params, body := args[0], args[1]
	if params.Tag != value.TagQExpr {
		return typeErr(pos, "lambda", 0, params, "a parameter List")
	}
	if body.Tag != value.TagQExpr {
		return typeErr(pos, "lambda", 1, body, "a {..} block")
	}
	fn, errv := buildLambda(env, params.List, body, pos, "")
	if errv != nil {
		return errv
	}
	return fn
}

// biFun is sugar for defining a named function in one step: its first
// argument is {name param...} rather than a bare parameter list.
func biFun(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "fun", args, 2); err != nil {
		return err
	}
	decl, body := args[0], args[1]
	if decl.Tag != value.TagQExpr || len(decl.List) < 1 || decl.List[0].Tag != value.TagSymbol {
		return typeErr(pos, "fun", 0, decl, "a {name param...} List")
	}
	if body.Tag != value.TagQExpr {
		return typeErr(pos, "fun", 1, body, "a {..} block")
	}
	name := decl.List[0].Sym.Name
	fn, errv := buildLambda(env, decl.List[1:], body, pos, name)
	if errv != nil {
		return errv
	}
	if !env.Def(name, fn) {
		return value.NewError(errors.New(errors.AlreadyDeclared, pos, "%q is already declared", name))
	}
	return fn
}

func buildLambda(env *value.Environment, params []*value.Value, body *value.Value, pos errors.Position, name string) (*value.Value, *value.Value) {
	resolved := make([]*value.Value, len(params))
	for i, p := range params {
		if p.Tag == value.TagSymbol && p.Sym.Name == "&" {
			resolved[i] = p
			continue
		}
		pname, typeExpr, ok := nameAndTypeExpr(p)
		if !ok {
			return nil, typeErr(pos, "lambda", i, p, "a parameter Symbol or name:Type pair")
		}
		if typeExpr == nil {
			resolved[i] = p
			continue
		}
		typ, errv := resolveTypeExpr(env, typeExpr)
		if errv != nil {
			return nil, errv
		}
		kv := value.NewKVPair(&value.KVPair{Key: value.NewSymbol(pname), Val: typ})
		kv.Pos = p.Pos
		resolved[i] = kv
	}
	fn := value.NewFunction(&value.Function{
		Name:   name,
		Params: resolved,
		Body:   body,
		Env:    env,
	})
	fn.Pos = pos
	return fn, nil
}
