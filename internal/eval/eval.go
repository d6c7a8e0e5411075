// Package eval implements benzl's tree-walking evaluator (spec.md
// §4.5): recursive evaluation of S-expressions, head dispatch on the
// evaluated first element, closure construction/application with
// typed-parameter binding, and variadic argument packing.
package eval

import (
	"benzl/internal/callstack"
	"benzl/internal/errors"
	"benzl/internal/symtable"
	"benzl/internal/value"
)

// Evaluator owns the single call stack used for error traces
// (spec.md §9: threaded explicitly, never a process global) and
// installs itself as the Eval/Apply callbacks every Environment in
// its chain shares.
type Evaluator struct {
	stack *callstack.Stack
}

func New() *Evaluator {
	return &Evaluator{stack: callstack.New()}
}

// NewRootEnv builds a root Environment wired to this Evaluator.
func (ev *Evaluator) NewRootEnv() *value.Environment {
	env := value.NewRootEnvironment()
	env.Shared().Eval = ev.Eval
	env.Shared().Apply = ev.Apply
	return env
}

func (ev *Evaluator) Stack() *callstack.Stack { return ev.stack }

// Eval is the EvalFunc installed on every Environment's Shared state.
func (ev *Evaluator) Eval(env *value.Environment, v *value.Value) *value.Value {
	if v == nil {
		return value.NewSExpr(nil)
	}
	switch v.Tag {
	case value.TagSymbol:
		found, ok := env.Get(v.Sym.Name)
		if !ok {
			return value.NewError(errors.New(errors.Unbound, v.Pos, "unbound symbol %q", v.Sym.Name))
		}
		return found
	case value.TagSExpr:
		return ev.evalSExpr(env, v)
	case value.TagKVPair:
		val := ev.Eval(env, v.KV.Val)
		if val.IsUncaughtError() {
			return val
		}
		out := value.NewKVPair(&value.KVPair{Key: v.KV.Key, Val: val})
		out.Pos = v.Pos
		return out
	default:
		// QExpr and every scalar tag is self-evaluating.
		return v
	}
}

func (ev *Evaluator) Apply(env *value.Environment, fn *value.Value, args []*value.Value) *value.Value {
	return ev.apply(env, fn, args, fn.Pos)
}

// evalSExpr evaluates the head first, then the remaining children — in a
// scope borrowed from the head's own property table when the head is a
// RecordInstance or Dict, so a bare symbol like `x` in `(p x)` resolves
// against `p`'s properties rather than the outer environment. This
// evaluation order (not "evaluate every child, then dispatch") is what
// makes property lookup work at all: original_source/src/benzl-lval-eval.c's
// lval_eval_sexpr swaps its environment in immediately after evaluating
// child 0, before evaluating any further child (spec.md §4.5).
func (ev *Evaluator) evalSExpr(env *value.Environment, v *value.Value) *value.Value {
	if len(v.List) == 0 {
		return value.NewSExpr(nil)
	}
	ev.stack.Push(value.ToString(v), v.Pos)
	defer ev.stack.Pop()

	head := ev.Eval(env, v.List[0])
	if head.IsUncaughtError() {
		return ev.attachTrace(head)
	}

	// No further elements: the lone evaluated value is the result,
	// unless it is a Function, which must still be called with zero
	// arguments (spec.md §4.5 rule 4).
	if len(v.List) == 1 && head.Tag != value.TagFunction {
		return head
	}

	workEnv := env
	switch head.Tag {
	case value.TagRecordInstance:
		workEnv = value.ChildWithScope(env, head.Rec.Props)
	case value.TagDict:
		workEnv = value.ChildWithScope(env, head.Dict)
	}

	rest := make([]*value.Value, len(v.List)-1)
	for i, child := range v.List[1:] {
		r := ev.Eval(workEnv, child)
		if r.IsUncaughtError() {
			return ev.attachTrace(r)
		}
		rest[i] = r
	}

	switch {
	case head.Tag == value.TagRecordInstance, head.Tag == value.TagDict:
		remaining := value.NewSExpr(rest)
		remaining.Pos = v.Pos
		return ev.Eval(env, remaining)
	case head.Tag == value.TagTypeRef && !head.Type.Primitive:
		return ev.attachTrace(ev.constructRecord(head, rest, v.Pos))
	case head.Tag == value.TagFunction:
		return ev.attachTrace(ev.apply(env, head, rest, v.Pos))
	default:
		return ev.attachTrace(value.NewError(errors.New(errors.TypeError, v.Pos, "head is not callable: a %s", head.Tag)))
	}
}

// attachTrace snapshots the current call stack onto v's Error the first
// time it is seen propagating uncaught, so the §7 multi-line
// "at <expr> <file>:<row>:<col>" trace reflects the chain of enclosing
// calls active when the error was raised rather than staying empty.
func (ev *Evaluator) attachTrace(v *value.Value) *value.Value {
	if v.IsUncaughtError() && len(v.Err.Trace) == 0 {
		for _, f := range ev.stack.Frames() {
			v.Err.Push(f.Expr, f.Pos)
		}
	}
	return v
}

func (ev *Evaluator) constructRecord(head *value.Value, args []*value.Value, pos errors.Position) *value.Value {
	t := head.Type
	declared := make(map[string]*value.Value, len(t.Props)) // name -> declared type Value or nil
	order := make([]string, 0, len(t.Props))
	for _, p := range t.Props {
		switch p.Tag {
		case value.TagSymbol:
			declared[p.Sym.Name] = nil
			order = append(order, p.Sym.Name)
		case value.TagKVPair:
			declared[p.KV.Key.Name] = p.KV.Val
			order = append(order, p.KV.Key.Name)
		}
	}

	props := symtable.New[*value.Value]()
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		if a.Tag != value.TagKVPair {
			return value.NewError(errors.New(errors.TypeError, pos, "record constructor arguments must be name:value pairs"))
		}
		name := a.KV.Key.Name
		typ, ok := declared[name]
		if !ok {
			return value.NewError(errors.New(errors.UnknownProperty, pos, "%s has no property %q", t.Name.Name, name))
		}
		val := a.KV.Val
		if typ != nil {
			cast, ok := value.MatchType(val, typ)
			if !ok {
				return value.NewError(errors.New(errors.TypeError, pos, "property %q of %s: value does not match declared type", name, t.Name.Name))
			}
			val = cast
		}
		props.Insert(value.HashName(name), name, val)
		seen[name] = true
	}
	for _, name := range order {
		if !seen[name] {
			return value.NewError(errors.New(errors.MissingProperty, pos, "%s missing required property %q", t.Name.Name, name))
		}
	}

	rec := value.NewRecordInstance(&value.RecordInstance{Type: head.Type, Props: props})
	rec.Pos = pos
	return rec
}

const variadicMarker = "&"

func (ev *Evaluator) apply(env *value.Environment, fn *value.Value, args []*value.Value, pos errors.Position) *value.Value {
	f := fn.Fn
	if f.Builtin != nil {
		env.Tick(f.Name)
		return f.Builtin(env, args, pos)
	}
	return ev.applyLambda(f, args, pos)
}

func (ev *Evaluator) applyLambda(f *value.Function, args []*value.Value, pos errors.Position) *value.Value {
	params := f.Params
	variadicAt := -1
	for i, p := range params {
		if p.Tag == value.TagSymbol && p.Sym.Name == variadicMarker {
			variadicAt = i
			break
		}
	}
	if variadicAt != -1 && variadicAt != len(params)-2 {
		return value.NewError(errors.New(errors.SyntaxError, pos, "'&' must be the second-to-last parameter"))
	}

	callEnv := f.Env.Child()
	argIdx := 0
	for pi := 0; pi < len(params); pi++ {
		p := params[pi]
		if p.Tag == value.TagSymbol && p.Sym.Name == variadicMarker {
			continue
		}
		if variadicAt != -1 && pi == variadicAt+1 {
			name, _ := paramNameAndType(p)
			rest := append([]*value.Value(nil), args[argIdx:]...)
			callEnv.DefOrSet(name, value.NewQExpr(rest))
			argIdx = len(args)
			continue
		}
		if argIdx >= len(args) {
			return value.NewError(errors.New(errors.ArityError, pos, "too few arguments: expected %d, got %d", requiredCount(params), len(args)))
		}
		arg := args[argIdx]
		argIdx++
		name, typ := paramNameAndType(p)
		if typ != nil {
			cast, ok := value.MatchType(arg, typ)
			if !ok {
				return value.NewError(errors.New(errors.TypeError, pos, "parameter %q: value does not match declared type", name))
			}
			arg = cast
		}
		callEnv.DefOrSet(name, arg)
	}
	if argIdx != len(args) {
		return value.NewError(errors.New(errors.ArityError, pos, "too many arguments: expected %d, got %d", requiredCount(params), len(args)))
	}

	return ev.evalAsSExpr(callEnv, f.Body)
}

// evalAsSExpr reinterprets a QExpr's children as a single SExpr call and
// evaluates that, the same reinterpretation builtin_eval performs on a
// QExpr argument (original_source/src/benzl-builtin-eval.c): a lambda or
// try/catch body is one expression, e.g. `{+ x 1}` calls `+` with `x`
// and `1`, not three independent top-level forms.
func (ev *Evaluator) evalAsSExpr(env *value.Environment, body *value.Value) *value.Value {
	wrapped := value.NewSExpr(body.List)
	wrapped.Pos = body.Pos
	return ev.Eval(env, wrapped)
}

func paramNameAndType(p *value.Value) (string, *value.Value) {
	if p.Tag == value.TagKVPair {
		return p.KV.Key.Name, p.KV.Val
	}
	return p.Sym.Name, nil
}

func requiredCount(params []*value.Value) int {
	n := 0
	for _, p := range params {
		if p.Tag == value.TagSymbol && p.Sym.Name == variadicMarker {
			continue
		}
		n++
	}
	return n
}
