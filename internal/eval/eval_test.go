package eval

import (
	"testing"

	"benzl/internal/errors"
	"benzl/internal/parser"
	"benzl/internal/value"
)

func run(t *testing.T, src string) *value.Value {
	t.Helper()
	root, perr := parser.Parse(src, "<test>")
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	ev := New()
	env := ev.NewRootEnv()
	var last *value.Value = value.NewSExpr(nil)
	for _, form := range root.List {
		last = ev.Eval(env, form)
		if last.IsUncaughtError() {
			t.Fatalf("eval %q: %v", src, last.Err)
		}
	}
	return last
}

func TestSelfEvaluating(t *testing.T) {
	v := run(t, "42")
	if v.Tag != value.TagInt || v.I != 42 {
		t.Errorf("got %+v", v)
	}
}

func TestSingleElementSExprReturnsItsValue(t *testing.T) {
	v := run(t, "(42)")
	if v.Tag != value.TagInt || v.I != 42 {
		t.Errorf("got %+v", v)
	}
}

func TestHeadNotCallable(t *testing.T) {
	root, _ := parser.Parse("(5 6)", "<test>")
	ev := New()
	env := ev.NewRootEnv()
	got := ev.Eval(env, root.List[0])
	if !got.IsUncaughtError() {
		t.Fatalf("expected TypeError, got %+v", got)
	}
}

func TestUnboundSymbol(t *testing.T) {
	root, _ := parser.Parse("nope", "<test>")
	ev := New()
	env := ev.NewRootEnv()
	got := ev.Eval(env, root.List[0])
	if !got.IsUncaughtError() {
		t.Fatalf("expected Unbound error, got %+v", got)
	}
}

func TestLambdaApplicationAndClosure(t *testing.T) {
	ev := New()
	env := ev.NewRootEnv()
	root, perr := parser.Parse(`(def {x} 1)`, "<test>")
	if perr != nil {
		t.Fatal(perr)
	}
	ev.Eval(env, root.List[0]) // relies on 'def' being registered by the caller in real use;
	// here we exercise the evaluator directly without builtins, so bind manually instead.
	env.Def("x", value.NewInt(1))

	lambdaBody := value.NewSExpr([]*value.Value{value.NewSymbolValue("x")})
	fn := value.NewFunction(&value.Function{
		Params: []*value.Value{value.NewSymbolValue("x")},
		Body:   lambdaBody,
		Env:    env,
	})
	result := ev.Apply(env, fn, []*value.Value{value.NewInt(99)})
	if result.Tag != value.TagInt || result.I != 99 {
		t.Errorf("shadowed parameter should win inside the call, got %+v", result)
	}
	outer, _ := env.Get("x")
	if outer.I != 1 {
		t.Errorf("outer x should be unaffected by the call, got %+v", outer)
	}
}

func TestVariadicPacking(t *testing.T) {
	ev := New()
	env := ev.NewRootEnv()
	body := value.NewSExpr([]*value.Value{value.NewSymbolValue("xs")})
	fn := value.NewFunction(&value.Function{
		Params: []*value.Value{value.NewSymbolValue("&"), value.NewSymbolValue("xs")},
		Body:   body,
		Env:    env,
	})
	result := ev.Apply(env, fn, []*value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	if result.Tag != value.TagQExpr || len(result.List) != 3 {
		t.Fatalf("expected a 3-element QExpr, got %+v", result)
	}
}

func TestDictPropertyLookupUsesBorrowedScope(t *testing.T) {
	root, perr := parser.Parse(`(dict x:1 y:2)`, "<test>")
	if perr != nil {
		t.Fatal(perr)
	}
	ev := New()
	env := ev.NewRootEnv()
	env.Def("dict", value.NewBuiltin("dict", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		out := value.NewDict(nil)
		for _, a := range args {
			out.Dict.Insert(a.KV.Key.Hash, a.KV.Key.Name, a.KV.Val)
		}
		return out
	}))
	d := ev.Eval(env, root.List[0])
	if d.IsUncaughtError() {
		t.Fatalf("dict construction failed: %v", d.Err)
	}
	lookup := value.NewSExpr([]*value.Value{value.NewSymbolValue("d"), value.NewSymbolValue("x")})
	inner := env.Child()
	inner.Def("d", d)
	got := ev.Eval(inner, lookup)
	if got.Tag != value.TagInt || got.I != 1 {
		t.Fatalf("(d x) should read the dict's own x property, got %+v", got)
	}
}

func TestArityError(t *testing.T) {
	ev := New()
	env := ev.NewRootEnv()
	fn := value.NewFunction(&value.Function{
		Params: []*value.Value{value.NewSymbolValue("a"), value.NewSymbolValue("b")},
		Body:   value.NewSymbolValue("a"),
		Env:    env,
	})
	result := ev.Apply(env, fn, []*value.Value{value.NewInt(1)})
	if !result.IsUncaughtError() || result.Err.Kind != "ArityError" {
		t.Fatalf("expected ArityError, got %+v", result)
	}
}
