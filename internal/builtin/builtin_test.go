package builtin

import (
	"testing"

	"benzl/internal/eval"
	"benzl/internal/parser"
	"benzl/internal/value"
)

func run(t *testing.T, src string) *value.Value {
	t.Helper()
	root, perr := parser.Parse(src, "<test>")
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	ev := eval.New()
	env := ev.NewRootEnv()
	Register(env)
	last := value.NewSExpr(nil)
	for _, form := range root.List {
		last = ev.Eval(env, form)
		if last.IsUncaughtError() {
			t.Fatalf("eval %q: %v", src, last.Err)
		}
	}
	return last
}

func runErr(t *testing.T, src string) *value.Value {
	t.Helper()
	root, perr := parser.Parse(src, "<test>")
	if perr != nil {
		t.Fatalf("parse %q: %v", src, perr)
	}
	ev := eval.New()
	env := ev.NewRootEnv()
	Register(env)
	var last *value.Value
	for _, form := range root.List {
		last = ev.Eval(env, form)
		if last.IsUncaughtError() {
			return last
		}
	}
	t.Fatalf("expected %q to produce an uncaught error", src)
	return nil
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		tag  value.Tag
		i    int64
		f    float64
		isF  bool
	}{
		{"(+ 1 2 3)", value.TagInt, 6, 0, false},
		{"(+ 1 2.5)", value.TagFloat, 0, 3.5, true},
		{"(- 10 3 2)", value.TagInt, 5, 0, false},
		{"(* 2 3 4)", value.TagInt, 24, 0, false},
		{"(/ 7 2)", value.TagInt, 3, 0, false},
		{"(% 7 2)", value.TagInt, 1, 0, false},
		{"(min 3 1 2)", value.TagInt, 1, 0, false},
		{"(max 3 1 2)", value.TagInt, 3, 0, false},
		{"(floor 2.9)", value.TagInt, 2, 0, false},
		{"(floor -2.5)", value.TagInt, -3, 0, false},
		{"(ceil -2.5)", value.TagInt, -2, 0, false},
	}
	for _, c := range cases {
		v := run(t, c.src)
		if v.Tag != c.tag {
			t.Errorf("%s: got tag %v, want %v", c.src, v.Tag, c.tag)
			continue
		}
		if c.isF {
			if v.F != c.f {
				t.Errorf("%s: got %v, want %v", c.src, v.F, c.f)
			}
		} else if v.I != c.i {
			t.Errorf("%s: got %v, want %v", c.src, v.I, c.i)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	v := runErr(t, "(/ 1 0)")
	if v.Err.Kind != "DivisionByZero" {
		t.Errorf("got %v", v.Err.Kind)
	}
}

func TestJoinDuality(t *testing.T) {
	v := run(t, `(+ {1 2} {3 4})`)
	if v.Tag != value.TagQExpr || len(v.List) != 4 {
		t.Fatalf("got %+v", v)
	}
	v = run(t, `(+ "foo" "bar")`)
	if v.Tag != value.TagString || v.Str != "foobar" {
		t.Fatalf("got %+v", v)
	}
}

func TestCompare(t *testing.T) {
	if run(t, "(< 1 2)").I != 1 {
		t.Error("1 < 2 should be true")
	}
	if run(t, `(== "a" "a")`).I != 1 {
		t.Error("string equality")
	}
	if run(t, "(!= 1 1.0)").I != 0 {
		t.Error("numeric equality across tags")
	}
}

func TestSeqOps(t *testing.T) {
	if v := run(t, "(head {1 2 3})"); v.I != 1 {
		t.Errorf("head: got %+v", v)
	}
	if v := run(t, "(tail {1 2 3})"); len(v.List) != 2 {
		t.Errorf("tail: got %+v", v)
	}
	if v := run(t, "(len {1 2 3})"); v.I != 3 {
		t.Errorf("len: got %+v", v)
	}
	if v := run(t, `(nth {1 2 3} 1)`); v.I != 2 {
		t.Errorf("nth: got %+v", v)
	}
	v := runErr(t, `(nth {1 2 3} 5)`)
	if v.Err.Kind != "RangeError" {
		t.Errorf("expected RangeError, got %v", v.Err.Kind)
	}
}

func TestDefAndSet(t *testing.T) {
	v := run(t, `(def {x} 10) (set {x} 20) x`)
	if v.I != 20 {
		t.Errorf("got %+v", v)
	}
}

func TestTypedDefRejectsMismatch(t *testing.T) {
	v := runErr(t, `(def {x:String} (dict a:1))`)
	if v.Err.Kind != "TypeError" {
		t.Errorf("got %v", v.Err.Kind)
	}
}

func TestLambdaAndFun(t *testing.T) {
	v := run(t, `(def {add1} (lambda {x} {+ x 1})) (add1 41)`)
	if v.I != 42 {
		t.Errorf("got %+v", v)
	}
	v = run(t, `(fun {double x} {* x 2}) (double 21)`)
	if v.I != 42 {
		t.Errorf("got %+v", v)
	}
}

func TestVariadicLambda(t *testing.T) {
	v := run(t, `(fun {count & xs} {len xs}) (count 1 2 3 4)`)
	if v.I != 4 {
		t.Errorf("got %+v", v)
	}
}

func TestTryCatch(t *testing.T) {
	v := run(t, `(try {(/ 1 0)} {catch e {to-string e}})`)
	if v.Tag != value.TagString {
		t.Errorf("got %+v", v)
	}
}

func TestDefType(t *testing.T) {
	v := run(t, `(def-type {Point x:Float y:Float}) (def {p} (Point x:1.0 y:2.0)) (p x)`)
	if v.Tag != value.TagFloat || v.F != 1.0 {
		t.Errorf("got %+v", v)
	}
}

func TestDefTypeMissingProperty(t *testing.T) {
	v := runErr(t, `(def-type {Point x:Float y:Float}) (Point x:1.0)`)
	if v.Err.Kind != "MissingProperty" {
		t.Errorf("got %v", v.Err.Kind)
	}
}

func TestDict(t *testing.T) {
	v := run(t, `(def {d} (dict a:1 b:2)) (d a)`)
	if v.I != 1 {
		t.Errorf("got %+v", v)
	}
}

func TestSetProp(t *testing.T) {
	v := run(t, `(def {d} (dict a:1)) (set-prop {d a} 99) (d a)`)
	if v.I != 99 {
		t.Errorf("got %+v", v)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	v := run(t, `(def {b} (put-signed-integer (create-buffer 8) 0 42)) (get-signed-integer b 0)`)
	if v.I != 42 {
		t.Errorf("got %+v", v)
	}
}

func TestFormat(t *testing.T) {
	v := run(t, `(format "hello % !" "world")`)
	if v.Tag != value.TagString || v.Str != "hello world !" {
		t.Errorf("got %+v", v)
	}
}

func TestToNumber(t *testing.T) {
	if v := run(t, `(to-number "42")`); v.Tag != value.TagInt || v.I != 42 {
		t.Errorf("got %+v", v)
	}
	if v := run(t, `(to-number "3.5")`); v.Tag != value.TagFloat || v.F != 3.5 {
		t.Errorf("got %+v", v)
	}
}

func TestTypeOf(t *testing.T) {
	v := run(t, `(type-of 5)`)
	if v.Tag != value.TagTypeRef || !v.Type.Primitive || v.Type.PrimTag != value.TagInt {
		t.Errorf("got %+v", v)
	}
}

func TestStats(t *testing.T) {
	v := run(t, `(+ 1 1) (stats)`)
	if v.Tag != value.TagDict {
		t.Errorf("got %+v", v)
	}
}

func TestUUIDIsUnique(t *testing.T) {
	a := run(t, `(uuid)`)
	b := run(t, `(uuid)`)
	if a.Str == b.Str {
		t.Errorf("expected distinct uuids, got %q twice", a.Str)
	}
}
