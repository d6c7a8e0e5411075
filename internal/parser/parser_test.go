package parser

import (
	"testing"

	"benzl/internal/value"
)

func mustParse(t *testing.T, input string) *value.Value {
	t.Helper()
	root, err := Parse(input, "<test>")
	if err != nil {
		t.Fatalf("parse %q: unexpected error: %v", input, err)
	}
	return root
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tag   value.Tag
	}{
		{"decimal int", "42", value.TagInt},
		{"negative int", "-7", value.TagInt},
		{"float", "3.5", value.TagFloat},
		{"hex byte", "0xFF", value.TagByte},
		{"hex int", "0x100", value.TagInt},
		{"string", `"hi"`, value.TagString},
		{"symbol", "foo", value.TagSymbol},
		{"reserved type", "Integer", value.TagTypeRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.input)
			if len(root.List) != 1 {
				t.Fatalf("expected 1 top-level form, got %d", len(root.List))
			}
			if got := root.List[0].Tag; got != tt.tag {
				t.Errorf("got tag %v, want %v", got, tt.tag)
			}
		})
	}
}

func TestHexByteBoundary(t *testing.T) {
	root := mustParse(t, "0xFF 0x100")
	if root.List[0].Tag != value.TagByte || root.List[0].B != 0xFF {
		t.Errorf("0xFF should parse as Byte(255), got %+v", root.List[0])
	}
	if root.List[1].Tag != value.TagInt || root.List[1].I != 256 {
		t.Errorf("0x100 should parse as Int(256), got %+v", root.List[1])
	}
}

func TestNesting(t *testing.T) {
	root := mustParse(t, "(+ 1 2)")
	if len(root.List) != 1 || root.List[0].Tag != value.TagSExpr {
		t.Fatalf("expected single SExpr, got %+v", root.List)
	}
	inner := root.List[0].List
	if len(inner) != 3 || inner[0].Sym.Name != "+" {
		t.Fatalf("unexpected SExpr contents: %+v", inner)
	}
}

func TestQExprLiteral(t *testing.T) {
	root := mustParse(t, "{1 2 3}")
	if root.List[0].Tag != value.TagQExpr {
		t.Fatalf("expected QExpr, got %v", root.List[0].Tag)
	}
	if len(root.List[0].List) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(root.List[0].List))
	}
}

func TestKVPair(t *testing.T) {
	root := mustParse(t, "name:\"bob\"")
	if len(root.List) != 1 {
		t.Fatalf("expected 1 top-level form, got %d", len(root.List))
	}
	kv := root.List[0]
	if kv.Tag != value.TagKVPair {
		t.Fatalf("expected KVPair, got %v", kv.Tag)
	}
	if kv.KV.Key.Name != "name" {
		t.Errorf("got key %q, want %q", kv.KV.Key.Name, "name")
	}
	if kv.KV.Val.Tag != value.TagString || kv.KV.Val.Str != "bob" {
		t.Errorf("unexpected value %+v", kv.KV.Val)
	}
}

func TestKVPairLeavesSiblingsInPlace(t *testing.T) {
	root := mustParse(t, "(dict a:1 b:2)")
	inner := root.List[0].List
	if len(inner) != 3 {
		t.Fatalf("expected head + 2 kv pairs, got %d: %+v", len(inner), inner)
	}
	if inner[1].Tag != value.TagKVPair || inner[1].KV.Key.Name != "a" {
		t.Errorf("first kv pair wrong: %+v", inner[1])
	}
	if inner[2].Tag != value.TagKVPair || inner[2].KV.Key.Name != "b" {
		t.Errorf("second kv pair wrong: %+v", inner[2])
	}
}

func TestComment(t *testing.T) {
	root := mustParse(t, "1 ; this is ignored\n2")
	if len(root.List) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(root.List))
	}
}

func TestShebangSkipped(t *testing.T) {
	root := mustParse(t, "#!/usr/bin/env benzl\n1")
	if len(root.List) != 1 || root.List[0].Tag != value.TagInt {
		t.Fatalf("unexpected parse of shebang source: %+v", root.List)
	}
}

func TestStringEscapes(t *testing.T) {
	root := mustParse(t, `"a\nb\tc\\d\"e"`)
	want := "a\nb\tc\\d\"e"
	if got := root.List[0].Str; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSingleQuoteStrings(t *testing.T) {
	root := mustParse(t, `'hello'`)
	if root.List[0].Tag != value.TagString || root.List[0].Str != "hello" {
		t.Fatalf("unexpected: %+v", root.List[0])
	}
}

func TestErrorCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"unterminated paren", "(+ 1 2"},
		{"unterminated brace", "{1 2"},
		{"unknown byte", "@"},
		{"colon with no preceding symbol", "(1 :2)"},
		{"colon at end", "k:"},
		{"unexpected close paren", ")"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "<test>")
			if err == nil {
				t.Errorf("expected a SyntaxError, got none")
			}
		})
	}
}

func TestPositionTracking(t *testing.T) {
	root := mustParse(t, "1\n2")
	if root.List[0].Pos.Row != 1 {
		t.Errorf("first form should be on row 1, got %d", root.List[0].Pos.Row)
	}
	if root.List[1].Pos.Row != 2 {
		t.Errorf("second form should be on row 2, got %d", root.List[1].Pos.Row)
	}
}
