package builtin

import (
	"strings"

	"benzl/internal/errors"
	"benzl/internal/value"
)

func registerCompare(env *value.Environment) {
	register(env, "<", cmpOp("<", func(c int) bool { return c < 0 }))
	register(env, ">", cmpOp(">", func(c int) bool { return c > 0 }))
	register(env, "<=", cmpOp("<=", func(c int) bool { return c <= 0 }))
	register(env, ">=", cmpOp(">=", func(c int) bool { return c >= 0 }))
	register(env, "==", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, "==", args, 2); err != nil {
			return err
		}
		return boolInt(value.Equal(args[0], args[1]), pos)
	})
	register(env, "!=", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, "!=", args, 2); err != nil {
			return err
		}
		return boolInt(!value.Equal(args[0], args[1]), pos)
	})
}

func boolInt(b bool, pos errors.Position) *value.Value {
	if b {
		return withPos(value.NewInt(1), pos)
	}
	return withPos(value.NewInt(0), pos)
}

// cmpOp compares numerically by the coercion lattice or, for strings,
// by byte order (spec.md §4.6).
func cmpOp(name string, test func(c int) bool) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, name, args, 2); err != nil {
			return err
		}
		a, b := args[0], args[1]
		if value.IsNumeric(a) && value.IsNumeric(b) {
			fa, fb := value.AsFloat(a), value.AsFloat(b)
			c := 0
			switch {
			case fa < fb:
				c = -1
			case fa > fb:
				c = 1
			}
			return boolInt(test(c), pos)
		}
		if a.Tag == value.TagString && b.Tag == value.TagString {
			return boolInt(test(strings.Compare(a.Str, b.Str)), pos)
		}
		return typeErr(pos, name, 0, a, "two numbers or two Strings")
	}
}
