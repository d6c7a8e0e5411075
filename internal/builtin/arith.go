package builtin

import (
	"benzl/internal/errors"
	"benzl/internal/value"
)

func registerArith(env *value.Environment) {
	register(env, "+", biAdd)
	register(env, "-", biArith("-", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	register(env, "*", biArith("*", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	register(env, "/", biDivide)
	register(env, "%", biModulo)
	register(env, ">>", biShift(">>", func(a, b int64) int64 { return a >> uint(b) }))
	register(env, "<<", biShift("<<", func(a, b int64) int64 { return a << uint(b) }))
	register(env, "&", biBitwise("&", func(a, b int64) int64 { return a & b }))
	register(env, "|", biBitwise("|", func(a, b int64) int64 { return a | b }))
	register(env, "^", biBitwise("^", func(a, b int64) int64 { return a ^ b }))
	register(env, "min", biMinMax("min", true))
	register(env, "max", biMinMax("max", false))
	register(env, "floor", biRound("floor", func(f float64) int64 {
		i := int64(f)
		if float64(i) != f && f < 0 {
			i--
		}
		return i
	}))
	register(env, "ceil", biRound("ceil", func(f float64) int64 {
		i := int64(f)
		if float64(i) != f && f > 0 {
			i++
		}
		return i
	}))
}

// biAdd delegates to join whenever any argument is non-numeric
// (spec.md §4.6, "+ on non-numeric arguments is defined as join").
func biAdd(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	allNumeric := true
	for _, a := range args {
		if !value.IsNumeric(a) {
			allNumeric = false
			break
		}
	}
	if !allNumeric {
		return Join(env, args, pos)
	}
	return arithReduce("+", args, pos, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func biArith(name string, iop func(a, b int64) int64, fop func(a, b float64) float64) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return arithReduce(name, args, pos, iop, fop)
	}
}

func arithReduce(name string, args []*value.Value, pos errors.Position, iop func(a, b int64) int64, fop func(a, b float64) float64) *value.Value {
	if len(args) < 2 {
		return arityErr(pos, name, "at least 2", len(args))
	}
	for i, a := range args {
		if err := requireNumeric(pos, name, i, a); err != nil {
			return err
		}
	}
	acc := args[0]
	for _, next := range args[1:] {
		tag := value.HighestRank(acc, next)
		if tag == value.TagFloat {
			acc = value.NewFloat(fop(value.AsFloat(acc), value.AsFloat(next)))
		} else {
			acc = value.Upgrade(value.NewInt(iop(value.AsInt(acc), value.AsInt(next))), tag)
		}
	}
	acc.Pos = pos
	return acc
}

func biDivide(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if len(args) < 2 {
		return arityErr(pos, "/", "at least 2", len(args))
	}
	for i, a := range args {
		if err := requireNumeric(pos, "/", i, a); err != nil {
			return err
		}
	}
	acc := args[0]
	for _, next := range args[1:] {
		tag := value.HighestRank(acc, next)
		if value.AsFloat(next) == 0 {
			return value.NewError(errors.New(errors.DivisionByZero, pos, "/: division by zero"))
		}
		if tag == value.TagFloat {
			acc = value.NewFloat(value.AsFloat(acc) / value.AsFloat(next))
		} else {
			acc = value.Upgrade(value.NewInt(value.AsInt(acc)/value.AsInt(next)), tag)
		}
	}
	acc.Pos = pos
	return acc
}

func biModulo(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "%", args, 2); err != nil {
		return err
	}
	a, b := args[0], args[1]
	if err := requireNumeric(pos, "%", 0, a); err != nil {
		return err
	}
	if err := requireNumeric(pos, "%", 1, b); err != nil {
		return err
	}
	tag := value.HighestRank(a, b)
	if tag == value.TagFloat {
		fa, fb := value.AsFloat(a), value.AsFloat(b)
		if fb == 0 {
			return value.NewError(errors.New(errors.DivisionByZero, pos, "%%: division by zero"))
		}
		return withPos(value.NewFloat(modf(fa, fb)), pos)
	}
	ib := value.AsInt(b)
	if ib == 0 {
		return value.NewError(errors.New(errors.DivisionByZero, pos, "%%: division by zero"))
	}
	return withPos(value.Upgrade(value.NewInt(value.AsInt(a)%ib), tag), pos)
}

func modf(a, b float64) float64 {
	q := float64(int64(a / b))
	return a - q*b
}

func biShift(name string, op func(a, b int64) int64) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return intOnlyBinary(name, args, pos, op)
	}
}

func biBitwise(name string, op func(a, b int64) int64) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return intOnlyBinary(name, args, pos, op)
	}
}

func intOnlyBinary(name string, args []*value.Value, pos errors.Position, op func(a, b int64) int64) *value.Value {
	if err := requireExact(pos, name, args, 2); err != nil {
		return err
	}
	a, b := args[0], args[1]
	if a.Tag != value.TagByte && a.Tag != value.TagInt {
		return typeErr(pos, name, 0, a, "Byte or Integer")
	}
	if b.Tag != value.TagByte && b.Tag != value.TagInt {
		return typeErr(pos, name, 1, b, "Byte or Integer")
	}
	tag := value.HighestRank(a, b)
	return withPos(value.Upgrade(value.NewInt(op(value.AsInt(a), value.AsInt(b))), tag), pos)
}

func biMinMax(name string, wantMin bool) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		items := args
		if len(items) == 1 && items[0].Tag == value.TagQExpr {
			items = items[0].List
		}
		if len(items) == 0 {
			return arityErr(pos, name, "at least 1", 0)
		}
		for i, a := range items {
			if err := requireNumeric(pos, name, i, a); err != nil {
				return err
			}
		}
		best := items[0]
		for _, next := range items[1:] {
			nf, bf := value.AsFloat(next), value.AsFloat(best)
			if (wantMin && nf < bf) || (!wantMin && nf > bf) {
				best = next
			}
		}
		return withPos(best, pos)
	}
}

func biRound(name string, conv func(float64) int64) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, name, args, 1); err != nil {
			return err
		}
		v := args[0]
		switch v.Tag {
		case value.TagByte, value.TagInt:
			return withPos(v, pos)
		case value.TagFloat:
			return withPos(value.NewInt(conv(v.F)), pos)
		}
		return typeErr(pos, name, 0, v, "a number")
	}
}

func withPos(v *value.Value, pos errors.Position) *value.Value {
	v.Pos = pos
	return v
}
