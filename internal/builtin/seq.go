package builtin

import (
	"strings"

	"benzl/internal/errors"
	"benzl/internal/value"
)

func registerSeq(env *value.Environment) {
	register(env, "head", biHead)
	register(env, "tail", biTail)
	register(env, "first", biNth(0))
	register(env, "second", biNth(1))
	register(env, "last", biLast)
	register(env, "nth", biNthArg)
	register(env, "take", biTake)
	register(env, "drop", biDrop)
	register(env, "len", biLen)
	register(env, "join", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return Join(env, args, pos)
	})
}

// seqLen reports the element count of a QExpr/SExpr/String/Buffer, or
// -1 if v is none of those.
func seqLen(v *value.Value) int {
	switch v.Tag {
	case value.TagQExpr, value.TagSExpr:
		return len(v.List)
	case value.TagString:
		return len(v.Str)
	case value.TagBuffer:
		return len(v.Buf)
	}
	return -1
}

func seqSlice(v *value.Value, lo, hi int) *value.Value {
	switch v.Tag {
	case value.TagQExpr:
		return value.NewQExpr(append([]*value.Value(nil), v.List[lo:hi]...))
	case value.TagSExpr:
		return value.NewSExpr(append([]*value.Value(nil), v.List[lo:hi]...))
	case value.TagString:
		return value.NewString(v.Str[lo:hi])
	case value.TagBuffer:
		return value.NewBuffer(append([]byte(nil), v.Buf[lo:hi]...))
	}
	return nil
}

func seqElem(v *value.Value, i int) *value.Value {
	switch v.Tag {
	case value.TagQExpr, value.TagSExpr:
		return v.List[i]
	case value.TagString:
		return value.NewByte(v.Str[i])
	case value.TagBuffer:
		return value.NewByte(v.Buf[i])
	}
	return nil
}

func biHead(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "head", args, 1); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "head", 0, args[0], "a List, String, or Buffer")
	}
	if n == 0 {
		return rangeErr(pos, "head", "empty sequence")
	}
	return withPos(seqElem(args[0], 0), pos)
}

func biLast(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "last", args, 1); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "last", 0, args[0], "a List, String, or Buffer")
	}
	if n == 0 {
		return rangeErr(pos, "last", "empty sequence")
	}
	return withPos(seqElem(args[0], n-1), pos)
}

func biNth(i int) value.BuiltinFunc {
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, "nth", args, 1); err != nil {
			return err
		}
		n := seqLen(args[0])
		if n < 0 {
			return typeErr(pos, "nth", 0, args[0], "a List, String, or Buffer")
		}
		if i >= n {
			return rangeErrAt(pos, "nth", i, n)
		}
		return withPos(seqElem(args[0], i), pos)
	}
}

func biNthArg(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "nth", args, 2); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "nth", 0, args[0], "a List, String, or Buffer")
	}
	if args[1].Tag != value.TagInt && args[1].Tag != value.TagByte {
		return typeErr(pos, "nth", 1, args[1], "an Integer")
	}
	i := int(value.AsInt(args[1]))
	if i < 0 || i >= n {
		return rangeErrAt(pos, "nth", i, n)
	}
	return withPos(seqElem(args[0], i), pos)
}

func biTail(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "tail", args, 1); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "tail", 0, args[0], "a List, String, or Buffer")
	}
	if n == 0 {
		return rangeErr(pos, "tail", "empty sequence")
	}
	return withPos(seqSlice(args[0], 1, n), pos)
}

func biTake(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "take", args, 2); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "take", 0, args[0], "a List, String, or Buffer")
	}
	k := int(value.AsInt(args[1]))
	if k < 0 || k > n {
		return rangeErr(pos, "take", "count out of range")
	}
	return withPos(seqSlice(args[0], 0, k), pos)
}

func biDrop(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "drop", args, 2); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "drop", 0, args[0], "a List, String, or Buffer")
	}
	k := int(value.AsInt(args[1]))
	if k < 0 || k > n {
		return rangeErr(pos, "drop", "count out of range")
	}
	return withPos(seqSlice(args[0], k, n), pos)
}

func biLen(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "len", args, 1); err != nil {
		return err
	}
	n := seqLen(args[0])
	if n < 0 {
		return typeErr(pos, "len", 0, args[0], "a List, String, or Buffer")
	}
	return withPos(value.NewInt(int64(n)), pos)
}

// Join implements the heterogeneous-arguments joining rule (spec.md
// §4.6): Buffer wins over QExpr/SExpr wins over String, scanning
// arguments in order for the first tag that decides the result type.
func Join(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	result := joinKindString
	for _, a := range args {
		switch a.Tag {
		case value.TagBuffer, value.TagByte:
			result = joinKindBuffer
		case value.TagQExpr, value.TagSExpr:
			if result != joinKindBuffer {
				result = joinKindList
			}
		}
		if result == joinKindBuffer {
			break
		}
	}
	switch result {
	case joinKindBuffer:
		var out []byte
		for _, a := range args {
			cast, ok := value.Cast(a, value.TagBuffer)
			if !ok {
				if a.Tag == value.TagByte {
					out = append(out, a.B)
					continue
				}
				return typeErr(pos, "join", 0, a, "something castable to Buffer")
			}
			out = append(out, cast.Buf...)
		}
		return withPos(value.NewBuffer(out), pos)
	case joinKindList:
		var out []*value.Value
		for _, a := range args {
			if a.Tag == value.TagQExpr || a.Tag == value.TagSExpr {
				out = append(out, a.List...)
			} else {
				out = append(out, a)
			}
		}
		return withPos(value.NewQExpr(out), pos)
	default:
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(value.ToString(a))
		}
		return withPos(value.NewString(sb.String()), pos)
	}
}

type joinKind int

const (
	joinKindString joinKind = iota
	joinKindList
	joinKindBuffer
)
