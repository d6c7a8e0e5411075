package builtin

import (
	"fmt"
	"strings"

	"benzl/internal/errors"
	"benzl/internal/value"
)

func registerFormat(env *value.Environment) {
	register(env, "format", biFormat)
	register(env, "print", biPrint)
	register(env, "printf", biPrintf)
}

// biFormat walks fmt, substituting each unescaped '%' with the next
// argument's to-string form; '\%' is a literal '%' (spec.md §4.6).
func biFormat(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if len(args) < 1 {
		return arityErr(pos, "format", "at least 1", len(args))
	}
	f := args[0]
	if f.Tag != value.TagString {
		return typeErr(pos, "format", 0, f, "a String")
	}
	rest := args[1:]
	var sb strings.Builder
	argi := 0
	s := f.Str
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		if c == '%' {
			if argi < len(rest) {
				sb.WriteString(value.ToString(rest[argi]))
				argi++
			} else {
				sb.WriteByte('%')
			}
			continue
		}
		sb.WriteByte(c)
	}
	return withPos(value.NewString(sb.String()), pos)
}

func biPrint(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Print(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return withPos(value.NewSExpr(nil), pos)
}

func biPrintf(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	formatted := biFormat(env, args, pos)
	if formatted.IsUncaughtError() {
		return formatted
	}
	fmt.Println(formatted.Str)
	return withPos(value.NewSExpr(nil), pos)
}
