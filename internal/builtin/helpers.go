// Package builtin registers benzl's primitive operations: arithmetic,
// comparison, list/string/buffer sequence ops, joining, buffer field
// I/O, formatting, the type system, dictionaries, file I/O, load, and
// the def/set/try/lambda family that the evaluator treats as ordinary
// Function values rather than special forms (spec.md §4.5, §4.6).
package builtin

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"benzl/internal/errors"
	"benzl/internal/value"
)

func arityErr(pos errors.Position, name string, want string, got int) *value.Value {
	return value.NewError(errors.New(errors.ArityError, pos, "%s: expected %s argument(s), got %d", name, want, got))
}

func typeErr(pos errors.Position, name string, idx int, got *value.Value, want string) *value.Value {
	return value.NewError(errors.New(errors.TypeError, pos, "%s: argument %d is %s, expected %s", name, idx, got.Tag, want))
}

func rangeErr(pos errors.Position, name string, detail string) *value.Value {
	return value.NewError(errors.New(errors.RangeError, pos, "%s: %s", name, detail))
}

// rangeErrAt reports an out-of-bounds index against a sequence's length,
// formatting both with thousands separators so the message stays
// readable against a large buffer or list.
func rangeErrAt(pos errors.Position, name string, idx, length int) *value.Value {
	return rangeErr(pos, name, fmt.Sprintf("index %s out of range for length %s",
		humanize.Comma(int64(idx)), humanize.Comma(int64(length))))
}

func requireNumeric(pos errors.Position, name string, idx int, v *value.Value) *value.Value {
	if !value.IsNumeric(v) {
		return typeErr(pos, name, idx, v, "a number")
	}
	return nil
}

func requireExact(pos errors.Position, name string, args []*value.Value, n int) *value.Value {
	if len(args) != n {
		return arityErr(pos, name, itoa(n), len(args))
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// register is a tiny helper that defines a builtin in env's (presumably
// root) scope and panics on a name collision, which would indicate a
// bug in this package rather than user input.
func register(env *value.Environment, name string, fn value.BuiltinFunc) {
	if !env.Def(name, value.NewBuiltin(name, fn)) {
		panic("builtin: duplicate registration for " + name)
	}
}
