package builtin

import (
	"fmt"

	"benzl/internal/database"
	"benzl/internal/errors"
	"benzl/internal/symtable"
	"benzl/internal/value"
)

// registerDB wires the db-* family to a single Manager shared by every
// call the running program makes, closing over mgr rather than
// threading it through Shared (spec.md's domain-stack supplement: the
// language itself has no notion of a SQL connection, so the handle
// table lives entirely in the builtin layer).
func registerDB(env *value.Environment, mgr *database.Manager) {
	register(env, "db-open", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biDBOpen(mgr, args, pos)
	})
	register(env, "db-query", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biDBQuery(mgr, args, pos)
	})
	register(env, "db-exec", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biDBExec(mgr, args, pos)
	})
	register(env, "db-close", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biDBClose(mgr, args, pos)
	})
}

func biDBOpen(mgr *database.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "db-open", args, 2); err != nil {
		return err
	}
	if args[0].Tag != value.TagString || args[1].Tag != value.TagString {
		return typeErr(pos, "db-open", 0, args[0], "two Strings: driver and DSN")
	}
	id, err := mgr.Open(args[0].Str, args[1].Str)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "db-open"))
	}
	return withPos(value.NewString(id), pos)
}

func sqlArgs(vals []*value.Value) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		switch v.Tag {
		case value.TagInt:
			out[i] = v.I
		case value.TagFloat:
			out[i] = v.F
		case value.TagByte:
			out[i] = int64(v.B)
		case value.TagString:
			out[i] = v.Str
		default:
			out[i] = value.ToString(v)
		}
	}
	return out
}

func rowToDict(row map[string]interface{}) *value.Value {
	table := symtable.New[*value.Value]()
	for k, v := range row {
		table.Insert(value.HashName(k), k, goToValue(v))
	}
	return value.NewDict(table)
}

func goToValue(v interface{}) *value.Value {
	switch t := v.(type) {
	case nil:
		return value.NewSExpr(nil)
	case int64:
		return value.NewInt(t)
	case float64:
		return value.NewFloat(t)
	case bool:
		if t {
			return value.NewInt(1)
		}
		return value.NewInt(0)
	case string:
		return value.NewString(t)
	case []byte:
		return value.NewBuffer(t)
	case fmt.Stringer:
		return value.NewString(t.String())
	default:
		return value.NewString(fmt.Sprint(t))
	}
}

func biDBQuery(mgr *database.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if len(args) < 2 {
		return value.NewError(errors.New(errors.ArityError, pos, "db-query: expected at least 2 arguments, got %d", len(args)))
	}
	if args[0].Tag != value.TagString || args[1].Tag != value.TagString {
		return typeErr(pos, "db-query", 0, args[0], "a connection id and a query String")
	}
	rows, err := mgr.Query(args[0].Str, args[1].Str, sqlArgs(args[2:])...)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "db-query"))
	}
	out := make([]*value.Value, len(rows))
	for i, r := range rows {
		out[i] = rowToDict(r)
	}
	return withPos(value.NewQExpr(out), pos)
}

func biDBExec(mgr *database.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if len(args) < 2 {
		return value.NewError(errors.New(errors.ArityError, pos, "db-exec: expected at least 2 arguments, got %d", len(args)))
	}
	if args[0].Tag != value.TagString || args[1].Tag != value.TagString {
		return typeErr(pos, "db-exec", 0, args[0], "a connection id and a query String")
	}
	affected, err := mgr.Exec(args[0].Str, args[1].Str, sqlArgs(args[2:])...)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "db-exec"))
	}
	return withPos(value.NewInt(affected), pos)
}

func biDBClose(mgr *database.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "db-close", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "db-close", 0, args[0], "a connection id")
	}
	if err := mgr.Close(args[0].Str); err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "db-close"))
	}
	return withPos(value.NewSExpr(nil), pos)
}
