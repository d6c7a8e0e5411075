package builtin

import (
	"time"

	"benzl/internal/errors"
	"benzl/internal/value"
	"benzl/internal/wsconn"
)

const defaultRecvTimeout = 5 * time.Second

// registerNet wires the ws-* family to a single wsconn.Manager shared
// by the running program, the same closure-over-a-manager shape as
// registerDB (spec.md's domain-stack supplement).
func registerNet(env *value.Environment, mgr *wsconn.Manager) {
	register(env, "ws-connect", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biWSConnect(mgr, args, pos)
	})
	register(env, "ws-send", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biWSSend(mgr, args, pos)
	})
	register(env, "ws-recv", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biWSRecv(mgr, args, pos)
	})
	register(env, "ws-close", func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		return biWSClose(mgr, args, pos)
	})
}

func biWSConnect(mgr *wsconn.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "ws-connect", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "ws-connect", 0, args[0], "a String URL")
	}
	id, err := mgr.Connect(args[0].Str)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "ws-connect"))
	}
	return withPos(value.NewString(id), pos)
}

func biWSSend(mgr *wsconn.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "ws-send", args, 2); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "ws-send", 0, args[0], "a connection id")
	}
	var data []byte
	binary := false
	switch args[1].Tag {
	case value.TagString:
		data = []byte(args[1].Str)
	case value.TagBuffer:
		data = args[1].Buf
		binary = true
	default:
		return typeErr(pos, "ws-send", 1, args[1], "a String or Buffer")
	}
	if err := mgr.Send(args[0].Str, data, binary); err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "ws-send"))
	}
	return withPos(value.NewSExpr(nil), pos)
}

func biWSRecv(mgr *wsconn.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if len(args) < 1 || len(args) > 2 {
		return value.NewError(errors.New(errors.ArityError, pos, "ws-recv: expected 1 or 2 arguments, got %d", len(args)))
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "ws-recv", 0, args[0], "a connection id")
	}
	timeout := defaultRecvTimeout
	if len(args) == 2 {
		if !value.IsNumeric(args[1]) {
			return typeErr(pos, "ws-recv", 1, args[1], "a millisecond timeout")
		}
		timeout = time.Duration(value.AsInt(args[1])) * time.Millisecond
	}
	msg, ok, err := mgr.Recv(args[0].Str, timeout)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "ws-recv"))
	}
	if !ok {
		return value.NewError(errors.New(errors.IOError, pos, "ws-recv: timed out"))
	}
	return withPos(value.NewBuffer(msg), pos)
}

func biWSClose(mgr *wsconn.Manager, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "ws-close", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "ws-close", 0, args[0], "a connection id")
	}
	if err := mgr.Close(args[0].Str); err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "ws-close"))
	}
	return withPos(value.NewSExpr(nil), pos)
}
