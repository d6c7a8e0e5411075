package builtin

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"

	"benzl/internal/errors"
	"benzl/internal/parser"
	"benzl/internal/value"
)

func registerIO(env *value.Environment) {
	register(env, "read-file", biReadFile)
	register(env, "write-file", biWriteFile)
	register(env, "load", biLoad)
	register(env, "eval-string", biEvalString)
}

func biReadFile(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "read-file", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "read-file", 0, args[0], "a String path")
	}
	data, err := os.ReadFile(args[0].Str)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "read-file"))
	}
	return withPos(value.NewBuffer(data), pos)
}

func biWriteFile(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "write-file", args, 2); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "write-file", 0, args[0], "a String path")
	}
	data, errv := flattenToBytes(args[1])
	if errv != nil {
		return errv
	}
	if err := os.WriteFile(args[0].Str, data, 0o644); err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "write-file"))
	}
	return withPos(value.NewSExpr(nil), pos)
}

// flattenToBytes lays a Value out the way write-file does: Int/Byte by
// native little-endian layout, Float as its raw IEEE-754 double bits,
// Buffers/Strings by their own bytes with no terminator, sequences
// recursively concatenated (spec.md §4.6).
func flattenToBytes(v *value.Value) ([]byte, *value.Value) {
	switch v.Tag {
	case value.TagByte:
		return []byte{v.B}, nil
	case value.TagInt:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v.I))
		return buf[:], nil
	case value.TagFloat:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.F))
		return buf[:], nil
	case value.TagString:
		return []byte(v.Str), nil
	case value.TagBuffer:
		return append([]byte(nil), v.Buf...), nil
	case value.TagQExpr, value.TagSExpr:
		var out []byte
		for _, e := range v.List {
			b, errv := flattenToBytes(e)
			if errv != nil {
				return nil, errv
			}
			out = append(out, b...)
		}
		return out, nil
	}
	return nil, typeErr(errors.Position{}, "write-file", 1, v, "a scalar or sequence of scalars")
}

// resolveLoadPath implements the §6 resolution algorithm: leading
// '/' or '~' is used as-is, otherwise relative to the working
// directory; the default extension is appended if missing; if that
// still doesn't exist and the environment has a script_path, retry
// joined with the prior script's directory.
func resolveLoadPath(env *value.Environment, name string) string {
	const defaultExt = ".benzl"
	path := name
	if !strings.HasSuffix(path, defaultExt) {
		path += defaultExt
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if sp := env.ScriptPath(); sp != "" {
		alt := filepath.Join(sp, filepath.Base(path))
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return path
}

func biLoad(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "load", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "load", 0, args[0], "a String path")
	}
	path := resolveLoadPath(env, args[0].Str)
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	root := env.Root()
	if !root.MarkLoaded(abs) {
		return withPos(value.NewSExpr(nil), pos)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return value.NewError(errors.Wrap(errors.IOError, pos, err, "load"))
	}
	forms, perr := parser.Parse(string(data), abs)
	if perr != nil {
		return value.NewError(perr)
	}
	root.SetScriptPath(filepath.Dir(abs))
	for _, form := range forms.List {
		out := root.Eval(form)
		if out.IsUncaughtError() {
			return out
		}
	}
	return withPos(value.NewSExpr(nil), pos)
}

func biEvalString(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "eval-string", args, 1); err != nil {
		return err
	}
	if args[0].Tag != value.TagString {
		return typeErr(pos, "eval-string", 0, args[0], "a String")
	}
	forms, perr := parser.Parse(args[0].Str, pos.Source)
	if perr != nil {
		return value.NewError(perr)
	}
	out := value.NewSExpr(nil)
	for _, form := range forms.List {
		out = env.Eval(form)
		if out.IsUncaughtError() {
			return out
		}
	}
	return out
}
