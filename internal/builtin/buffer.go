package builtin

import (
	"encoding/binary"
	"math"

	"benzl/internal/errors"
	"benzl/internal/value"
)

// bufField names one of the fixed-width native-layout field types a
// buffer's get-<T>/put-<T> builtins operate on (spec.md §4.6).
type bufField struct {
	name     string
	width    int
	signed   bool
	isFloat  bool
}

var bufFields = []bufField{
	{"byte", 1, false, false},
	{"signed-char", 1, true, false},
	{"unsigned-char", 1, false, false},
	{"signed-short", 2, true, false},
	{"unsigned-short", 2, false, false},
	{"signed-integer", 4, true, false},
	{"unsigned-integer", 4, false, false},
	{"signed-long", 8, true, false},
	{"unsigned-long", 8, false, false},
}

func registerBuffer(env *value.Environment) {
	register(env, "create-buffer", biCreateBuffer)
	register(env, "buffer-with-bytes", biBufferWithBytes)
	register(env, "buffer-map", biBufferMap)
	for _, f := range bufFields {
		f := f
		register(env, "get-"+f.name, biBufferGet(f))
		register(env, "put-"+f.name, biBufferPut(f))
	}
	register(env, "get-string", biGetString)
	register(env, "put-string", biPutString)
	register(env, "get-bytes", biGetBytes)
	register(env, "put-bytes", biPutBytes)
}

func biCreateBuffer(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "create-buffer", args, 1); err != nil {
		return err
	}
	if !value.IsNumeric(args[0]) {
		return typeErr(pos, "create-buffer", 0, args[0], "an Integer")
	}
	n := value.AsInt(args[0])
	if n < 0 {
		return rangeErr(pos, "create-buffer", "negative size")
	}
	return withPos(value.NewBuffer(make([]byte, n)), pos)
}

func biBufferWithBytes(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	out := make([]byte, 0, len(args))
	for i, a := range args {
		if a.Tag != value.TagByte {
			return typeErr(pos, "buffer-with-bytes", i, a, "a Byte")
		}
		out = append(out, a.B)
	}
	return withPos(value.NewBuffer(out), pos)
}

func bufferOffset(pos errors.Position, name string, buf, offArg *value.Value, width int) (int, *value.Value) {
	if buf.Tag != value.TagBuffer {
		return 0, typeErr(pos, name, 0, buf, "a Buffer")
	}
	if !value.IsNumeric(offArg) {
		return 0, typeErr(pos, name, 1, offArg, "an Integer")
	}
	off := int(value.AsInt(offArg))
	if off < 0 || off+width > len(buf.Buf) {
		return 0, rangeErr(pos, name, "offset out of bounds")
	}
	return off, nil
}

func biBufferGet(f bufField) value.BuiltinFunc {
	name := "get-" + f.name
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, name, args, 2); err != nil {
			return err
		}
		off, errv := bufferOffset(pos, name, args[0], args[1], f.width)
		if errv != nil {
			return errv
		}
		bytes := args[0].Buf[off : off+f.width]
		var u uint64
		switch f.width {
		case 1:
			u = uint64(bytes[0])
		case 2:
			u = uint64(binary.LittleEndian.Uint16(bytes))
		case 4:
			u = uint64(binary.LittleEndian.Uint32(bytes))
		case 8:
			u = binary.LittleEndian.Uint64(bytes)
		}
		if f.width == 1 && !f.signed {
			return withPos(value.NewByte(byte(u)), pos)
		}
		if f.signed {
			shift := uint(64 - f.width*8)
			return withPos(value.NewInt(int64(u<<shift)>>shift), pos)
		}
		return withPos(value.NewInt(int64(u)), pos)
	}
}

func biBufferPut(f bufField) value.BuiltinFunc {
	name := "put-" + f.name
	return func(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
		if err := requireExact(pos, name, args, 3); err != nil {
			return err
		}
		off, errv := bufferOffset(pos, name, args[0], args[1], f.width)
		if errv != nil {
			return errv
		}
		if !value.IsNumeric(args[2]) {
			return typeErr(pos, name, 2, args[2], "a number")
		}
		n := value.AsInt(args[2])
		out := append([]byte(nil), args[0].Buf...)
		switch f.width {
		case 1:
			out[off] = byte(n)
		case 2:
			binary.LittleEndian.PutUint16(out[off:], uint16(n))
		case 4:
			binary.LittleEndian.PutUint32(out[off:], uint32(n))
		case 8:
			binary.LittleEndian.PutUint64(out[off:], uint64(n))
		}
		return withPos(value.NewBuffer(out), pos)
	}
}

func biGetString(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "get-string", args, 2); err != nil {
		return err
	}
	buf, offArg := args[0], args[1]
	if buf.Tag != value.TagBuffer {
		return typeErr(pos, "get-string", 0, buf, "a Buffer")
	}
	off := int(value.AsInt(offArg))
	if off < 0 || off > len(buf.Buf) {
		return rangeErr(pos, "get-string", "offset out of bounds")
	}
	end := off
	for end < len(buf.Buf) && buf.Buf[end] != 0 {
		end++
	}
	return withPos(value.NewString(string(buf.Buf[off:end])), pos)
}

func biPutString(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "put-string", args, 3); err != nil {
		return err
	}
	buf, offArg, strArg := args[0], args[1], args[2]
	if buf.Tag != value.TagBuffer {
		return typeErr(pos, "put-string", 0, buf, "a Buffer")
	}
	if strArg.Tag != value.TagString {
		return typeErr(pos, "put-string", 2, strArg, "a String")
	}
	off := int(value.AsInt(offArg))
	need := off + len(strArg.Str) + 1
	if off < 0 || need > len(buf.Buf) {
		return rangeErr(pos, "put-string", "value does not fit at offset")
	}
	out := append([]byte(nil), buf.Buf...)
	copy(out[off:], strArg.Str)
	out[off+len(strArg.Str)] = 0
	return withPos(value.NewBuffer(out), pos)
}

func biGetBytes(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "get-bytes", args, 3); err != nil {
		return err
	}
	buf, offArg, lenArg := args[0], args[1], args[2]
	if buf.Tag != value.TagBuffer {
		return typeErr(pos, "get-bytes", 0, buf, "a Buffer")
	}
	off, n := int(value.AsInt(offArg)), int(value.AsInt(lenArg))
	if off < 0 || n < 0 || off+n > len(buf.Buf) {
		return rangeErr(pos, "get-bytes", "range out of bounds")
	}
	return withPos(value.NewBuffer(append([]byte(nil), buf.Buf[off:off+n]...)), pos)
}

func biPutBytes(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "put-bytes", args, 3); err != nil {
		return err
	}
	buf, offArg, bytesArg := args[0], args[1], args[2]
	if buf.Tag != value.TagBuffer {
		return typeErr(pos, "put-bytes", 0, buf, "a Buffer")
	}
	if bytesArg.Tag != value.TagBuffer {
		return typeErr(pos, "put-bytes", 2, bytesArg, "a Buffer")
	}
	off := int(value.AsInt(offArg))
	if off < 0 || off+len(bytesArg.Buf) > len(buf.Buf) {
		return rangeErr(pos, "put-bytes", "value does not fit at offset")
	}
	out := append([]byte(nil), buf.Buf...)
	copy(out[off:], bytesArg.Buf)
	return withPos(value.NewBuffer(out), pos)
}

// biBufferMap iterates size/chunk chunks of a Buffer, applies fn to
// each chunk and its index, and composes the returned scalar/Buffer
// back into a new Buffer at the corresponding offset (spec.md §4.6).
func biBufferMap(env *value.Environment, args []*value.Value, pos errors.Position) *value.Value {
	if err := requireExact(pos, "buffer-map", args, 3); err != nil {
		return err
	}
	buf, chunkArg, fn := args[0], args[1], args[2]
	if buf.Tag != value.TagBuffer {
		return typeErr(pos, "buffer-map", 0, buf, "a Buffer")
	}
	chunk := int(value.AsInt(chunkArg))
	if chunk <= 0 || len(buf.Buf)%chunk != 0 {
		return rangeErr(pos, "buffer-map", "chunk size must evenly divide the buffer size")
	}
	if fn.Tag != value.TagFunction {
		return typeErr(pos, "buffer-map", 2, fn, "a Function")
	}
	out := append([]byte(nil), buf.Buf...)
	count := len(buf.Buf) / chunk
	for i := 0; i < count; i++ {
		off := i * chunk
		piece := value.NewBuffer(append([]byte(nil), buf.Buf[off:off+chunk]...))
		result := env.Apply(fn, []*value.Value{piece, value.NewInt(int64(i))})
		if result.IsUncaughtError() {
			return result
		}
		switch result.Tag {
		case value.TagBuffer:
			n := len(result.Buf)
			if n > chunk {
				n = chunk
			}
			copy(out[off:off+n], result.Buf[:n])
		case value.TagByte:
			out[off] = result.B
		case value.TagInt:
			n := chunk
			if n > 8 {
				n = 8
			}
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(result.I))
			copy(out[off:off+n], tmp[:n])
		case value.TagFloat:
			n := chunk
			if n > 8 {
				n = 8
			}
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(result.F))
			copy(out[off:off+n], tmp[:n])
		default:
			return typeErr(pos, "buffer-map", 2, result, "a Byte, Integer, Float, or Buffer result")
		}
	}
	return withPos(value.NewBuffer(out), pos)
}
