package value

import "strings"

// ToString renders v the way to-string and unquoted contexts do: strings
// are emitted without surrounding quotes (spec.md §4.1).
func ToString(v *Value) string {
	return render(v, false)
}

// Print renders v the way the print builtin and debugging traces do:
// strings are double-quoted with their escapes restored.
func Print(v *Value) string {
	return render(v, true)
}

func render(v *Value, quoteStrings bool) string {
	if v == nil {
		return ""
	}
	switch v.Tag {
	case TagInt:
		return itoa(v.I)
	case TagFloat:
		return formatFloat(v.F)
	case TagByte:
		return byteHex(v.B)
	case TagSymbol:
		return v.Sym.Name
	case TagString:
		if quoteStrings {
			return "\"" + escapeString(v.Str) + "\""
		}
		return v.Str
	case TagBuffer:
		return renderBuffer(v.Buf)
	case TagDict:
		return renderDict(v, quoteStrings)
	case TagFunction:
		return renderFunction(v.Fn, quoteStrings)
	case TagSExpr:
		return renderList(v.List, '(', ')', quoteStrings)
	case TagQExpr:
		return renderList(v.List, '{', '}', quoteStrings)
	case TagError:
		return "<Error: " + v.Err.Message + ">"
	case TagTypeRef:
		return renderTypeRef(v.Type)
	case TagKVPair:
		return v.KV.Key.Name + ":" + render(v.KV.Val, quoteStrings)
	case TagRecordInstance:
		return renderRecord(v, quoteStrings)
	}
	return ""
}

func itoa(i int64) string {
	return formatInt(i)
}

func formatInt(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	u := uint64(i)
	if neg {
		u = uint64(-i)
	}
	var buf [20]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func byteHex(b byte) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{digits[b>>4], digits[b&0xF]})
}

func renderBuffer(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('<')
	for i, x := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(byteHex(x))
	}
	sb.WriteByte('>')
	return sb.String()
}

func renderList(items []*Value, open, close byte, quoteStrings bool) string {
	var sb strings.Builder
	sb.WriteByte(open)
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(render(it, quoteStrings))
	}
	sb.WriteByte(close)
	return sb.String()
}

func renderDict(v *Value, quoteStrings bool) string {
	var sb strings.Builder
	sb.WriteString("(dict")
	for _, kv := range v.Dict.Entries() {
		sb.WriteByte(' ')
		sb.WriteString(kv.Name)
		sb.WriteByte(':')
		sb.WriteString(render(kv.Entry.Value, quoteStrings))
	}
	sb.WriteByte(')')
	return sb.String()
}

func renderRecord(v *Value, quoteStrings bool) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(typeRefName(v.Rec.Type.Type))
	for _, prop := range v.Rec.Type.Type.Props {
		name := propName(prop)
		entry, ok := v.Rec.Props.Get(HashName(name), name)
		sb.WriteByte(' ')
		sb.WriteString(name)
		sb.WriteByte(':')
		if ok {
			sb.WriteString(render(entry.Value, quoteStrings))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func propName(prop *Value) string {
	switch prop.Tag {
	case TagSymbol:
		return prop.Sym.Name
	case TagKVPair:
		return prop.KV.Key.Name
	}
	return ""
}

func renderFunction(fn *Function, quoteStrings bool) string {
	if fn.Builtin != nil {
		return "<builtin:" + fn.Name + ">"
	}
	return "(lambda " + renderList(fn.Params, '{', '}', quoteStrings) + " " + render(fn.Body, quoteStrings) + ")"
}

func renderTypeRef(t *TypeRef) string {
	if t.Primitive {
		return t.PrimTag.String()
	}
	return t.Name.Name
}

func typeRefName(t *TypeRef) string {
	return renderTypeRef(t)
}

func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\v':
			sb.WriteString(`\v`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
