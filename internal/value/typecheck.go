package value

// MatchType checks val against a declared TypeRef value, casting numeric
// values up/down the lattice when possible (spec.md §4.1, "implicit
// numeric widening/narrowing"). It is shared by typed def/set, typed
// lambda parameters, and typed record properties.
func MatchType(val *Value, typeRef *Value) (*Value, bool) {
	t := typeRef.Type
	if t.Primitive {
		if val.Tag == t.PrimTag {
			return val, true
		}
		if IsNumeric(val) && isNumericTag(t.PrimTag) {
			return Upgrade(val, t.PrimTag), true
		}
		if cast, ok := Cast(val, t.PrimTag); ok {
			return cast, true
		}
		return nil, false
	}
	// User record type: val must be a RecordInstance of the exact same
	// declared type (spec.md invariant 3/4).
	if val.Tag != TagRecordInstance {
		return nil, false
	}
	if val.Rec.Type.Type.Name != t.Name {
		return nil, false
	}
	return val, true
}

func isNumericTag(tag Tag) bool {
	switch tag {
	case TagByte, TagInt, TagFloat:
		return true
	}
	return false
}
