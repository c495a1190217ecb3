package dvo

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Dump renders a field value as a single-line human-readable string, for
// logs and test failures.
func Dump(v FieldValue) string {
	var buf strings.Builder
	dump(&buf, v)
	return buf.String()
}

func dump(buf *strings.Builder, v FieldValue) {
	if v == nil {
		buf.WriteString("<nil>")
		return
	}
	switch v := v.(type) {
	case *StringFieldValue:
		buf.WriteString(strconv.Quote(v.val))
	case *RawFieldValue:
		buf.WriteString("0x")
		buf.WriteString(hex.EncodeToString(v.val))
	case *BoolFieldValue:
		buf.WriteString(strconv.FormatBool(v.val))
	case *ByteFieldValue:
		buf.WriteString(strconv.FormatInt(int64(v.val), 10))
	case *IntFieldValue:
		buf.WriteString(strconv.FormatInt(int64(v.val), 10))
	case *LongFieldValue:
		buf.WriteString(strconv.FormatInt(v.val, 10))
	case *FloatFieldValue:
		buf.WriteString(strconv.FormatFloat(float64(v.val), 'g', -1, 32))
	case *DoubleFieldValue:
		buf.WriteString(strconv.FormatFloat(v.val, 'g', -1, 64))
	case *ArrayFieldValue:
		buf.WriteByte('[')
		for i, el := range v.elems {
			if i > 0 {
				buf.WriteString(", ")
			}
			dump(buf, el)
		}
		buf.WriteByte(']')
	case *WeightedSetFieldValue:
		buf.WriteByte('{')
		for i, el := range v.elems {
			if i > 0 {
				buf.WriteString(", ")
			}
			dump(buf, el)
			buf.WriteString(": ")
			buf.WriteString(strconv.FormatInt(int64(v.weights[i]), 10))
		}
		buf.WriteByte('}')
	case *MapFieldValue:
		buf.WriteByte('{')
		for i := range v.keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			dump(buf, v.keys[i])
			buf.WriteString(": ")
			dump(buf, v.values[i])
		}
		buf.WriteByte('}')
	case *Document:
		buf.WriteString(v.typ.Name())
		buf.WriteString("::")
		buf.WriteString(v.id)
		buf.WriteByte(' ')
		dumpStruct(buf, v.StructFieldValue)
	case *StructFieldValue:
		dumpStruct(buf, v)
	default:
		buf.WriteString(v.DataType().Name())
		buf.WriteString("<?>")
	}
}

func dumpStruct(buf *strings.Builder, s *StructFieldValue) {
	buf.WriteByte('{')
	for i, f := range s.PresentFields() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.Name())
		buf.WriteString(": ")
		dump(buf, s.Value(f))
	}
	buf.WriteByte('}')
}
