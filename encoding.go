package dvo

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Serialize encodes a field value tree into its byte representation. The
// encoding is type-driven: Deserialize needs the same DataType to decode.
func Serialize(v FieldValue) ([]byte, error) {
	var bb bytesBuilder
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	err := encodeValue(enc, v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

// Deserialize decodes the byte representation produced by Serialize back
// into a value of the given type. Values come back with a clear change
// flag.
func Deserialize(typ DataType, data []byte) (FieldValue, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	v, err := decodeValue(dec, typ)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, deserErrf(data, 0, err, "failed to decode %s value", typ.Name())
	}
	return v, nil
}

func encodeValue(enc *msgpack.Encoder, v FieldValue) error {
	switch v := v.(type) {
	case *ByteFieldValue:
		return enc.EncodeInt(int64(v.val))
	case *IntFieldValue:
		return enc.EncodeInt(int64(v.val))
	case *LongFieldValue:
		return enc.EncodeInt(v.val)
	case *FloatFieldValue:
		return enc.EncodeFloat32(v.val)
	case *DoubleFieldValue:
		return enc.EncodeFloat64(v.val)
	case *BoolFieldValue:
		return enc.EncodeBool(v.val)
	case *StringFieldValue:
		return enc.EncodeString(v.val)
	case *RawFieldValue:
		return enc.EncodeBytes(v.val)
	case *ArrayFieldValue:
		if err := enc.EncodeArrayLen(len(v.elems)); err != nil {
			return err
		}
		for _, el := range v.elems {
			if err := encodeValue(enc, el); err != nil {
				return err
			}
		}
		return nil
	case *WeightedSetFieldValue:
		if err := enc.EncodeArrayLen(len(v.elems)); err != nil {
			return err
		}
		for i, el := range v.elems {
			if err := enc.EncodeArrayLen(2); err != nil {
				return err
			}
			if err := encodeValue(enc, el); err != nil {
				return err
			}
			if err := enc.EncodeInt(int64(v.weights[i])); err != nil {
				return err
			}
		}
		return nil
	case *MapFieldValue:
		if err := enc.EncodeArrayLen(len(v.keys)); err != nil {
			return err
		}
		for i := range v.keys {
			if err := enc.EncodeArrayLen(2); err != nil {
				return err
			}
			if err := encodeValue(enc, v.keys[i]); err != nil {
				return err
			}
			if err := encodeValue(enc, v.values[i]); err != nil {
				return err
			}
		}
		return nil
	case *Document:
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeString(v.id); err != nil {
			return err
		}
		return encodeStructFields(enc, v.StructFieldValue)
	case *StructFieldValue:
		return encodeStructFields(enc, v)
	default:
		panic("unknown field value type")
	}
}

func encodeStructFields(enc *msgpack.Encoder, s *StructFieldValue) error {
	fields := s.PresentFields()
	if err := enc.EncodeMapLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := enc.EncodeString(f.Name()); err != nil {
			return err
		}
		if err := encodeValue(enc, s.Value(f)); err != nil {
			return err
		}
	}
	return nil
}

func decodeValue(dec *msgpack.Decoder, typ DataType) (FieldValue, error) {
	switch typ := typ.(type) {
	case *PrimitiveDataType:
		return decodePrimitive(dec, typ)
	case *ArrayDataType:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		out := NewArray(typ)
		out.elems = make([]FieldValue, 0, n)
		for i := 0; i < n; i++ {
			el, err := decodeValue(dec, typ.nested)
			if err != nil {
				return nil, err
			}
			out.elems = append(out.elems, el)
		}
		return out, nil
	case *WeightedSetDataType:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		out := NewWeightedSet(typ)
		for i := 0; i < n; i++ {
			if _, err := dec.DecodeArrayLen(); err != nil {
				return nil, err
			}
			el, err := decodeValue(dec, typ.nested)
			if err != nil {
				return nil, err
			}
			w, err := dec.DecodeInt32()
			if err != nil {
				return nil, err
			}
			out.elems = append(out.elems, el)
			out.weights = append(out.weights, w)
		}
		return out, nil
	case *MapDataType:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		out := NewMap(typ)
		for i := 0; i < n; i++ {
			if _, err := dec.DecodeArrayLen(); err != nil {
				return nil, err
			}
			k, err := decodeValue(dec, typ.key)
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(dec, typ.value)
			if err != nil {
				return nil, err
			}
			out.keys = append(out.keys, k)
			out.values = append(out.values, v)
		}
		return out, nil
	case *DocumentType:
		if _, err := dec.DecodeArrayLen(); err != nil {
			return nil, err
		}
		id, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		doc := NewDocument(typ, id)
		if err := decodeStructFields(dec, doc.StructFieldValue); err != nil {
			return nil, err
		}
		return doc, nil
	case *StructDataType:
		out := NewStruct(typ)
		if err := decodeStructFields(dec, out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		panic("unknown data type")
	}
}

func decodeStructFields(dec *msgpack.Decoder, s *StructFieldValue) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		name, err := dec.DecodeString()
		if err != nil {
			return err
		}
		f, ok := s.typ.Field(name)
		if !ok {
			// Unknown field, likely removed from the type since this
			// record was written: skip it rather than failing the whole
			// struct.
			logger().Warn("dvo: skipping unknown field during decode", "struct", s.typ.name, "field", name)
			if err := dec.Skip(); err != nil {
				return err
			}
			continue
		}
		v, err := decodeValue(dec, f.Type())
		if err != nil {
			return err
		}
		s.storageSet(f, v)
	}
	s.altered = false
	s.checksumValid = false
	return nil
}

func decodePrimitive(dec *msgpack.Decoder, typ *PrimitiveDataType) (FieldValue, error) {
	switch typ.kind {
	case KindByte:
		v, err := dec.DecodeInt8()
		if err != nil {
			return nil, err
		}
		return NewByte(v), nil
	case KindBool:
		v, err := dec.DecodeBool()
		if err != nil {
			return nil, err
		}
		return NewBool(v), nil
	case KindInt:
		v, err := dec.DecodeInt32()
		if err != nil {
			return nil, err
		}
		return NewInt(v), nil
	case KindLong:
		v, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		return NewLong(v), nil
	case KindFloat:
		v, err := dec.DecodeFloat32()
		if err != nil {
			return nil, err
		}
		return NewFloat(v), nil
	case KindDouble:
		v, err := dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return NewDouble(v), nil
	case KindString:
		v, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return NewString(v), nil
	case KindRaw:
		v, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return NewRaw(v), nil
	default:
		panic("invalid primitive kind")
	}
}
