package dvo

import (
	"bytes"
	"cmp"
)

// iteratePrimitive is the terminal state of the nested iteration walk: the
// full path has been consumed and a leaf is visited. A leftover path step
// on a leaf is a configuration error.
func iteratePrimitive(v FieldValue, path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	if !path.Empty() {
		return NotModified, iterErrf(v, "primitive values cannot be iterated into")
	}
	h.OnPrimitive(v)
	return h.Modify(v)
}

// Number is the set of Go types backing numeric leaves.
type Number interface {
	~int8 | ~int32 | ~int64 | ~float32 | ~float64
}

// NumberFieldValue is a numeric leaf. The byte, int, long, float and double
// kinds are all instances of this type.
type NumberFieldValue[T Number] struct {
	typ     *PrimitiveDataType
	val     T
	altered bool
}

type (
	ByteFieldValue   = NumberFieldValue[int8]
	IntFieldValue    = NumberFieldValue[int32]
	LongFieldValue   = NumberFieldValue[int64]
	FloatFieldValue  = NumberFieldValue[float32]
	DoubleFieldValue = NumberFieldValue[float64]
)

func NewByte(v int8) *ByteFieldValue      { return &NumberFieldValue[int8]{typ: TypeByte, val: v} }
func NewInt(v int32) *IntFieldValue       { return &NumberFieldValue[int32]{typ: TypeInt, val: v} }
func NewLong(v int64) *LongFieldValue     { return &NumberFieldValue[int64]{typ: TypeLong, val: v} }
func NewFloat(v float32) *FloatFieldValue { return &NumberFieldValue[float32]{typ: TypeFloat, val: v} }
func NewDouble(v float64) *DoubleFieldValue {
	return &NumberFieldValue[float64]{typ: TypeDouble, val: v}
}

func (v *NumberFieldValue[T]) DataType() DataType { return v.typ }
func (v *NumberFieldValue[T]) Value() T           { return v.val }

func (v *NumberFieldValue[T]) SetValue(val T) {
	v.val = val
	v.altered = true
}

func (v *NumberFieldValue[T]) Clone() FieldValue {
	c := *v
	return &c
}

func (v *NumberFieldValue[T]) Compare(other FieldValue) int {
	if o, ok := other.(*NumberFieldValue[T]); ok && o.typ == v.typ {
		return cmp.Compare(v.val, o.val)
	}
	return cmp.Compare(kindRank(v), kindRank(other))
}

func (v *NumberFieldValue[T]) Assign(other FieldValue) error {
	o, ok := other.(*NumberFieldValue[T])
	if !ok || o.typ != v.typ {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.val = o.val
	v.altered = true
	return nil
}

func (v *NumberFieldValue[T]) HasChanged() bool { return v.altered }

func (v *NumberFieldValue[T]) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	return nil
}

func (v *NumberFieldValue[T]) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	return iteratePrimitive(v, path, h)
}

func (v *NumberFieldValue[T]) AsInterface() any {
	switch v.typ.kind {
	case KindFloat, KindDouble:
		return float64(v.val)
	default:
		return int64(v.val)
	}
}

// StringFieldValue is a string leaf.
type StringFieldValue struct {
	typ     *PrimitiveDataType
	val     string
	altered bool
}

func NewString(v string) *StringFieldValue {
	return &StringFieldValue{typ: TypeString, val: v}
}

func (v *StringFieldValue) DataType() DataType { return v.typ }
func (v *StringFieldValue) Value() string      { return v.val }

func (v *StringFieldValue) SetValue(val string) {
	v.val = val
	v.altered = true
}

func (v *StringFieldValue) Clone() FieldValue {
	c := *v
	return &c
}

func (v *StringFieldValue) Compare(other FieldValue) int {
	if o, ok := other.(*StringFieldValue); ok {
		return cmp.Compare(v.val, o.val)
	}
	return cmp.Compare(kindRank(v), kindRank(other))
}

func (v *StringFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*StringFieldValue)
	if !ok {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.val = o.val
	v.altered = true
	return nil
}

func (v *StringFieldValue) HasChanged() bool { return v.altered }

func (v *StringFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	return nil
}

func (v *StringFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	return iteratePrimitive(v, path, h)
}

func (v *StringFieldValue) AsInterface() any { return v.val }

// RawFieldValue is an opaque byte-blob leaf.
type RawFieldValue struct {
	typ     *PrimitiveDataType
	val     []byte
	altered bool
}

func NewRaw(v []byte) *RawFieldValue {
	return &RawFieldValue{typ: TypeRaw, val: v}
}

func (v *RawFieldValue) DataType() DataType { return v.typ }
func (v *RawFieldValue) Value() []byte      { return v.val }

func (v *RawFieldValue) SetValue(val []byte) {
	v.val = val
	v.altered = true
}

func (v *RawFieldValue) Clone() FieldValue {
	c := *v
	c.val = bytes.Clone(v.val)
	return &c
}

func (v *RawFieldValue) Compare(other FieldValue) int {
	if o, ok := other.(*RawFieldValue); ok {
		return bytes.Compare(v.val, o.val)
	}
	return cmp.Compare(kindRank(v), kindRank(other))
}

func (v *RawFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*RawFieldValue)
	if !ok {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.val = bytes.Clone(o.val)
	v.altered = true
	return nil
}

func (v *RawFieldValue) HasChanged() bool { return v.altered }

func (v *RawFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	return nil
}

func (v *RawFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	return iteratePrimitive(v, path, h)
}

func (v *RawFieldValue) AsInterface() any { return v.val }

// BoolFieldValue is a boolean leaf.
type BoolFieldValue struct {
	typ     *PrimitiveDataType
	val     bool
	altered bool
}

func NewBool(v bool) *BoolFieldValue {
	return &BoolFieldValue{typ: TypeBool, val: v}
}

func (v *BoolFieldValue) DataType() DataType { return v.typ }
func (v *BoolFieldValue) Value() bool        { return v.val }

func (v *BoolFieldValue) SetValue(val bool) {
	v.val = val
	v.altered = true
}

func (v *BoolFieldValue) Clone() FieldValue {
	c := *v
	return &c
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (v *BoolFieldValue) Compare(other FieldValue) int {
	if o, ok := other.(*BoolFieldValue); ok {
		return cmp.Compare(boolToInt(v.val), boolToInt(o.val))
	}
	return cmp.Compare(kindRank(v), kindRank(other))
}

func (v *BoolFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*BoolFieldValue)
	if !ok {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.val = o.val
	v.altered = true
	return nil
}

func (v *BoolFieldValue) HasChanged() bool { return v.altered }

func (v *BoolFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	return nil
}

func (v *BoolFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	return iteratePrimitive(v, path, h)
}

func (v *BoolFieldValue) AsInterface() any { return v.val }
