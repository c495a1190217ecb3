package dvo

import (
	"github.com/cespare/xxhash/v2"
)

// Field is the identity of a slot within a struct or document type: a name,
// a numeric id and the declared type of its values. Fields are owned by the
// type that declares them; values only reference them. Equality is by id
// alone, ordering is by name.
type Field struct {
	name   string
	id     int32
	typ    DataType
	header bool
}

// NewField creates a field whose id is derived from the name by hashing.
// The id is never 0 (0 is the invalid sentinel).
func NewField(name string, typ DataType, headerField bool) Field {
	return NewFieldWithID(name, hashFieldID(name), typ, headerField)
}

func NewFieldWithID(name string, id int32, typ DataType, headerField bool) Field {
	if id == 0 {
		panic("field id 0 is reserved")
	}
	return Field{name: name, id: id, typ: typ, header: headerField}
}

func hashFieldID(name string) int32 {
	h := xxhash.Sum64String(name)
	id := int32(h^(h>>33)) & 0x7FFF_FFFF
	if id == 0 {
		id = 1
	}
	return id
}

func (f Field) Name() string        { return f.name }
func (f Field) ID() int32           { return f.id }
func (f Field) Type() DataType      { return f.typ }
func (f Field) IsHeaderField() bool { return f.header }
func (f Field) Valid() bool         { return f.id != 0 }

// Equal compares by id only; two fields with the same id are the same slot
// regardless of name.
func (f Field) Equal(other Field) bool {
	return f.id == other.id
}

// Less orders fields by name.
func (f Field) Less(other Field) bool {
	return f.name < other.name
}

// CreateValue builds an empty value of the field's declared type.
func (f Field) CreateValue() FieldValue {
	return f.typ.CreateValue()
}

func (f Field) String() string {
	return f.name
}
