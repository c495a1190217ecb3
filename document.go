package dvo

import (
	"cmp"
)

// Document is a struct value bound to a DocumentType at construction time
// and carrying a document id. All field storage, transactions and nested
// iteration come from the embedded struct machinery.
type Document struct {
	*StructFieldValue
	id  string
	typ *DocumentType
}

func NewDocument(typ *DocumentType, id string) *Document {
	return &Document{
		StructFieldValue: NewStruct(typ.Contents()),
		id:               id,
		typ:              typ,
	}
}

func (d *Document) ID() string          { return d.id }
func (d *Document) SetID(id string)     { d.id = id }
func (d *Document) Type() *DocumentType { return d.typ }

func (d *Document) DataType() DataType { return d.typ }

func (d *Document) Clone() FieldValue {
	c := &Document{
		StructFieldValue: d.StructFieldValue.Clone().(*StructFieldValue),
		id:               d.id,
		typ:              d.typ,
	}
	return c
}

func (d *Document) Compare(other FieldValue) int {
	o, ok := other.(*Document)
	if !ok {
		return cmp.Compare(kindRank(d), kindRank(other))
	}
	if c := cmp.Compare(d.id, o.id); c != 0 {
		return c
	}
	return d.StructFieldValue.Compare(o.StructFieldValue)
}

func (d *Document) Assign(other FieldValue) error {
	o, ok := other.(*Document)
	if !ok || !d.typ.IsValueType(other) {
		return typeErrf(d.typ, other.DataType(), "assign")
	}
	d.id = o.id
	return d.StructFieldValue.Assign(o.StructFieldValue)
}

// HeaderFields returns the present fields declared as header fields.
func (d *Document) HeaderFields() []Field {
	var out []Field
	for _, f := range d.PresentFields() {
		if f.IsHeaderField() {
			out = append(out, f)
		}
	}
	return out
}

// BodyFields returns the present fields not declared as header fields.
func (d *Document) BodyFields() []Field {
	var out []Field
	for _, f := range d.PresentFields() {
		if !f.IsHeaderField() {
			out = append(out, f)
		}
	}
	return out
}
