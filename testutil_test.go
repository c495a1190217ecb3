package dvo

import (
	"errors"
	"reflect"
	"testing"
)

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func succeed(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** failed: %v", err)
	}
}

func failsWith[E error](t testing.TB, err error) E {
	t.Helper()
	var e E
	if err == nil {
		t.Fatalf("** succeeded, wanted %T", e)
	}
	if !errors.As(err, &e) {
		t.Fatalf("** got %T (%v), wanted %T", err, err, e)
	}
	return e
}

func addressType() *StructDataType {
	st := NewStructDataType("address")
	st.Declare("city", TypeString, false)
	st.Declare("zip", TypeString, false)
	return st
}

// personType is the document schema most tests run against: a header
// string, plain fields, and one of every container shape.
func personType() *DocumentType {
	addr := addressType()
	dt := NewDocumentType("person")
	c := dt.Contents()
	c.Declare("name", TypeString, true)
	c.Declare("age", TypeInt, false)
	c.Declare("tags", NewArrayDataType(TypeString), false)
	c.Declare("scores", NewWeightedSetDataType(TypeString, false, false), false)
	c.Declare("attrs", NewMapDataType(TypeString, TypeString), false)
	c.Declare("addr", addr, false)
	c.Declare("addrs", NewArrayDataType(addr), false)
	return dt
}

func makePerson(t testing.TB) *Document {
	t.Helper()
	doc := NewDocument(personType(), "person:alice")
	succeed(t, doc.SetValueByName("name", NewString("Alice")))
	succeed(t, doc.SetValueByName("age", NewInt(33)))

	tags := NewArray(fieldOf(t, doc.Type().Contents(), "tags").Type().(*ArrayDataType))
	succeed(t, tags.Append(NewString("staff")))
	succeed(t, tags.Append(NewString("admin")))
	succeed(t, doc.SetValueByName("tags", tags))

	attrs := NewMap(fieldOf(t, doc.Type().Contents(), "attrs").Type().(*MapDataType))
	succeed(t, attrs.Put(NewString("color"), NewString("green")))
	succeed(t, attrs.Put(NewString("shape"), NewString("round")))
	succeed(t, doc.SetValueByName("attrs", attrs))

	addrType := fieldOf(t, doc.Type().Contents(), "addr").Type().(*StructDataType)
	addr := NewStruct(addrType)
	succeed(t, addr.SetValueByName("city", NewString("Oslo")))
	succeed(t, addr.SetValueByName("zip", NewString("0150")))
	succeed(t, doc.SetValueByName("addr", addr))
	return doc
}

func fieldOf(tb testing.TB, t *StructDataType, name string) Field {
	f, ok := t.Field(name)
	if !ok {
		tb.Helper()
		tb.Fatalf("** no field %q in %s", name, t.Name())
	}
	return f
}

func compilePath(t testing.TB, dt DataType, expr string) FieldPath {
	t.Helper()
	p, err := BuildFieldPath(dt, expr)
	succeed(t, err)
	return p
}

func stringOf(t testing.TB, v FieldValue) string {
	t.Helper()
	s, err := AsString(v)
	succeed(t, err)
	return s
}
