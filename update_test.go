package dvo

import (
	"strings"
	"testing"
)

func TestAssignUpdateNestedField(t *testing.T) {
	doc := makePerson(t)
	u := NewAssignUpdate("addr.city", "", NewString("Bergen"))
	succeed(t, u.ApplyTo(doc))

	p := compilePath(t, doc.Type(), "addr.city")
	eq(t, stringOf(t, doc.GetNested(p)), "Bergen")
	eq(t, stringOf(t, doc.GetNested(compilePath(t, doc.Type(), "addr.zip"))), "0150")
	eq(t, stringOf(t, doc.ValueByName("name")), "Alice")
}

func TestAssignUpdateCreatesMissingPath(t *testing.T) {
	doc := NewDocument(personType(), "person:bob")
	u := NewAssignUpdate("addr.city", "", NewString("Trondheim"))
	succeed(t, u.ApplyTo(doc))
	eq(t, stringOf(t, doc.GetNested(compilePath(t, doc.Type(), "addr.city"))), "Trondheim")

	doc2 := NewDocument(personType(), "person:carol")
	u2 := NewAssignUpdate("addr.city", "", NewString("x")).SetCreateMissingPath(false)
	succeed(t, u2.ApplyTo(doc2))
	eq(t, doc2.HasValueByName("addr"), false)
}

func TestAssignUpdateMapKey(t *testing.T) {
	doc := makePerson(t)
	u := NewAssignUpdate("attrs{color}", "", NewString("blue"))
	succeed(t, u.ApplyTo(doc))

	attrs := doc.ValueByName("attrs").(*MapFieldValue)
	eq(t, stringOf(t, attrs.Get(NewString("color"))), "blue")
	eq(t, stringOf(t, attrs.Get(NewString("shape"))), "round")
}

func TestAssignUpdateWhereClause(t *testing.T) {
	doc := makePerson(t)
	u := NewAssignUpdate("attrs{$k}", `vars.k == "color"`, NewString("red"))
	succeed(t, u.ApplyTo(doc))

	attrs := doc.ValueByName("attrs").(*MapFieldValue)
	eq(t, stringOf(t, attrs.Get(NewString("color"))), "red")
	eq(t, stringOf(t, attrs.Get(NewString("shape"))), "round")
}

func TestAssignUpdateWhereClauseDocAccess(t *testing.T) {
	alice := makePerson(t)
	u := NewAssignUpdate("attrs{$k}", `doc.age > 40 && vars.k == "color"`, NewString("gray"))
	succeed(t, u.ApplyTo(alice))
	attrs := alice.ValueByName("attrs").(*MapFieldValue)
	eq(t, stringOf(t, attrs.Get(NewString("color"))), "green")

	succeed(t, alice.SetValueByName("age", NewInt(70)))
	succeed(t, u.ApplyTo(alice))
	attrs = alice.ValueByName("attrs").(*MapFieldValue)
	eq(t, stringOf(t, attrs.Get(NewString("color"))), "gray")
}

func TestRemoveUpdateMapKey(t *testing.T) {
	mt := NewDocumentType("holder")
	mt.Contents().Declare("m", NewMapDataType(TypeString, TypeString), false)
	doc := NewDocument(mt, "holder:1")
	m := NewMap(fieldOf(t, mt.Contents(), "m").Type().(*MapDataType))
	succeed(t, m.Put(NewString("k1"), NewString("v1")))
	succeed(t, doc.SetValueByName("m", m))

	succeed(t, NewRemoveUpdate("m{k1}", "").ApplyTo(doc))

	// The entry is gone but the now-empty map survives.
	eq(t, doc.HasValueByName("m"), true)
	eq(t, doc.ValueByName("m").(*MapFieldValue).Len(), 0)
}

func TestRemoveUpdateWholeField(t *testing.T) {
	doc := makePerson(t)
	succeed(t, NewRemoveUpdate("tags", "").ApplyTo(doc))
	eq(t, doc.HasValueByName("tags"), false)
	eq(t, doc.HasValueByName("name"), true)
}

func TestAddUpdateArray(t *testing.T) {
	doc := makePerson(t)
	u := NewAddUpdate("tags", "", NewString("vip"), NewString("beta"))
	succeed(t, u.ApplyTo(doc))

	tags := doc.ValueByName("tags").(*ArrayFieldValue)
	eq(t, tags.Len(), 4)
	eq(t, stringOf(t, tags.At(2)), "vip")
	eq(t, stringOf(t, tags.At(3)), "beta")
}

func TestAddUpdateCreatesArray(t *testing.T) {
	doc := NewDocument(personType(), "person:dave")
	succeed(t, NewAddUpdate("tags", "", NewString("new")).ApplyTo(doc))
	tags := doc.ValueByName("tags").(*ArrayFieldValue)
	eq(t, tags.Len(), 1)
	eq(t, stringOf(t, tags.At(0)), "new")
}

func TestAddUpdateWeightedSet(t *testing.T) {
	doc := makePerson(t)
	succeed(t, NewAddUpdate("scores", "", NewString("chess")).ApplyTo(doc))
	scores := doc.ValueByName("scores").(*WeightedSetFieldValue)
	w, ok := scores.Weight(NewString("chess"))
	eq(t, ok, true)
	eq(t, w, 1)
}

func TestUpdateCheckCompatibility(t *testing.T) {
	dt := personType()

	succeed(t, NewAssignUpdate("addr.city", "", NewString("x")).CheckCompatibility(dt))
	failsWith[*TypeError](t, NewAssignUpdate("addr.city", "", NewInt(1)).CheckCompatibility(dt))
	failsWith[*FieldNotFoundError](t, NewAssignUpdate("nosuch", "", NewInt(1)).CheckCompatibility(dt))

	succeed(t, NewAddUpdate("tags", "", NewString("x")).CheckCompatibility(dt))
	failsWith[*PathSyntaxError](t, NewAddUpdate("age", "", NewInt(1)).CheckCompatibility(dt))
	failsWith[*TypeError](t, NewAddUpdate("tags", "", NewInt(1)).CheckCompatibility(dt))
}

func TestUpdateAffectsDocumentBody(t *testing.T) {
	dt := personType()

	header, err := NewAssignUpdate("name", "", NewString("x")).AffectsDocumentBody(dt)
	succeed(t, err)
	eq(t, header, false)

	body, err := NewAssignUpdate("age", "", NewInt(1)).AffectsDocumentBody(dt)
	succeed(t, err)
	eq(t, body, true)
}

func TestUpdateWireRoundTrip(t *testing.T) {
	dt := personType()
	updates := []FieldPathUpdate{
		NewAssignUpdate("addr.city", "", NewString("Bergen")),
		NewAssignUpdate("attrs{$k}", `vars.k == "color"`, NewString("red")).SetRemoveIfZero(true),
		NewRemoveUpdate("tags[0]", ""),
		NewAddUpdate("tags", "", NewString("a"), NewString("b")),
	}
	for _, u := range updates {
		data, err := SerializeUpdate(u)
		succeed(t, err)
		back, err := DeserializeUpdate(dt, data)
		succeed(t, err)
		eq(t, back.Kind(), u.Kind())
		eq(t, back.Path(), u.Path())
		eq(t, back.Where(), u.Where())
		eq(t, back.String(), u.String())
	}
}

func TestDeserializeUpdateUnknownKind(t *testing.T) {
	var bb bytesBuilder
	bb.AppendByte(5)
	bb.AppendLenString("name")
	bb.AppendLenString("")

	_, err := DeserializeUpdate(personType(), bb.Buf)
	e := failsWith[*DeserializeError](t, err)
	if !strings.Contains(e.Msg, "5") {
		t.Fatalf("** error does not identify the kind byte: %s", e.Msg)
	}
}

func TestDeserializeUpdateTruncated(t *testing.T) {
	u := NewAssignUpdate("addr.city", "", NewString("Bergen"))
	data, err := SerializeUpdate(u)
	succeed(t, err)
	_, err = DeserializeUpdate(personType(), data[:len(data)-3])
	failsWith[*DeserializeError](t, err)
}

func TestUpdateString(t *testing.T) {
	eq(t, NewRemoveUpdate("tags[0]", "").String(), "remove tags[0]")
	eq(t, NewAssignUpdate("addr.city", "", NewString("Bergen")).String(), `assign addr.city = "Bergen"`)
	s := NewAddUpdate("tags", `doc.age > 1`, NewString("a")).String()
	if !strings.Contains(s, "where doc.age > 1") {
		t.Fatalf("** missing where clause in %q", s)
	}
}
