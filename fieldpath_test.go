package dvo

import (
	"testing"
)

func TestBuildFieldPathStructChain(t *testing.T) {
	dt := personType()
	p := compilePath(t, dt, "addr.city")
	eq(t, len(p), 2)
	eq(t, p[0].Kind(), EntryStructField)
	eq(t, p[0].Field().Name(), "addr")
	eq(t, p[1].Kind(), EntryStructField)
	eq(t, p[1].Field().Name(), "city")
	eq(t, p.ResultingDataType().Name(), "string")
	eq(t, p.String(), "addr.city")
}

func TestBuildFieldPathArrayIndex(t *testing.T) {
	dt := personType()
	p := compilePath(t, dt, "tags[2]")
	eq(t, len(p), 2)
	eq(t, p[1].Kind(), EntryArrayIndex)
	eq(t, p[1].Index(), 2)
	eq(t, p.ResultingDataType().Name(), "string")
	eq(t, p.String(), "tags[2]")
}

func TestBuildFieldPathArrayVariable(t *testing.T) {
	p := compilePath(t, personType(), "addrs[$i].city")
	eq(t, len(p), 3)
	eq(t, p[1].Kind(), EntryVariable)
	eq(t, p[1].Variable(), "i")
	eq(t, p[2].Field().Name(), "city")
}

func TestBuildFieldPathMapKey(t *testing.T) {
	p := compilePath(t, personType(), "attrs{color}")
	eq(t, len(p), 2)
	eq(t, p[1].Kind(), EntryMapKey)
	eq(t, stringOf(t, p[1].Key()), "color")
	eq(t, p.ResultingDataType().Name(), "string")
}

func TestBuildFieldPathMapProjections(t *testing.T) {
	p := compilePath(t, personType(), "attrs.key")
	eq(t, p[1].Kind(), EntryMapAllKeys)

	p = compilePath(t, personType(), "attrs.value")
	eq(t, p[1].Kind(), EntryMapAllValues)
}

func TestBuildFieldPathWholeCollection(t *testing.T) {
	p := compilePath(t, personType(), "tags")
	eq(t, len(p), 1)
	eq(t, p[0].Kind(), EntryStructField)
	eq(t, p[0].DataType().Kind(), KindArray)
}

func TestBuildFieldPathEmpty(t *testing.T) {
	p := compilePath(t, personType(), "")
	eq(t, p.Empty(), true)
	if p.ResultingDataType() != nil {
		t.Fatalf("** empty path has a resulting type")
	}
}

func TestBuildFieldPathUnknownField(t *testing.T) {
	_, err := BuildFieldPath(personType(), "nosuch.city")
	e := failsWith[*FieldNotFoundError](t, err)
	eq(t, e.Field, "nosuch")
	eq(t, e.Type, "person")
}

func TestBuildFieldPathUnknownNestedField(t *testing.T) {
	_, err := BuildFieldPath(personType(), "addr.country")
	e := failsWith[*FieldNotFoundError](t, err)
	eq(t, e.Field, "country")
	eq(t, e.Type, "address")
}

func TestBuildFieldPathSyntaxErrors(t *testing.T) {
	for _, expr := range []string{
		"tags[3",
		"tags[x]",
		"attrs{color",
		"age[0]",
	} {
		_, err := BuildFieldPath(personType(), expr)
		if err == nil {
			t.Fatalf("** %q compiled, wanted an error", expr)
		}
	}
	_, err := BuildFieldPath(personType(), "tags[3")
	failsWith[*PathSyntaxError](t, err)
}

func TestFieldPathReusableAcrossValues(t *testing.T) {
	p := compilePath(t, personType(), "addr.city")
	a := makePerson(t)
	b := makePerson(t)
	succeed(t, b.SetValueByName("name", NewString("Bob")))
	eq(t, stringOf(t, a.GetNested(p)), "Oslo")
	eq(t, stringOf(t, b.GetNested(p)), "Oslo")
}
