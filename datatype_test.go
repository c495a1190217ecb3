package dvo

import (
	"testing"
)

func TestFieldIdentity(t *testing.T) {
	a := NewField("title", TypeString, false)
	b := NewField("title", TypeInt, true)
	c := NewField("body", TypeString, false)

	// Ids derive from the name alone.
	eq(t, a.ID(), b.ID())
	eq(t, a.Equal(b), true)
	eq(t, a.Equal(c), false)
	eq(t, c.Less(a), true)
	eq(t, a.Valid(), true)
	eq(t, Field{}.Valid(), false)
}

func TestFieldWithExplicitID(t *testing.T) {
	f := NewFieldWithID("x", 7, TypeInt, false)
	eq(t, f.ID(), 7)
	defer func() {
		if recover() == nil {
			t.Fatalf("** id 0 accepted")
		}
	}()
	NewFieldWithID("y", 0, TypeInt, false)
}

func TestStructTypeDeclare(t *testing.T) {
	st := NewStructDataType("s")
	st.Declare("a", TypeInt, false)
	st.Declare("b", TypeString, false)

	f, ok := st.Field("a")
	eq(t, ok, true)
	eq(t, f.Type().Name(), "int")

	byID, ok := st.FieldByID(f.ID())
	eq(t, ok, true)
	eq(t, byID.Name(), "a")

	_, ok = st.Field("zzz")
	eq(t, ok, false)

	defer func() {
		if recover() == nil {
			t.Fatalf("** duplicate field accepted")
		}
	}()
	st.Declare("a", TypeInt, false)
}

func TestTypeNames(t *testing.T) {
	eq(t, NewArrayDataType(TypeInt).Name(), "Array<int>")
	eq(t, NewMapDataType(TypeString, TypeLong).Name(), "Map<string,long>")
	eq(t, NewWeightedSetDataType(TypeString, false, false).Name(), "WeightedSet<string>")
}

func TestTypesCompatible(t *testing.T) {
	eq(t, TypeInt.IsValueType(NewInt(1)), true)
	eq(t, TypeInt.IsValueType(NewLong(1)), false)
	eq(t, NewArrayDataType(TypeInt).IsValueType(NewArray(NewArrayDataType(TypeInt))), true)
	eq(t, NewArrayDataType(TypeInt).IsValueType(NewArray(NewArrayDataType(TypeLong))), false)

	// Struct compatibility is by name: separately built instances of the
	// same schema interoperate.
	a := nestedType()
	b := nestedType()
	eq(t, a.IsValueType(NewStruct(b)), true)
}

func TestCreateValueDefaults(t *testing.T) {
	eq(t, must(AsInt(TypeInt.CreateValue())), 0)
	eq(t, must(AsString(TypeString.CreateValue())), "")

	arr := NewArrayDataType(TypeInt).CreateValue().(*ArrayFieldValue)
	eq(t, arr.Len(), 0)

	doc := personType().CreateValue().(*Document)
	eq(t, doc.ID(), "")
	eq(t, doc.Empty(), true)
}
