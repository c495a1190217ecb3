package dvo

import (
	"testing"
)

func nestedType() *StructDataType {
	inner := NewStructDataType("inner")
	inner.Declare("d", TypeString, false)
	inner.Declare("e", TypeString, false)

	outer := NewStructDataType("outer")
	outer.Declare("a", TypeString, false)
	outer.Declare("c", inner, false)
	return outer
}

func makeNested(t testing.TB) *StructFieldValue {
	t.Helper()
	outer := nestedType()
	s := NewStruct(outer)
	succeed(t, s.SetValueByName("a", NewString("aa")))

	inner := NewStruct(fieldOf(t, outer, "c").Type().(*StructDataType))
	succeed(t, inner.SetValueByName("d", NewString("dd")))
	succeed(t, inner.SetValueByName("e", NewString("ee")))
	succeed(t, s.SetValueByName("c", inner))
	return s
}

func TestStructValueSemantics(t *testing.T) {
	s := makeNested(t)
	eq(t, s.SetFieldCount(), 2)
	eq(t, s.Empty(), false)
	eq(t, s.HasValueByName("a"), true)

	// SetValue clones: later edits to the source do not leak in.
	src := NewString("v1")
	succeed(t, s.SetValueByName("a", src))
	src.SetValue("v2")
	eq(t, stringOf(t, s.ValueByName("a")), "v1")

	s.RemoveValueByName("a")
	eq(t, s.HasValueByName("a"), false)
	if s.ValueByName("a") != nil {
		t.Fatalf("** removed field still has a value")
	}
	eq(t, s.SetFieldCount(), 1)
}

func TestStructSetValueTypeCheck(t *testing.T) {
	s := makeNested(t)
	failsWith[*TypeError](t, s.SetValueByName("a", NewInt(1)))
	eq(t, stringOf(t, s.ValueByName("a")), "aa")
}

func TestStructPresentFieldsDeclarationOrder(t *testing.T) {
	s := makeNested(t)
	var names []string
	for _, f := range s.PresentFields() {
		names = append(names, f.Name())
	}
	deepEqual(t, names, []string{"a", "c"})
}

func TestStructFieldsIterator(t *testing.T) {
	s := makeNested(t)
	var names []string
	for f, v := range s.Fields() {
		names = append(names, f.Name())
		if v == nil {
			t.Fatalf("** nil value yielded for %s", f.Name())
		}
	}
	deepEqual(t, names, []string{"a", "c"})

	for range s.Fields() {
		break // early stop must not panic
	}
}

func TestStructCompareAndClone(t *testing.T) {
	a := makeNested(t)
	b := makeNested(t)
	eq(t, a.Compare(b), 0)

	c := a.Clone().(*StructFieldValue)
	eq(t, a.Compare(c), 0)
	succeed(t, c.SetValueByName("a", NewString("zz")))
	if a.Compare(c) == 0 {
		t.Fatalf("** clone mutation affected compare")
	}
	eq(t, stringOf(t, a.ValueByName("a")), "aa")
}

func TestStructNestedAssignLeavesSiblings(t *testing.T) {
	s := makeNested(t)
	p := compilePath(t, s.typ, "c.e")

	status, err := s.IterateNested(p, &recordingAssign{value: NewString("zzz")})
	succeed(t, err)
	eq(t, status, Modified)

	eq(t, stringOf(t, s.GetNested(compilePath(t, s.typ, "c.e"))), "zzz")
	eq(t, stringOf(t, s.GetNested(compilePath(t, s.typ, "c.d"))), "dd")
	eq(t, stringOf(t, s.GetNested(compilePath(t, s.typ, "a"))), "aa")
}

func TestStructNestedRemoveAbsorbed(t *testing.T) {
	s := makeNested(t)
	p := compilePath(t, s.typ, "c.e")

	// Removing a nested field modifies the parent struct, it does not
	// remove it.
	status, err := s.IterateNested(p, &droppingHandler{})
	succeed(t, err)
	eq(t, status, Modified)
	eq(t, s.HasValueByName("c"), true)
	inner := s.ValueByName("c").(*StructFieldValue)
	eq(t, inner.HasValueByName("e"), false)
	eq(t, inner.HasValueByName("d"), true)
}

func TestStructNestedCreateMissingPath(t *testing.T) {
	outer := nestedType()
	s := NewStruct(outer)
	p := compilePath(t, outer, "c.e")

	status, err := s.IterateNested(p, &recordingAssign{value: NewString("made")})
	succeed(t, err)
	eq(t, status, NotModified)
	eq(t, s.HasValueByName("c"), false)

	status, err = s.IterateNested(p, &recordingAssign{value: NewString("made"), create: true})
	succeed(t, err)
	eq(t, status, Modified)
	eq(t, stringOf(t, s.GetNested(p)), "made")
}

func TestStructIterateUnmodifiedStaysClean(t *testing.T) {
	s := makeNested(t)
	s.altered = false
	p := compilePath(t, s.typ, "c.e")

	status, err := s.IterateNested(p, &BaseIteratorHandler{})
	succeed(t, err)
	eq(t, status, NotModified)
	eq(t, s.HasChanged(), false)
}

func TestStructTransactionLastWriteWins(t *testing.T) {
	s := makeNested(t)
	g := s.BeginTransaction()
	succeed(t, s.SetValueByName("a", NewString("first")))
	succeed(t, s.SetValueByName("a", NewString("second")))

	// Reads see pending state.
	eq(t, stringOf(t, s.ValueByName("a")), "second")

	g.Commit()
	eq(t, stringOf(t, s.ValueByName("a")), "second")
}

func TestStructTransactionRemoveThenSet(t *testing.T) {
	s := makeNested(t)
	g := s.BeginTransaction()
	s.RemoveValueByName("a")
	eq(t, s.HasValueByName("a"), false)
	succeed(t, s.SetValueByName("a", NewString("back")))
	eq(t, s.HasValueByName("a"), true)
	g.Commit()
	eq(t, stringOf(t, s.ValueByName("a")), "back")
}

func TestStructTransactionGuardIdempotent(t *testing.T) {
	s := makeNested(t)
	g := s.BeginTransaction()
	succeed(t, s.SetValueByName("a", NewString("x")))
	g.Commit()
	g.Commit()
	eq(t, stringOf(t, s.ValueByName("a")), "x")
}

func TestStructNestedTransactionPanics(t *testing.T) {
	s := makeNested(t)
	g := s.BeginTransaction()
	defer g.Commit()
	defer func() {
		if recover() == nil {
			t.Fatalf("** nested BeginTransaction did not panic")
		}
	}()
	s.BeginTransaction()
}

func TestStructChecksumTracksContent(t *testing.T) {
	a := makeNested(t)
	b := makeNested(t)
	ca := must(a.Checksum())
	cb := must(b.Checksum())
	eq(t, ca, cb)

	succeed(t, b.SetValueByName("a", NewString("other")))
	cb2 := must(b.Checksum())
	if ca == cb2 {
		t.Fatalf("** checksum unchanged after mutation")
	}
}

func TestStructAssign(t *testing.T) {
	a := makeNested(t)
	b := NewStruct(nestedType())
	succeed(t, b.Assign(a))
	eq(t, a.Compare(b), 0)

	failsWith[*TypeError](t, b.Assign(NewString("nope")))
}
