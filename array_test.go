package dvo

import (
	"testing"
)

func makeStringArray(t testing.TB, elems ...string) *ArrayFieldValue {
	t.Helper()
	v := NewArray(NewArrayDataType(TypeString))
	for _, s := range elems {
		succeed(t, v.Append(NewString(s)))
	}
	return v
}

func TestArrayBasics(t *testing.T) {
	v := makeStringArray(t, "a", "b")
	eq(t, v.Len(), 2)
	eq(t, stringOf(t, v.At(1)), "b")

	err := v.Append(NewInt(1))
	failsWith[*TypeError](t, err)
	eq(t, v.Len(), 2)

	v.Remove(0)
	eq(t, v.Len(), 1)
	eq(t, stringOf(t, v.At(0)), "b")
}

func TestArrayAppendClones(t *testing.T) {
	v := NewArray(NewArrayDataType(TypeString))
	s := NewString("a")
	succeed(t, v.Append(s))
	s.SetValue("changed")
	eq(t, stringOf(t, v.At(0)), "a")
}

func TestArrayCompare(t *testing.T) {
	a := makeStringArray(t, "a", "b")
	b := makeStringArray(t, "a", "b")
	c := makeStringArray(t, "a", "c")
	eq(t, a.Compare(b), 0)
	eq(t, a.Compare(c) < 0, true)
	eq(t, a.Compare(makeStringArray(t, "a")) > 0, true)
}

type recordingAssign struct {
	BaseIteratorHandler
	value  FieldValue
	create bool
}

func (h *recordingAssign) Modify(v FieldValue) (ModificationStatus, error) {
	if err := v.Assign(h.value); err != nil {
		return NotModified, err
	}
	return Modified, nil
}

func (h *recordingAssign) CreateMissingPath() bool       { return h.create }
func (h *recordingAssign) HandleComplex(FieldValue) bool { return false }

type droppingHandler struct {
	BaseIteratorHandler
}

func (h *droppingHandler) Modify(FieldValue) (ModificationStatus, error) {
	return Removed, nil
}

func TestArrayIterateIndex(t *testing.T) {
	arrType := NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b", "c")
	p := compilePath(t, arrType, "[1]")

	status, err := v.IterateNested(p, &recordingAssign{value: NewString("B")})
	succeed(t, err)
	eq(t, status, Modified)
	eq(t, stringOf(t, v.At(1)), "B")
	eq(t, stringOf(t, v.At(0)), "a")
}

func TestArrayIterateIndexOutOfRange(t *testing.T) {
	arrType := NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b")
	p := compilePath(t, arrType, "[2]")

	// Out-of-range indexes never extend the array, even when the handler
	// wants missing paths created.
	status, err := v.IterateNested(p, &recordingAssign{value: NewString("x"), create: true})
	succeed(t, err)
	eq(t, status, NotModified)
	eq(t, v.Len(), 2)
	eq(t, v.HasChanged(), false)
}

func TestArrayIterateRemoveElement(t *testing.T) {
	arrType := NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b", "c")
	p := compilePath(t, arrType, "[0]")

	status, err := v.IterateNested(p, &droppingHandler{})
	succeed(t, err)
	eq(t, status, Modified)
	eq(t, v.Len(), 2)
	eq(t, stringOf(t, v.At(0)), "b")
}

func TestArrayIterateVariableEnumerates(t *testing.T) {
	arrType := NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b", "c")
	p := compilePath(t, arrType, "[$i]")

	h := &gatherBindingsHandler{}
	_, err := v.IterateNested(p, h)
	succeed(t, err)
	eq(t, len(h.bindings), 3)
	eq(t, h.bindings[0]["i"].Index, 0)
	eq(t, h.bindings[2]["i"].Index, 2)
}

func TestArrayIterateVariableBound(t *testing.T) {
	arrType := NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b", "c")
	p := compilePath(t, arrType, "[$i]")

	h := &recordingAssign{value: NewString("X")}
	h.SetVariables(VariableMap{"i": {Index: 1}})
	status, err := v.IterateNested(p, h)
	succeed(t, err)
	eq(t, status, Modified)
	eq(t, stringOf(t, v.At(0)), "a")
	eq(t, stringOf(t, v.At(1)), "X")
	eq(t, stringOf(t, v.At(2)), "c")
}

func TestArrayIterateWholeRemovesAll(t *testing.T) {
	_ = NewArrayDataType(TypeString)
	v := makeStringArray(t, "a", "b")

	status, err := v.IterateNested(nil, &droppingHandler{})
	succeed(t, err)
	eq(t, status, Removed)
}
