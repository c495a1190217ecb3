package dvo

import (
	"cmp"
	"slices"
)

// ArrayFieldValue is an ordered sequence of values of a single element
// type.
type ArrayFieldValue struct {
	typ     *ArrayDataType
	elems   []FieldValue
	altered bool
}

func NewArray(typ *ArrayDataType) *ArrayFieldValue {
	return &ArrayFieldValue{typ: typ}
}

func (v *ArrayFieldValue) DataType() DataType { return v.typ }
func (v *ArrayFieldValue) Len() int           { return len(v.elems) }

func (v *ArrayFieldValue) At(i int) FieldValue {
	return v.elems[i]
}

// Append adds an element, verifying its type against the element type
// before cloning it into the array.
func (v *ArrayFieldValue) Append(el FieldValue) error {
	if !v.typ.nested.IsValueType(el) {
		return typeErrf(v.typ.nested, el.DataType(), "append to "+v.typ.name)
	}
	v.elems = append(v.elems, el.Clone())
	v.altered = true
	return nil
}

// Set replaces the element at i, verifying its type first.
func (v *ArrayFieldValue) Set(i int, el FieldValue) error {
	if !v.typ.nested.IsValueType(el) {
		return typeErrf(v.typ.nested, el.DataType(), "set element of "+v.typ.name)
	}
	v.elems[i] = el.Clone()
	v.altered = true
	return nil
}

func (v *ArrayFieldValue) Remove(i int) {
	v.elems = slices.Delete(v.elems, i, i+1)
	v.altered = true
}

func (v *ArrayFieldValue) Clear() {
	v.elems = nil
	v.altered = true
}

func (v *ArrayFieldValue) Clone() FieldValue {
	c := &ArrayFieldValue{typ: v.typ, altered: v.altered}
	c.elems = make([]FieldValue, len(v.elems))
	for i, el := range v.elems {
		c.elems[i] = el.Clone()
	}
	return c
}

func (v *ArrayFieldValue) Compare(other FieldValue) int {
	o, ok := other.(*ArrayFieldValue)
	if !ok {
		return cmp.Compare(kindRank(v), kindRank(other))
	}
	if c := cmp.Compare(len(v.elems), len(o.elems)); c != 0 {
		return c
	}
	for i, el := range v.elems {
		if c := el.Compare(o.elems[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (v *ArrayFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*ArrayFieldValue)
	if !ok || !v.typ.IsValueType(other) {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.elems = make([]FieldValue, len(o.elems))
	for i, el := range o.elems {
		v.elems[i] = el.Clone()
	}
	v.altered = true
	return nil
}

func (v *ArrayFieldValue) HasChanged() bool { return v.altered }

func (v *ArrayFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	e := path[0]
	if e.kind != EntryArrayIndex {
		return nil
	}
	if e.index >= len(v.elems) {
		return nil
	}
	return v.elems[e.index].GetNested(path[1:])
}

func (v *ArrayFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	h.OnCollectionStart(v)
	defer h.OnCollectionEnd(v)

	if path.Empty() {
		status, err := h.Modify(v)
		if err != nil || status == Removed {
			return status, err
		}
		if h.HandleComplex(v) {
			sub, err := v.iterateElements(path, h)
			if err != nil {
				return NotModified, err
			}
			status = combine(status, sub)
		}
		return status, nil
	}

	switch e := path[0]; e.kind {
	case EntryArrayIndex:
		if e.index >= len(v.elems) {
			// No out-of-range creation, even with createMissingPath.
			return NotModified, nil
		}
		return v.iterateElementAt(e.index, path[1:], h)

	case EntryVariable:
		if iv, ok := h.Variables()[e.variable]; ok && iv.Key == nil {
			if iv.Index >= len(v.elems) {
				return NotModified, nil
			}
			return v.iterateElementAt(iv.Index, path[1:], h)
		}
		status := NotModified
		var removals []int
		for i := range v.elems {
			restore := bindVariable(h, e.variable, IndexValue{Index: i})
			st, err := v.elems[i].IterateNested(path[1:], h)
			restore()
			if err != nil {
				return NotModified, err
			}
			switch st {
			case Removed:
				removals = append(removals, i)
				status = Modified
			case Modified:
				status = Modified
				v.altered = true
			}
		}
		v.removeIndexes(removals)
		return status, nil

	default:
		// The step belongs to the element type: fan out over every
		// element with the full remaining path.
		return v.iterateElements(path, h)
	}
}

func (v *ArrayFieldValue) iterateElementAt(i int, rest FieldPath, h IteratorHandler) (ModificationStatus, error) {
	status, err := v.elems[i].IterateNested(rest, h)
	if err != nil {
		return NotModified, err
	}
	switch status {
	case Removed:
		v.Remove(i)
		return Modified, nil
	case Modified:
		v.altered = true
	}
	return status, nil
}

func (v *ArrayFieldValue) iterateElements(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	status := NotModified
	var removals []int
	for i, el := range v.elems {
		st, err := el.IterateNested(path, h)
		if err != nil {
			return NotModified, err
		}
		switch st {
		case Removed:
			removals = append(removals, i)
			status = Modified
		case Modified:
			status = Modified
			v.altered = true
		}
	}
	v.removeIndexes(removals)
	return status, nil
}

// removeIndexes deletes the given ascending indexes, walking backwards so
// earlier removals do not shift later ones.
func (v *ArrayFieldValue) removeIndexes(indexes []int) {
	for i := len(indexes) - 1; i >= 0; i-- {
		v.Remove(indexes[i])
	}
}

func (v *ArrayFieldValue) AsInterface() any {
	out := make([]any, len(v.elems))
	for i, el := range v.elems {
		out[i] = el.AsInterface()
	}
	return out
}
