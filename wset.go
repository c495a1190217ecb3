package dvo

import (
	"cmp"
	"iter"
	"slices"
)

// WeightedSetFieldValue is a multiset: unique elements mapped to integer
// weights. Storage mirrors the map container (parallel element and weight
// slices in insertion order).
type WeightedSetFieldValue struct {
	typ     *WeightedSetDataType
	elems   []FieldValue
	weights []int32
	altered bool
}

func NewWeightedSet(typ *WeightedSetDataType) *WeightedSetFieldValue {
	return &WeightedSetFieldValue{typ: typ}
}

func (v *WeightedSetFieldValue) DataType() DataType { return v.typ }
func (v *WeightedSetFieldValue) Len() int           { return len(v.elems) }
func (v *WeightedSetFieldValue) Empty() bool        { return len(v.elems) == 0 }

func (v *WeightedSetFieldValue) find(el FieldValue) int {
	for i, e := range v.elems {
		if e.Compare(el) == 0 {
			return i
		}
	}
	return -1
}

// Add inserts the element with weight 1, or leaves an existing element's
// weight unchanged.
func (v *WeightedSetFieldValue) Add(el FieldValue) error {
	if v.find(el) >= 0 {
		return nil
	}
	return v.Put(el, 1)
}

// Put inserts or replaces the element's weight.
func (v *WeightedSetFieldValue) Put(el FieldValue, weight int32) error {
	if !v.typ.nested.IsValueType(el) {
		return typeErrf(v.typ.nested, el.DataType(), "weighted set element")
	}
	if i := v.find(el); i >= 0 {
		v.weights[i] = weight
	} else {
		v.elems = append(v.elems, el.Clone())
		v.weights = append(v.weights, weight)
	}
	v.altered = true
	return nil
}

// Increment adjusts the element's weight by delta. A missing element is
// added when the type's createIfNonExistent flag is set, otherwise the
// call is a no-op. A zero result removes the element when removeIfZero is
// set.
func (v *WeightedSetFieldValue) Increment(el FieldValue, delta int32) error {
	i := v.find(el)
	if i < 0 {
		if !v.typ.createIfNonExistent {
			return nil
		}
		return v.Put(el, delta)
	}
	v.weights[i] += delta
	v.altered = true
	if v.weights[i] == 0 && v.typ.removeIfZero {
		v.removeAt(i)
	}
	return nil
}

// Weight returns the element's weight and whether it is present.
func (v *WeightedSetFieldValue) Weight(el FieldValue) (int32, bool) {
	if i := v.find(el); i >= 0 {
		return v.weights[i], true
	}
	return 0, false
}

func (v *WeightedSetFieldValue) Contains(el FieldValue) bool {
	return v.find(el) >= 0
}

// Remove deletes the element, reporting whether it was present.
func (v *WeightedSetFieldValue) Remove(el FieldValue) bool {
	i := v.find(el)
	if i < 0 {
		return false
	}
	v.removeAt(i)
	return true
}

func (v *WeightedSetFieldValue) removeAt(i int) {
	v.elems = slices.Delete(v.elems, i, i+1)
	v.weights = slices.Delete(v.weights, i, i+1)
	v.altered = true
}

// Elements iterates element/weight pairs in insertion order.
func (v *WeightedSetFieldValue) Elements() iter.Seq2[FieldValue, int32] {
	return func(yield func(FieldValue, int32) bool) {
		for i, e := range v.elems {
			if !yield(e, v.weights[i]) {
				return
			}
		}
	}
}

func (v *WeightedSetFieldValue) Clone() FieldValue {
	c := &WeightedSetFieldValue{typ: v.typ, altered: v.altered}
	c.elems = make([]FieldValue, len(v.elems))
	for i, e := range v.elems {
		c.elems[i] = e.Clone()
	}
	c.weights = slices.Clone(v.weights)
	return c
}

func (v *WeightedSetFieldValue) Compare(other FieldValue) int {
	o, ok := other.(*WeightedSetFieldValue)
	if !ok {
		return cmp.Compare(kindRank(v), kindRank(other))
	}
	if c := cmp.Compare(len(v.elems), len(o.elems)); c != 0 {
		return c
	}
	for i := range v.elems {
		if c := v.elems[i].Compare(o.elems[i]); c != 0 {
			return c
		}
		if c := cmp.Compare(v.weights[i], o.weights[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (v *WeightedSetFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*WeightedSetFieldValue)
	if !ok || !v.typ.IsValueType(other) {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.elems = make([]FieldValue, len(o.elems))
	for i, e := range o.elems {
		v.elems[i] = e.Clone()
	}
	v.weights = slices.Clone(o.weights)
	v.altered = true
	return nil
}

func (v *WeightedSetFieldValue) HasChanged() bool { return v.altered }

func (v *WeightedSetFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	e := path[0]
	if e.kind != EntryMapKey {
		return nil
	}
	if i := v.find(e.key); i >= 0 {
		w := NewInt(v.weights[i])
		return w.GetNested(path[1:])
	}
	return nil
}

func (v *WeightedSetFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	h.OnCollectionStart(v)
	defer h.OnCollectionEnd(v)

	if path.Empty() {
		status, err := h.Modify(v)
		if err != nil || status == Removed {
			return status, err
		}
		if h.HandleComplex(v) {
			sub, err := v.iterateElems(path, h)
			if err != nil {
				return NotModified, err
			}
			status = combine(status, sub)
		}
		return status, nil
	}

	switch e := path[0]; e.kind {
	case EntryMapKey:
		// A keyed step resolves to the element's weight.
		if i := v.find(e.key); i >= 0 {
			return v.iterateWeightAt(i, path[1:], h)
		}
		if h.CreateMissingPath() {
			w := NewInt(0)
			status, err := w.IterateNested(path[1:], h)
			if err != nil {
				return NotModified, err
			}
			if status == Modified {
				if w.Value() != 0 || !v.typ.removeIfZero {
					if err := v.Put(e.key, w.Value()); err != nil {
						return NotModified, err
					}
				}
			}
			return status, nil
		}
		return NotModified, nil

	case EntryVariable:
		if iv, ok := h.Variables()[e.variable]; ok && iv.Key != nil {
			if i := v.find(iv.Key); i >= 0 {
				return v.iterateWeightAt(i, path[1:], h)
			}
			return NotModified, nil
		}
		status := NotModified
		var removals []int
		for i := range v.elems {
			restore := bindVariable(h, e.variable, IndexValue{Key: v.elems[i]})
			w := NewInt(v.weights[i])
			st, err := w.IterateNested(path[1:], h)
			restore()
			if err != nil {
				return NotModified, err
			}
			switch st {
			case Removed:
				removals = append(removals, i)
				status = Modified
			case Modified:
				if w.Value() == 0 && v.typ.removeIfZero {
					removals = append(removals, i)
				} else {
					v.weights[i] = w.Value()
					v.altered = true
				}
				status = Modified
			}
		}
		for i := len(removals) - 1; i >= 0; i-- {
			v.removeAt(removals[i])
		}
		return status, nil

	default:
		// The step belongs to the element type: fan out over elements.
		return v.iterateElems(path, h)
	}
}

// iterateWeightAt walks into the weight of element i, materialized as an
// int value; a Modified weight is written back, a Removed one drops the
// element.
func (v *WeightedSetFieldValue) iterateWeightAt(i int, rest FieldPath, h IteratorHandler) (ModificationStatus, error) {
	w := NewInt(v.weights[i])
	status, err := w.IterateNested(rest, h)
	if err != nil {
		return NotModified, err
	}
	switch status {
	case Removed:
		v.removeAt(i)
		return Modified, nil
	case Modified:
		if w.Value() == 0 && v.typ.removeIfZero {
			v.removeAt(i)
		} else {
			v.weights[i] = w.Value()
			v.altered = true
		}
	}
	return status, nil
}

// iterateElems visits the elements themselves (the terminal fan-out and
// pass-through cases).
func (v *WeightedSetFieldValue) iterateElems(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
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
	for i := len(removals) - 1; i >= 0; i-- {
		v.removeAt(removals[i])
	}
	return status, nil
}

func (v *WeightedSetFieldValue) AsInterface() any {
	out := make(map[string]any, len(v.elems))
	for i, e := range v.elems {
		out[keyString(e)] = int64(v.weights[i])
	}
	return out
}
