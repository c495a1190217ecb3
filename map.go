package dvo

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// MapFieldValue is an insertion-ordered key to value mapping with unique
// keys.
type MapFieldValue struct {
	typ     *MapDataType
	keys    []FieldValue
	values  []FieldValue
	altered bool
}

func NewMap(typ *MapDataType) *MapFieldValue {
	return &MapFieldValue{typ: typ}
}

func (v *MapFieldValue) DataType() DataType { return v.typ }
func (v *MapFieldValue) Len() int           { return len(v.keys) }
func (v *MapFieldValue) Empty() bool        { return len(v.keys) == 0 }

func (v *MapFieldValue) find(key FieldValue) int {
	for i, k := range v.keys {
		if k.Compare(key) == 0 {
			return i
		}
	}
	return -1
}

// Put inserts or replaces the value stored under key. Both key and value
// are type-checked before being cloned in.
func (v *MapFieldValue) Put(key, value FieldValue) error {
	if !v.typ.key.IsValueType(key) {
		return typeErrf(v.typ.key, key.DataType(), "map key")
	}
	if !v.typ.value.IsValueType(value) {
		return typeErrf(v.typ.value, value.DataType(), "map value")
	}
	if i := v.find(key); i >= 0 {
		v.values[i] = value.Clone()
	} else {
		v.keys = append(v.keys, key.Clone())
		v.values = append(v.values, value.Clone())
	}
	v.altered = true
	return nil
}

// Get returns the value stored under key, or nil when absent.
func (v *MapFieldValue) Get(key FieldValue) FieldValue {
	if i := v.find(key); i >= 0 {
		return v.values[i]
	}
	return nil
}

func (v *MapFieldValue) Contains(key FieldValue) bool {
	return v.find(key) >= 0
}

// Erase removes the entry under key, reporting whether it was present.
func (v *MapFieldValue) Erase(key FieldValue) bool {
	i := v.find(key)
	if i < 0 {
		return false
	}
	v.removeAt(i)
	return true
}

func (v *MapFieldValue) removeAt(i int) {
	v.keys = slices.Delete(v.keys, i, i+1)
	v.values = slices.Delete(v.values, i, i+1)
	v.altered = true
}

func (v *MapFieldValue) Clear() {
	v.keys, v.values = nil, nil
	v.altered = true
}

// Entries iterates key/value pairs in insertion order.
func (v *MapFieldValue) Entries() iter.Seq2[FieldValue, FieldValue] {
	return func(yield func(FieldValue, FieldValue) bool) {
		for i, k := range v.keys {
			if !yield(k, v.values[i]) {
				return
			}
		}
	}
}

func (v *MapFieldValue) Clone() FieldValue {
	c := &MapFieldValue{typ: v.typ, altered: v.altered}
	c.keys = make([]FieldValue, len(v.keys))
	c.values = make([]FieldValue, len(v.values))
	for i := range v.keys {
		c.keys[i] = v.keys[i].Clone()
		c.values[i] = v.values[i].Clone()
	}
	return c
}

func (v *MapFieldValue) Compare(other FieldValue) int {
	o, ok := other.(*MapFieldValue)
	if !ok {
		return cmp.Compare(kindRank(v), kindRank(other))
	}
	if c := cmp.Compare(len(v.keys), len(o.keys)); c != 0 {
		return c
	}
	for i := range v.keys {
		if c := v.keys[i].Compare(o.keys[i]); c != 0 {
			return c
		}
		if c := v.values[i].Compare(o.values[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (v *MapFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*MapFieldValue)
	if !ok || !v.typ.IsValueType(other) {
		return typeErrf(v.typ, other.DataType(), "assign")
	}
	v.keys = make([]FieldValue, len(o.keys))
	v.values = make([]FieldValue, len(o.values))
	for i := range o.keys {
		v.keys[i] = o.keys[i].Clone()
		v.values[i] = o.values[i].Clone()
	}
	v.altered = true
	return nil
}

func (v *MapFieldValue) HasChanged() bool { return v.altered }

func (v *MapFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return v
	}
	e := path[0]
	if e.kind != EntryMapKey {
		return nil
	}
	if i := v.find(e.key); i >= 0 {
		return v.values[i].GetNested(path[1:])
	}
	return nil
}

func (v *MapFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	h.OnCollectionStart(v)
	defer h.OnCollectionEnd(v)

	if path.Empty() {
		status, err := h.Modify(v)
		if err != nil || status == Removed {
			return status, err
		}
		if h.HandleComplex(v) {
			sub, err := v.iterateValues(path, h)
			if err != nil {
				return NotModified, err
			}
			status = combine(status, sub)
		}
		return status, nil
	}

	switch e := path[0]; e.kind {
	case EntryMapKey:
		if i := v.find(e.key); i >= 0 {
			return v.iterateValueAt(i, path[1:], h)
		}
		if h.CreateMissingPath() {
			fresh := v.typ.value.CreateValue()
			status, err := fresh.IterateNested(path[1:], h)
			if err != nil {
				return NotModified, err
			}
			if status == Modified {
				if err := v.Put(e.key, fresh); err != nil {
					return NotModified, err
				}
			}
			return status, nil
		}
		return NotModified, nil

	case EntryMapAllKeys:
		status := NotModified
		var removals []int
		for i := range v.keys {
			st, err := v.keys[i].IterateNested(path[1:], h)
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

	case EntryMapAllValues:
		return v.iterateValues(path[1:], h)

	case EntryVariable:
		if iv, ok := h.Variables()[e.variable]; ok && iv.Key != nil {
			if i := v.find(iv.Key); i >= 0 {
				return v.iterateValueAt(i, path[1:], h)
			}
			return NotModified, nil
		}
		status := NotModified
		var removals []int
		for i := range v.keys {
			restore := bindVariable(h, e.variable, IndexValue{Key: v.keys[i]})
			st, err := v.values[i].IterateNested(path[1:], h)
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
		// The step belongs to the value type: fan out over every value
		// with the full remaining path.
		return v.iterateValues(path, h)
	}
}

func (v *MapFieldValue) iterateValueAt(i int, rest FieldPath, h IteratorHandler) (ModificationStatus, error) {
	status, err := v.values[i].IterateNested(rest, h)
	if err != nil {
		return NotModified, err
	}
	switch status {
	case Removed:
		v.removeAt(i)
		return Modified, nil
	case Modified:
		v.altered = true
	}
	return status, nil
}

func (v *MapFieldValue) iterateValues(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	status := NotModified
	var removals []int
	for i := range v.values {
		st, err := v.values[i].IterateNested(path, h)
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

func (v *MapFieldValue) removeIndexes(indexes []int) {
	for i := len(indexes) - 1; i >= 0; i-- {
		v.removeAt(indexes[i])
	}
}

func (v *MapFieldValue) AsInterface() any {
	out := make(map[string]any, len(v.keys))
	for i, k := range v.keys {
		out[keyString(k)] = v.values[i].AsInterface()
	}
	return out
}

// keyString renders a map key for interface views and variable bindings.
func keyString(k FieldValue) string {
	if s, err := AsString(k); err == nil {
		return s
	}
	return fmt.Sprint(k.AsInterface())
}
