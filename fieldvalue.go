package dvo

// ModificationStatus is the three-valued verdict returned by each level of
// the nested iteration walk. Propagation is bottom-up and monotonic: a
// parent seeing any child Modified or Removed reports at least Modified.
type ModificationStatus uint8

const (
	NotModified ModificationStatus = iota
	Modified
	Removed
)

func (s ModificationStatus) String() string {
	switch s {
	case NotModified:
		return "NOT_MODIFIED"
	case Modified:
		return "MODIFIED"
	case Removed:
		return "REMOVED"
	default:
		return "?"
	}
}

// FieldValue is a node of a document value tree. The hierarchy is closed:
// primitive leaves, Array, Map, WeightedSet, Struct and Document. Parents
// own their children exclusively; Clone copies the whole subtree. The
// DataType is shared and never owned.
type FieldValue interface {
	DataType() DataType

	// Clone returns an independent deep copy.
	Clone() FieldValue

	// Compare defines a total order over all field values: first by type
	// kind, then by value.
	Compare(other FieldValue) int

	// Assign replaces this value's content with other's. Fails with a
	// TypeError when other's type is incompatible.
	Assign(other FieldValue) error

	// HasChanged reports whether the value was mutated since the last
	// serialize/deserialize round-trip.
	HasChanged() bool

	// GetNested navigates the path read-only and returns the value it
	// resolves to, or nil when any step is absent. Wildcard steps resolve
	// to nil (they do not address a single value).
	GetNested(path FieldPath) FieldValue

	// IterateNested walks the value tree along path, depth-first and
	// pre-order, driving the handler at structural boundaries, and returns
	// the modification verdict for this subtree.
	IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error)

	// AsInterface renders the value as plain Go data (scalars, []any,
	// map[string]any) for selection evaluation and debugging.
	AsInterface() any
}

// combine upgrades a parent's verdict after observing a child's: Removed
// and Modified children both make the parent Modified.
func combine(parent, child ModificationStatus) ModificationStatus {
	if child != NotModified && parent == NotModified {
		return Modified
	}
	return parent
}

// kindRank orders values of different kinds for Compare.
func kindRank(v FieldValue) int {
	return int(v.DataType().Kind())
}

// AsByte returns the value as an int8 if it is a byte or a narrower
// compatible number.
func AsByte(v FieldValue) (int8, error) {
	if n, ok := v.(*NumberFieldValue[int8]); ok {
		return n.val, nil
	}
	return 0, convErr(v, "byte")
}

// AsInt returns the value as an int32 if the kind can represent it.
func AsInt(v FieldValue) (int32, error) {
	switch n := v.(type) {
	case *NumberFieldValue[int8]:
		return int32(n.val), nil
	case *NumberFieldValue[int32]:
		return n.val, nil
	case *BoolFieldValue:
		if n.val {
			return 1, nil
		}
		return 0, nil
	}
	return 0, convErr(v, "int")
}

// AsLong returns the value as an int64 if the kind can represent it.
func AsLong(v FieldValue) (int64, error) {
	switch n := v.(type) {
	case *NumberFieldValue[int8]:
		return int64(n.val), nil
	case *NumberFieldValue[int32]:
		return int64(n.val), nil
	case *NumberFieldValue[int64]:
		return n.val, nil
	case *BoolFieldValue:
		if n.val {
			return 1, nil
		}
		return 0, nil
	}
	return 0, convErr(v, "long")
}

// AsFloat returns the value as a float32 if the kind can represent it.
func AsFloat(v FieldValue) (float32, error) {
	switch n := v.(type) {
	case *NumberFieldValue[int8]:
		return float32(n.val), nil
	case *NumberFieldValue[int32]:
		return float32(n.val), nil
	case *NumberFieldValue[float32]:
		return n.val, nil
	}
	return 0, convErr(v, "float")
}

// AsDouble returns the value as a float64 if the kind can represent it.
func AsDouble(v FieldValue) (float64, error) {
	switch n := v.(type) {
	case *NumberFieldValue[int8]:
		return float64(n.val), nil
	case *NumberFieldValue[int32]:
		return float64(n.val), nil
	case *NumberFieldValue[int64]:
		return float64(n.val), nil
	case *NumberFieldValue[float32]:
		return float64(n.val), nil
	case *NumberFieldValue[float64]:
		return n.val, nil
	}
	return 0, convErr(v, "double")
}

// AsBool returns the value as a bool.
func AsBool(v FieldValue) (bool, error) {
	switch n := v.(type) {
	case *BoolFieldValue:
		return n.val, nil
	case *NumberFieldValue[int8]:
		return n.val != 0, nil
	case *NumberFieldValue[int32]:
		return n.val != 0, nil
	case *NumberFieldValue[int64]:
		return n.val != 0, nil
	}
	return false, convErr(v, "bool")
}

// AsString returns the value as a string if it is a string value.
func AsString(v FieldValue) (string, error) {
	if s, ok := v.(*StringFieldValue); ok {
		return s.val, nil
	}
	return "", convErr(v, "string")
}

// AsRaw returns the value's bytes if it is a raw or string value.
func AsRaw(v FieldValue) ([]byte, error) {
	switch n := v.(type) {
	case *RawFieldValue:
		return n.val, nil
	case *StringFieldValue:
		return []byte(n.val), nil
	}
	return nil, convErr(v, "raw")
}

// Equal reports whether two field values compare as equal.
func Equal(a, b FieldValue) bool {
	return a.Compare(b) == 0
}
