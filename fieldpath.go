package dvo

import (
	"strconv"
	"strings"
)

// EntryKind tags one step of a compiled field path.
type EntryKind uint8

const (
	EntryStructField EntryKind = iota
	EntryArrayIndex
	EntryMapKey
	EntryMapAllKeys
	EntryMapAllValues
	EntryVariable
)

func (k EntryKind) String() string {
	switch k {
	case EntryStructField:
		return "struct-field"
	case EntryArrayIndex:
		return "array-index"
	case EntryMapKey:
		return "map-key"
	case EntryMapAllKeys:
		return "all-keys"
	case EntryMapAllValues:
		return "all-values"
	case EntryVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// FieldPathEntry is a single compiled step of a field path. Which of the
// extra members is meaningful depends on the kind. The dataType is the type
// of the value the step resolves to.
type FieldPathEntry struct {
	kind     EntryKind
	field    Field      // EntryStructField
	index    int        // EntryArrayIndex
	key      FieldValue // EntryMapKey
	variable string     // EntryVariable
	dataType DataType
}

func structFieldEntry(f Field) FieldPathEntry {
	return FieldPathEntry{kind: EntryStructField, field: f, dataType: f.Type()}
}

func arrayIndexEntry(index int, elemType DataType) FieldPathEntry {
	return FieldPathEntry{kind: EntryArrayIndex, index: index, dataType: elemType}
}

func mapKeyEntry(key FieldValue, valueType DataType) FieldPathEntry {
	return FieldPathEntry{kind: EntryMapKey, key: key, dataType: valueType}
}

func allKeysEntry(keyType DataType) FieldPathEntry {
	return FieldPathEntry{kind: EntryMapAllKeys, dataType: keyType}
}

func allValuesEntry(valueType DataType) FieldPathEntry {
	return FieldPathEntry{kind: EntryMapAllValues, dataType: valueType}
}

func variableEntry(name string, elemType DataType) FieldPathEntry {
	return FieldPathEntry{kind: EntryVariable, variable: name, dataType: elemType}
}

func (e FieldPathEntry) Kind() EntryKind    { return e.kind }
func (e FieldPathEntry) Field() Field       { return e.field }
func (e FieldPathEntry) Index() int         { return e.index }
func (e FieldPathEntry) Key() FieldValue    { return e.key }
func (e FieldPathEntry) Variable() string   { return e.variable }
func (e FieldPathEntry) DataType() DataType { return e.dataType }

func (e FieldPathEntry) String() string {
	switch e.kind {
	case EntryStructField:
		return e.field.Name()
	case EntryArrayIndex:
		return "[" + strconv.Itoa(e.index) + "]"
	case EntryMapKey:
		s, err := AsString(e.key)
		if err != nil {
			s = Dump(e.key)
		}
		return "{" + s + "}"
	case EntryMapAllKeys:
		return "key"
	case EntryMapAllValues:
		return "value"
	case EntryVariable:
		return "{$" + e.variable + "}"
	default:
		return "?"
	}
}

// FieldPath is an ordered, outer-to-inner sequence of compiled path steps.
// It is immutable once compiled and may be reused across any number of
// values sharing the type it was compiled against.
type FieldPath []FieldPathEntry

// BuildFieldPath compiles a dotted/bracketed field path expression against
// the given type. Malformed syntax and unknown field names fail the whole
// compilation; no partial path is returned.
func BuildFieldPath(t DataType, expr string) (FieldPath, error) {
	p, err := t.buildFieldPath(expr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p FieldPath) Empty() bool { return len(p) == 0 }

// ResultingDataType is the type of the value the full path resolves to,
// or nil for an empty path.
func (p FieldPath) ResultingDataType() DataType {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1].dataType
}

func (p FieldPath) String() string {
	var buf strings.Builder
	for i, e := range p {
		if i > 0 && e.kind == EntryStructField {
			buf.WriteByte('.')
		}
		buf.WriteString(e.String())
	}
	return buf.String()
}
