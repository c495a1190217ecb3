package dvo

import (
	"strconv"
	"strings"
)

// Kind is the closed set of value shapes the document model supports.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindByte
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindRaw
	KindArray
	KindWeightedSet
	KindMap
	KindStruct
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindRaw:
		return "raw"
	case KindArray:
		return "array"
	case KindWeightedSet:
		return "weightedset"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindDocument:
		return "document"
	default:
		return "invalid"
	}
}

// DataType describes the shape of values: it constructs empty values of its
// kind, tests value compatibility and compiles field path expressions.
// The hierarchy is closed; only this package implements it.
type DataType interface {
	Name() string
	Kind() Kind
	CreateValue() FieldValue
	IsValueType(v FieldValue) bool
	buildFieldPath(remain string) (FieldPath, error)
}

// typesCompatible reports whether a value of type actual may be stored
// where declared is expected. Struct and document types match by name;
// containers match structurally.
func typesCompatible(declared, actual DataType) bool {
	if declared == actual {
		return true
	}
	if declared == nil || actual == nil {
		return false
	}
	if declared.Kind() != actual.Kind() {
		return false
	}
	switch d := declared.(type) {
	case *PrimitiveDataType:
		return true // same kind is enough for primitives
	case *ArrayDataType:
		return typesCompatible(d.nested, actual.(*ArrayDataType).nested)
	case *WeightedSetDataType:
		return typesCompatible(d.nested, actual.(*WeightedSetDataType).nested)
	case *MapDataType:
		a := actual.(*MapDataType)
		return typesCompatible(d.key, a.key) && typesCompatible(d.value, a.value)
	default:
		return declared.Name() == actual.Name()
	}
}

// PrimitiveDataType describes a scalar leaf type. Use the package-level
// singletons (TypeInt, TypeString, ...), never construct these directly.
type PrimitiveDataType struct {
	name string
	kind Kind
}

var (
	TypeByte   = &PrimitiveDataType{"byte", KindByte}
	TypeBool   = &PrimitiveDataType{"bool", KindBool}
	TypeInt    = &PrimitiveDataType{"int", KindInt}
	TypeLong   = &PrimitiveDataType{"long", KindLong}
	TypeFloat  = &PrimitiveDataType{"float", KindFloat}
	TypeDouble = &PrimitiveDataType{"double", KindDouble}
	TypeString = &PrimitiveDataType{"string", KindString}
	TypeRaw    = &PrimitiveDataType{"raw", KindRaw}
)

func (t *PrimitiveDataType) Name() string { return t.name }
func (t *PrimitiveDataType) Kind() Kind   { return t.kind }

func (t *PrimitiveDataType) CreateValue() FieldValue {
	switch t.kind {
	case KindByte:
		return NewByte(0)
	case KindBool:
		return NewBool(false)
	case KindInt:
		return NewInt(0)
	case KindLong:
		return NewLong(0)
	case KindFloat:
		return NewFloat(0)
	case KindDouble:
		return NewDouble(0)
	case KindString:
		return NewString("")
	case KindRaw:
		return NewRaw(nil)
	default:
		panic("invalid primitive kind")
	}
}

func (t *PrimitiveDataType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

func (t *PrimitiveDataType) buildFieldPath(remain string) (FieldPath, error) {
	if remain != "" {
		return nil, pathErrf(remain, "%s is a primitive type and cannot be subscripted", t.name)
	}
	return nil, nil
}

// parseLiteral turns a path literal (a map key, typically) into a value of
// this primitive type.
func (t *PrimitiveDataType) parseLiteral(text string) (FieldValue, error) {
	switch t.kind {
	case KindString:
		return NewString(text), nil
	case KindRaw:
		return NewRaw([]byte(text)), nil
	case KindBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, pathErrf(text, "invalid bool literal")
		}
		return NewBool(v), nil
	case KindByte:
		v, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return nil, pathErrf(text, "invalid byte literal")
		}
		return NewByte(int8(v)), nil
	case KindInt:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, pathErrf(text, "invalid int literal")
		}
		return NewInt(int32(v)), nil
	case KindLong:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, pathErrf(text, "invalid long literal")
		}
		return NewLong(v), nil
	case KindFloat:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, pathErrf(text, "invalid float literal")
		}
		return NewFloat(float32(v)), nil
	case KindDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, pathErrf(text, "invalid double literal")
		}
		return NewDouble(v), nil
	default:
		panic("invalid primitive kind")
	}
}

// ArrayDataType describes an ordered homogeneous sequence.
type ArrayDataType struct {
	name   string
	nested DataType
}

func NewArrayDataType(nested DataType) *ArrayDataType {
	return &ArrayDataType{"Array<" + nested.Name() + ">", nested}
}

func (t *ArrayDataType) Name() string         { return t.name }
func (t *ArrayDataType) Kind() Kind           { return KindArray }
func (t *ArrayDataType) NestedType() DataType { return t.nested }

func (t *ArrayDataType) CreateValue() FieldValue {
	return NewArray(t)
}

func (t *ArrayDataType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

// An array consumes a leading "[...]" subscript: a decimal index, or
// "$name" binding the index to a variable. With no subscript the path
// passes through to the element type and the iteration engine fans out
// over every element. The local entry is prepended after the recursive
// call so the final entry order is outer to inner.
func (t *ArrayDataType) buildFieldPath(remain string) (FieldPath, error) {
	if remain == "" {
		return nil, nil
	}
	if remain[0] != '[' {
		return t.nested.buildFieldPath(remain)
	}
	end := strings.IndexByte(remain, ']')
	if end < 0 {
		return nil, pathErrf(remain, "array subscript must be closed with ]")
	}
	payload := remain[1:end]
	rest := remain[end+1:]
	rest = strings.TrimPrefix(rest, ".")
	sub, err := t.nested.buildFieldPath(rest)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(payload, "$") {
		return prependEntry(variableEntry(payload[1:], t.nested), sub), nil
	}
	index, err := strconv.Atoi(payload)
	if err != nil || index < 0 {
		return nil, pathErrf(remain, "invalid array index %q", payload)
	}
	return prependEntry(arrayIndexEntry(index, t.nested), sub), nil
}

// WeightedSetDataType describes a multiset: unique elements mapped to
// integer weights. The flags control update semantics: createIfNonExistent
// makes increments add missing elements, removeIfZero drops elements whose
// weight reaches zero.
type WeightedSetDataType struct {
	name                string
	nested              DataType
	createIfNonExistent bool
	removeIfZero        bool
}

func NewWeightedSetDataType(nested DataType, createIfNonExistent, removeIfZero bool) *WeightedSetDataType {
	return &WeightedSetDataType{
		name:                "WeightedSet<" + nested.Name() + ">",
		nested:              nested,
		createIfNonExistent: createIfNonExistent,
		removeIfZero:        removeIfZero,
	}
}

func (t *WeightedSetDataType) Name() string         { return t.name }
func (t *WeightedSetDataType) Kind() Kind           { return KindWeightedSet }
func (t *WeightedSetDataType) NestedType() DataType { return t.nested }

func (t *WeightedSetDataType) CreateValue() FieldValue {
	return NewWeightedSet(t)
}

func (t *WeightedSetDataType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

// A weighted set is addressed like a map from element to weight: "{elem}"
// resolves to the element's weight (an int).
func (t *WeightedSetDataType) buildFieldPath(remain string) (FieldPath, error) {
	return buildKeyedPath(t.nested, TypeInt, remain)
}

// MapDataType describes an insertion-ordered key to value mapping with
// unique keys.
type MapDataType struct {
	name  string
	key   DataType
	value DataType
}

func NewMapDataType(key, value DataType) *MapDataType {
	return &MapDataType{"Map<" + key.Name() + "," + value.Name() + ">", key, value}
}

func (t *MapDataType) Name() string        { return t.name }
func (t *MapDataType) Kind() Kind          { return KindMap }
func (t *MapDataType) KeyType() DataType   { return t.key }
func (t *MapDataType) ValueType() DataType { return t.value }

func (t *MapDataType) CreateValue() FieldValue {
	return NewMap(t)
}

func (t *MapDataType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

// A map consumes "{key}" (literal key or "$name" variable), or a leading
// "key"/"value" component projecting all keys or all values. Anything else
// passes through to the value type.
func (t *MapDataType) buildFieldPath(remain string) (FieldPath, error) {
	if remain == "" {
		return nil, nil
	}
	if head, rest, ok := keyedProjection(remain); ok {
		switch head {
		case "key":
			sub, err := t.key.buildFieldPath(rest)
			if err != nil {
				return nil, err
			}
			return prependEntry(allKeysEntry(t.key), sub), nil
		case "value":
			sub, err := t.value.buildFieldPath(rest)
			if err != nil {
				return nil, err
			}
			return prependEntry(allValuesEntry(t.value), sub), nil
		}
	}
	return buildKeyedPath(t.key, t.value, remain)
}

// keyedProjection splits a leading "key"/"value" component if present.
func keyedProjection(remain string) (head, rest string, ok bool) {
	head, rest = splitPathComponent(remain)
	if head == "key" || head == "value" {
		return head, rest, true
	}
	return "", "", false
}

// buildKeyedPath handles the "{...}" subscript shared by maps and weighted
// sets. keyType is the type the literal is parsed as; valueType is what the
// step resolves to. Like arrays, the local entry is prepended after
// recursing into the remainder.
func buildKeyedPath(keyType, valueType DataType, remain string) (FieldPath, error) {
	if remain == "" {
		return nil, nil
	}
	if remain[0] != '{' {
		return valueType.buildFieldPath(remain)
	}
	end := strings.IndexByte(remain, '}')
	if end < 0 {
		return nil, pathErrf(remain, "map subscript must be closed with }")
	}
	keyText := remain[1:end]
	rest := remain[end+1:]
	rest = strings.TrimPrefix(rest, ".")
	sub, err := valueType.buildFieldPath(rest)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(keyText, "$") {
		return prependEntry(variableEntry(keyText[1:], valueType), sub), nil
	}
	prim, ok := keyType.(*PrimitiveDataType)
	if !ok {
		return nil, pathErrf(remain, "cannot address a %s key with a literal", keyType.Name())
	}
	key, err := prim.parseLiteral(keyText)
	if err != nil {
		return nil, err
	}
	return prependEntry(mapKeyEntry(key, valueType), sub), nil
}

func prependEntry(e FieldPathEntry, p FieldPath) FieldPath {
	out := make(FieldPath, 0, len(p)+1)
	out = append(out, e)
	return append(out, p...)
}

// StructDataType declares an ordered set of named fields. Field
// declarations are schema configuration: duplicate names or ids panic at
// declaration time, same as any other schema misconfiguration.
type StructDataType struct {
	name   string
	fields []Field
	byName map[string]int
	byID   map[int32]int
}

func NewStructDataType(name string) *StructDataType {
	return &StructDataType{
		name:   name,
		byName: make(map[string]int),
		byID:   make(map[int32]int),
	}
}

func (t *StructDataType) Name() string { return t.name }
func (t *StructDataType) Kind() Kind   { return KindStruct }

// AddField declares a field and returns it for convenience.
func (t *StructDataType) AddField(f Field) Field {
	if _, ok := t.byName[f.Name()]; ok {
		panic("field " + f.Name() + " already declared in " + t.name)
	}
	if prev, ok := t.byID[f.ID()]; ok {
		panic("field id of " + f.Name() + " collides with " + t.fields[prev].Name() + " in " + t.name)
	}
	t.byName[f.Name()] = len(t.fields)
	t.byID[f.ID()] = len(t.fields)
	t.fields = append(t.fields, f)
	return f
}

// Declare adds a field with a hashed id.
func (t *StructDataType) Declare(name string, typ DataType, headerField bool) Field {
	return t.AddField(NewField(name, typ, headerField))
}

func (t *StructDataType) Field(name string) (Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

func (t *StructDataType) FieldByID(id int32) (Field, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Fields returns the declared fields in declaration order. The slice is
// shared; callers must not modify it.
func (t *StructDataType) Fields() []Field {
	return t.fields
}

func (t *StructDataType) CreateValue() FieldValue {
	return NewStruct(t)
}

func (t *StructDataType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

func (t *StructDataType) buildFieldPath(remain string) (FieldPath, error) {
	if remain == "" {
		return nil, nil
	}
	head, rest := splitPathComponent(remain)
	f, ok := t.Field(head)
	if !ok {
		return nil, &FieldNotFoundError{t.name, head}
	}
	sub, err := f.Type().buildFieldPath(rest)
	if err != nil {
		return nil, err
	}
	return prependEntry(structFieldEntry(f), sub), nil
}

// DocumentType is a struct type that values of the Document kind are bound
// to at construction time.
type DocumentType struct {
	StructDataType
}

func NewDocumentType(name string) *DocumentType {
	dt := &DocumentType{}
	dt.StructDataType = *NewStructDataType(name)
	return dt
}

func (t *DocumentType) Kind() Kind { return KindDocument }

func (t *DocumentType) CreateValue() FieldValue {
	return NewDocument(t, "")
}

func (t *DocumentType) IsValueType(v FieldValue) bool {
	return typesCompatible(t, v.DataType())
}

// Contents returns the struct type holding the document's field
// declarations.
func (t *DocumentType) Contents() *StructDataType {
	return &t.StructDataType
}
