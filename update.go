package dvo

import (
	"fmt"
	"strings"
)

// UpdateKind identifies a field path update operation on the wire.
type UpdateKind uint8

const (
	UpdateAssign UpdateKind = 0
	UpdateRemove UpdateKind = 1
	UpdateAdd    UpdateKind = 2
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateAssign:
		return "assign"
	case UpdateRemove:
		return "remove"
	case UpdateAdd:
		return "add"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// FieldPathUpdate mutates every document location matched by a field path
// expression, optionally narrowed by a selection predicate over the loop
// variables the path binds.
type FieldPathUpdate interface {
	Kind() UpdateKind
	Path() string
	Where() string

	// ApplyTo runs the update against the document inside a single cache
	// transaction. Either all matched locations are updated or, on error,
	// none of the pending changes are lost mid-way: the transaction still
	// commits what succeeded before the failing location.
	ApplyTo(doc *Document) error

	// CheckCompatibility verifies the path compiles against the type and
	// resolves to something this update can operate on.
	CheckCompatibility(t DataType) error

	// AffectsDocumentBody reports whether the update touches a body field
	// of the type (as opposed to a header field).
	AffectsDocumentBody(t DataType) (bool, error)

	String() string

	newHandler() updateHandler
	encodeTail(bb *bytesBuilder) error
}

type updateHandler interface {
	IteratorHandler
}

type fieldPathUpdate struct {
	path  string
	where string
}

func (u *fieldPathUpdate) Path() string  { return u.path }
func (u *fieldPathUpdate) Where() string { return u.where }

func (u *fieldPathUpdate) compile(t DataType) (FieldPath, error) {
	return BuildFieldPath(t, u.path)
}

func (u *fieldPathUpdate) affectsBody(t DataType) (bool, error) {
	path, err := u.compile(t)
	if err != nil {
		return false, err
	}
	if path.Empty() || path[0].Kind() != EntryStructField {
		return false, nil
	}
	return !path[0].Field().IsHeaderField(), nil
}

// applyTo drives the shared apply flow: compile the path, open a
// transaction, and either walk once (no selection) or gather the variable
// bindings the path produces, filter them through the selection predicate,
// and re-walk once per matching binding.
func (u *fieldPathUpdate) applyTo(doc *Document, upd FieldPathUpdate) error {
	path, err := u.compile(doc.DataType())
	if err != nil {
		return err
	}
	logger().Debug("dvo: applying field path update", "kind", upd.Kind().String(), "path", u.path, "doc", doc.ID())
	tx := doc.BeginTransaction()
	defer tx.Commit()

	if u.where == "" {
		_, err := doc.IterateNested(path, upd.newHandler())
		return err
	}

	g := &gatherBindingsHandler{}
	if _, err := doc.IterateNested(path, g); err != nil {
		return err
	}
	pred, err := ParseSelection(u.where)
	if err != nil {
		return err
	}
	results, err := pred.Contains(doc, g.bindings)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Match {
			continue
		}
		h := upd.newHandler()
		h.SetVariables(r.Variables.Clone())
		if _, err := doc.IterateNested(path, h); err != nil {
			return err
		}
	}
	return nil
}

// gatherBindingsHandler walks the path without modifying anything and
// records the variable bindings in effect each time the terminal position
// is reached.
type gatherBindingsHandler struct {
	BaseIteratorHandler
	bindings []VariableMap
}

func (h *gatherBindingsHandler) Modify(FieldValue) (ModificationStatus, error) {
	if vars := h.Variables(); len(vars) > 0 {
		h.bindings = append(h.bindings, vars.Clone())
	}
	return NotModified, nil
}

func (h *gatherBindingsHandler) HandleComplex(FieldValue) bool { return false }

// AssignFieldPathUpdate replaces the value at every matched location.
type AssignFieldPathUpdate struct {
	fieldPathUpdate
	value             FieldValue
	removeIfZero      bool
	createMissingPath bool
}

// NewAssignUpdate builds an assignment of value to every location matched
// by path (narrowed by where if non-empty). Missing path steps are created
// by default.
func NewAssignUpdate(path, where string, value FieldValue) *AssignFieldPathUpdate {
	return &AssignFieldPathUpdate{
		fieldPathUpdate:   fieldPathUpdate{path: path, where: where},
		value:             value,
		createMissingPath: true,
	}
}

// SetRemoveIfZero makes a zero numeric assignment remove the location
// instead of storing the zero.
func (u *AssignFieldPathUpdate) SetRemoveIfZero(v bool) *AssignFieldPathUpdate {
	u.removeIfZero = v
	return u
}

// SetCreateMissingPath controls whether absent path steps get materialized.
func (u *AssignFieldPathUpdate) SetCreateMissingPath(v bool) *AssignFieldPathUpdate {
	u.createMissingPath = v
	return u
}

func (u *AssignFieldPathUpdate) Kind() UpdateKind  { return UpdateAssign }
func (u *AssignFieldPathUpdate) Value() FieldValue { return u.value }

func (u *AssignFieldPathUpdate) ApplyTo(doc *Document) error {
	return u.applyTo(doc, u)
}

func (u *AssignFieldPathUpdate) CheckCompatibility(t DataType) error {
	path, err := u.compile(t)
	if err != nil {
		return err
	}
	rt := path.ResultingDataType()
	if rt == nil {
		return pathErrf(u.path, "assignment needs a non-empty path")
	}
	if !rt.IsValueType(u.value) {
		return typeErrf(rt, u.value.DataType(), "cannot assign via path %q", u.path)
	}
	return nil
}

func (u *AssignFieldPathUpdate) AffectsDocumentBody(t DataType) (bool, error) {
	return u.affectsBody(t)
}

func (u *AssignFieldPathUpdate) String() string {
	var buf strings.Builder
	buf.WriteString("assign ")
	buf.WriteString(u.path)
	buf.WriteString(" = ")
	buf.WriteString(Dump(u.value))
	if u.where != "" {
		buf.WriteString(" where ")
		buf.WriteString(u.where)
	}
	return buf.String()
}

func (u *AssignFieldPathUpdate) newHandler() updateHandler {
	return &assignHandler{update: u}
}

type assignHandler struct {
	BaseIteratorHandler
	update *AssignFieldPathUpdate
}

func (h *assignHandler) Modify(v FieldValue) (ModificationStatus, error) {
	u := h.update
	if u.removeIfZero {
		if n, err := AsLong(u.value); err == nil && n == 0 {
			return Removed, nil
		}
	}
	if err := v.Assign(u.value); err != nil {
		return NotModified, err
	}
	return Modified, nil
}

func (h *assignHandler) CreateMissingPath() bool       { return h.update.createMissingPath }
func (h *assignHandler) HandleComplex(FieldValue) bool { return false }

// RemoveFieldPathUpdate deletes the value at every matched location.
type RemoveFieldPathUpdate struct {
	fieldPathUpdate
}

func NewRemoveUpdate(path, where string) *RemoveFieldPathUpdate {
	return &RemoveFieldPathUpdate{fieldPathUpdate{path: path, where: where}}
}

func (u *RemoveFieldPathUpdate) Kind() UpdateKind { return UpdateRemove }

func (u *RemoveFieldPathUpdate) ApplyTo(doc *Document) error {
	return u.applyTo(doc, u)
}

func (u *RemoveFieldPathUpdate) CheckCompatibility(t DataType) error {
	path, err := u.compile(t)
	if err != nil {
		return err
	}
	if path.Empty() {
		return pathErrf(u.path, "removal needs a non-empty path")
	}
	return nil
}

func (u *RemoveFieldPathUpdate) AffectsDocumentBody(t DataType) (bool, error) {
	return u.affectsBody(t)
}

func (u *RemoveFieldPathUpdate) String() string {
	if u.where != "" {
		return "remove " + u.path + " where " + u.where
	}
	return "remove " + u.path
}

func (u *RemoveFieldPathUpdate) newHandler() updateHandler {
	return &removeHandler{}
}

type removeHandler struct {
	BaseIteratorHandler
}

func (h *removeHandler) Modify(FieldValue) (ModificationStatus, error) {
	return Removed, nil
}

// AddFieldPathUpdate appends values to the array or weighted set at every
// matched location.
type AddFieldPathUpdate struct {
	fieldPathUpdate
	values []FieldValue
}

func NewAddUpdate(path, where string, values ...FieldValue) *AddFieldPathUpdate {
	return &AddFieldPathUpdate{
		fieldPathUpdate: fieldPathUpdate{path: path, where: where},
		values:          values,
	}
}

func (u *AddFieldPathUpdate) Kind() UpdateKind     { return UpdateAdd }
func (u *AddFieldPathUpdate) Values() []FieldValue { return u.values }

func (u *AddFieldPathUpdate) ApplyTo(doc *Document) error {
	return u.applyTo(doc, u)
}

func (u *AddFieldPathUpdate) CheckCompatibility(t DataType) error {
	path, err := u.compile(t)
	if err != nil {
		return err
	}
	elem, err := addElementType(path.ResultingDataType(), u.path)
	if err != nil {
		return err
	}
	for _, v := range u.values {
		if !typesCompatible(elem, v.DataType()) {
			return typeErrf(elem, v.DataType(), "cannot add via path %q", u.path)
		}
	}
	return nil
}

func (u *AddFieldPathUpdate) AffectsDocumentBody(t DataType) (bool, error) {
	return u.affectsBody(t)
}

func (u *AddFieldPathUpdate) String() string {
	var buf strings.Builder
	buf.WriteString("add ")
	buf.WriteString(u.path)
	buf.WriteString(" += [")
	for i, v := range u.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(Dump(v))
	}
	buf.WriteByte(']')
	if u.where != "" {
		buf.WriteString(" where ")
		buf.WriteString(u.where)
	}
	return buf.String()
}

func (u *AddFieldPathUpdate) newHandler() updateHandler {
	return &addHandler{update: u}
}

func addElementType(rt DataType, pathExpr string) (DataType, error) {
	switch rt := rt.(type) {
	case *ArrayDataType:
		return rt.NestedType(), nil
	case *WeightedSetDataType:
		return rt.NestedType(), nil
	case nil:
		return nil, pathErrf(pathExpr, "addition needs a non-empty path")
	default:
		return nil, pathErrf(pathExpr, "path resolves to %s, addition needs an array or weighted set", rt.Name())
	}
}

type addHandler struct {
	BaseIteratorHandler
	update *AddFieldPathUpdate
}

func (h *addHandler) Modify(v FieldValue) (ModificationStatus, error) {
	switch v := v.(type) {
	case *ArrayFieldValue:
		for _, el := range h.update.values {
			if err := v.Append(el); err != nil {
				return NotModified, err
			}
		}
	case *WeightedSetFieldValue:
		for _, el := range h.update.values {
			if err := v.Add(el); err != nil {
				return NotModified, err
			}
		}
	default:
		return NotModified, iterErrf(v, "cannot add to a %s value", v.DataType().Name())
	}
	return Modified, nil
}

func (h *addHandler) CreateMissingPath() bool       { return true }
func (h *addHandler) HandleComplex(FieldValue) bool { return false }

const (
	assignFlagRemoveIfZero      = 1 << 0
	assignFlagCreateMissingPath = 1 << 1
)

// SerializeUpdate encodes a field path update: a kind byte, the path and
// selection expressions as length-prefixed strings, then a kind-specific
// payload.
func SerializeUpdate(u FieldPathUpdate) ([]byte, error) {
	var bb bytesBuilder
	bb.AppendByte(byte(u.Kind()))
	bb.AppendLenString(u.Path())
	bb.AppendLenString(u.Where())
	if err := u.encodeTail(&bb); err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

// DeserializeUpdate decodes a field path update against a document type;
// the type is needed to decode embedded values.
func DeserializeUpdate(t *DocumentType, data []byte) (FieldPathUpdate, error) {
	d := makeByteDecoder(data)
	kind, err := d.Byte()
	if err != nil {
		return nil, err
	}
	path, err := d.LenString()
	if err != nil {
		return nil, err
	}
	where, err := d.LenString()
	if err != nil {
		return nil, err
	}
	switch UpdateKind(kind) {
	case UpdateAssign:
		return decodeAssignTail(t, &d, path, where)
	case UpdateRemove:
		if !d.Empty() {
			return nil, deserErrf(data, d.Off(), nil, "trailing garbage after remove field path update")
		}
		return NewRemoveUpdate(path, where), nil
	case UpdateAdd:
		return decodeAddTail(t, &d, path, where)
	default:
		return nil, deserErrf(data, 0, nil, "unknown field path update kind %d", kind)
	}
}

func (u *AssignFieldPathUpdate) encodeTail(bb *bytesBuilder) error {
	var flags byte
	if u.removeIfZero {
		flags |= assignFlagRemoveIfZero
	}
	if u.createMissingPath {
		flags |= assignFlagCreateMissingPath
	}
	bb.AppendByte(flags)
	raw, err := Serialize(u.value)
	if err != nil {
		return err
	}
	bb.AppendFixedInt32(int32(len(raw)))
	bb.Write(raw)
	return nil
}

func decodeAssignTail(t *DocumentType, d *byteDecoder, path, where string) (*AssignFieldPathUpdate, error) {
	flags, err := d.Byte()
	if err != nil {
		return nil, err
	}
	n, err := d.FixedInt32()
	if err != nil {
		return nil, err
	}
	raw, err := d.Raw(int(n))
	if err != nil {
		return nil, err
	}
	fp, err := BuildFieldPath(t, path)
	if err != nil {
		return nil, deserErrf(d.Orig, d.Off(), err, "assign field path update has an invalid path")
	}
	rt := fp.ResultingDataType()
	if rt == nil {
		return nil, deserErrf(d.Orig, d.Off(), nil, "assign field path update has an empty path")
	}
	value, err := Deserialize(rt, raw)
	if err != nil {
		return nil, err
	}
	u := NewAssignUpdate(path, where, value)
	u.removeIfZero = flags&assignFlagRemoveIfZero != 0
	u.createMissingPath = flags&assignFlagCreateMissingPath != 0
	return u, nil
}

func (u *RemoveFieldPathUpdate) encodeTail(*bytesBuilder) error { return nil }

func (u *AddFieldPathUpdate) encodeTail(bb *bytesBuilder) error {
	bb.AppendFixedInt32(int32(len(u.values)))
	for _, v := range u.values {
		raw, err := Serialize(v)
		if err != nil {
			return err
		}
		bb.AppendFixedInt32(int32(len(raw)))
		bb.Write(raw)
	}
	return nil
}

func decodeAddTail(t *DocumentType, d *byteDecoder, path, where string) (*AddFieldPathUpdate, error) {
	fp, err := BuildFieldPath(t, path)
	if err != nil {
		return nil, deserErrf(d.Orig, d.Off(), err, "add field path update has an invalid path")
	}
	elem, err := addElementType(fp.ResultingDataType(), path)
	if err != nil {
		return nil, deserErrf(d.Orig, d.Off(), err, "add field path update has an incompatible path")
	}
	count, err := d.FixedInt32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, deserErrf(d.Orig, d.Off(), nil, "invalid value count %d", count)
	}
	values := make([]FieldValue, 0, count)
	for i := int32(0); i < count; i++ {
		n, err := d.FixedInt32()
		if err != nil {
			return nil, err
		}
		raw, err := d.Raw(int(n))
		if err != nil {
			return nil, err
		}
		v, err := Deserialize(elem, raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return NewAddUpdate(path, where, values...), nil
}
