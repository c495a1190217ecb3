package dvo

import (
	"strconv"
	"strings"
)

// IndexValue is the binding of a path variable: an array index or a map
// key, whichever the wildcard step matched.
type IndexValue struct {
	Index int
	Key   FieldValue
}

func (iv IndexValue) String() string {
	if iv.Key != nil {
		return Dump(iv.Key)
	}
	return strconv.Itoa(iv.Index)
}

// VariableMap holds the variable bindings accumulated by wildcard path
// steps during one walk of the iteration engine.
type VariableMap map[string]IndexValue

func (m VariableMap) Clone() VariableMap {
	if m == nil {
		return nil
	}
	out := make(VariableMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m VariableMap) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	first := true
	for k, v := range m {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v.String())
	}
	buf.WriteByte('}')
	return buf.String()
}

// IteratorHandler is the visitor contract driving a nested iteration walk.
// The engine calls the On* methods at structural boundaries and Modify at
// the terminal position; Modify's verdict propagates bottom-up.
type IteratorHandler interface {
	OnStructStart(v FieldValue)
	OnStructEnd(v FieldValue)
	OnCollectionStart(v FieldValue)
	OnCollectionEnd(v FieldValue)
	OnPrimitive(v FieldValue)

	// Modify is invoked on the value the path resolves to. Removed makes
	// the parent delete the value; Modified makes the parent write it
	// back.
	Modify(v FieldValue) (ModificationStatus, error)

	// CreateMissingPath makes the engine materialize default values for
	// absent path steps instead of stopping with NotModified.
	CreateMissingPath() bool

	// HandleComplex is consulted at a terminal container after Modify
	// returned a non-Removed verdict; returning true fans the walk out
	// into every child with the same empty path.
	HandleComplex(v FieldValue) bool

	Variables() VariableMap
	SetVariables(vars VariableMap)
}

// BaseIteratorHandler provides the default handler behavior: visit-only
// callbacks, NotModified verdicts, no path creation, and full fan-out at
// terminal containers. Embed it and override what the operation needs.
type BaseIteratorHandler struct {
	vars VariableMap
}

func (h *BaseIteratorHandler) OnStructStart(FieldValue)     {}
func (h *BaseIteratorHandler) OnStructEnd(FieldValue)       {}
func (h *BaseIteratorHandler) OnCollectionStart(FieldValue) {}
func (h *BaseIteratorHandler) OnCollectionEnd(FieldValue)   {}
func (h *BaseIteratorHandler) OnPrimitive(FieldValue)       {}

func (h *BaseIteratorHandler) Modify(FieldValue) (ModificationStatus, error) {
	return NotModified, nil
}

func (h *BaseIteratorHandler) CreateMissingPath() bool       { return false }
func (h *BaseIteratorHandler) HandleComplex(FieldValue) bool { return true }

func (h *BaseIteratorHandler) Variables() VariableMap {
	if h.vars == nil {
		h.vars = make(VariableMap)
	}
	return h.vars
}

func (h *BaseIteratorHandler) SetVariables(vars VariableMap) {
	h.vars = vars
}

// bindVariable sets a variable for the duration of a sub-walk; the
// returned func restores the previous state.
func bindVariable(h IteratorHandler, name string, iv IndexValue) func() {
	vars := h.Variables()
	prev, had := vars[name]
	vars[name] = iv
	return func() {
		if had {
			vars[name] = prev
		} else {
			delete(vars, name)
		}
	}
}
