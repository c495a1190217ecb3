package dvo

import (
	"fmt"
	"sync"
)

// TypeRegistry resolves document and struct types by name, for wire
// decoding and for configuration layers that reference types by string.
// Safe for concurrent use once populated; registration itself is expected
// at startup.
type TypeRegistry struct {
	mu     sync.RWMutex
	byName map[string]DataType
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byName: make(map[string]DataType)}
}

// Register adds a named type. Panics on duplicate names; a schema that
// declares the same type twice is a programming error.
func (r *TypeRegistry) Register(t DataType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, ok := r.byName[name]; ok {
		panic(fmt.Errorf("type %q is already registered", name))
	}
	r.byName[name] = t
}

func (r *TypeRegistry) Lookup(name string) (DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// DocumentTypeByName looks up a registered type and asserts it is a
// document type.
func (r *TypeRegistry) DocumentTypeByName(name string) (*DocumentType, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	dt, ok := t.(*DocumentType)
	return dt, ok
}
