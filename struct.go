package dvo

import (
	"cmp"
	"iter"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// StructFieldValue stores field values declared by a StructDataType. The
// backing storage is chunked and lazy: up to two chunks of serialized,
// possibly compressed field slots, deserialized one slot at a time on
// first access and memoized. Direct mutations live in an overlay on top
// of the chunks.
type StructFieldValue struct {
	typ     *StructDataType
	values  map[int32]FieldValue // memoized and directly-set fields
	removed map[int32]bool       // tombstones over chunk content
	chunks  []*serializableArray // at most structMaxChunks
	altered bool

	checksum      uint64
	checksumValid bool

	cache *structuredCache
}

const structMaxChunks = 2

func NewStruct(typ *StructDataType) *StructFieldValue {
	return &StructFieldValue{typ: typ}
}

func (s *StructFieldValue) DataType() DataType { return s.typ }

func (s *StructFieldValue) FieldByName(name string) (Field, bool) {
	return s.typ.Field(name)
}

func (s *StructFieldValue) markChanged() {
	s.altered = true
	s.checksumValid = false
}

// LazyDeserialize installs a chunk of serialized field slots without
// decoding any of them. entries maps field ids to byte ranges within the
// uncompressed form of data. Installing a chunk does not count as a
// mutation.
func (s *StructFieldValue) LazyDeserialize(entries []ChunkEntry, data []byte, comp CompressionType, uncompressedLen int) error {
	if len(s.chunks) >= structMaxChunks {
		return deserErrf(data, 0, nil, "struct %s already has %d backing chunks", s.typ.name, structMaxChunks)
	}
	s.chunks = append(s.chunks, newSerializableArray(entries, data, comp, uncompressedLen))
	s.altered = false
	s.checksumValid = false
	return nil
}

// Reset clears all content and the change flag, as when deserializing an
// empty body.
func (s *StructFieldValue) Reset() {
	s.values = nil
	s.removed = nil
	s.chunks = nil
	s.altered = false
	s.checksumValid = false
}

// storageGet reads the concrete backend, deserializing a chunk slot on
// first access. Undecodable slots are logged and treated as absent; a
// replayed record must not poison the whole struct.
func (s *StructFieldValue) storageGet(f Field) FieldValue {
	id := f.ID()
	if v, ok := s.values[id]; ok {
		return v
	}
	if s.removed[id] {
		return nil
	}
	for i := len(s.chunks) - 1; i >= 0; i-- {
		raw, ok, err := s.chunks[i].get(id)
		if err != nil {
			logger().Error("dvo: cannot read struct field slot", "struct", s.typ.name, "field", f.Name(), "err", err)
			return nil
		}
		if !ok {
			continue
		}
		v, err := Deserialize(f.Type(), raw)
		if err != nil {
			logger().Error("dvo: cannot decode struct field slot", "struct", s.typ.name, "field", f.Name(), "err", err)
			return nil
		}
		if s.values == nil {
			s.values = make(map[int32]FieldValue)
		}
		s.values[id] = v // memoized; not a mutation
		return v
	}
	return nil
}

func (s *StructFieldValue) storageSet(f Field, v FieldValue) {
	if s.values == nil {
		s.values = make(map[int32]FieldValue)
	}
	s.values[f.ID()] = v
	delete(s.removed, f.ID())
	s.markChanged()
}

func (s *StructFieldValue) storageRemove(f Field) {
	if !s.storageHas(f) {
		return
	}
	delete(s.values, f.ID())
	for _, c := range s.chunks {
		if c.has(f.ID()) {
			if s.removed == nil {
				s.removed = make(map[int32]bool)
			}
			s.removed[f.ID()] = true
			break
		}
	}
	s.markChanged()
}

func (s *StructFieldValue) storageHas(f Field) bool {
	if _, ok := s.values[f.ID()]; ok {
		return true
	}
	if s.removed[f.ID()] {
		return false
	}
	for _, c := range s.chunks {
		if c.has(f.ID()) {
			return true
		}
	}
	return false
}

// Value returns the field's current value, or nil when absent. While a
// transaction is open the pending state is visible.
func (s *StructFieldValue) Value(f Field) FieldValue {
	if s.cache != nil {
		if e, ok := s.cache.get(f); ok {
			if e.status == Removed {
				return nil
			}
			if e.value != nil {
				return e.value
			}
		}
	}
	return s.storageGet(f)
}

func (s *StructFieldValue) ValueByName(name string) FieldValue {
	f, ok := s.typ.Field(name)
	if !ok {
		return nil
	}
	return s.Value(f)
}

// SetValue stores a clone of v under f. The value's runtime type is
// verified against the field's declared type before any cloning happens.
func (s *StructFieldValue) SetValue(f Field, v FieldValue) error {
	if !f.Type().IsValueType(v) {
		return typeErrf(f.Type(), v.DataType(), "set field "+f.Name()+" of "+s.typ.name)
	}
	clone := v.Clone()
	if s.cache != nil {
		s.cache.set(f, clone, Modified)
	} else {
		s.storageSet(f, clone)
	}
	return nil
}

func (s *StructFieldValue) SetValueByName(name string, v FieldValue) error {
	f, ok := s.typ.Field(name)
	if !ok {
		return &FieldNotFoundError{s.typ.name, name}
	}
	return s.SetValue(f, v)
}

func (s *StructFieldValue) HasValue(f Field) bool {
	if s.cache != nil {
		if e, ok := s.cache.get(f); ok {
			switch e.status {
			case Removed:
				return false
			case Modified:
				return true
			}
			if e.value != nil {
				return true
			}
		}
	}
	return s.storageHas(f)
}

func (s *StructFieldValue) HasValueByName(name string) bool {
	f, ok := s.typ.Field(name)
	return ok && s.HasValue(f)
}

func (s *StructFieldValue) RemoveValue(f Field) {
	if s.cache != nil {
		s.cache.remove(f)
	} else {
		s.storageRemove(f)
	}
}

func (s *StructFieldValue) RemoveValueByName(name string) {
	if f, ok := s.typ.Field(name); ok {
		s.RemoveValue(f)
	}
}

func (s *StructFieldValue) Empty() bool {
	return s.SetFieldCount() == 0
}

// SetFieldCount counts the present fields by scanning all declarations. O(n).
func (s *StructFieldValue) SetFieldCount() int {
	var n int
	for _, f := range s.typ.fields {
		if s.HasValue(f) {
			n++
		}
	}
	return n
}

func (s *StructFieldValue) PresentFields() []Field {
	var out []Field
	for _, f := range s.typ.fields {
		if s.HasValue(f) {
			out = append(out, f)
		}
	}
	return out
}

// Fields iterates present fields and their values in declaration order.
func (s *StructFieldValue) Fields() iter.Seq2[Field, FieldValue] {
	return func(yield func(Field, FieldValue) bool) {
		for _, f := range s.typ.fields {
			v := s.Value(f)
			if v == nil {
				continue
			}
			if !yield(f, v) {
				return
			}
		}
	}
}

// BeginTransaction opens a write buffer for this value. All reads and
// writes go through it until CommitTransaction. Transactions do not nest;
// beginning a second one is a usage error.
func (s *StructFieldValue) BeginTransaction() *TransactionGuard {
	if s.cache != nil {
		panic("transaction already open on " + s.typ.name)
	}
	s.cache = newStructuredCache()
	return &TransactionGuard{v: s}
}

// CommitTransaction replays the buffered mutations into storage in cache
// insertion order, one mutation per touched field, and closes the
// transaction.
func (s *StructFieldValue) CommitTransaction() {
	cache := s.cache
	if cache == nil {
		panic("no transaction open on " + s.typ.name)
	}
	s.cache = nil
	for _, e := range cache.entries {
		switch e.status {
		case Removed:
			s.storageRemove(e.field)
		case Modified:
			s.storageSet(e.field, e.value)
		}
	}
}

// structuredAccess implementation: the iteration engine's storage seam.

func (s *StructFieldValue) iterGet(f Field) FieldValue {
	return s.Value(f)
}

func (s *StructFieldValue) iterUpdate(f Field, v FieldValue) {
	if s.cache != nil {
		s.cache.set(f, v, Modified)
	} else {
		s.storageSet(f, v)
	}
}

func (s *StructFieldValue) iterReturn(f Field, v FieldValue) {
	if s.cache != nil {
		s.cache.set(f, v, NotModified)
	}
}

func (s *StructFieldValue) iterRemove(f Field) {
	s.RemoveValue(f)
}

func (s *StructFieldValue) IterateNested(path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	return iterateStructured(s, s, path, h)
}

func (s *StructFieldValue) GetNested(path FieldPath) FieldValue {
	if path.Empty() {
		return s
	}
	e := path[0]
	if e.kind != EntryStructField {
		return nil
	}
	v := s.Value(e.field)
	if v == nil {
		return nil
	}
	return v.GetNested(path[1:])
}

func (s *StructFieldValue) Clone() FieldValue {
	c := NewStruct(s.typ)
	for _, f := range s.PresentFields() {
		if v := s.Value(f); v != nil {
			c.storageSet(f, v.Clone())
		}
	}
	c.altered = s.altered
	return c
}

func (s *StructFieldValue) Compare(other FieldValue) int {
	o, ok := other.(*StructFieldValue)
	if !ok {
		return cmp.Compare(kindRank(s), kindRank(other))
	}
	return compareFieldSets(s, o)
}

// compareFieldSets orders two structured values by their present fields,
// sorted by field name, then by the field values.
func compareFieldSets(a, b StructuredFieldValue) int {
	af, bf := a.PresentFields(), b.PresentFields()
	sort.Slice(af, func(i, j int) bool { return af[i].Less(af[j]) })
	sort.Slice(bf, func(i, j int) bool { return bf[i].Less(bf[j]) })
	if c := cmp.Compare(len(af), len(bf)); c != 0 {
		return c
	}
	for i := range af {
		if c := cmp.Compare(af[i].Name(), bf[i].Name()); c != 0 {
			return c
		}
		if c := a.Value(af[i]).Compare(b.Value(bf[i])); c != 0 {
			return c
		}
	}
	return 0
}

func (s *StructFieldValue) Assign(other FieldValue) error {
	o, ok := other.(*StructFieldValue)
	if !ok || !s.typ.IsValueType(other) {
		return typeErrf(s.typ, other.DataType(), "assign")
	}
	s.values = nil
	s.removed = nil
	s.chunks = nil
	for _, f := range o.PresentFields() {
		if v := o.Value(f); v != nil {
			s.storageSet(f, v.Clone())
		}
	}
	s.markChanged()
	return nil
}

// HasChanged is true exactly when a field was mutated since the last
// serialize/deserialize round-trip. Lazy chunk reads do not count.
func (s *StructFieldValue) HasChanged() bool { return s.altered }

// Checksum is an xxhash over the serialized body, memoized until the next
// mutation.
func (s *StructFieldValue) Checksum() (uint64, error) {
	if s.checksumValid {
		return s.checksum, nil
	}
	_, data, _, err := s.SerializeBody(CompressionNone)
	if err != nil {
		return 0, err
	}
	s.checksum = xxhash.Sum64(data)
	s.checksumValid = true
	return s.checksum, nil
}

// SerializeBody encodes every present field into the chunk slot format
// consumed by LazyDeserialize: per-field byte ranges over a single
// (optionally compressed) buffer. The returned length is that of the
// uncompressed buffer.
func (s *StructFieldValue) SerializeBody(comp CompressionType) (entries []ChunkEntry, data []byte, uncompressedLen int, err error) {
	var buf []byte
	for _, f := range s.PresentFields() {
		v := s.Value(f)
		if v == nil {
			continue
		}
		raw, err := Serialize(v)
		if err != nil {
			return nil, nil, 0, err
		}
		entries = append(entries, ChunkEntry{ID: f.ID(), Off: uint32(len(buf)), Len: uint32(len(raw))})
		buf = appendRaw(buf, raw)
	}
	data, err = compressChunk(buf, comp)
	if err != nil {
		return nil, nil, 0, err
	}
	return entries, data, len(buf), nil
}

func (s *StructFieldValue) AsInterface() any {
	out := make(map[string]any)
	for _, f := range s.PresentFields() {
		if v := s.Value(f); v != nil {
			out[f.Name()] = v.AsInterface()
		}
	}
	return out
}
