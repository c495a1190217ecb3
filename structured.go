package dvo

// StructuredFieldValue is the shared contract of struct and document
// values: typed field storage with optional transactional batching of
// mutations.
type StructuredFieldValue interface {
	FieldValue

	FieldByName(name string) (Field, bool)

	// Value returns the field's current value, or nil when absent. While
	// a transaction is open, reads see the pending state.
	Value(f Field) FieldValue
	ValueByName(name string) FieldValue

	// SetValue verifies the value against the field's declared type, then
	// clones it into storage (or the transaction cache).
	SetValue(f Field, v FieldValue) error
	SetValueByName(name string, v FieldValue) error

	HasValue(f Field) bool
	HasValueByName(name string) bool

	RemoveValue(f Field)
	RemoveValueByName(name string)

	Empty() bool

	// SetFieldCount counts the currently present fields. O(n).
	SetFieldCount() int

	// PresentFields returns the present fields in declaration order.
	PresentFields() []Field

	BeginTransaction() *TransactionGuard
	CommitTransaction()
}

// structuredCache buffers field mutations while a transaction is open.
// Entries keep insertion order; commit replays them in that order, one
// underlying mutation per touched field (last write wins).
type structuredCache struct {
	entries []cacheEntry
	index   map[int32]int
}

type cacheEntry struct {
	field  Field
	status ModificationStatus
	value  FieldValue
}

func newStructuredCache() *structuredCache {
	return &structuredCache{index: make(map[int32]int)}
}

func (c *structuredCache) get(f Field) (*cacheEntry, bool) {
	if i, ok := c.index[f.ID()]; ok {
		return &c.entries[i], true
	}
	return nil, false
}

func (c *structuredCache) set(f Field, v FieldValue, status ModificationStatus) {
	if i, ok := c.index[f.ID()]; ok {
		c.entries[i].status = status
		c.entries[i].value = v
		return
	}
	c.index[f.ID()] = len(c.entries)
	c.entries = append(c.entries, cacheEntry{f, status, v})
}

func (c *structuredCache) remove(f Field) {
	c.set(f, nil, Removed)
}

// TransactionGuard commits the transaction it guards exactly once. Use
// with defer so the transaction is closed on every exit path:
//
//	g := value.BeginTransaction()
//	defer g.Commit()
type TransactionGuard struct {
	v    StructuredFieldValue
	done bool
}

func (g *TransactionGuard) Commit() {
	if g.done {
		return
	}
	g.done = true
	g.v.CommitTransaction()
}

// iterateStructured is the struct/document state of the nested iteration
// walk. acc abstracts over the value's storage so the same machine serves
// both direct and transaction-cached access.
func iterateStructured(self StructuredFieldValue, acc structuredAccess, path FieldPath, h IteratorHandler) (ModificationStatus, error) {
	h.OnStructStart(self)
	defer h.OnStructEnd(self)

	if !path.Empty() {
		e := path[0]
		if e.kind != EntryStructField {
			return NotModified, iterErrf(self, "expected a struct field step, got %s", e.kind)
		}
		f := e.field
		if value := acc.iterGet(f); value != nil {
			status, err := value.IterateNested(path[1:], h)
			if err != nil {
				return NotModified, err
			}
			switch status {
			case Removed:
				// Removal absorption: a removed child makes this value
				// modified, not removed.
				acc.iterRemove(f)
				return Modified, nil
			case Modified:
				acc.iterUpdate(f, value)
				return Modified, nil
			default:
				acc.iterReturn(f, value)
				return status, nil
			}
		}
		if h.CreateMissingPath() {
			fresh := f.CreateValue()
			status, err := fresh.IterateNested(path[1:], h)
			if err != nil {
				return NotModified, err
			}
			if status == Modified {
				acc.iterUpdate(f, fresh)
			}
			return status, nil
		}
		return NotModified, nil
	}

	status, err := h.Modify(self)
	if err != nil || status == Removed {
		return status, err
	}
	if h.HandleComplex(self) {
		var toRemove []Field
		for _, f := range self.PresentFields() {
			value := acc.iterGet(f)
			if value == nil {
				continue
			}
			st, err := value.IterateNested(path, h)
			if err != nil {
				return NotModified, err
			}
			switch st {
			case Removed:
				toRemove = append(toRemove, f)
				status = Modified
			case Modified:
				status = Modified
				acc.iterUpdate(f, value)
			default:
				acc.iterReturn(f, value)
			}
		}
		for _, f := range toRemove {
			acc.iterRemove(f)
		}
	}
	return status, nil
}

// structuredAccess is the storage seam the iteration engine writes
// through: reads and writes go to the transaction cache when one is open,
// directly to storage otherwise. iterReturn is the unmodified-value cache
// refresh that avoids spurious rewrites.
type structuredAccess interface {
	iterGet(f Field) FieldValue
	iterUpdate(f Field, v FieldValue)
	iterReturn(f Field, v FieldValue)
	iterRemove(f Field)
}
