package dvo

// ChunkEntry locates one serialized field slot within a struct backing
// chunk's uncompressed buffer.
type ChunkEntry struct {
	ID  int32
	Off uint32
	Len uint32
}

// serializableArray is one backing chunk of a struct: an id to byte-range
// map over a buffer that is decompressed at most once, on first slot
// access.
type serializableArray struct {
	byID            map[int32]ChunkEntry
	raw             []byte // as installed, possibly compressed
	buf             []byte // decompressed; nil until first access
	comp            CompressionType
	uncompressedLen int
}

func newSerializableArray(entries []ChunkEntry, raw []byte, comp CompressionType, uncompressedLen int) *serializableArray {
	byID := make(map[int32]ChunkEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	a := &serializableArray{byID: byID, raw: raw, comp: comp, uncompressedLen: uncompressedLen}
	if comp == CompressionNone {
		a.buf = raw
	}
	return a
}

func (a *serializableArray) has(id int32) bool {
	_, ok := a.byID[id]
	return ok
}

// get returns the serialized bytes of the slot for id. The second result
// is false when the chunk has no such slot.
func (a *serializableArray) get(id int32) ([]byte, bool, error) {
	e, ok := a.byID[id]
	if !ok {
		return nil, false, nil
	}
	if a.buf == nil {
		buf, err := decompressChunk(a.raw, a.comp, a.uncompressedLen)
		if err != nil {
			return nil, true, err
		}
		a.buf = buf
	}
	end := int(e.Off) + int(e.Len)
	if end > len(a.buf) {
		return nil, true, deserErrf(a.buf, int(e.Off), nil, "field slot %d out of range: [%d:%d] of %d", id, e.Off, end, len(a.buf))
	}
	return a.buf[e.Off:end], true, nil
}
