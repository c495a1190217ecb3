package dvo

import (
	"encoding/binary"
	"io"
	"math"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Grow(n int) (off int) {
	off, bb.Buf = grow(bb.Buf, n)
	return
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) AppendByte(v byte) {
	off := bb.Grow(1)
	bb.Buf[off] = v
}

// AppendFixedInt32 writes a big-endian int32, the framing used by the
// field path update wire format.
func (bb *bytesBuilder) AppendFixedInt32(v int32) {
	off := bb.Grow(4)
	binary.BigEndian.PutUint32(bb.Buf[off:], uint32(v))
}

// AppendLenString writes a big-endian int32 length followed by raw bytes.
func (bb *bytesBuilder) AppendLenString(s string) {
	bb.AppendFixedInt32(int32(len(s)))
	bb.Buf = appendRaw(bb.Buf, []byte(s))
}

type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Empty() bool {
	return len(d.Buf) == 0
}

func (d *byteDecoder) Byte() (byte, error) {
	if len(d.Buf) < 1 {
		return 0, deserErrf(d.Orig, d.Off(), nil, "not enough data: byte wanted")
	}
	v := d.Buf[0]
	d.Buf = d.Buf[1:]
	return v, nil
}

func (d *byteDecoder) FixedInt32() (int32, error) {
	if len(d.Buf) < 4 {
		return 0, deserErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, 4 wanted", len(d.Buf))
	}
	v := int32(binary.BigEndian.Uint32(d.Buf))
	d.Buf = d.Buf[4:]
	return v, nil
}

func (d *byteDecoder) Raw(n int) ([]byte, error) {
	if len(d.Buf) < n {
		return nil, deserErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, %d wanted", len(d.Buf), n)
	}
	v := d.Buf[:n]
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) LenString() (string, error) {
	n, err := d.FixedInt32()
	if err != nil {
		return "", err
	}
	if n < 0 || int64(n) > math.MaxInt32 {
		return "", deserErrf(d.Orig, d.Off(), nil, "invalid string length %d", n)
	}
	raw, err := d.Raw(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
