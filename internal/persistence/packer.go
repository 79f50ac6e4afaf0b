// Package persistence implements the single length-prefixed binary blob a
// storage map serializes to and deserializes from: a little-endian,
// version-tagged envelope carrying the chunk bitmap, the tree's flat
// hashes buffer and geometry, the chunk map's geometry, and the ordered
// list of backing resource locations. See doc.go for the full package
// overview.
package persistence

import (
	"encoding/binary"
	"fmt"
)

// Packer accumulates a little-endian binary buffer field by field. Once an
// error has been recorded, every further Pack call is a no-op — callers
// check Err() once at the end rather than after every field, the pattern
// this style is grounded on (a single accumulated-error wrapper rather
// than threading an error return through each call).
type Packer struct {
	buf []byte
	err error
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer {
	return &Packer{}
}

// Err returns the first error recorded by any Pack call, if any.
func (p *Packer) Err() error { return p.err }

// Bytes returns the accumulated buffer. Only meaningful if Err() is nil.
func (p *Packer) Bytes() []byte { return p.buf }

// PackUint64 appends v as 8 little-endian bytes.
func (p *Packer) PackUint64(v uint64) {
	if p.err != nil {
		return
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	p.buf = append(p.buf, tmp[:]...)
}

// PackBytes appends a u64 little-endian length prefix followed by b.
func (p *Packer) PackBytes(b []byte) {
	if p.err != nil {
		return
	}
	p.PackUint64(uint64(len(b)))
	p.buf = append(p.buf, b...)
}

// PackString appends a u64 little-endian length prefix followed by s's
// UTF-8 bytes.
func (p *Packer) PackString(s string) {
	p.PackBytes([]byte(s))
}

// Unpacker reads fields back out of a little-endian buffer in the same
// order Packer wrote them. Like Packer, once an error has been recorded
// every further Unpack call is a no-op and returns the zero value, so
// callers can chain a sequence of reads and check Err() once at the end.
type Unpacker struct {
	buf    []byte
	offset int
	err    error
}

// NewUnpacker returns an Unpacker reading from buf.
func NewUnpacker(buf []byte) *Unpacker {
	return &Unpacker{buf: buf}
}

// Err returns the first error recorded by any Unpack call, if any.
func (u *Unpacker) Err() error { return u.err }

func (u *Unpacker) take(n int) []byte {
	if u.err != nil {
		return nil
	}
	if u.offset+n > len(u.buf) {
		u.err = fmt.Errorf("persistence: unexpected end of buffer (wanted %d bytes at offset %d, have %d)", n, u.offset, len(u.buf))
		return nil
	}
	out := u.buf[u.offset : u.offset+n]
	u.offset += n
	return out
}

// UnpackUint64 reads 8 little-endian bytes.
func (u *Unpacker) UnpackUint64() uint64 {
	b := u.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// UnpackBytes reads a u64 length prefix followed by that many bytes. The
// returned slice is a copy, safe to retain past the Unpacker's lifetime.
func (u *Unpacker) UnpackBytes() []byte {
	n := u.UnpackUint64()
	b := u.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// UnpackString reads a u64 length prefix followed by that many UTF-8
// bytes.
func (u *Unpacker) UnpackString() string {
	return string(u.UnpackBytes())
}
