// Package bitvec implements fixed-length bit vectors.
// Bits are packed most-significant bit first, bytes in order, which is the
// layout of a hash digest. Padding bits in the final byte are always zero.
package bitvec

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
)

// Vector is an immutable fixed-length bit vector.
type Vector struct {
	n    int
	data []byte
}

// New returns an all-zero Vector of n bits.
func New(n int) Vector {
	if n < 0 {
		panic("bitvec: length must not be negative")
	}
	return Vector{n: n, data: make([]byte, numBytes(n))}
}

// FromBytes returns a Vector holding a copy of b, len(b)*8 bits long.
func FromBytes(b []byte) Vector {
	data := make([]byte, len(b))
	copy(data, b)
	return Vector{n: len(b) * 8, data: data}
}

// Parse reads a vector written as a string of '0' and '1' characters.
func Parse(s string) (Vector, error) {
	v := New(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			v.data[i/8] |= 0x80 >> uint(i%8)
		default:
			return Vector{}, fmt.Errorf("%w: invalid bit %q at position %d", ErrDecode, s[i], i)
		}
	}
	return v, nil
}

// Len returns the number of bits in v.
func (v Vector) Len() int { return v.n }

// Bit reports whether bit i is set.
func (v Vector) Bit(i int) bool {
	if i < 0 || i >= v.n {
		panic("bitvec: index out of range")
	}
	return v.data[i/8]&(0x80>>uint(i%8)) != 0
}

// Bytes returns a copy of the packed bits.
func (v Vector) Bytes() []byte {
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out
}

// Bools returns one bool per bit.
func (v Vector) Bools() []bool {
	out := make([]bool, v.n)
	for i := range out {
		out[i] = v.data[i/8]&(0x80>>uint(i%8)) != 0
	}
	return out
}

// Equal reports whether v and o have the same length and bits.
func (v Vector) Equal(o Vector) bool {
	if v.n != o.n {
		return false
	}
	for i := range v.data {
		if v.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// OnesCount returns the number of set bits.
func (v Vector) OnesCount() int {
	return popcount(v.data)
}

// String renders v as '0' and '1' characters.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(v.n)
	for i := 0; i < v.n; i++ {
		if v.data[i/8]&(0x80>>uint(i%8)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// XorCount returns the number of positions where a and b differ.
// Both vectors must have the same length.
func XorCount(a, b Vector) int {
	requireSameLen(a, b)
	n := 0
	i := 0
	for ; i+8 <= len(a.data); i += 8 {
		x := binary.BigEndian.Uint64(a.data[i:]) ^ binary.BigEndian.Uint64(b.data[i:])
		n += bits.OnesCount64(x)
	}
	for ; i < len(a.data); i++ {
		n += bits.OnesCount8(a.data[i] ^ b.data[i])
	}
	return n
}

func popcount(data []byte) int {
	n := 0
	i := 0
	for ; i+8 <= len(data); i += 8 {
		n += bits.OnesCount64(binary.BigEndian.Uint64(data[i:]))
	}
	for ; i < len(data); i++ {
		n += bits.OnesCount8(data[i])
	}
	return n
}

func numBytes(n int) int {
	return (n + 7) / 8
}

func requireSameLen(a, b Vector) {
	if a.n != b.n {
		panic("bitvec: length mismatch")
	}
}
