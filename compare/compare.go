// Package compare measures similarity between finalized fingerprints.
//
// A full Hamming distance is exact but needs both digests at hand. Aligned
// chunk equality is a cheap pre-filter: fingerprints that share no chunk are
// unlikely near-duplicates and can be skipped before computing a distance.
package compare

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/aboutcode-org/samecode/bitvec"
)

var (
	// ErrLengthMismatch is returned when compared sequences differ in length.
	ErrLengthMismatch = errors.New("compare: length mismatch")
	// ErrNotDivisible is returned when a sequence does not split evenly.
	ErrNotDivisible = errors.New("compare: length is not a multiple of the chunk size")
)

// HammingDistance returns the number of positions where a and b differ.
func HammingDistance(a, b bitvec.Vector) (int, error) {
	if a.Len() != b.Len() {
		return 0, fmt.Errorf("%w: %d bits vs %d bits", ErrLengthMismatch, a.Len(), b.Len())
	}
	return bitvec.XorCount(a, b), nil
}

// ByteHammingDistance returns the Hamming distance between two hex-encoded
// digests.
func ByteHammingDistance(hexA, hexB string) (int, error) {
	a, err := bitvec.DecodeHex(hexA)
	if err != nil {
		return 0, err
	}
	b, err := bitvec.DecodeHex(hexB)
	if err != nil {
		return 0, err
	}
	return HammingDistance(bitvec.FromBytes(a), bitvec.FromBytes(b))
}

// Slices splits seq into consecutive chunks of exactly size elements.
// The chunks share seq's backing array but are capped so that appending to
// one cannot overwrite the next.
func Slices[T any](seq []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrNotDivisible, size)
	}
	if len(seq)%size != 0 {
		return nil, fmt.Errorf("%w: %d elements, chunk size %d", ErrNotDivisible, len(seq), size)
	}
	out := make([][]T, 0, len(seq)/size)
	for i := 0; i < len(seq); i += size {
		out = append(out, seq[i:i+size:i+size])
	}
	return out, nil
}

// CommonChunks returns how many aligned chunkBytes-long chunks of digests a
// and b are equal. All-zero chunks count as matches.
func CommonChunks(a, b []byte, chunkBytes int) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d bytes vs %d bytes", ErrLengthMismatch, len(a), len(b))
	}
	as, err := Slices(a, chunkBytes)
	if err != nil {
		return 0, err
	}
	bs, err := Slices(b, chunkBytes)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range as {
		if bytes.Equal(as[i], bs[i]) {
			n++
		}
	}
	return n, nil
}

// CommonChunksFromHex decodes two hex digests and counts equal aligned
// chunks of chunkBits bits.
func CommonChunksFromHex(hexA, hexB string, chunkBits int) (int, error) {
	a, err := bitvec.DecodeHex(hexA)
	if err != nil {
		return 0, err
	}
	b, err := bitvec.DecodeHex(hexB)
	if err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d bytes vs %d bytes", ErrLengthMismatch, len(a), len(b))
	}
	as, err := Slices(bitvec.FromBytes(a).Bools(), chunkBits)
	if err != nil {
		return 0, err
	}
	bs, err := Slices(bitvec.FromBytes(b).Bools(), chunkBits)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range as {
		if slices.Equal(as[i], bs[i]) {
			n++
		}
	}
	return n, nil
}

// DecodeVector returns the bit vector of a URL-safe base64 digest.
func DecodeVector(b64 string) (bitvec.Vector, error) {
	b, err := bitvec.DecodeBase64(b64)
	if err != nil {
		return bitvec.Vector{}, err
	}
	return bitvec.FromBytes(b), nil
}

// BitsToUint reads v as a big-endian unsigned integer.
func BitsToUint(v bitvec.Vector) *big.Int {
	n := new(big.Int)
	for i := 0; i < v.Len(); i++ {
		n.Lsh(n, 1)
		if v.Bit(i) {
			n.SetBit(n, 0, 1)
		}
	}
	return n
}
