// Package hasher provides registries of fixed-width feature hash functions.
// A Registry maps a width in bits to a deterministic function whose output
// is exactly that many bits long.
package hasher

import (
	"crypto/md5"  //nolint:gosec // fingerprint compatibility, not security
	"crypto/sha1" //nolint:gosec // fingerprint compatibility, not security
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"slices"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Family names accepted by ByName.
const (
	FamilyReference = "reference"
	FamilyBlake2b   = "blake2b"
	FamilyXXH3      = "xxh3"
	FamilyFNV       = "fnv"
)

var (
	// ErrUnsupportedWidth is returned when a registry has no hasher for a width.
	ErrUnsupportedWidth = errors.New("hasher: unsupported width")
	// ErrUnknownFamily is returned by ByName for an unregistered family.
	ErrUnknownFamily = errors.New("hasher: unknown family")
)

// Func hashes a feature to a digest of the width it was looked up for.
// Implementations are deterministic and safe for concurrent use.
type Func func(data []byte) []byte

// Registry resolves hash functions by output width.
type Registry struct {
	name  string
	funcs map[int]Func
}

// NewRegistry returns a registry named name serving the given widths.
func NewRegistry(name string, funcs map[int]Func) *Registry {
	r := &Registry{name: name, funcs: make(map[int]Func, len(funcs))}
	for w, f := range funcs {
		r.funcs[w] = f
	}
	return r
}

// Name returns the family name of the registry.
func (r *Registry) Name() string { return r.name }

// Lookup returns the hash function for widthBits.
func (r *Registry) Lookup(widthBits int) (Func, error) {
	f, ok := r.funcs[widthBits]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %d-bit hasher (supported: %v)",
			ErrUnsupportedWidth, r.name, widthBits, r.Widths())
	}
	return f, nil
}

// Widths returns the supported widths in ascending order.
func (r *Registry) Widths() []int {
	out := make([]int, 0, len(r.funcs))
	for w := range r.funcs {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// Supports reports whether widthBits has a registered hasher.
func (r *Registry) Supports(widthBits int) bool {
	return slices.Contains(r.Widths(), widthBits)
}

var (
	reference = NewRegistry(FamilyReference, map[int]Func{
		32:  truncated(md5.New, 4),
		64:  truncated(md5.New, 8),
		128: truncated(md5.New, 16),
		160: truncated(sha1.New, 20),
		256: truncated(sha256.New, 32),
		384: truncated(sha512.New384, 48),
		512: truncated(sha512.New, 64),
	})
	blake = NewRegistry(FamilyBlake2b, map[int]Func{
		32:  blake2bSized(4),
		64:  blake2bSized(8),
		128: blake2bSized(16),
		160: blake2bSized(20),
		256: blake2bSized(32),
		384: blake2bSized(48),
		512: blake2bSized(64),
	})
	xxh3Family = NewRegistry(FamilyXXH3, map[int]Func{
		64:  xxh3Sum64,
		128: xxh3Sum128,
	})
	fnvFamily = NewRegistry(FamilyFNV, map[int]Func{
		32:  truncated(func() hash.Hash { return fnv.New32a() }, 4),
		64:  truncated(func() hash.Hash { return fnv.New64a() }, 8),
		128: truncated(fnv.New128a, 16),
	})
)

// Reference returns the default registry. Its digests are compatible with
// stored fingerprints: MD5 truncated for 32, 64 and 128 bits, SHA-1 for
// 160 bits and SHA-2 for 256, 384 and 512 bits.
func Reference() *Registry { return reference }

// Blake2b returns a registry of BLAKE2b digests sized to each width.
func Blake2b() *Registry { return blake }

// XXH3 returns a registry of 64 and 128 bit XXH3 digests.
func XXH3() *Registry { return xxh3Family }

// FNV returns a registry of FNV-1a digests.
func FNV() *Registry { return fnvFamily }

// ByName returns the registry for a family name.
func ByName(name string) (*Registry, error) {
	switch name {
	case FamilyReference, "":
		return reference, nil
	case FamilyBlake2b:
		return blake, nil
	case FamilyXXH3:
		return xxh3Family, nil
	case FamilyFNV:
		return fnvFamily, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// Families lists the registered family names.
func Families() []string {
	return []string{FamilyReference, FamilyBlake2b, FamilyXXH3, FamilyFNV}
}

// truncated returns a Func computing newHash over data and keeping the
// first size bytes of the sum.
func truncated(newHash func() hash.Hash, size int) Func {
	p := newHashPool(newHash)
	return func(data []byte) []byte {
		h := p.get()
		defer p.put(h)
		h.Write(data)
		return h.Sum(make([]byte, 0, h.Size()))[:size]
	}
}

func blake2bSized(size int) Func {
	return truncated(func() hash.Hash {
		h, err := blake2b.New(size, nil)
		if err != nil {
			// size is always within 1..64 here.
			panic(err)
		}
		return h
	}, size)
}
