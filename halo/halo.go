// Package halo implements bit-average halo hashes: locality-sensitive
// fingerprints where near-duplicate feature collections hash to digests that
// differ in only a few bit positions.
//
// Every feature is hashed to a fixed-width digest. Each bit position keeps a
// signed column counter; a 0 bit votes +1 and a 1 bit votes -1. The final
// digest sets bit i when column i is strictly positive.
package halo

import (
	"fmt"

	"github.com/aboutcode-org/samecode/bitvec"
	"github.com/aboutcode-org/samecode/compare"
	"github.com/aboutcode-org/samecode/hasher"
)

// Resolver supplies the feature hash function for a width in bits.
// *hasher.Registry implements Resolver.
type Resolver interface {
	Name() string
	Lookup(widthBits int) (hasher.Func, error)
}

// BitAverage is a bit matrix averaging hash.
//
// For the features ["this", "is", "a", "rose", "great"] and a 4-bit hash
// producing 0011, 1110, 0010, 1100 and 1100, the columns end at -1, -1, -1, +3
// (ones outvote zeros in the first three positions), so the digest is 0001.
//
// A BitAverage is not safe for concurrent mutation; independent instances
// may be used in parallel.
type BitAverage struct {
	width    int
	family   string
	resolver Resolver
	hash     hasher.Func
	columns  []int
	count    int
}

// Option configures New.
type Option func(*options)

type options struct {
	resolver Resolver
	features [][]byte
}

// WithResolver sets the hash function registry (default hasher.Reference()).
func WithResolver(r Resolver) Option { return func(o *options) { o.resolver = r } }

// WithFeatures applies an initial Update with features.
func WithFeatures(features ...[]byte) Option {
	return func(o *options) { o.features = append(o.features, features...) }
}

// New returns an empty BitAverage producing widthBits-bit digests.
// It fails with ErrHasherUnavailable if widthBits is not a positive multiple
// of 8 or the resolver has no hasher for it.
func New(widthBits int, opts ...Option) (*BitAverage, error) {
	o := options{resolver: hasher.Reference()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		return nil, fmt.Errorf("%w: nil resolver", ErrHasherUnavailable)
	}
	if widthBits <= 0 || widthBits%8 != 0 {
		return nil, fmt.Errorf("%w: width %d is not a positive multiple of 8", ErrHasherUnavailable, widthBits)
	}
	f, err := o.resolver.Lookup(widthBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bits: %w", ErrHasherUnavailable, widthBits, err)
	}

	b := &BitAverage{
		width:    widthBits,
		family:   o.resolver.Name(),
		resolver: o.resolver,
		hash:     f,
		columns:  make([]int, widthBits),
	}
	b.Update(o.features...)
	return b, nil
}

// Update folds each feature into the columns, in order. Empty features are
// skipped and do not count.
func (b *BitAverage) Update(features ...[]byte) {
	for _, f := range features {
		if len(f) == 0 {
			continue
		}
		b.add(f)
	}
}

// UpdateValue folds a dynamically typed input: nil is a no-op, a []byte is a
// single feature, and a [][]byte or []any is a sequence of features.
// Anything else fails with ErrInvalidFeatureType before any column changes.
func (b *BitAverage) UpdateValue(v any) error {
	features, err := toFeatures(v)
	if err != nil {
		return err
	}
	b.Update(features...)
	return nil
}

func (b *BitAverage) add(feature []byte) {
	d := b.hash(feature)
	if len(d)*8 != b.width {
		panic(fmt.Sprintf("halo: %s hasher returned %d bytes for a %d-bit hash", b.family, len(d), b.width))
	}
	for i := range b.columns {
		if d[i/8]&(0x80>>uint(i%8)) != 0 {
			b.columns[i]--
		} else {
			b.columns[i]++
		}
	}
	b.count++
}

func toFeatures(v any) ([][]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return [][]byte{x}, nil
	case [][]byte:
		return x, nil
	case []any:
		out := make([][]byte, 0, len(x))
		for i, e := range x {
			f, ok := e.([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrInvalidFeatureType, i, e)
			}
			out = append(out, f)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidFeatureType, v)
}

// Digest returns the fingerprint: bit i is 1 when column i is positive.
// It is recomputed on each call.
func (b *BitAverage) Digest() []byte {
	out := make([]byte, b.width/8)
	for i, c := range b.columns {
		if c > 0 {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

// HexDigest returns the lowercase hex encoding of Digest.
func (b *BitAverage) HexDigest() string { return bitvec.EncodeHex(b.Digest()) }

// B64Digest returns the URL-safe base64 encoding of Digest.
func (b *BitAverage) B64Digest() string { return bitvec.EncodeBase64(b.Digest()) }

// Hash returns Digest as a bit vector.
func (b *BitAverage) Hash() bitvec.Vector { return bitvec.FromBytes(b.Digest()) }

// Distance returns the Hamming distance between the digests of b and other.
// A nil other is reported as compare.ErrLengthMismatch.
func (b *BitAverage) Distance(other *BitAverage) (int, error) {
	if other == nil {
		return 0, fmt.Errorf("%w: nil hash", compare.ErrLengthMismatch)
	}
	return compare.HammingDistance(b.Hash(), other.Hash())
}

// Width returns the digest width in bits.
func (b *BitAverage) Width() int { return b.width }

// DigestSize returns the digest size in bytes.
func (b *BitAverage) DigestSize() int { return b.width / 8 }

// Count returns the number of features folded in.
func (b *BitAverage) Count() int { return b.count }

// Hasher returns the name of the hash family in use.
func (b *BitAverage) Hasher() string { return b.family }

// Columns returns a copy of the column counters.
func (b *BitAverage) Columns() []int {
	out := make([]int, len(b.columns))
	copy(out, b.columns)
	return out
}
