// Package match finds near-duplicate fingerprints.
//
// Digests are split into aligned chunks and bucketed by (position, chunk).
// Only records sharing at least one bucket are compared, and a candidate is
// reported when its Hamming distance is within Options.MaxDistance.
package match

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aboutcode-org/samecode/bitvec"
	"github.com/aboutcode-org/samecode/compare"
)

// ErrEmptyDigest is returned by Add for a zero-length digest.
var ErrEmptyDigest = errors.New("match: empty digest")

// Options configures an Index.
type Options struct {
	ChunkBytes  int // aligned chunk length used for bucketing (default 4)
	MaxDistance int // largest Hamming distance reported as a match (default 32)
}

// DefaultOptions returns the defaults used for 256-bit fingerprints.
func DefaultOptions() Options {
	return Options{ChunkBytes: 4, MaxDistance: 32}
}

// Match is a stored record close to a queried digest.
type Match struct {
	ID           string
	Distance     int
	CommonChunks int
}

// Pair is a pair of stored records close to each other. A was added before B.
type Pair struct {
	A, B         string
	Distance     int
	CommonChunks int
}

// Stats is a point-in-time snapshot of index metrics.
type Stats struct {
	Entries    int
	Queries    uint64
	Candidates uint64 // records that passed the chunk pre-filter
	Matches    uint64 // candidates within MaxDistance
}

type record struct {
	id  string
	vec bitvec.Vector
}

type bucketKey struct {
	pos   int
	chunk string
}

// Index is a thread-safe near-duplicate index over fixed-size digests.
// The digest size is fixed by the first Add.
type Index struct {
	mu          sync.Mutex
	chunkBytes  int
	maxDistance int
	size        int
	records     []record
	buckets     map[bucketKey][]int // bucket → record positions, ascending

	queries    uint64
	candidates uint64
	matches    uint64
}

// New creates an empty Index.
// Panics if ChunkBytes <= 0 or MaxDistance < 0.
func New(opts Options) *Index {
	if opts.ChunkBytes <= 0 {
		panic("match: Options.ChunkBytes must be positive")
	}
	if opts.MaxDistance < 0 {
		panic("match: Options.MaxDistance must not be negative")
	}
	return &Index{
		chunkBytes:  opts.ChunkBytes,
		maxDistance: opts.MaxDistance,
		buckets:     make(map[bucketKey][]int),
	}
}

// Add stores digest under id. Digests must all have the same size, which
// must be a multiple of ChunkBytes. Duplicate ids are allowed.
func (x *Index) Add(id string, digest []byte) error {
	if len(digest) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyDigest, id)
	}
	chunks, err := compare.Slices(digest, x.chunkBytes)
	if err != nil {
		return fmt.Errorf("match: add %q: %w", id, err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.checkSizeLocked(digest); err != nil {
		return fmt.Errorf("match: add %q: %w", id, err)
	}
	if x.size == 0 {
		x.size = len(digest)
	}

	pos := len(x.records)
	x.records = append(x.records, record{id: id, vec: bitvec.FromBytes(digest)})
	for i, c := range chunks {
		k := bucketKey{pos: i, chunk: string(c)}
		x.buckets[k] = append(x.buckets[k], pos)
	}
	return nil
}

// Query returns the stored records within MaxDistance of digest, closest
// first. Ties keep insertion order.
func (x *Index) Query(digest []byte) ([]Match, error) {
	chunks, err := compare.Slices(digest, x.chunkBytes)
	if err != nil {
		return nil, fmt.Errorf("match: query: %w", err)
	}
	vec := bitvec.FromBytes(digest)

	x.mu.Lock()
	defer x.mu.Unlock()

	x.queries++
	if len(x.records) == 0 {
		return nil, nil
	}
	if err := x.checkSizeLocked(digest); err != nil {
		return nil, fmt.Errorf("match: query: %w", err)
	}

	shared := make(map[int]int)
	for i, c := range chunks {
		for _, pos := range x.buckets[bucketKey{pos: i, chunk: string(c)}] {
			shared[pos]++
		}
	}

	var out []Match
	for _, pos := range sortedKeys(shared) {
		x.candidates++
		r := x.records[pos]
		d := bitvec.XorCount(vec, r.vec)
		if d > x.maxDistance {
			continue
		}
		x.matches++
		out = append(out, Match{ID: r.id, Distance: d, CommonChunks: shared[pos]})
	}
	slices.SortStableFunc(out, func(a, b Match) int { return a.Distance - b.Distance })
	return out, nil
}

// Pairs returns every pair of stored records within MaxDistance of each
// other, closest first. Ties keep insertion order.
func (x *Index) Pairs() []Pair {
	x.mu.Lock()
	defer x.mu.Unlock()

	type pairKey struct{ a, b int }
	shared := make(map[pairKey]int)
	for _, positions := range x.buckets {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				shared[pairKey{positions[i], positions[j]}]++
			}
		}
	}

	keys := make([]pairKey, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(p, q pairKey) int {
		if p.a != q.a {
			return p.a - q.a
		}
		return p.b - q.b
	})

	var out []Pair
	for _, k := range keys {
		x.candidates++
		a, b := x.records[k.a], x.records[k.b]
		d := bitvec.XorCount(a.vec, b.vec)
		if d > x.maxDistance {
			continue
		}
		x.matches++
		out = append(out, Pair{A: a.id, B: b.id, Distance: d, CommonChunks: shared[k]})
	}
	slices.SortStableFunc(out, func(p, q Pair) int { return p.Distance - q.Distance })
	return out
}

// Len returns the number of stored records.
func (x *Index) Len() int {
	x.mu.Lock()
	n := len(x.records)
	x.mu.Unlock()
	return n
}

// Stats returns a point-in-time snapshot of index metrics.
func (x *Index) Stats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()

	return Stats{
		Entries:    len(x.records),
		Queries:    x.queries,
		Candidates: x.candidates,
		Matches:    x.matches,
	}
}

// checkSizeLocked must be called with x.mu held.
func (x *Index) checkSizeLocked(digest []byte) error {
	if x.size != 0 && len(digest) != x.size {
		return fmt.Errorf("%w: %d bytes, index holds %d-byte digests",
			compare.ErrLengthMismatch, len(digest), x.size)
	}
	return nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
