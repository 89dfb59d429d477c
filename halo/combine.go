package halo

import (
	"fmt"
	"reflect"
)

// Combine returns a new BitAverage whose columns are the elementwise sums of
// the columns of hashes. All inputs must share width and hash family.
// Hashes built from the same resolver value always combine. Resolvers of
// non-comparable types are matched by family name, so such resolvers must
// use names that identify their hash functions.
//
// The merged feature count is not reconciled and starts at zero, and the
// summed columns are not rescaled: merging n accumulators scales column
// magnitudes by up to n.
func Combine(hashes ...*BitAverage) (*BitAverage, error) {
	if len(hashes) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", ErrIncompatibleHashes)
	}
	first := hashes[0]
	for i, h := range hashes {
		if h == nil {
			return nil, fmt.Errorf("%w: hash %d is nil", ErrIncompatibleHashes, i)
		}
		if h.width != first.width || !sameFamily(h.resolver, first.resolver, h.family, first.family) {
			return nil, fmt.Errorf("%w: hash %d is %s/%d, want %s/%d",
				ErrIncompatibleHashes, i, h.family, h.width, first.family, first.width)
		}
	}

	columns := make([]int, first.width)
	for _, h := range hashes {
		for i, c := range h.columns {
			columns[i] += c
		}
	}
	return &BitAverage{
		width:    first.width,
		family:   first.family,
		resolver: first.resolver,
		hash:     first.hash,
		columns:  columns,
	}, nil
}

// sameFamily reports whether two resolvers produce the same feature hashes.
// Distinct registries sharing a name are different families.
func sameFamily(a, b Resolver, nameA, nameB string) bool {
	if nameA != nameB {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return ta == tb
	}
	return a == b
}
