package halo

import "errors"

var (
	// ErrHasherUnavailable is returned by New when no hasher serves the width.
	ErrHasherUnavailable = errors.New("halo: no hasher for the requested width")
	// ErrInvalidFeatureType is returned when a feature is not a byte string.
	ErrInvalidFeatureType = errors.New("halo: feature is not a byte string")
	// ErrIncompatibleHashes is returned by Combine for mixed widths or families.
	ErrIncompatibleHashes = errors.New("halo: incompatible hashes")
)
