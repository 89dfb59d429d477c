// Package samecode fingerprints content with bit-average halo hashes.
// Near-duplicate inputs produce digests that differ in only a few bits, so
// the Hamming distance between two digests approximates content similarity.
//
// Basic usage:
//
//	fp, err := samecode.New(samecode.WithWidth(256))
//	a, _ := fp.Sum([]byte("The value specified for size must be at least as large"))
//	b, _ := fp.Sum([]byte("The value specific for size must be at least as large"))
//	d, _ := a.Distance(b) // small for near-duplicates
package samecode

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aboutcode-org/samecode/features"
	"github.com/aboutcode-org/samecode/halo"
	"github.com/aboutcode-org/samecode/hasher"
)

// Result is the fingerprint of one named input.
type Result struct {
	Path string
	Hash *halo.BitAverage
}

// Fingerprinter turns content into halo hashes. It is safe for concurrent use.
type Fingerprinter struct {
	width     int
	resolver  halo.Resolver
	extractor features.Extractor
	workers   int
	log       *zap.Logger
}

// Option configures a Fingerprinter.
type Option func(*options)

type options struct {
	width     int
	resolver  halo.Resolver
	family    string
	extractor features.Extractor
	workers   int
	log       *zap.Logger
}

func defaultOptions() options {
	return options{
		width:     256,
		extractor: features.Words{},
		workers:   4,
		log:       zap.NewNop(),
	}
}

// WithWidth sets the digest width in bits (default 256).
func WithWidth(bits int) Option { return func(o *options) { o.width = bits } }

// WithResolver sets the feature hash registry. It takes precedence over WithFamily.
func WithResolver(r halo.Resolver) Option { return func(o *options) { o.resolver = r } }

// WithFamily selects a built-in hash family by name (default "reference").
// Fingerprints are only comparable within one family.
func WithFamily(name string) Option { return func(o *options) { o.family = name } }

// WithExtractor sets how content is split into features (default words).
func WithExtractor(e features.Extractor) Option { return func(o *options) { o.extractor = e } }

// WithWorkers bounds the number of inputs fingerprinted in parallel (default 4).
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithLogger sets the logger (default no-op).
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// New creates a Fingerprinter. It fails if the family is unknown or has no
// hasher for the width.
func New(opts ...Option) (*Fingerprinter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		return nil, fmt.Errorf("samecode: workers must be positive, got %d", o.workers)
	}
	if o.extractor == nil {
		return nil, errors.New("samecode: nil feature extractor")
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.resolver == nil {
		r, err := hasher.ByName(o.family)
		if err != nil {
			return nil, fmt.Errorf("samecode: %w", err)
		}
		o.resolver = r
	}
	// Validate the width against the resolver.
	if _, err := halo.New(o.width, halo.WithResolver(o.resolver)); err != nil {
		return nil, fmt.Errorf("samecode: %w", err)
	}

	return &Fingerprinter{
		width:     o.width,
		resolver:  o.resolver,
		extractor: o.extractor,
		workers:   o.workers,
		log:       o.log,
	}, nil
}

// Width returns the digest width in bits.
func (f *Fingerprinter) Width() int { return f.width }

// Family returns the hash family name.
func (f *Fingerprinter) Family() string { return f.resolver.Name() }

// Sum fingerprints data.
func (f *Fingerprinter) Sum(data []byte) (*halo.BitAverage, error) {
	h, err := halo.New(f.width, halo.WithResolver(f.resolver))
	if err != nil {
		return nil, err
	}
	h.Update(f.extractor.Features(data)...)
	return h, nil
}

// SumReader fingerprints everything read from r.
func (f *Fingerprinter) SumReader(r io.Reader) (*halo.BitAverage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("samecode: read: %w", err)
	}
	return f.Sum(data)
}

// SumFile fingerprints the file at path on fs.
func (f *Fingerprinter) SumFile(fs afero.Fs, path string) (*halo.BitAverage, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("samecode: %w", err)
	}
	h, err := f.Sum(data)
	if err != nil {
		return nil, err
	}
	f.log.Debug("fingerprinted file",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("features", h.Count()),
		zap.Int("width", f.width),
		zap.Int("ones", h.Hash().OnesCount()),
	)
	return h, nil
}

// SumFiles fingerprints paths in parallel. Results are in the order of
// paths. The first failure cancels the remaining work.
func (f *Fingerprinter) SumFiles(ctx context.Context, fs afero.Fs, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := f.SumFile(fs, p)
			if err != nil {
				f.log.Warn("fingerprint failed", zap.String("path", p), zap.Error(err))
				return err
			}
			results[i] = Result{Path: p, Hash: h}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SumShards fingerprints each shard in parallel and combines them into one
// hash with the columns of all shards. The result has a feature count of 0.
// No shards fails with halo.ErrIncompatibleHashes.
func (f *Fingerprinter) SumShards(ctx context.Context, shards [][]byte) (*halo.BitAverage, error) {
	parts := make([]*halo.BitAverage, len(shards))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, s := range shards {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := f.Sum(s)
			if err != nil {
				return err
			}
			f.log.Debug("fingerprinted shard", zap.Int("shard", i), zap.Int("features", h.Count()))
			parts[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return halo.Combine(parts...)
}
