package halo_test

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aboutcode-org/samecode/compare"
	"github.com/aboutcode-org/samecode/halo"
	"github.com/aboutcode-org/samecode/hasher"
)

var (
	atLeast = bytes.Fields([]byte(`The value specified for size must be at
least as large as for the smallest bit vector possible for intVal`))
	noMore = bytes.Fields([]byte(`The value specified for size must be no
more larger than the smallest bit vector possible for intVal`))
	byIntVal = bytes.Fields([]byte(`The value specified for size must be at
least as large as for the smallest bit vector possible by intVal`))
)

// numToBin encodes n as minimal big-endian bytes; zero encodes as one 0x00.
func numToBin(n int) []byte {
	if n == 0 {
		return []byte{0}
	}
	return big.NewInt(int64(n)).Bytes()
}

func mustNew(t *testing.T, width int, opts ...halo.Option) *halo.BitAverage {
	t.Helper()
	h, err := halo.New(width, opts...)
	require.NoError(t, err)
	return h
}

func distance(t *testing.T, a, b *halo.BitAverage) int {
	t.Helper()
	d, err := a.Distance(b)
	require.NoError(t, err)
	return d
}

// ── construction ──────────────────────────────────────────────────────────────

func TestNew_Empty(t *testing.T) {
	h := mustNew(t, 128)
	assert.Equal(t, 128, h.Width())
	assert.Equal(t, 16, h.DigestSize())
	assert.Zero(t, h.Count())
	assert.Equal(t, make([]int, 128), h.Columns())
	assert.Equal(t, hasher.FamilyReference, h.Hasher())
	assert.Equal(t, make([]byte, 16), h.Digest(), "ties resolve to zero bits")
}

func TestNew_InitialFeatures(t *testing.T) {
	a := mustNew(t, 256, halo.WithFeatures(atLeast...))
	b := mustNew(t, 256)
	b.Update(atLeast...)
	assert.Equal(t, len(atLeast), a.Count())
	assert.Equal(t, b.Columns(), a.Columns())
}

func TestNew_UnsupportedWidth(t *testing.T) {
	for _, w := range []int{0, -8, 12, 96, 1024} {
		_, err := halo.New(w)
		assert.ErrorIs(t, err, halo.ErrHasherUnavailable, "width %d", w)
	}
}

func TestNew_NilResolver(t *testing.T) {
	_, err := halo.New(256, halo.WithResolver(nil))
	require.ErrorIs(t, err, halo.ErrHasherUnavailable)
	assert.ErrorContains(t, err, "nil resolver")
}

func TestNew_WrapsResolverCause(t *testing.T) {
	_, err := halo.New(256, halo.WithResolver(hasher.XXH3()))
	require.ErrorIs(t, err, halo.ErrHasherUnavailable)
	require.ErrorIs(t, err, hasher.ErrUnsupportedWidth)
}

func TestNew_CustomResolver(t *testing.T) {
	r := hasher.NewRegistry("constant", map[int]hasher.Func{
		16: func([]byte) []byte { return []byte{0xF0, 0x0F} },
	})
	h := mustNew(t, 16, halo.WithResolver(r), halo.WithFeatures([]byte("x"), []byte("y")))
	assert.Equal(t, "constant", h.Hasher())
	assert.Equal(t, []int{-2, -2, -2, -2, 2, 2, 2, 2, 2, 2, 2, 2, -2, -2, -2, -2}, h.Columns())
	assert.Equal(t, "0ff0", h.HexDigest())
}

func TestUpdate_HasherContractViolation_Panics(t *testing.T) {
	r := hasher.NewRegistry("short", map[int]hasher.Func{
		16: func([]byte) []byte { return []byte{0xFF} },
	})
	h := mustNew(t, 16, halo.WithResolver(r))
	assert.Panics(t, func() { h.Update([]byte("x")) })
	assert.Zero(t, h.Count())
	assert.Equal(t, make([]int, 16), h.Columns())
}

// ── sign convention ───────────────────────────────────────────────────────────

func TestUpdate_ZeroBitsVotePositive(t *testing.T) {
	f, err := hasher.Reference().Lookup(32)
	require.NoError(t, err)
	feature := []byte("hello")
	d := f(feature) // 5d41402a

	h := mustNew(t, 32, halo.WithFeatures(feature))
	cols := h.Columns()
	for i, c := range cols {
		bit := d[i/8]&(0x80>>uint(i%8)) != 0
		if bit {
			assert.Equal(t, -1, c, "column %d", i)
		} else {
			assert.Equal(t, 1, c, "column %d", i)
		}
	}
	// A single feature yields the complement of its own digest.
	assert.Equal(t, "a2bebfd5", h.HexDigest())
}

// ── Update ────────────────────────────────────────────────────────────────────

func TestUpdate_EmptyIsNoop(t *testing.T) {
	h := mustNew(t, 64, halo.WithFeatures(atLeast...))
	cols, count := h.Columns(), h.Count()

	h.Update()
	h.Update(nil)
	h.Update([]byte{})
	require.NoError(t, h.UpdateValue(nil))
	require.NoError(t, h.UpdateValue([]byte{}))
	require.NoError(t, h.UpdateValue([][]byte{}))

	assert.Equal(t, cols, h.Columns())
	assert.Equal(t, count, h.Count())
}

func TestUpdate_SequenceCountsEachFeature(t *testing.T) {
	a := mustNew(t, 128)
	a.Update(atLeast...)

	b := mustNew(t, 128)
	for _, f := range atLeast {
		b.Update(f)
	}
	assert.Equal(t, len(atLeast), a.Count())
	assert.Equal(t, a.Count(), b.Count())
	assert.Equal(t, a.Columns(), b.Columns())
}

func TestUpdateValue_Shapes(t *testing.T) {
	want := mustNew(t, 128, halo.WithFeatures([]byte("a"), []byte("b")))

	single := mustNew(t, 128)
	require.NoError(t, single.UpdateValue([]byte("a")))
	require.NoError(t, single.UpdateValue([]byte("b")))

	seq := mustNew(t, 128)
	require.NoError(t, seq.UpdateValue([][]byte{[]byte("a"), []byte("b")}))

	anySeq := mustNew(t, 128)
	require.NoError(t, anySeq.UpdateValue([]any{[]byte("a"), []byte("b")}))

	for _, h := range []*halo.BitAverage{single, seq, anySeq} {
		assert.Equal(t, want.Columns(), h.Columns())
		assert.Equal(t, 2, h.Count())
	}
}

func TestUpdateValue_InvalidFeatureType(t *testing.T) {
	h := mustNew(t, 128)
	for _, v := range []any{"text", 42, []string{"a"}, []any{[]byte("ok"), "bad"}} {
		err := h.UpdateValue(v)
		assert.ErrorIs(t, err, halo.ErrInvalidFeatureType, "%T", v)
	}
	assert.Zero(t, h.Count(), "a rejected input must not change state")
	assert.Equal(t, make([]int, 128), h.Columns())
}

// ── Digest ────────────────────────────────────────────────────────────────────

func TestDigest_LengthForEveryWidth(t *testing.T) {
	for _, name := range hasher.Families() {
		r, err := hasher.ByName(name)
		require.NoError(t, err)
		for _, w := range r.Widths() {
			h := mustNew(t, w, halo.WithResolver(r), halo.WithFeatures(atLeast...))
			assert.Len(t, h.Digest(), w/8, "%s/%d", name, w)
			assert.Len(t, h.HexDigest(), w/4, "%s/%d", name, w)
			assert.Equal(t, w, h.Hash().Len())
		}
	}
}

func TestDigest_Idempotent(t *testing.T) {
	h := mustNew(t, 256, halo.WithFeatures(atLeast...))
	assert.Equal(t, h.Digest(), h.Digest())
	assert.Equal(t, h.HexDigest(), h.HexDigest())
}

func TestDigest_KnownValues(t *testing.T) {
	tests := []struct {
		width     int
		atLeast   string
		noMore    string
		wantDist  int
		byIntValD int
	}{
		{64, "028b1699c0c5310c", "0002969060d5b344", 14, 7},
		{128, "028b1699c0c5310cd1b566a893d12f10", "0002969060d5b344d1b7602cd9e127b0", 27, 12},
		{160, "2c10223104c43470e10b1157e6415b2f730057d0", "2c912433c4c624e0b03b34576641df8fe00017d0", 29, 12},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.width), func(t *testing.T) {
			a := mustNew(t, tt.width)
			for _, f := range atLeast {
				a.Update(f)
			}
			b := mustNew(t, tt.width, halo.WithFeatures(noMore...))
			c := mustNew(t, tt.width, halo.WithFeatures(byIntVal...))

			assert.Equal(t, tt.atLeast, a.HexDigest())
			assert.Equal(t, tt.noMore, b.HexDigest())
			assert.Equal(t, tt.wantDist, distance(t, a, b))
			assert.Equal(t, tt.byIntValD, distance(t, a, c))
		})
	}
}

func TestB64Digest(t *testing.T) {
	h := mustNew(t, 128, halo.WithFeatures(atLeast...))
	assert.Equal(t, "AosWmcDFMQzRtWaok9EvEA", h.B64Digest())

	v, err := compare.DecodeVector(h.B64Digest())
	require.NoError(t, err)
	assert.True(t, v.Equal(h.Hash()))
}

// ── Distance ──────────────────────────────────────────────────────────────────

func TestDistance_NearDuplicates(t *testing.T) {
	tests := []struct {
		width int
		a, b  [][]byte
		want  int
	}{
		{256, atLeast, noMore, 57},
		{32, atLeast, byIntVal, 5},
		{512, atLeast, byIntVal, 46},
	}
	for _, tt := range tests {
		a := mustNew(t, tt.width, halo.WithFeatures(tt.a...))
		b := mustNew(t, tt.width, halo.WithFeatures(tt.b...))
		assert.Equal(t, tt.want, distance(t, a, b), "width %d", tt.width)
		assert.Equal(t, tt.want, distance(t, b, a), "width %d (reversed)", tt.width)
		assert.Less(t, tt.want, tt.width/2, "near-duplicates must sit below half the width")
	}
}

func TestDistance_Self(t *testing.T) {
	h := mustNew(t, 256, halo.WithFeatures(atLeast...))
	assert.Zero(t, distance(t, h, h))
}

func TestDistance_WidthMismatch(t *testing.T) {
	_, err := mustNew(t, 128).Distance(mustNew(t, 256))
	require.ErrorIs(t, err, compare.ErrLengthMismatch)
}

func TestDistance_Nil(t *testing.T) {
	_, err := mustNew(t, 256).Distance(nil)
	require.ErrorIs(t, err, compare.ErrLengthMismatch)
}

// ── regression fixtures ───────────────────────────────────────────────────────

func TestBitAverage_Integers512(t *testing.T) {
	h := mustNew(t, 512)
	for i := 0; i < 4096; i++ {
		h.Update(numToBin(i))
	}
	assert.Equal(t, 4096, h.Count())
	assert.Equal(t,
		"df38b3eddba771b5e6ddeb0851c6651c95d26bd5e8"+
			"944c10125cd50968759927c51238fb83d0ff4de5f6a0"+
			"c05de0837d00f6e47c4a880592f1c87b175df5db15",
		h.HexDigest())
}

func TestCommonChunks_NearDuplicateSentences(t *testing.T) {
	m1 := bytes.Fields([]byte("The value specified for size must be at least as large"))
	m2 := bytes.Fields([]byte("The value specific for size must be at least as large"))
	a := mustNew(t, 256, halo.WithFeatures(m1...))
	b := mustNew(t, 256, halo.WithFeatures(m2...))

	n, err := compare.CommonChunks(a.Digest(), b.Digest(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := compare.ByteHammingDistance(a.HexDigest(), b.HexDigest())
	require.NoError(t, err)
	assert.Equal(t, 32, d)
}

func TestCommonChunks_IdenticalInput(t *testing.T) {
	a := mustNew(t, 512, halo.WithFeatures(atLeast...))
	b := mustNew(t, 512, halo.WithFeatures(atLeast...))
	for _, size := range []int{1, 2, 4, 8, 16, 32, 64} {
		n, err := compare.CommonChunks(a.Digest(), b.Digest(), size)
		require.NoError(t, err)
		assert.Equal(t, 64/size, n)
	}
}

// stream returns n deterministic pseudo-random bytes derived from seed.
func stream(seed string, n int) []byte {
	out := make([]byte, 0, n+sha256.Size)
	for i := 0; len(out) < n; i++ {
		s := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", seed, i)))
		out = append(out, s[:]...)
	}
	return out[:n]
}

func chunks(data []byte, size int) [][]byte {
	var out [][]byte
	for i := 0; i < len(data); i += size {
		out = append(out, data[i:i+size])
	}
	return out
}

// Replacing the chunks of one random stream with those of another, one at a
// time, drives the distance from about width/2 down to zero.
func TestBitAverage_RandomSimilarityBuildup(t *testing.T) {
	chunks1 := chunks(stream("random1", 70000), 1000)
	chunks2 := chunks(stream("random2", 70000), 1000)

	h1 := mustNew(t, 256, halo.WithFeatures(chunks1...))

	got := make([]int, 0, len(chunks1))
	for i := range chunks1 {
		h2 := mustNew(t, 256, halo.WithFeatures(chunks2...))
		got = append(got, distance(t, h1, h2))
		chunks2[i] = chunks1[i]
	}

	want := []int{
		144, 140, 143, 139, 134, 139, 135, 132, 131, 131, 128, 126, 124, 129,
		125, 118, 117, 112, 114, 116, 114, 118, 119, 118, 118, 109, 112, 108,
		105, 101, 92, 90, 89, 85, 91, 91, 88, 85, 88, 81, 82, 81, 77, 81, 77,
		78, 76, 67, 67, 63, 67, 63, 60, 55, 52, 52, 51, 48, 40, 39, 41, 39,
		37, 32, 30, 24, 19, 16, 13, 7,
	}
	assert.Equal(t, want, got)
}

func TestBitAverage_UnrelatedStreamsNearHalf(t *testing.T) {
	total := 0
	const runs = 16
	for i := 0; i < runs; i++ {
		a := mustNew(t, 256, halo.WithFeatures(chunks(stream(fmt.Sprintf("a%d", i), 8000), 100)...))
		b := mustNew(t, 256, halo.WithFeatures(chunks(stream(fmt.Sprintf("b%d", i), 8000), 100)...))
		total += distance(t, a, b)
	}
	assert.InDelta(t, 128, float64(total)/runs, 16)
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkUpdate256(b *testing.B) {
	h, _ := halo.New(256)
	feature := []byte("feature")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Update(feature)
	}
}

func BenchmarkDigest512(b *testing.B) {
	h, _ := halo.New(512, halo.WithFeatures(atLeast...))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Digest()
	}
}
