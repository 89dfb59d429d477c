package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ── hashPool tests ───────────────────────────────────────────────────────────

func TestHashPool_GetReturnsReset(t *testing.T) {
	p := newHashPool(sha256.New)
	h := p.get()
	h.Write([]byte("dirty state"))
	p.put(h)

	h2 := p.get()
	h2.Write([]byte("hello"))
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		hex.EncodeToString(h2.Sum(nil)),
		"recycled state must be reset before use")
}

func TestTruncated_KeepsPrefix(t *testing.T) {
	f := truncated(sha256.New, 4)
	assert.Equal(t, "2cf24dba", hex.EncodeToString(f([]byte("hello"))))
}
