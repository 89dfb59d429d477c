package hasher

import (
	"hash"
	"sync"
)

// hashPool recycles hash.Hash instances of a single algorithm so that
// hashing a feature does not allocate a fresh digest state each time.
//
// Reset happens on *get*, not put, so a state returned mid-write can never
// leak into the next user.
type hashPool struct {
	pool sync.Pool // stores hash.Hash
}

func newHashPool(newHash func() hash.Hash) *hashPool {
	return &hashPool{
		pool: sync.Pool{
			New: func() any { return newHash() },
		},
	}
}

// get returns a reset hash state.
func (p *hashPool) get() hash.Hash {
	h := p.pool.Get().(hash.Hash)
	h.Reset()
	return h
}

// put returns a hash state to the pool.
func (p *hashPool) put(h hash.Hash) {
	p.pool.Put(h)
}
