package hasher

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

func xxh3Sum64(data []byte) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, xxh3.Hash(data))
	return out
}

func xxh3Sum128(data []byte) []byte {
	h := xxh3.Hash128(data)
	out := make([]byte, 16)
	binary.BigEndian.PutUint64(out[:8], h.Hi)
	binary.BigEndian.PutUint64(out[8:], h.Lo)
	return out
}
