// Package features splits raw content into the byte-string features that
// are folded into a fingerprint.
package features

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Extraction modes accepted by New.
const (
	ModeWords    = "words"
	ModeLines    = "lines"
	ModeChunks   = "chunks"
	ModeShingles = "shingles"
	ModeHTML     = "html"
)

// ErrUnknownMode is returned by New for an unsupported mode.
var ErrUnknownMode = errors.New("features: unknown mode")

// Extractor converts content to an ordered list of features.
// Implementations are safe for concurrent use.
type Extractor interface {
	Features(data []byte) [][]byte
}

// Config selects and parameterizes an Extractor.
type Config struct {
	Mode string // one of the Mode constants (default words)
	Size int    // chunk size in bytes, or shingle length in tokens (default 3)
	Fold bool   // lowercase, strip punctuation and collapse whitespace first
}

// Modes lists the supported extraction modes.
func Modes() []string {
	return []string{ModeWords, ModeLines, ModeChunks, ModeShingles, ModeHTML}
}

// New returns the Extractor described by cfg.
func New(cfg Config) (Extractor, error) {
	size := cfg.Size
	if size == 0 {
		size = 3
	}
	if size < 0 {
		return nil, fmt.Errorf("features: size must be positive, got %d", cfg.Size)
	}
	switch cfg.Mode {
	case ModeWords, "":
		return Words{Fold: cfg.Fold}, nil
	case ModeLines:
		return Lines{Fold: cfg.Fold}, nil
	case ModeChunks:
		return Chunks{Size: size}, nil
	case ModeShingles:
		return Shingles{Size: size, Fold: cfg.Fold}, nil
	case ModeHTML:
		return HTMLTags{Size: size}, nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMode, cfg.Mode, strings.Join(Modes(), ", "))
}

// Words yields whitespace-separated tokens.
type Words struct {
	Fold bool
}

func (w Words) Features(data []byte) [][]byte {
	if w.Fold {
		data = []byte(fold(string(data)))
	}
	return bytes.Fields(data)
}

// Lines yields non-blank lines with surrounding whitespace trimmed.
type Lines struct {
	Fold bool
}

func (l Lines) Features(data []byte) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if l.Fold {
			line = []byte(fold(string(line)))
		} else {
			line = bytes.TrimSpace(line)
		}
		if len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Chunks yields contiguous non-overlapping byte chunks of Size bytes.
// The last chunk may be shorter.
type Chunks struct {
	Size int
}

func (c Chunks) Features(data []byte) [][]byte {
	if c.Size <= 0 {
		panic("features: Chunks.Size must be positive")
	}
	out := make([][]byte, 0, (len(data)+c.Size-1)/c.Size)
	for start := 0; start < len(data); start += c.Size {
		end := min(start+c.Size, len(data))
		out = append(out, data[start:end:end])
	}
	return out
}

// Shingles yields overlapping windows of Size words joined by a space.
// Inputs shorter than one window yield a single feature of all words.
type Shingles struct {
	Size int
	Fold bool
}

func (s Shingles) Features(data []byte) [][]byte {
	if s.Size <= 0 {
		panic("features: Shingles.Size must be positive")
	}
	words := Words{Fold: s.Fold}.Features(data)
	return shingle(words, s.Size, []byte{' '})
}

// shingle joins each run of n consecutive tokens with sep.
func shingle(tokens [][]byte, n int, sep []byte) [][]byte {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) < n {
		return [][]byte{bytes.Join(tokens, sep)}
	}
	out := make([][]byte, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		out = append(out, bytes.Join(tokens[i:i+n], sep))
	}
	return out
}
