package features

import (
	"bytes"

	"golang.org/x/net/html"
)

// HTMLTags yields shingles of Size consecutive start-tag names, joined by
// "_". Only document structure is considered; text and attributes are
// ignored. Documents with fewer tags than Size yield the tag sequence as a
// single feature.
type HTMLTags struct {
	Size int
}

func (h HTMLTags) Features(data []byte) [][]byte {
	if h.Size <= 0 {
		panic("features: HTMLTags.Size must be positive")
	}
	return shingle(extractTags(data), h.Size, []byte{'_'})
}

// extractTags walks HTML with the tokenizer and collects open tag names in order.
func extractTags(data []byte) [][]byte {
	tokenizer := html.NewTokenizer(bytes.NewReader(data))
	var tags [][]byte

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, bytes.Clone(tn))
		}
	}
}
