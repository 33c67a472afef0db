// Package simhash fingerprints search snippets for near-duplicate
// detection. Tokenization is plain whitespace splitting so CJK text,
// which the upstream library's word regexp drops, still contributes
// features.
package simhash

import (
	"strings"

	mfonda "github.com/mfonda/simhash"
)

// Hash returns the 64-bit fingerprint of text.
func Hash(text string) uint64 {
	fields := strings.Fields(text)
	features := make([][]byte, len(fields))
	for i, f := range fields {
		features[i] = []byte(f)
	}
	return mfonda.SimhashBytes(features)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) uint8 {
	return mfonda.Compare(a, b)
}
