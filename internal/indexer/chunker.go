package indexer

import (
	"math"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	minChunkSize    = 100
	maxChunkSize    = 800
	minChunkOverlap = 1
)

// Separators are tried in order; the first one present in the text wins.
// Separators are kept, attached to the start of the following piece.
var Separators = []string{".", "\n\n", "\n", "!", "?"}

// SplitPolicy is the chunk size and overlap, in runes, used for one file.
type SplitPolicy struct {
	ChunkSize    int
	ChunkOverlap int
}

// PolicyForSize derives the split policy from the file size.
// Larger files get larger chunks: size grows with kb^0.15, overlap with kb^0.05.
func PolicyForSize(sizeBytes int64) SplitPolicy {
	kb := float64(sizeBytes / 1024)

	size := int(math.Floor(100 * math.Pow(kb, 0.15)))
	size = max(minChunkSize, min(maxChunkSize, size))

	overlap := int(math.Floor(math.Pow(kb, 0.05)))
	overlap = max(minChunkOverlap, min(size/3, overlap))

	return SplitPolicy{ChunkSize: size, ChunkOverlap: overlap}
}

// Splitter splits chunk text into pieces with the recursive character splitter.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter for the given policy.
func NewSplitter(policy SplitPolicy) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(policy.ChunkSize),
			textsplitter.WithChunkOverlap(policy.ChunkOverlap),
			textsplitter.WithSeparators(Separators),
			textsplitter.WithKeepSeparator(true),
		),
	}
}

// Split returns the trimmed, non-empty pieces of text.
func (s *Splitter) Split(text string) ([]string, error) {
	pieces, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
