// Package chunker splits extracted document text into bounded,
// overlapping token windows. Tokens are whitespace-delimited words, so
// chunking is deterministic and needs no model assets.
package chunker

import (
	"errors"
	"math"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid chunker config")

// Chunk is one token window of the input text.
type Chunk struct {
	Text       string
	TokenCount int
	Position   int
}

// Split cuts text into windows of at most maxTokens tokens. Each window
// after the first overlaps the previous one by
// round(maxTokens * overlapFraction) tokens. Trailing text shorter than
// the overlap is still emitted; empty chunks never are.
func Split(text string, maxTokens int, overlapFraction float64) ([]Chunk, error) {
	if maxTokens <= 0 {
		return nil, ErrInvalidConfig
	}
	if overlapFraction < 0 || overlapFraction >= 1.0 {
		return nil, ErrInvalidConfig
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	if len(tokens) <= maxTokens {
		return []Chunk{{
			Text:       strings.Join(tokens, " "),
			TokenCount: len(tokens),
			Position:   0,
		}}, nil
	}

	overlap := int(math.Round(float64(maxTokens) * overlapFraction))
	step := maxTokens - overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			Text:       strings.Join(window, " "),
			TokenCount: len(window),
			Position:   len(chunks),
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

// CountTokens reports how many tokens Split would see in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Overlap reports the number of tokens adjacent windows share for the
// given parameters.
func Overlap(maxTokens int, overlapFraction float64) int {
	return int(math.Round(float64(maxTokens) * overlapFraction))
}
