package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "w%d", i)
	}
	return b.String()
}

func TestSplit_InvalidConfig(t *testing.T) {
	_, err := Split("some text", 0, 0.2)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Split("some text", -3, 0.2)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Split("some text", 10, 1.0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Split("some text", 10, -0.1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", 10, 0.2)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split("   \n\t  ", 10, 0.2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_SingleWindow(t *testing.T) {
	text := words(7)
	chunks, err := Split(text, 10, 0.2)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 7, chunks[0].TokenCount)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestSplit_WindowSizeAndPositions(t *testing.T) {
	chunks, err := Split(words(100), 20, 0.25)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.LessOrEqual(t, c.TokenCount, 20)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
		assert.Equal(t, c.TokenCount, len(strings.Fields(c.Text)))
	}
}

// Dropping each non-first chunk's overlapping prefix and concatenating
// must reconstruct the tokenized input exactly.
func TestSplit_Reconstruction(t *testing.T) {
	cases := []struct {
		tokens    int
		maxTokens int
		overlap   float64
	}{
		{100, 20, 0.25},
		{101, 20, 0.25},
		{57, 10, 0.5},
		{1000, 128, 0.1},
		{23, 8, 0.0},
		{5, 3, 0.3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%d_%v", tc.tokens, tc.maxTokens, tc.overlap), func(t *testing.T) {
			text := words(tc.tokens)
			chunks, err := Split(text, tc.maxTokens, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			overlap := Overlap(tc.maxTokens, tc.overlap)
			var rebuilt []string
			for i, c := range chunks {
				toks := strings.Fields(c.Text)
				if i > 0 {
					require.GreaterOrEqual(t, len(toks), overlap)
					toks = toks[overlap:]
				}
				rebuilt = append(rebuilt, toks...)
			}
			assert.Equal(t, text, strings.Join(rebuilt, " "))
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := words(333)
	a, err := Split(text, 50, 0.2)
	require.NoError(t, err)
	b, err := Split(text, 50, 0.2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplit_TrailingTextKept(t *testing.T) {
	// 25 tokens, windows of 10 with overlap 5: starts 0,5,10,15,20.
	chunks, err := Split(words(25), 10, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(last.Text, "w24"), "trailing tokens must not be dropped")
	for _, c := range chunks {
		assert.Greater(t, c.TokenCount, 0)
	}
}
