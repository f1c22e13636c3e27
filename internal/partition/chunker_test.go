package partition

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphs(n, size int) string {
	var parts []string
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("Paragraph %d. ", i)
		for len(p) < size {
			p += "lorem ipsum dolor sit amet. "
		}
		parts = append(parts, strings.TrimSpace(p[:size]))
	}
	return strings.Join(parts, "\n\n")
}

func TestPartitionShortText(t *testing.T) {
	chunks := Partition("first paragraph\n\n\n\nsecond paragraph", DefaultOptions())
	require.Len(t, chunks, 1)
	assert.Equal(t, "first paragraph\n\nsecond paragraph", chunks[0])

	assert.Empty(t, Partition("", DefaultOptions()))
	assert.Empty(t, Partition("\n\n  \n\n", DefaultOptions()))
}

func TestPartitionSizeBound(t *testing.T) {
	opts := Options{TargetSize: 1000, Overlap: 100}
	text := paragraphs(40, 300)

	chunks := Partition(text, opts)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), opts.TargetSize, "chunk %d", i)
		assert.NotEmpty(t, chunk)
	}
}

func TestPartitionOverlap(t *testing.T) {
	opts := Options{TargetSize: 1000, Overlap: 100}
	chunks := Partition(paragraphs(10, 400), opts)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		seed := prev[len(prev)-50:]
		assert.Contains(t, chunks[i], seed, "chunk %d should start with the tail of chunk %d", i, i-1)
	}
}

func TestPartitionCoversAllParagraphs(t *testing.T) {
	opts := Options{TargetSize: 1200, Overlap: 200}
	chunks := Partition(paragraphs(25, 350), opts)
	joined := strings.Join(chunks, "\n")

	for i := 0; i < 25; i++ {
		assert.Contains(t, joined, fmt.Sprintf("Paragraph %d.", i))
	}
}

func TestPartitionHardSplit(t *testing.T) {
	t.Run("sentence boundary in back half", func(t *testing.T) {
		sentence := "This sentence is exactly forty-two bytes. "
		long := strings.Repeat(sentence, 100)
		chunks := Partition(long, Options{TargetSize: 500, Overlap: 0})

		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks[:len(chunks)-1] {
			assert.LessOrEqual(t, len(chunk), 500)
			assert.True(t, strings.HasSuffix(chunk, "."), "chunk should end on a sentence: %q", chunk[len(chunk)-10:])
		}
		assert.Equal(t, strings.Count(long, "bytes."), strings.Count(strings.Join(chunks, " "), "bytes."))
	})

	t.Run("no boundary splits at the limit", func(t *testing.T) {
		long := strings.Repeat("x", 2500)
		chunks := Partition(long, Options{TargetSize: 1000, Overlap: 0})
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 1000)
		assert.Len(t, chunks[1], 1000)
		assert.Len(t, chunks[2], 500)
	})

	t.Run("multi-byte characters stay whole", func(t *testing.T) {
		long := strings.Repeat("é", 1500)
		chunks := Partition(long, Options{TargetSize: 1001, Overlap: 0})
		for _, chunk := range chunks {
			assert.True(t, utf8.ValidString(chunk))
			assert.LessOrEqual(t, len(chunk), 1001)
		}
		assert.Equal(t, 1500, utf8.RuneCountInString(strings.Join(chunks, "")))
	})
}

func TestPartitionDeterministic(t *testing.T) {
	text := paragraphs(30, 500) + "\n\n" + strings.Repeat("long run ", 2000)
	opts := DefaultOptions()

	first := Partition(text, opts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Partition(text, opts))
	}
}

func TestPartitionInvalidOptions(t *testing.T) {
	chunks := Partition(paragraphs(3, 100), Options{TargetSize: 0, Overlap: -5})
	require.Len(t, chunks, 1)
}
