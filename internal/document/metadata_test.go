package document

import (
	"strings"
	"testing"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/document/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleFromFirstPage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "first meaningful line",
			text:     "\nLearning Go the Hard Way\nby Someone",
			expected: "Learning Go the Hard Way",
		},
		{
			name:     "skips copyright and isbn lines",
			text:     "Copyright 2024 Publisher\nISBN 978-1-23456-789-0\nDistributed Systems in Practice",
			expected: "Distributed Systems in Practice",
		},
		{
			name:     "mostly digits is not a title",
			text:     "2024-01-15 12:00:00 1234\n",
			expected: "",
		},
		{
			name:     "too short lines",
			text:     "Go\nHi\n",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromFirstPage(tt.text))
		})
	}
}

func TestReadMetadata(t *testing.T) {
	t.Run("info dictionary title", func(t *testing.T) {
		b := pdftest.New(2)
		b.Title = "Practical Networking.pdf"
		doc, err := Open(b.Bytes())
		require.NoError(t, err)

		meta := doc.ReadMetadata("upload.pdf")
		assert.Equal(t, "Practical Networking", meta.Title)
		assert.Equal(t, 2, meta.Pages)
		assert.True(t, meta.HasText)
	})

	t.Run("generic info title falls back to first page", func(t *testing.T) {
		b := pdftest.New(2).WithText(1, "Cooking With Concurrency", "A field guide")
		b.Title = "Untitled"
		doc, err := Open(b.Bytes())
		require.NoError(t, err)

		assert.Equal(t, "Cooking With Concurrency", doc.ReadMetadata("x").Title)
	})

	t.Run("filename fallback", func(t *testing.T) {
		doc, err := Open(pdftest.New(1).WithText(1, "1 2 3").Bytes())
		require.NoError(t, err)

		assert.Equal(t, "notes", doc.ReadMetadata("notes").Title)
	})
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("a few words"))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 450)))
}
