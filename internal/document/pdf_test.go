package document

import (
	"strings"
	"testing"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/document/pdftest"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("definitely not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = Open(nil)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestPageText(t *testing.T) {
	data := pdftest.New(3).WithText(2, "Variables and types", "Second line").Bytes()

	doc, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount())

	text, err := doc.PageText(2)
	require.NoError(t, err)
	assert.Contains(t, text, "Variables and types")
	assert.Contains(t, text, "Second line")

	_, err = doc.PageText(4)
	assert.Error(t, err)
	_, err = doc.PageText(0)
	assert.Error(t, err)
}

func TestTextFromRanges(t *testing.T) {
	doc, err := Open(pdftest.New(10).Bytes())
	require.NoError(t, err)

	t.Run("selected ranges only", func(t *testing.T) {
		text := doc.TextFromRanges([]models.PageRange{
			{StartPage: 2, EndPage: 3},
			{StartPage: 7, EndPage: 7},
		})
		assert.Contains(t, text, "Page 2")
		assert.Contains(t, text, "Page 3")
		assert.Contains(t, text, "Page 7")
		assert.NotContains(t, text, "Page 1\n")
		assert.NotContains(t, text, "Page 5")
		assert.Equal(t, 3, strings.Count(text, "Page "))
	})

	t.Run("ranges are clamped", func(t *testing.T) {
		text := doc.TextFromRanges([]models.PageRange{{StartPage: 9, EndPage: 50}})
		assert.Contains(t, text, "Page 9")
		assert.Contains(t, text, "Page 10")

		text = doc.TextFromRanges([]models.PageRange{{StartPage: 0, EndPage: 1}})
		assert.Contains(t, text, "Page 1")
	})

	t.Run("full text", func(t *testing.T) {
		full := doc.FullText()
		assert.Equal(t, 10, strings.Count(full, "Page "))
		assert.Contains(t, full, "\n\n")
	})
}

func TestPagesForPrompt(t *testing.T) {
	long := strings.Repeat("Contents listing ", 10)
	doc, err := Open(pdftest.New(5).WithText(2, long).WithText(4, long).Bytes())
	require.NoError(t, err)

	prompt := doc.PagesForPrompt(15, 100)
	assert.Contains(t, prompt, "--- Page 2 ---")
	assert.Contains(t, prompt, "--- Page 4 ---")
	// les pages trop courtes sont ignorées
	assert.NotContains(t, prompt, "--- Page 1 ---")
	assert.NotContains(t, prompt, "--- Page 3 ---")
}

func TestOutline(t *testing.T) {
	t.Run("nested bookmarks", func(t *testing.T) {
		data := pdftest.New(30).WithBookmarks(
			pdftest.Bookmark{Title: "Preface", Page: 2},
			pdftest.Bookmark{Title: "Chapter 1: Basics", Page: 5, Children: []pdftest.Bookmark{
				{Title: "1.1 Setup", Page: 6},
				{Title: "1.2 Tools", Page: 9},
			}},
			pdftest.Bookmark{Title: "Chapter 2: Advanced", Page: 15},
			pdftest.Bookmark{Title: "Index", Page: 28},
		).Bytes()

		doc, err := Open(data)
		require.NoError(t, err)

		items, err := doc.Outline()
		require.NoError(t, err)
		require.Len(t, items, 6)

		assert.Equal(t, OutlineItem{Level: 1, Title: "Preface", Page: 2}, items[0])
		assert.Equal(t, OutlineItem{Level: 1, Title: "Chapter 1: Basics", Page: 5}, items[1])
		assert.Equal(t, OutlineItem{Level: 2, Title: "1.1 Setup", Page: 6}, items[2])
		assert.Equal(t, OutlineItem{Level: 2, Title: "1.2 Tools", Page: 9}, items[3])
		assert.Equal(t, OutlineItem{Level: 1, Title: "Chapter 2: Advanced", Page: 15}, items[4])
		assert.Equal(t, OutlineItem{Level: 1, Title: "Index", Page: 28}, items[5])
	})

	t.Run("no bookmarks", func(t *testing.T) {
		doc, err := Open(pdftest.New(3).Bytes())
		require.NoError(t, err)

		items, err := doc.Outline()
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
