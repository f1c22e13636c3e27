package structure

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/document"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/pipeline"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

const (
	DefaultHeuristicPages = 15
	minPageChars          = 100
	minPromptChars        = 100
	promptBudget          = 18000
)

var heuristicOptions = llm.Options{Temperature: 0.2, MaxTokens: 4096}

var (
	trailingPageNumber = regexp.MustCompile(`^(.*?)([.\s]+)(\d+)\s*$`)
	numberedHeading    = regexp.MustCompile(`(?i)\b(chapter|part|section|unit|module|lesson|book|volume|appendix|chapitre|partie)$`)
)

func heuristicPrompt(pages int, text string) string {
	return fmt.Sprintf(`Extract ALL entries from this document's table of contents.

TEXT FROM THE FIRST %d PAGES:
%s

Find the table of contents and extract EVERY entry with its page number.
The table of contents may span several pages, read all of it.

Formats you may encounter:
- "Chapter 1 Introduction 1" or "Chapter 1: Introduction ... 1"
- "1. Introduction ......... 1" or "1 Introduction 1"
- "Part I: Basics" followed by chapters
- "CHAPTER ONE" with a page number nearby
- "Introduction (p. 5)"
- Numbered sections such as "1.0 Overview" or "Section 1: Overview"
- "Appendix A", "Index", "Glossary", "Bibliography", "References"

Answer with JSON, marking every entry as "chapter" or "backmatter":
{
  "entries": [
    {"type": "chapter", "title": "Introduction to Databases", "start_page": 1},
    {"type": "chapter", "title": "Data Models", "start_page": 25},
    {"type": "backmatter", "title": "Appendix A: Examples", "start_page": 127},
    {"type": "backmatter", "title": "Index", "start_page": 145}
  ]
}

Rules:
- type = "chapter" for main content (chapters or numbered sections)
- type = "backmatter" for appendix, index, glossary, bibliography, references, about the author
- Clean titles: no trailing dots or page numbers
- Page numbers are integers
- Include back matter too, it bounds the length of the last chapter

If there is no clear structure, answer {"entries": null}`, pages, text)
}

// heuristic demande au modèle de lire la table des matières des premières pages.
// Retourne les chapitres et le début des annexes situées après le dernier chapitre.
func (e *Extractor) heuristic(ctx context.Context, doc *document.Document) ([]models.StructureEntry, int, error) {
	if e.llm == nil {
		return nil, 0, nil
	}
	text := doc.PagesForPrompt(e.pages, minPageChars)
	if len(text) < minPromptChars {
		e.log.Infof("Extractor.heuristic: not enough text in the first %d pages", e.pages)
		return nil, 0, nil
	}

	response, err := e.llm.Complete(ctx, llm.User(heuristicPrompt(e.pages, truncate(text, promptBudget))), heuristicOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query outline: %w", err)
	}

	obj, err := pipeline.ExtractJSON(response)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse outline: %w", err)
	}

	raw, _ := obj["entries"].([]interface{})
	var chapters []models.StructureEntry
	var backmatter []int
	for i, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		kind, _ := entry["type"].(string)
		if kind == "" {
			kind = "chapter"
		}
		title, _ := entry["title"].(string)
		title = CleanTitle(title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		page := PageNumber(entry["start_page"])

		switch kind {
		case "chapter":
			chapters = append(chapters, models.StructureEntry{Level: 1, Title: title, StartPage: page})
		case "backmatter":
			backmatter = append(backmatter, page)
		}
	}

	return chapters, backmatterAfter(chapters, backmatter), nil
}

// backmatterAfter retourne la première page d'annexe postérieure au dernier chapitre, ou 0
func backmatterAfter(chapters []models.StructureEntry, backmatter []int) int {
	if len(chapters) == 0 {
		return 0
	}
	last := 0
	for _, c := range chapters {
		if c.StartPage > last {
			last = c.StartPage
		}
	}
	start := 0
	for _, page := range backmatter {
		if page > last && (start == 0 || page < start) {
			start = page
		}
	}
	return start
}

// CleanTitle retire les points de suite et le numéro de page en fin de titre.
// Le numéro qui suit directement un mot de structure ("Part 2") fait partie du titre.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	m := trailingPageNumber.FindStringSubmatch(title)
	if m == nil {
		return title
	}
	head := strings.TrimSpace(m[1])
	if !strings.Contains(m[2], ".") && numberedHeading.MatchString(head) {
		return title
	}
	return head
}

// PageNumber convertit un numéro de page renvoyé par le modèle en entier positif
func PageNumber(v interface{}) int {
	page := 1
	switch x := v.(type) {
	case float64:
		page = int(x)
	case string:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, x)
		if n, err := strconv.Atoi(digits); err == nil {
			page = n
		}
	}
	if page < 1 {
		page = 1
	}
	return page
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
