package structure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

// Kind est la catégorie d'une entrée du plan selon son titre
type Kind int

const (
	KindChapter Kind = iota
	KindFrontMatter
	KindBackMatter
)

var backMatterKeywords = []string{
	"appendix", "index", "glossary", "bibliography", "references",
	"about the author", "about author", "acknowledgement", "acknowledgment",
	"versioning", "changelog", "afterword", "colophon",
}

var frontMatterKeywords = []string{
	"contents", "table of contents", "preface", "foreword", "dedication",
	"copyright", "title page", "half title",
}

// liste utilisée par le contrôle de plausibilité pour compter les vrais chapitres
var nonContentKeywords = []string{
	"contents", "preface", "acknowledgement", "acknowledgment", "foreword",
	"introduction", "appendix", "index", "glossary", "bibliography",
	"references", "about the author", "dedication", "copyright",
}

var structuralWords = []string{"chapter", "part", "section", "unit", "module"}

const (
	maxUnlabelledSpan  = 50
	largeDocumentPages = 100
	minChaptersLarge   = 5
	minContentChapters = 3
	maxStartGap        = 80
)

// Classify range un titre en annexe, liminaire ou chapitre. Les annexes l'emportent.
func Classify(title string) Kind {
	lower := strings.ToLower(strings.TrimSpace(title))
	switch {
	case containsAny(lower, backMatterKeywords):
		return KindBackMatter
	case containsAny(lower, frontMatterKeywords):
		return KindFrontMatter
	default:
		return KindChapter
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Plausible vérifie qu'un plan candidat ressemble à une vraie table des matières.
// Le motif du rejet est retourné pour les logs.
func Plausible(candidates []models.StructureEntry, backmatterStart, totalPages int) (bool, string) {
	if len(candidates) == 0 {
		return false, "no chapters found"
	}

	for _, entry := range InferEndPages(candidates, backmatterStart, totalPages) {
		if entry.PageCount > maxUnlabelledSpan && !containsAny(strings.ToLower(entry.Title), structuralWords) {
			return false, fmt.Sprintf("section %q has %d pages, likely missing chapters", entry.Title, entry.PageCount)
		}
	}

	if totalPages > largeDocumentPages && len(candidates) < minChaptersLarge {
		mentionsChapter := false
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.Title), "chapter") {
				mentionsChapter = true
				break
			}
		}
		if !mentionsChapter {
			return false, fmt.Sprintf("only %d sections for %d pages, likely incomplete", len(candidates), totalPages)
		}
	}

	content := 0
	for _, c := range candidates {
		if !containsAny(strings.ToLower(c.Title), nonContentKeywords) {
			content++
		}
	}
	if totalPages > largeDocumentPages && content < minContentChapters {
		return false, "most entries are front or back matter, likely missing main chapters"
	}

	sorted := sortedByStart(candidates)
	for i := 0; i+1 < len(sorted); i++ {
		if gap := sorted[i+1].StartPage - sorted[i].StartPage; gap > maxStartGap {
			return false, fmt.Sprintf("large gap (%d pages) between %q and %q", gap, sorted[i].Title, sorted[i+1].Title)
		}
	}

	return true, "outline looks valid"
}

// InferEndPages calcule la page de fin de chaque entrée: la veille du début suivant,
// et pour la dernière la veille des annexes si elles commencent après elle, sinon la
// fin du document. Les entrées hors document ou de même début sont écartées.
func InferEndPages(candidates []models.StructureEntry, backmatterStart, totalPages int) []models.StructureEntry {
	var entries []models.StructureEntry
	for _, c := range sortedByStart(candidates) {
		if c.StartPage < 1 || (totalPages > 0 && c.StartPage > totalPages) {
			continue
		}
		if n := len(entries); n > 0 && entries[n-1].StartPage == c.StartPage {
			continue
		}
		entries = append(entries, c)
	}

	for i := range entries {
		start := entries[i].StartPage
		var end int
		switch {
		case i+1 < len(entries):
			end = entries[i+1].StartPage - 1
		case backmatterStart > start:
			end = backmatterStart - 1
		default:
			end = totalPages
		}
		if totalPages > 0 && end > totalPages {
			end = totalPages
		}
		if end < start {
			end = start
		}
		entries[i].EndPage = end
		entries[i].PageCount = end - start + 1
	}
	return entries
}

func sortedByStart(entries []models.StructureEntry) []models.StructureEntry {
	out := make([]models.StructureEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartPage < out[j].StartPage })
	return out
}
