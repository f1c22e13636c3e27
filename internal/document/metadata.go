package document

import (
	"strings"
	"unicode"
)

// WordsPerMinute est la vitesse de lecture utilisée pour estimer la durée d'un document
const WordsPerMinute = 200

var genericTitles = map[string]bool{
	"":               true,
	"untitled":       true,
	"microsoft word": true,
	"document":       true,
}

var nonTitlePatterns = []string{
	"page", "chapter", "table of contents", "copyright",
	"all rights reserved", "isbn", "www.", "http",
	"edition", "published", "printed",
}

// Metadata résume les informations d'un document téléversé
type Metadata struct {
	Title   string
	Pages   int
	HasText bool
}

// ReadMetadata retourne le titre, le nombre de pages et la présence de texte.
// Le titre vient du dictionnaire /Info, sinon de la première page, sinon de fallback.
func (d *Document) ReadMetadata(fallback string) Metadata {
	meta := Metadata{Pages: d.pages}

	title := d.InfoTitle()
	if strings.HasSuffix(strings.ToLower(title), ".pdf") {
		title = strings.TrimSpace(title[:len(title)-4])
	}
	if genericTitles[strings.ToLower(title)] {
		title = ""
		if first, err := d.PageText(1); err == nil {
			title = TitleFromFirstPage(first)
		}
	}
	if title == "" {
		title = fallback
	}
	meta.Title = title

	for num := 1; num <= d.pages; num++ {
		if text, err := d.PageText(num); err == nil && strings.TrimSpace(text) != "" {
			meta.HasText = true
			break
		}
	}
	return meta
}

// TitleFromFirstPage devine un titre parmi les premières lignes significatives d'une page
func TitleFromFirstPage(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	var meaningful []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 5 && len(line) < 150 {
			meaningful = append(meaningful, line)
		}
	}
	if len(meaningful) > 5 {
		meaningful = meaningful[:5]
	}

	for _, line := range meaningful {
		lower := strings.ToLower(line)
		skip := false
		for _, pattern := range nonTitlePatterns {
			if strings.Contains(lower, pattern) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if alphaRatio(line) > 0.7 && len(line) > 10 && len(line) < 100 {
			return line
		}
	}
	return ""
}

func alphaRatio(s string) float64 {
	if s == "" {
		return 0
	}
	var letters, total int
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			letters++
		}
	}
	return float64(letters) / float64(total)
}

// ReadingTime estime la durée de lecture en minutes (au moins une minute)
func ReadingTime(text string) int {
	minutes := len(strings.Fields(text)) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
