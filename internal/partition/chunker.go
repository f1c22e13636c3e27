// Package partition découpe le texte extrait en morceaux alignés sur les paragraphes
package partition

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 8000
	DefaultOverlap    = 300
)

// Options paramètre le découpage
type Options struct {
	TargetSize int
	Overlap    int
}

// DefaultOptions retourne la taille cible et le recouvrement par défaut
func DefaultOptions() Options {
	return Options{TargetSize: DefaultTargetSize, Overlap: DefaultOverlap}
}

// séparateurs de coupe, par ordre de préférence
var splitSeparators = []string{". ", "! ", "? ", "\n", " "}

// Partition découpe le texte en morceaux d'au plus TargetSize caractères.
// Les paragraphes (séparés par une ligne vide) sont accumulés; chaque nouveau morceau
// commence par les Overlap derniers caractères du précédent. Un paragraphe trop long
// est coupé à la dernière fin de phrase ou de mot de la seconde moitié de la fenêtre.
func Partition(text string, opts Options) []string {
	if opts.TargetSize <= 0 {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.TargetSize {
		opts.Overlap = 0
	}
	size := opts.TargetSize

	var chunks []string
	current := ""

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if current == "" && len(paragraph) <= size {
			current = paragraph
			continue
		}
		if current != "" && len(current)+len(paragraph)+2 <= size {
			current += "\n\n" + paragraph
			continue
		}

		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			if opts.Overlap > 0 && len(current) > opts.Overlap {
				current = tail(current, opts.Overlap) + "\n\n" + paragraph
			} else {
				current = paragraph
			}
			// le morceau amorcé peut à son tour dépasser la taille cible
			if len(current) <= size {
				continue
			}
			paragraph = current
		}

		for len(paragraph) > size {
			cut := splitPoint(paragraph, size)
			if piece := strings.TrimSpace(paragraph[:cut]); piece != "" {
				chunks = append(chunks, piece)
			}
			paragraph = paragraph[cut:]
		}
		current = paragraph
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// splitPoint retourne l'indice de coupe d'un texte plus long que size
func splitPoint(text string, size int) int {
	window := text[:size]
	for _, sep := range splitSeparators {
		if idx := strings.LastIndex(window, sep); idx > size/2 {
			return idx + len(sep)
		}
	}
	// coupe franche, sans scinder un caractère multi-octets
	cut := size
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		_, width := utf8.DecodeRuneInString(text)
		return width
	}
	return cut
}

// tail retourne les n derniers octets de s, recalés sur un début de caractère
func tail(s string, n int) string {
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
