// internal/document/pdf.go
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	"github.com/ledongthuc/pdf"
)

// ErrNotPDF est retournée quand les octets ne forment pas un PDF lisible
var ErrNotPDF = errors.New("not a readable PDF document")

// Document enveloppe un PDF chargé en mémoire
type Document struct {
	reader *pdf.Reader
	pages  int
	// cache des textes de page déjà extraits
	texts map[int]string
}

// OutlineItem est une entrée brute du signet PDF
type OutlineItem struct {
	Level int
	Title string
	Page  int // 1-indexée, 0 si la destination n'a pas pu être résolue
}

// Open charge un document PDF depuis ses octets
func Open(data []byte) (doc *Document, err error) {
	// la bibliothèque PDF panique sur les fichiers corrompus
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	return &Document{
		reader: reader,
		pages:  reader.NumPage(),
		texts:  make(map[int]string),
	}, nil
}

// PageCount retourne le nombre de pages du document
func (d *Document) PageCount() int {
	return d.pages
}

// PageText retourne le texte brut d'une page (1-indexée)
func (d *Document) PageText(num int) (text string, err error) {
	if num < 1 || num > d.pages {
		return "", fmt.Errorf("page %d out of range [1, %d]", num, d.pages)
	}
	if cached, ok := d.texts[num]; ok {
		return cached, nil
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("failed to read page %d: %v", num, r)
		}
	}()

	page := d.reader.Page(num)
	if page.V.IsNull() {
		d.texts[num] = ""
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract page %d: %w", num, err)
	}
	d.texts[num] = text
	return text, nil
}

// FullText retourne le texte de toutes les pages non vides, séparées par une ligne vide
func (d *Document) FullText() string {
	return d.TextFromRanges([]models.PageRange{{StartPage: 1, EndPage: d.pages}})
}

// TextFromRanges extrait le texte des plages demandées, dans l'ordre donné.
// Les plages sont ramenées dans les bornes du document; les pages illisibles sont ignorées.
func (d *Document) TextFromRanges(ranges []models.PageRange) string {
	var parts []string
	for _, r := range ranges {
		start, end := d.clamp(r)
		if start == 0 {
			continue
		}
		for num := start; num <= end; num++ {
			text, err := d.PageText(num)
			if err != nil || strings.TrimSpace(text) == "" {
				continue
			}
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// clamp ramène une plage dans [1, pages]; retourne (0, 0) pour un document vide
func (d *Document) clamp(r models.PageRange) (int, int) {
	if d.pages == 0 {
		return 0, 0
	}
	start := r.StartPage
	if start < 1 {
		start = 1
	}
	if start > d.pages {
		start = d.pages
	}
	end := r.EndPage
	if end > d.pages {
		end = d.pages
	}
	if end < start {
		end = start
	}
	return start, end
}

// PagesForPrompt formate les premières pages non triviales avec un marqueur de page
func (d *Document) PagesForPrompt(limit, minChars int) string {
	if limit > d.pages {
		limit = d.pages
	}
	var parts []string
	for num := 1; num <= limit; num++ {
		text, err := d.PageText(num)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) < minChars {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", num, text))
	}
	return strings.Join(parts, "\n\n")
}

// Outline parcourt les signets du document. Un document sans signets retourne une liste vide.
func (d *Document) Outline() (items []OutlineItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("failed to read outline: %v", r)
		}
	}()

	root := d.reader.Trailer().Key("Root")
	outlines := root.Key("Outlines")
	if outlines.Kind() != pdf.Dict {
		return nil, nil
	}

	w := &outlineWalker{
		root:  root,
		pages: d.pageIndex(),
		seen:  make(map[string]bool),
	}
	w.walk(outlines.Key("First"), 1)
	return w.items, nil
}

// pageIndex associe l'empreinte de chaque dictionnaire de page à son numéro
func (d *Document) pageIndex() map[string]int {
	index := make(map[string]int, d.pages)
	for num := 1; num <= d.pages; num++ {
		page := d.reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		key := page.V.String()
		if _, exists := index[key]; !exists {
			index[key] = num
		}
	}
	return index
}

type outlineWalker struct {
	root  pdf.Value
	pages map[string]int
	seen  map[string]bool
	items []OutlineItem
}

const maxOutlineDepth = 8

func (w *outlineWalker) walk(entry pdf.Value, level int) {
	if level > maxOutlineDepth {
		return
	}
	for ; entry.Kind() == pdf.Dict; entry = entry.Key("Next") {
		// protection contre les listes chaînées cycliques
		key := entry.String()
		if w.seen[key] {
			return
		}
		w.seen[key] = true

		w.items = append(w.items, OutlineItem{
			Level: level,
			Title: strings.TrimSpace(entry.Key("Title").Text()),
			Page:  w.destinationPage(entry),
		})
		w.walk(entry.Key("First"), level+1)
	}
}

func (w *outlineWalker) destinationPage(entry pdf.Value) int {
	dest := entry.Key("Dest")
	if dest.IsNull() {
		action := entry.Key("A")
		if action.Key("S").Name() == "GoTo" {
			dest = action.Key("D")
		}
	}
	return w.resolve(dest, 0)
}

func (w *outlineWalker) resolve(dest pdf.Value, depth int) int {
	if depth > 4 {
		return 0
	}
	switch dest.Kind() {
	case pdf.Array:
		target := dest.Index(0)
		switch target.Kind() {
		case pdf.Dict:
			return w.pages[target.String()]
		case pdf.Integer:
			// destination distante: index de page 0-indexé
			return int(target.Int64()) + 1
		}
	case pdf.Dict:
		// destination nommée résolue vers un dictionnaire {D: [...]}
		return w.resolve(dest.Key("D"), depth+1)
	case pdf.Name:
		return w.resolve(w.named(dest.Name()), depth+1)
	case pdf.String:
		return w.resolve(w.named(dest.Text()), depth+1)
	}
	return 0
}

// named cherche une destination nommée dans /Dests (PDF 1.1) puis dans l'arbre /Names/Dests
func (w *outlineWalker) named(name string) pdf.Value {
	if dests := w.root.Key("Dests"); dests.Kind() == pdf.Dict {
		if v := dests.Key(name); !v.IsNull() {
			return v
		}
	}
	return lookupNameTree(w.root.Key("Names").Key("Dests"), name, 0)
}

func lookupNameTree(node pdf.Value, name string, depth int) pdf.Value {
	if node.Kind() != pdf.Dict || depth > 16 {
		return pdf.Value{}
	}
	names := node.Key("Names")
	for i := 0; i+1 < names.Len(); i += 2 {
		if names.Index(i).Text() == name {
			return names.Index(i + 1)
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		if v := lookupNameTree(kids.Index(i), name, depth+1); !v.IsNull() {
			return v
		}
	}
	return pdf.Value{}
}

// InfoTitle retourne le titre déclaré dans le dictionnaire /Info, s'il existe
func (d *Document) InfoTitle() (title string) {
	defer func() {
		if r := recover(); r != nil {
			title = ""
		}
	}()
	return strings.TrimSpace(d.reader.Trailer().Key("Info").Key("Title").Text())
}
