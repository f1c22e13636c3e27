// Package pdftest construit de petits PDF valides pour les tests
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Bookmark est une entrée de signet pointant vers une page (1-indexée)
type Bookmark struct {
	Title    string
	Page     int
	Children []Bookmark
}

// Builder assemble un PDF en mémoire: une police Helvetica, une page par entrée de Pages
type Builder struct {
	Title     string
	Pages     [][]string // lignes de texte par page
	Bookmarks []Bookmark
}

// New crée un builder de n pages, chaque page portant une ligne "Page i"
func New(n int) *Builder {
	b := &Builder{}
	for i := 1; i <= n; i++ {
		b.Pages = append(b.Pages, []string{fmt.Sprintf("Page %d", i)})
	}
	return b
}

// WithText remplace le contenu d'une page (1-indexée)
func (b *Builder) WithText(page int, lines ...string) *Builder {
	b.Pages[page-1] = lines
	return b
}

// WithBookmarks définit les signets de premier niveau
func (b *Builder) WithBookmarks(marks ...Bookmark) *Builder {
	b.Bookmarks = marks
	return b
}

type object struct {
	body string
}

// Bytes sérialise le document
func (b *Builder) Bytes() []byte {
	// 1: catalog, 2: pages, 3: font, puis paires (page, contenu)
	objs := make([]object, 3)
	pageIDs := make([]int, len(b.Pages))
	var kids []string

	for i, lines := range b.Pages {
		content := contentStream(lines)
		contentID := len(objs) + 2
		pageID := len(objs) + 1
		pageIDs[i] = pageID
		objs = append(objs,
			object{fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID)},
			object{fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)},
		)
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}

	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if len(b.Bookmarks) > 0 {
		outlinesID := len(objs) + 1
		objs = append(objs, object{})
		first, last, count := b.addBookmarks(&objs, b.Bookmarks, outlinesID, pageIDs)
		objs[outlinesID-1] = object{fmt.Sprintf("<< /Type /Outlines /First %d 0 R /Last %d 0 R /Count %d >>", first, last, count)}
		catalog += fmt.Sprintf(" /Outlines %d 0 R", outlinesID)
	}
	catalog += " >>"

	objs[0] = object{catalog}
	objs[1] = object{fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(b.Pages))}
	objs[2] = object{"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"}

	infoID := 0
	if b.Title != "" {
		objs = append(objs, object{fmt.Sprintf("<< /Title (%s) >>", escape(b.Title))})
		infoID = len(objs)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj.body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", len(objs)+1)
	if infoID > 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoID)
	}
	fmt.Fprintf(&buf, "trailer\n%s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

// addBookmarks écrit une liste chaînée de signets et retourne (premier, dernier, nombre)
func (b *Builder) addBookmarks(objs *[]object, marks []Bookmark, parent int, pageIDs []int) (int, int, int) {
	ids := make([]int, len(marks))
	for i := range marks {
		*objs = append(*objs, object{})
		ids[i] = len(*objs)
	}

	total := len(marks)
	for i, mark := range marks {
		body := fmt.Sprintf("<< /Title (%s) /Parent %d 0 R", escape(mark.Title), parent)
		if mark.Page >= 1 && mark.Page <= len(pageIDs) {
			body += fmt.Sprintf(" /Dest [%d 0 R /XYZ 0 792 0]", pageIDs[mark.Page-1])
		}
		if i > 0 {
			body += fmt.Sprintf(" /Prev %d 0 R", ids[i-1])
		}
		if i < len(marks)-1 {
			body += fmt.Sprintf(" /Next %d 0 R", ids[i+1])
		}
		if len(mark.Children) > 0 {
			first, last, count := b.addBookmarks(objs, mark.Children, ids[i], pageIDs)
			body += fmt.Sprintf(" /First %d 0 R /Last %d 0 R /Count %d", first, last, count)
			total += count
		}
		(*objs)[ids[i]-1] = object{body + " >>"}
	}
	return ids[0], ids[len(ids)-1], total
}

func contentStream(lines []string) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 12 Tf 14 TL 72 720 Td")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString(" T*")
		}
		fmt.Fprintf(&sb, " (%s) Tj", escape(line))
	}
	sb.WriteString(" ET")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
