// Package structure retrouve le plan d'un document (chapitres et plages de pages)
package structure

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/document"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

var tracer = otel.Tracer("ocf-coursegen/structure")

// Result est le plan extrait d'un document
type Result struct {
	Entries         []models.StructureEntry
	TotalPages      int
	Method          models.ExtractionMethod
	BackmatterStart int
}

// Extractor lit les signets du document et se rabat sur le modèle quand ils manquent
// ou ne sont pas plausibles
type Extractor struct {
	llm   llm.Completer
	pages int
	log   *logger.Logger
}

// NewExtractor crée un extracteur; pages est le nombre de pages lues par l'heuristique
func NewExtractor(completer llm.Completer, pages int, log *logger.Logger) *Extractor {
	if pages <= 0 {
		pages = DefaultHeuristicPages
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{llm: completer, pages: pages, log: log.Named("structure")}
}

// Extract retourne le plan du document. Seul un document illisible ou un contexte
// annulé produisent une erreur; sinon l'échec des deux méthodes donne MethodNone.
func (e *Extractor) Extract(ctx context.Context, data []byte) (Result, error) {
	ctx, span := tracer.Start(ctx, "structure.Extract")
	defer span.End()

	doc, err := document.Open(data)
	if err != nil {
		span.RecordError(err)
		return Result{Method: models.MethodNone}, err
	}
	return e.ExtractDocument(ctx, doc)
}

// ExtractDocument applique l'extraction à un document déjà ouvert
func (e *Extractor) ExtractDocument(ctx context.Context, doc *document.Document) (Result, error) {
	span := trace.SpanFromContext(ctx)
	total := doc.PageCount()
	result := Result{TotalPages: total, Method: models.MethodNone}

	items, err := doc.Outline()
	if err != nil {
		e.log.Warnf("Extractor.Extract: %v", err)
	}
	candidates, backmatter := FromOutline(items)
	if len(items) > 0 {
		e.log.Infof("Extractor.Extract: outline has %d candidate chapters, backmatter at %d", len(candidates), backmatter)
		ok, reason := Plausible(candidates, backmatter, total)
		if ok {
			result.Entries = InferEndPages(candidates, backmatter, total)
			result.Method = models.MethodMetadata
			result.BackmatterStart = backmatter
			span.SetAttributes(attribute.String("structure.method", string(result.Method)))
			return result, nil
		}
		e.log.Infof("Extractor.Extract: outline rejected: %s", reason)
	}

	chapters, backmatter, err := e.heuristic(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		e.log.Warnf("Extractor.Extract: heuristic extraction failed: %v", err)
		span.RecordError(err)
	}
	entries := InferEndPages(chapters, backmatter, total)
	if len(entries) > 0 {
		if ok, reason := Plausible(chapters, backmatter, total); !ok {
			e.log.Warnf("Extractor.Extract: heuristic outline looks wrong (%s), using it anyway", reason)
		}
		result.Entries = entries
		result.Method = models.MethodHeuristic
		result.BackmatterStart = backmatter
	}

	span.SetAttributes(attribute.String("structure.method", string(result.Method)))
	return result, nil
}

// FromOutline filtre les signets: profondeur 2 au plus, titre non vide, page résolue.
// Les liminaires sont écartés, la première annexe fixe le début des annexes. Les
// chapitres de niveau 1 sont retenus, à défaut ceux de niveau 2.
func FromOutline(items []document.OutlineItem) ([]models.StructureEntry, int) {
	backmatter := 0
	var level1, level12 []models.StructureEntry
	for _, item := range items {
		item.Title = strings.TrimSpace(item.Title)
		if item.Level > 2 || item.Title == "" || item.Page < 1 {
			continue
		}
		switch Classify(item.Title) {
		case KindBackMatter:
			if backmatter == 0 {
				backmatter = item.Page
			}
		case KindChapter:
			entry := models.StructureEntry{Level: item.Level, Title: item.Title, StartPage: item.Page}
			level12 = append(level12, entry)
			if item.Level == 1 {
				level1 = append(level1, entry)
			}
		}
	}
	if len(level1) > 0 {
		return level1, backmatter
	}
	return level12, backmatter
}
