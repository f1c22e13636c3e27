// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/llm"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/partition"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

// ErrCancelled est renvoyé par un Reporter quand le job a disparu en cours de route
var ErrCancelled = errors.New("job cancelled")

// ErrNoContent signale un texte source vide après découpage
var ErrNoContent = errors.New("no content to process")

// Reporter reçoit chaque étape de progression. Une erreur interrompt le pipeline;
// ErrCancelled signale une annulation coopérative.
type Reporter func(ctx context.Context, progress models.Progress) error

// Input décrit le document à transformer
type Input struct {
	Text        string
	Title       string
	Entitlement Entitlement
}

// Result regroupe tout ce que le pipeline produit pour un job
type Result struct {
	Overview  models.Overview
	Quality   models.QualityVerdict
	Structure *models.CourseStructure
	Sections  int
}

// Pipeline enchaîne découpage, résumés, qualité, vue d'ensemble, plan, leçons et évaluations
type Pipeline struct {
	gen      *Generator
	chunking partition.Options
	log      *logger.Logger
}

// New crée un pipeline au-dessus d'un client de complétion
func New(completer llm.Completer, chunking partition.Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		gen:      NewGenerator(completer, log),
		chunking: chunking,
		log:      log.Named("pipeline"),
	}
}

// Run exécute toutes les étapes dans l'ordre, sans parallélisme. Les erreurs de
// transport sont fatales; les réponses illisibles sont remplacées par les replis de chaque étape.
func (p *Pipeline) Run(ctx context.Context, in Input, report Reporter) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	if report == nil {
		report = func(context.Context, models.Progress) error { return nil }
	}
	step := func(stage models.Stage, format string, args ...interface{}) error {
		detail := fmt.Sprintf(format, args...)
		p.log.Debugf("Pipeline.Run: %s", detail)
		if err := ctx.Err(); err != nil {
			return err
		}
		return report(ctx, models.Progress{Stage: stage, Detail: detail})
	}

	profile := in.Entitlement.Profile()
	span.SetAttributes(
		attribute.String("pipeline.entitlement", string(in.Entitlement)),
		attribute.Int("pipeline.text_length", len(in.Text)),
	)

	result, err := p.run(ctx, in, profile, step)
	if err != nil {
		if !errors.Is(err, ErrCancelled) {
			span.RecordError(err)
		}
		return nil, err
	}
	return result, nil
}

type stepFunc func(stage models.Stage, format string, args ...interface{}) error

func (p *Pipeline) run(ctx context.Context, in Input, profile Profile, step stepFunc) (*Result, error) {
	if err := step(models.StagePartitioning, "Splitting book into sections..."); err != nil {
		return nil, err
	}
	chunks := partition.Partition(in.Text, p.chunking)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}
	if err := step(models.StagePartitioning, "Split into %d sections", len(chunks)); err != nil {
		return nil, err
	}

	summaries := make([]models.ChunkSummary, 0, len(chunks))
	for i, chunk := range chunks {
		if err := step(models.StageSummarizing, "Analyzing section %d of %d...", i+1, len(chunks)); err != nil {
			return nil, err
		}
		summary, err := p.gen.Summarize(ctx, chunk)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := step(models.StageQuality, "Evaluating content quality..."); err != nil {
		return nil, err
	}
	verdict, err := p.gen.DetectQuality(ctx, summaries)
	if err != nil {
		return nil, err
	}
	if profile.ForcePreserve {
		verdict.Mode = models.ModePreserve
		verdict.Reasoning = "Free tier uses PRESERVE mode"
	}
	if err := step(models.StageQuality, "Quality: %s mode (score: %.1f/10)", verdict.Mode, verdict.AverageScore); err != nil {
		return nil, err
	}

	if err := step(models.StageOverview, "Generating book overview..."); err != nil {
		return nil, err
	}
	overview, err := p.gen.SynthesizeOverview(ctx, summaries)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		overview.Title = title
	}

	if err := step(models.StageStructure, "Designing course structure..."); err != nil {
		return nil, err
	}
	structure, err := p.gen.SynthesizeStructure(ctx, overview, summaries)
	if err != nil {
		return nil, err
	}
	total := structure.LessonCount()
	if err := step(models.StageStructure, "Created %d chapters with %d lessons", len(structure.Chapters), total); err != nil {
		return nil, err
	}

	n := 0
	for c := range structure.Chapters {
		for l := range structure.Chapters[c].Lessons {
			lesson := &structure.Chapters[c].Lessons[l]
			n++
			if err := step(models.StageLessons, "Generating lesson %d/%d: %s...", n, total, truncateRunes(lesson.Title, 40)); err != nil {
				return nil, err
			}

			source := lessonSource(chunks, lesson.SourceChunkIndices)
			content, err := p.gen.GenerateLesson(ctx, verdict.Mode, *lesson, source)
			if err != nil {
				return nil, err
			}
			if !profile.IncludeExtras {
				content.StripEnhancements()
			}
			lesson.Content = content

			if err := step(models.StageAssessments, "Creating quiz for lesson %d/%d...", n, total); err != nil {
				return nil, err
			}
			quiz, err := p.gen.GenerateAssessment(ctx, profile.Quiz, lesson.Title, content, source)
			if err != nil {
				return nil, err
			}
			lesson.Quiz = quiz
		}
	}

	if err := step(models.StageFinalizing, "Finalizing course..."); err != nil {
		return nil, err
	}
	return &Result{
		Overview:  overview,
		Quality:   verdict,
		Structure: structure,
		Sections:  len(chunks),
	}, nil
}

// lessonSource assemble les morceaux référencés par une leçon, indices hors bornes ignorés
func lessonSource(chunks []string, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(chunks) {
			parts = append(parts, chunks[i])
		}
	}
	return strings.Join(parts, "\n\n")
}
