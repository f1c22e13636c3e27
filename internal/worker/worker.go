// internal/worker/worker.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/courses"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/document"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/pipeline"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	pkgstorage "github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrSourceTooShort signale un document dont le texte extrait est trop court
	ErrSourceTooShort = errors.New("not enough text extracted from PDF")
	// ErrInvalidSelection signale une sélection de pages hors du document
	ErrInvalidSelection = errors.New("selected pages are outside the document")
)

// Runner exécute le pipeline de génération
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, report pipeline.Reporter) (*pipeline.Result, error)
}

// ProcessorConfig contient les réglages du traitement d'un job
type ProcessorConfig struct {
	MinTextLength     int
	ErrorMessageLimit int
	FreeTiers         []string
	SaveJobLogs       bool
	ExportCourses     bool
}

// DefaultProcessorConfig retourne les réglages par défaut
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MinTextLength:     100,
		ErrorMessageLimit: 100,
		FreeTiers:         []string{"free"},
		SaveJobLogs:       true,
	}
}

// JobResult contient le résultat du traitement d'un job
type JobResult struct {
	Success     bool
	Cancelled   bool
	Error       error
	ErrorDetail string
	CourseID    uuid.UUID
	Duration    time.Duration
	LogOutput   []string
}

// StepFunc est appelée à chaque étape acceptée, après sa persistance
type StepFunc func(job *models.Job, progress models.Progress)

// JobProcessor traite un job: téléchargement, extraction, pipeline, persistance
type JobProcessor struct {
	jobService     jobs.JobService
	courseService  courses.CourseService
	storageService *storage.StorageService
	runner         Runner
	config         ProcessorConfig
	tracer         trace.Tracer
	log            *logger.Logger
}

// NewJobProcessor crée un nouveau processeur de jobs
func NewJobProcessor(
	jobService jobs.JobService,
	courseService courses.CourseService,
	storageService *storage.StorageService,
	runner Runner,
	config ProcessorConfig,
	log *logger.Logger,
) *JobProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &JobProcessor{
		jobService:     jobService,
		courseService:  courseService,
		storageService: storageService,
		runner:         runner,
		config:         config,
		tracer:         otel.Tracer("ocf-coursegen/worker"),
		log:            log.Named("worker"),
	}
}

// ProcessJob traite un job réclamé par le scheduler. Une suppression du job en cours
// de route abandonne le traitement sans rien écrire; toute autre erreur passe le job en erreur.
func (p *JobProcessor) ProcessJob(ctx context.Context, job *models.Job, onStep StepFunc) *JobResult {
	ctx, span := p.tracer.Start(ctx, "JobProcessor.ProcessJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", job.ID.String()))

	startTime := time.Now()
	result := &JobResult{}
	jobLog := newJobLog()

	report := func(ctx context.Context, progress models.Progress) error {
		exists, err := p.jobService.JobExists(ctx, job.ID)
		if err != nil {
			return err
		}
		if !exists {
			return pipeline.ErrCancelled
		}
		jobLog.add(progress.Detail)
		if err := p.jobService.ReportProgress(ctx, job.ID, progress); err != nil {
			p.log.Warnf("Job %s: progress update failed: %v", job.ID, err)
		}
		if onStep != nil {
			onStep(job, progress)
		}
		return nil
	}

	p.log.Infof("Job %s: processing %q (%s, tier %s)", job.ID, job.Title, job.UploadType, job.Tier)
	course, err := p.run(ctx, job, report)
	result.Duration = time.Since(startTime)
	result.LogOutput = jobLog.lines()

	switch {
	case errors.Is(err, pipeline.ErrCancelled):
		result.Cancelled = true
		p.log.Infof("Job %s: deleted during processing, abandoning", job.ID)
		return result
	case err != nil && ctx.Err() != nil:
		// Arrêt du processus: le job sera remis en file au prochain démarrage
		result.Error = err
		p.log.Warnf("Job %s: interrupted: %v", job.ID, err)
		return result
	case err != nil:
		result.Error = err
		span.RecordError(err)
		detail := ErrorDetail(err, p.config.ErrorMessageLimit)
		result.ErrorDetail = detail
		p.log.Errorf("Job %s: processing failed: %v", job.ID, err)
		jobLog.add(detail)
		result.LogOutput = jobLog.lines()
		if errUpdate := p.jobService.FailJob(ctx, job.ID, detail); errUpdate != nil {
			p.log.Errorf("Job %s: update failed: %v", job.ID, errUpdate)
		}
	default:
		result.Success = true
		result.CourseID = course.ID
		p.log.Infof("Job %s completed successfully in %v (course %s)", job.ID, result.Duration, course.ID)
	}

	if p.config.SaveJobLogs && p.storageService != nil {
		if err := p.saveJobLogs(ctx, job.ID, result.LogOutput); err != nil {
			p.log.Warnf("Failed to save logs for job %s: %v", job.ID, err)
		}
	}
	return result
}

func (p *JobProcessor) run(ctx context.Context, job *models.Job, report pipeline.Reporter) (*models.Course, error) {
	if err := report(ctx, models.Progress{Stage: models.StageDownloading, Detail: "Downloading PDF..."}); err != nil {
		return nil, err
	}
	ref, err := pkgstorage.ResolveRef(job.SourceBucket, job.SourcePath, job.FileURL)
	if err != nil {
		return nil, err
	}
	data, err := p.storageService.DownloadDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}

	if job.HasSelection() {
		detail := fmt.Sprintf("Extracting %d selected chapters...", len(job.SelectedRanges))
		if err := report(ctx, models.Progress{Stage: models.StageExtracting, Detail: detail}); err != nil {
			return nil, err
		}
		if err := checkSelection(job.SelectedRanges, doc.PageCount()); err != nil {
			return nil, err
		}
	}

	if err := report(ctx, models.Progress{Stage: models.StageExtracting, Detail: "Extracting text from PDF..."}); err != nil {
		return nil, err
	}
	var text string
	if job.HasSelection() {
		text = doc.TextFromRanges(job.SelectedRanges)
	} else {
		text = doc.FullText()
	}
	p.log.Infof("Job %s: extracted %d characters from %d pages", job.ID, len(text), doc.PageCount())
	if len(strings.TrimSpace(text)) < p.config.MinTextLength {
		return nil, ErrSourceTooShort
	}

	entitlement := pipeline.ResolveEntitlement(job.Tier, p.config.FreeTiers)
	p.log.Infof("Job %s: tier %q resolved to %s entitlement", job.ID, job.Tier, entitlement)

	if err := report(ctx, models.Progress{Stage: models.StagePartitioning, Detail: "Starting AI processing..."}); err != nil {
		return nil, err
	}
	generated, err := p.runner.Run(ctx, pipeline.Input{
		Text:        text,
		Title:       job.Title,
		Entitlement: entitlement,
	}, report)
	if err != nil {
		return nil, err
	}

	if err := report(ctx, models.Progress{Stage: models.StageSaving, Detail: "Saving course to database..."}); err != nil {
		return nil, err
	}
	course, err := p.courseService.SaveCourse(ctx, job, generated)
	if errors.Is(err, jobs.ErrJobNotFound) {
		return nil, pipeline.ErrCancelled
	}
	if err != nil {
		return nil, err
	}

	if p.config.ExportCourses {
		if err := p.storageService.UploadCourseExport(ctx, course.ID, course); err != nil {
			p.log.Warnf("Job %s: course export failed: %v", job.ID, err)
		}
	}

	// Un job supprimé entre-temps rend cette écriture sans effet
	if err := p.jobService.CompleteJob(ctx, job.ID); err != nil {
		return nil, err
	}
	return course, nil
}

func checkSelection(ranges models.PageRanges, totalPages int) error {
	for _, r := range ranges {
		if r.StartPage < 1 || r.StartPage > totalPages || r.EndPage < r.StartPage {
			return fmt.Errorf("%w: pages %d-%d of %d", ErrInvalidSelection, r.StartPage, r.EndPage, totalPages)
		}
	}
	return nil
}

// ErrorDetail formate le message d'erreur enregistré sur un job: "Error: " suivi
// des limit premiers caractères du message
func ErrorDetail(err error, limit int) string {
	msg := err.Error()
	if limit > 0 {
		if runes := []rune(msg); len(runes) > limit {
			msg = string(runes[:limit])
		}
	}
	return "Error: " + msg
}

// saveJobLogs sauvegarde les logs du job
func (p *JobProcessor) saveJobLogs(ctx context.Context, jobID uuid.UUID, logs []string) error {
	if len(logs) == 0 {
		return nil
	}
	return p.storageService.SaveJobLog(ctx, jobID, strings.Join(logs, "\n")+"\n")
}
