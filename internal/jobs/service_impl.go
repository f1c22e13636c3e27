package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultListLimit borne les listes renvoyées par l'API
const defaultListLimit = 100

type jobServiceImpl struct {
	repo        JobRepository
	defaultTier string
	tracer      trace.Tracer
	log         *logger.Logger
}

// NewJobServiceImpl crée le service; defaultTier s'applique aux téléversements sans tier
func NewJobServiceImpl(repo JobRepository, defaultTier string, log *logger.Logger) JobService {
	if log == nil {
		log = logger.Nop()
	}
	return &jobServiceImpl{
		repo:        repo,
		defaultTier: defaultTier,
		tracer:      otel.Tracer("ocf-coursegen/jobs"),
		log:         log.Named("jobs"),
	}
}

func (s *jobServiceImpl) CreateJob(ctx context.Context, req *models.UploadRequest, source storage.Ref, fileURL string) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.CreateJob")
	defer span.End()

	uploadType := req.UploadType
	if uploadType == "" {
		uploadType = models.UploadNotes
	}
	tier := strings.TrimSpace(req.Tier)
	if tier == "" {
		tier = s.defaultTier
	}

	// Les notes partent directement en file, les livres attendent la sélection des chapitres
	status := models.StatusQueued
	step := "Queued for processing"
	if uploadType == models.UploadBook {
		status = models.StatusPendingSelection
		step = "Waiting for chapter selection"
	}

	job := &models.Job{
		OwnerID:        req.OwnerID,
		Title:          req.Title,
		UploadType:     uploadType,
		Tier:           tier,
		SourceBucket:   source.Bucket,
		SourcePath:     source.Path,
		FileURL:        fileURL,
		Status:         status,
		ProcessingStep: step,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		span.RecordError(err)
		s.log.Errorf("JobService.CreateJob: Failed to create job for owner %s: %v", req.OwnerID, err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	span.SetAttributes(attribute.String("job.id", job.ID.String()), attribute.String("job.status", string(job.Status)))
	s.log.Infof("JobService.CreateJob: Job %s created (%s, %s)", job.ID, job.UploadType, job.Status)
	return job, nil
}

func (s *jobServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.GetJob")
	defer span.End()

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrJobNotFound) {
			span.RecordError(err)
			s.log.Errorf("JobService.GetJob: Failed to get job %s: %v", id, err)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	s.log.Debugf("JobService.GetJob: Job %s retrieved, status: %s", job.ID, job.Status)
	return job, nil
}

func (s *jobServiceImpl) ListJobs(ctx context.Context, ownerID, status string) ([]*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.ListJobs")
	defer span.End()

	filters := JobFilters{
		OwnerID: ownerID,
		Status:  status,
		Limit:   defaultListLimit,
	}

	jobs, err := s.repo.List(ctx, filters)
	if err != nil {
		span.RecordError(err)
		s.log.Errorf("JobService.ListJobs: Failed to list jobs: %v", err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	s.log.Debugf("JobService.ListJobs: Retrieved %d jobs (owner=%q, status=%q)", len(jobs), ownerID, status)
	return jobs, nil
}

// EnqueueJob enregistre la sélection (aucune pour un traitement complet) et met le job en file
func (s *jobServiceImpl) EnqueueJob(ctx context.Context, id uuid.UUID, req *models.ProcessRequest) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.EnqueueJob")
	defer span.End()

	var ranges models.PageRanges
	if !req.ProcessFull {
		ranges = models.PageRanges(req.SelectedChapters)
	}

	if err := s.repo.Enqueue(ctx, id, ranges); err != nil {
		if !errors.Is(err, ErrJobNotFound) && !errors.Is(err, ErrNotEnqueueable) {
			span.RecordError(err)
		}
		s.log.Warnf("JobService.EnqueueJob: Failed to enqueue job %s: %v", id, err)
		return nil, fmt.Errorf("failed to enqueue job %s: %w", id, err)
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reload job %s: %w", id, err)
	}

	s.log.Infof("JobService.EnqueueJob: Job %s queued (%d selected ranges)", id, len(ranges))
	return job, nil
}

// DeleteJob supprime le job et retourne son dernier état, pour le nettoyage du stockage
func (s *jobServiceImpl) DeleteJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.DeleteJob")
	defer span.End()

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		s.log.Errorf("JobService.DeleteJob: Failed to delete job %s: %v", id, err)
		return nil, fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	if !deleted {
		return nil, fmt.Errorf("failed to delete job %s: %w", id, ErrJobNotFound)
	}

	s.log.Infof("JobService.DeleteJob: Job %s deleted (was %s)", id, job.Status)
	return job, nil
}

func (s *jobServiceImpl) JobExists(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check job %s: %w", id, err)
	}
	return exists, nil
}

// QueuePosition retourne la position du job dans la file, nil s'il n'y est pas
func (s *jobServiceImpl) QueuePosition(ctx context.Context, job *models.Job) (*int, error) {
	position, err := s.repo.QueuePosition(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to compute queue position: %w", err)
	}
	if position == 0 {
		return nil, nil
	}
	return &position, nil
}

func (s *jobServiceImpl) CountQueued(ctx context.Context) (int64, error) {
	count, err := s.repo.CountQueued(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued jobs: %w", err)
	}
	return count, nil
}

func (s *jobServiceImpl) ClaimNextJob(ctx context.Context) (*models.Job, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.ClaimNextJob")
	defer span.End()

	job, err := s.repo.ClaimNext(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if job != nil {
		span.SetAttributes(attribute.String("job.id", job.ID.String()))
		s.log.Infof("JobService.ClaimNextJob: Job %s claimed", job.ID)
	}
	return job, nil
}

func (s *jobServiceImpl) ReportProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	if err := s.repo.UpdateProgress(ctx, id, progress); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

func (s *jobServiceImpl) CompleteJob(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "JobService.CompleteJob")
	defer span.End()

	if err := s.repo.MarkReady(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job ready: %w", err)
	}
	s.log.Infof("JobService.CompleteJob: Job %s is ready", id)
	return nil
}

func (s *jobServiceImpl) FailJob(ctx context.Context, id uuid.UUID, detail string) error {
	ctx, span := s.tracer.Start(ctx, "JobService.FailJob")
	defer span.End()

	if err := s.repo.MarkError(ctx, id, detail); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark job error: %w", err)
	}
	s.log.Infof("JobService.FailJob: Job %s marked as error: %s", id, detail)
	return nil
}

// RecoverInterrupted remet en file les jobs interrompus par un arrêt; à appeler avant
// le démarrage du scheduler, seul propriétaire des jobs en cours
func (s *jobServiceImpl) RecoverInterrupted(ctx context.Context) (int64, error) {
	requeued, err := s.repo.RequeueProcessing(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue interrupted jobs: %w", err)
	}
	if requeued > 0 {
		s.log.Infof("JobService.RecoverInterrupted: %d interrupted jobs queued again", requeued)
	}
	return requeued, nil
}

func (s *jobServiceImpl) CleanupOldJobs(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "JobService.CleanupOldJobs")
	defer span.End()

	cutoffTime := time.Now().Add(-maxAge)
	deleted, err := s.repo.DeleteOldJobs(ctx, cutoffTime)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to cleanup old jobs: %w", err)
	}

	if deleted > 0 {
		s.log.Infof("JobService.CleanupOldJobs: Cleaned up %d old jobs", deleted)
	}

	return deleted, nil
}
