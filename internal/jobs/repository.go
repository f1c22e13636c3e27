package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// claimAttempts borne les tentatives quand un autre consommateur prend le job visé
const claimAttempts = 3

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filters JobFilters) ([]*models.Job, error)
	ClaimNext(ctx context.Context) (*models.Job, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error
	MarkReady(ctx context.Context, id uuid.UUID) error
	MarkError(ctx context.Context, id uuid.UUID, detail string) error
	Enqueue(ctx context.Context, id uuid.UUID, ranges models.PageRanges) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	QueuePosition(ctx context.Context, job *models.Job) (int, error)
	CountQueued(ctx context.Context) (int64, error)
	RequeueProcessing(ctx context.Context) (int64, error)
	DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

type JobFilters struct {
	OwnerID string
	Status  string
	Limit   int
	Offset  int
}

type jobRepository struct {
	db   *gorm.DB
	caps Capabilities
}

func NewJobRepository(db *gorm.DB, caps Capabilities) JobRepository {
	return &jobRepository{db: db, caps: caps}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *jobRepository) List(ctx context.Context, filters JobFilters) ([]*models.Job, error) {
	var jobs []*models.Job

	query := r.db.WithContext(ctx).Model(&models.Job{})

	if filters.OwnerID != "" {
		query = query.Where("owner_id = ?", filters.OwnerID)
	}

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	query = query.Order("created_at DESC")

	err := query.Find(&jobs).Error
	return jobs, err
}

// ClaimNext passe le plus ancien job en file à l'état processing et le retourne.
// Le passage se fait par une mise à jour conditionnelle sur le statut; un job pris
// ou supprimé entre la lecture et la mise à jour est ignoré. Retourne nil sans job en attente.
func (r *jobRepository) ClaimNext(ctx context.Context) (*models.Job, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		var candidate models.Job
		err := r.db.WithContext(ctx).
			Where("status = ?", models.StatusQueued).
			Order("created_at ASC").
			First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find queued job: %w", err)
		}

		now := time.Now()
		res := r.db.WithContext(ctx).
			Model(&models.Job{}).
			Where("id = ? AND status = ?", candidate.ID, models.StatusQueued).
			Updates(map[string]interface{}{
				"status":          models.StatusProcessing,
				"processing_step": "Starting processing...",
				"error_detail":    "",
				"started_at":      now,
				"completed_at":    nil,
				"updated_at":      now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to claim job %s: %w", candidate.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		candidate.Status = models.StatusProcessing
		candidate.ProcessingStep = "Starting processing..."
		candidate.ErrorDetail = ""
		candidate.StartedAt = &now
		candidate.CompletedAt = nil
		candidate.UpdatedAt = now
		return &candidate, nil
	}
	return nil, nil
}

// UpdateProgress enregistre l'étape courante. Sans effet si le job a disparu.
func (r *jobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error {
	updates := map[string]interface{}{
		"processing_step": progress.Detail,
		"updated_at":      time.Now(),
	}
	if r.caps.ProgressStage {
		updates["progress_stage"] = progress.Stage
	}
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRepository) MarkReady(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":          models.StatusReady,
		"processing_step": "Complete!",
		"error_detail":    "",
		"completed_at":    now,
		"updated_at":      now,
	}
	if r.caps.ProgressStage {
		updates["progress_stage"] = models.StageComplete
	}
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRepository) MarkError(ctx context.Context, id uuid.UUID, detail string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          models.StatusError,
			"processing_step": detail,
			"error_detail":    detail,
			"completed_at":    now,
			"updated_at":      now,
		}).Error
}

// Enqueue enregistre la sélection et remet le job en file. Seuls les jobs en attente
// de sélection, déjà en file ou en erreur peuvent être (re)mis en file.
func (r *jobRepository) Enqueue(ctx context.Context, id uuid.UUID, ranges models.PageRanges) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN ?", id, []models.JobStatus{
			models.StatusPendingSelection,
			models.StatusQueued,
			models.StatusError,
		}).
		Updates(map[string]interface{}{
			"status":          models.StatusQueued,
			"selected_ranges": ranges,
			"processing_step": "Queued for processing",
			"error_detail":    "",
			"completed_at":    nil,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrJobNotFound
	}
	return ErrNotEnqueueable
}

// Delete supprime le job; retourne false s'il n'existait pas
func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Job{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// QueuePosition retourne 1 + le nombre de jobs en file créés avant celui-ci, 0 s'il n'est pas en file
func (r *jobRepository) QueuePosition(ctx context.Context, job *models.Job) (int, error) {
	if job.Status != models.StatusQueued {
		return 0, nil
	}
	var ahead int64
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ? AND created_at < ?", models.StatusQueued, job.CreatedAt).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

func (r *jobRepository) CountQueued(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.StatusQueued).
		Count(&count).Error
	return count, err
}

// RequeueProcessing remet en file les jobs restés en cours après un arrêt du processus
func (r *jobRepository) RequeueProcessing(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":          models.StatusQueued,
			"processing_step": "Queued for processing",
			"updated_at":      time.Now(),
		})
	return res.RowsAffected, res.Error
}

// DeleteOldJobs supprime les jobs en erreur dont la dernière mise à jour précède olderThan.
// Les jobs prêts restent: leur suppression emporterait le cours généré.
func (r *jobRepository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.StatusError, olderThan).
		Delete(&models.Job{})

	return result.RowsAffected, result.Error
}
