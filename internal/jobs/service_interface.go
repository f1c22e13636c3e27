package jobs

import (
	"context"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/google/uuid"
)

type JobService interface {
	CreateJob(ctx context.Context, req *models.UploadRequest, source storage.Ref, fileURL string) (*models.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, ownerID, status string) ([]*models.Job, error)
	EnqueueJob(ctx context.Context, id uuid.UUID, req *models.ProcessRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	JobExists(ctx context.Context, id uuid.UUID) (bool, error)
	QueuePosition(ctx context.Context, job *models.Job) (*int, error)
	CountQueued(ctx context.Context) (int64, error)

	ClaimNextJob(ctx context.Context) (*models.Job, error)
	ReportProgress(ctx context.Context, id uuid.UUID, progress models.Progress) error
	CompleteJob(ctx context.Context, id uuid.UUID) error
	FailJob(ctx context.Context, id uuid.UUID, detail string) error
	RecoverInterrupted(ctx context.Context) (int64, error)

	CleanupOldJobs(ctx context.Context, maxAge time.Duration) (int64, error)
}
