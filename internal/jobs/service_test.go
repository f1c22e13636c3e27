package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (JobService, JobRepository) {
	repo := newTestRepository(t)
	return NewJobServiceImpl(repo, "pro", nil), repo
}

func TestCreateJob(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	ref := storage.Ref{Bucket: "books", Path: "owner-1/file.pdf"}

	tests := []struct {
		name       string
		req        models.UploadRequest
		wantStatus models.JobStatus
		wantTier   string
	}{
		{
			name:       "notes are queued immediately",
			req:        models.UploadRequest{OwnerID: "owner-1", UploadType: models.UploadNotes, Title: "Notes"},
			wantStatus: models.StatusQueued,
			wantTier:   "pro",
		},
		{
			name:       "books wait for a selection",
			req:        models.UploadRequest{OwnerID: "owner-1", UploadType: models.UploadBook, Title: "Book", Tier: "free"},
			wantStatus: models.StatusPendingSelection,
			wantTier:   "free",
		},
		{
			name:       "missing upload type defaults to notes",
			req:        models.UploadRequest{OwnerID: "owner-1", Title: "Untyped"},
			wantStatus: models.StatusQueued,
			wantTier:   "pro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := service.CreateJob(ctx, &tt.req, ref, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, job.Status)
			assert.Equal(t, tt.wantTier, job.Tier)
			assert.Equal(t, "books", job.SourceBucket)
			assert.Equal(t, "owner-1/file.pdf", job.SourcePath)
		})
	}
}

func TestEnqueueJob(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	book, err := service.CreateJob(ctx, &models.UploadRequest{OwnerID: "o", UploadType: models.UploadBook, Title: "B"}, storage.Ref{Bucket: "books", Path: "o/b.pdf"}, "")
	require.NoError(t, err)

	job, err := service.EnqueueJob(ctx, book.ID, &models.ProcessRequest{
		SelectedChapters: []models.PageRange{{StartPage: 1, EndPage: 10}, {StartPage: 20, EndPage: 24}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, job.Status)
	assert.Len(t, job.SelectedRanges, 2)

	// Un traitement complet efface la sélection précédente
	job, err = service.EnqueueJob(ctx, book.ID, &models.ProcessRequest{
		ProcessFull:      true,
		SelectedChapters: []models.PageRange{{StartPage: 1, EndPage: 2}},
	})
	require.NoError(t, err)
	assert.False(t, job.HasSelection())

	position, err := service.QueuePosition(ctx, job)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, 1, *position)

	_, err = service.EnqueueJob(ctx, uuid.New(), &models.ProcessRequest{ProcessFull: true})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestDeleteJob(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	job, err := service.CreateJob(ctx, &models.UploadRequest{OwnerID: "o", Title: "N"}, storage.Ref{Bucket: "books", Path: "o/n.pdf"}, "")
	require.NoError(t, err)

	deleted, err := service.DeleteJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "o/n.pdf", deleted.SourcePath)

	exists, err := service.JobExists(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = service.DeleteJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSchedulerLifecycle(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	job, err := service.CreateJob(ctx, &models.UploadRequest{OwnerID: "o", Title: "N"}, storage.Ref{Bucket: "books", Path: "o/n.pdf"}, "")
	require.NoError(t, err)

	claimed, err := service.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)

	require.NoError(t, service.ReportProgress(ctx, job.ID, models.Progress{Stage: models.StageSaving, Detail: "Saving course to database..."}))
	require.NoError(t, service.CompleteJob(ctx, job.ID))

	got, err := service.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	position, err := service.QueuePosition(ctx, got)
	require.NoError(t, err)
	assert.Nil(t, position)
}

func TestCleanupServiceRunOnce(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	job := createJob(t, repo, models.StatusError, 0)
	cleanup := NewCleanupService(service, time.Hour, -time.Minute, nil)

	// maxAge négatif: tout job en erreur est considéré comme ancien
	assert.EqualValues(t, 1, cleanup.RunOnce(ctx))

	exists, err := repo.Exists(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	cleanup.Stop()
	cleanup.Stop()
}

func TestCleanupServiceStopsOnCancel(t *testing.T) {
	service, _ := newTestService(t)
	cleanup := NewCleanupService(service, 10*time.Millisecond, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup service did not stop")
	}
}
