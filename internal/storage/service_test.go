package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/storage/filesystem"
	pkgstorage "github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *StorageService {
	tempDir, err := os.MkdirTemp("", "coursegen-service-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	backend, err := filesystem.NewFilesystemStorage(tempDir)
	require.NoError(t, err)
	return NewStorageService(backend)
}

func TestStorageServiceDocuments(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	content := []byte("%PDF-1.4 document body")
	ref, url, err := service.UploadDocument(ctx, "user-42", "My Book.PDF", content)
	require.NoError(t, err)

	assert.Equal(t, DocumentsBucket, ref.Bucket)
	assert.True(t, strings.HasPrefix(ref.Path, "user-42/"))
	assert.True(t, strings.HasSuffix(ref.Path, ".pdf"))
	assert.NotEmpty(t, url)

	downloaded, err := service.DownloadDocument(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)

	jobID := uuid.New()
	require.NoError(t, service.SaveJobLog(ctx, jobID, "line 1\nline 2\n"))

	logContent, err := service.GetJobLog(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", logContent)

	require.NoError(t, service.CleanupJob(ctx, jobID, ref))
	_, err = service.DownloadDocument(ctx, ref)
	assert.Error(t, err)
}

func TestStorageServiceCourseExport(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	courseID := uuid.New()
	err := service.UploadCourseExport(ctx, courseID, map[string]interface{}{"title": "Go Basics"})
	require.NoError(t, err)

	url, err := service.GetCourseExportURL(ctx, courseID)
	require.NoError(t, err)
	assert.Contains(t, url, courseID.String())
}

func TestDownloadEmptyRef(t *testing.T) {
	service := newTestService(t)
	_, err := service.DownloadDocument(context.Background(), pkgstorage.Ref{})
	assert.Error(t, err)

	_, err = service.DownloadDocument(context.Background(), DocumentRef("nobody", uuid.New(), "missing.pdf"))
	assert.Error(t, err)
}
