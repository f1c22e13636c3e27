package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"
	"github.com/google/uuid"
)

// DocumentsBucket est le bucket logique des documents téléversés
const DocumentsBucket = "books"

// MaxLogSize borne la taille des logs relus depuis le storage
const MaxLogSize = 1024 * 1024

type StorageService struct {
	storage storage.Storage
}

func NewStorageService(storage storage.Storage) *StorageService {
	return &StorageService{
		storage: storage,
	}
}

// DocumentRef construit la référence d'un document: books/{owner}/{fileID}{ext}
func DocumentRef(ownerID string, fileID uuid.UUID, filename string) storage.Ref {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return storage.Ref{
		Bucket: DocumentsBucket,
		Path:   fmt.Sprintf("%s/%s%s", ownerID, fileID.String(), ext),
	}
}

// UploadDocument stocke le document et retourne sa référence et son URL d'accès
func (s *StorageService) UploadDocument(ctx context.Context, ownerID, filename string, content []byte) (storage.Ref, string, error) {
	ref := DocumentRef(ownerID, uuid.New(), filename)
	if err := s.storage.Upload(ctx, ref.Key(), bytes.NewReader(content)); err != nil {
		return storage.Ref{}, "", fmt.Errorf("failed to upload document %s: %w", filename, err)
	}

	url, err := s.storage.GetURL(ctx, ref.Key())
	if err != nil {
		// L'URL n'est qu'informative, la référence suffit au traitement
		url = ""
	}
	return ref, url, nil
}

// DownloadDocument récupère le contenu complet d'un document
func (s *StorageService) DownloadDocument(ctx context.Context, ref storage.Ref) ([]byte, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("empty document reference")
	}
	reader, err := s.storage.Download(ctx, ref.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to download document %s: %w", ref, err)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", ref, err)
	}
	return content, nil
}

// DeleteDocument supprime un document
func (s *StorageService) DeleteDocument(ctx context.Context, ref storage.Ref) error {
	if ref.IsZero() {
		return nil
	}
	return s.storage.Delete(ctx, ref.Key())
}

// SaveJobLog sauvegarde les logs d'un job
func (s *StorageService) SaveJobLog(ctx context.Context, jobID uuid.UUID, logContent string) error {
	path := fmt.Sprintf("logs/%s/generation.log", jobID.String())
	return s.storage.Upload(ctx, path, strings.NewReader(logContent))
}

// GetJobLog récupère les logs d'un job
func (s *StorageService) GetJobLog(ctx context.Context, jobID uuid.UUID) (string, error) {
	path := fmt.Sprintf("logs/%s/generation.log", jobID.String())

	reader, err := s.storage.Download(ctx, path)
	if err != nil {
		return "", err
	}

	content, err := io.ReadAll(io.LimitReader(reader, MaxLogSize))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// UploadCourseExport exporte le cours généré en JSON: results/{course}/course.json
func (s *StorageService) UploadCourseExport(ctx context.Context, courseID uuid.UUID, course interface{}) error {
	payload, err := json.MarshalIndent(course, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal course export: %w", err)
	}
	path := fmt.Sprintf("results/%s/course.json", courseID.String())
	return s.storage.Upload(ctx, path, bytes.NewReader(payload))
}

// GetCourseExportURL retourne l'URL d'accès à l'export d'un cours
func (s *StorageService) GetCourseExportURL(ctx context.Context, courseID uuid.UUID) (string, error) {
	path := fmt.Sprintf("results/%s/course.json", courseID.String())
	return s.storage.GetURL(ctx, path)
}

// CleanupJob supprime le document et les logs liés à un job
func (s *StorageService) CleanupJob(ctx context.Context, jobID uuid.UUID, ref storage.Ref) error {
	var errs []string
	if err := s.DeleteDocument(ctx, ref); err != nil {
		errs = append(errs, err.Error())
	}
	logPath := fmt.Sprintf("logs/%s/generation.log", jobID.String())
	if err := s.storage.Delete(ctx, logPath); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup of job %s incomplete: %s", jobID, strings.Join(errs, "; "))
	}
	return nil
}
