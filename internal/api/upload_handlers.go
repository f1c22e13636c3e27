package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/document"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	pkgstorage "github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Upload godoc
// @Summary Upload a PDF document
// @Description Stores the document and creates a job. Notes are queued immediately, books wait for a chapter selection.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param owner formData string true "Owner ID"
// @Param upload_type formData string false "Upload type" Enums(book, notes) default(notes)
// @Param tier formData string false "Subscription tier"
// @Param title formData string false "Title (read from the document when empty)"
// @Success 201 {object} models.UploadResponse
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 429 {object} map[string]interface{} "Rate limit exceeded"
// @Failure 500 {object} models.ErrorResponse "Internal error"
// @Router /api/v1/upload [post]
func (h *Handlers) Upload(c *gin.Context) {
	validator := validation.GetValidator(c)
	if validator == nil {
		respondError(c, http.StatusInternalServerError, "Validation service unavailable", nil)
		return
	}

	var req models.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.Title = strings.TrimSpace(req.Title)

	header, _ := c.FormFile("file")
	if result := validator.ValidateUploadRequest(&req, header); !result.Valid {
		respondValidation(c, "Validation failed", result)
		return
	}

	req.Filename = validator.SanitizeFilename(header.Filename)
	req.ContentType = header.Header.Get("Content-Type")

	content, err := readUpload(header, h.maxUploadSize())
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	if result := validator.ValidateDocumentContent(content, req.Filename); !result.Valid {
		respondValidation(c, "Content validation failed", result)
		return
	}

	doc, err := document.Open(content)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid PDF document", err)
		return
	}

	meta := doc.ReadMetadata(strings.TrimSuffix(req.Filename, filepath.Ext(req.Filename)))
	if req.Title == "" {
		req.Title = meta.Title
	}
	if !meta.HasText {
		h.log.Warnf("Handlers.Upload: Document %s has no extractable text", req.Filename)
	}

	ctx := c.Request.Context()
	ref, url, err := h.services.Storage.UploadDocument(ctx, req.OwnerID, req.Filename, content)
	if err != nil {
		h.log.Errorf("Handlers.Upload: Failed to store document %s: %v", req.Filename, err)
		respondError(c, http.StatusInternalServerError, "Failed to store document", err)
		return
	}

	job, err := h.services.Jobs.CreateJob(ctx, &req, ref, url)
	if err != nil {
		if delErr := h.services.Storage.DeleteDocument(ctx, ref); delErr != nil {
			h.log.Warnf("Handlers.Upload: Failed to remove orphan document %s: %v", ref, delErr)
		}
		respondError(c, http.StatusInternalServerError, "Failed to create job", err)
		return
	}

	message := "Book uploaded, select the chapters to process"
	if job.Status == models.StatusQueued {
		h.wake()
		message = "Notes added to processing queue"
	}

	h.log.Infof("Handlers.Upload: Job %s created for %s (%d pages, %s)", job.ID, req.Filename, meta.Pages, job.Status)
	c.JSON(http.StatusCreated, models.UploadResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: message,
	})
}

func (h *Handlers) maxUploadSize() int64 {
	if h.config.MaxUploadSize > 0 {
		return h.config.MaxUploadSize
	}
	return validation.DefaultValidationConfig().MaxFileSize
}

// readUpload lit le fichier téléversé en refusant tout contenu au-delà de limit
func readUpload(header *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return content, nil
}

// GetOutline godoc
// @Summary Extract the document outline
// @Description Returns the chapters of the stored document with their page ranges, from its bookmarks or from the model
// @Tags Documents
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.OutlineResponse
// @Failure 400 {object} models.ErrorResponse "Invalid job ID"
// @Failure 404 {object} models.ErrorResponse "Job not found"
// @Failure 422 {object} models.ErrorResponse "Unreadable document"
// @Router /api/v1/jobs/{id}/outline [get]
func (h *Handlers) GetOutline(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)
	ctx := c.Request.Context()

	if h.services.Extractor == nil {
		respondError(c, http.StatusServiceUnavailable, "Outline extraction unavailable", nil)
		return
	}

	job, err := h.services.Jobs.GetJob(ctx, jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	ref, err := pkgstorage.ResolveRef(job.SourceBucket, job.SourcePath, job.FileURL)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Document reference missing", err)
		return
	}

	content, err := h.services.Storage.DownloadDocument(ctx, ref)
	if err != nil {
		h.log.Errorf("Handlers.GetOutline: Failed to download document of job %s: %v", jobID, err)
		respondError(c, http.StatusInternalServerError, "Failed to download document", err)
		return
	}

	result, err := h.services.Extractor.Extract(ctx, content)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Failed to read document", err)
		return
	}

	chapters := result.Entries
	if chapters == nil {
		chapters = []models.StructureEntry{}
	}

	h.log.Infof("Handlers.GetOutline: Job %s outline has %d chapters (%s)", jobID, len(chapters), result.Method)
	c.JSON(http.StatusOK, models.OutlineResponse{
		JobID:      jobID.String(),
		Title:      job.Title,
		TotalPages: result.TotalPages,
		Chapters:   chapters,
		Method:     result.Method,
	})
}
