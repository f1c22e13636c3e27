// internal/validation/api_validation.go - Validation spécifique à l'API

package validation

import (
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
)

var (
	dotSequence    = regexp.MustCompile(`\.\.+`)
	dangerousChars = regexp.MustCompile(`[\/\\:*?"<>|\x00-\x1f]+`)
	strayDots      = regexp.MustCompile(`^\.+|\.+`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// validStatuses liste les statuts acceptés en filtre de liste
var validStatuses = []models.JobStatus{
	models.StatusUploading,
	models.StatusPendingSelection,
	models.StatusQueued,
	models.StatusProcessing,
	models.StatusReady,
	models.StatusError,
}

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	validationService *ValidationService
}

// ListJobsParams contient les filtres validés de la liste des jobs
type ListJobsParams struct {
	OwnerID string `json:"owner_id"`
	Status  string `json:"status"`
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator(config *ValidationConfig) *APIValidator {
	return &APIValidator{
		validationService: NewValidationService(config),
	}
}

// ValidateUploadRequest valide les champs du formulaire et le fichier téléversé
func (av *APIValidator) ValidateUploadRequest(req *models.UploadRequest, header *multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	result.Merge(av.validationService.ValidateOwnerID(req.OwnerID))
	result.Merge(av.validationService.ValidateUploadType(req.UploadType))
	result.Merge(av.validationService.ValidateTitle(req.Title))
	result.Merge(av.validationService.ValidateFileHeader(header))

	return result
}

// ValidateDocumentContent valide le contenu lu du document
func (av *APIValidator) ValidateDocumentContent(content []byte, filename string) *ValidationResult {
	return av.validationService.ValidatePDFContent(content, filename)
}

// ValidateProcessRequest valide une demande de traitement: complet, ou au moins une plage
func (av *APIValidator) ValidateProcessRequest(req *models.ProcessRequest) *ValidationResult {
	if req.ProcessFull {
		return &ValidationResult{Valid: true}
	}
	return av.validationService.ValidatePageRanges(req.SelectedChapters)
}

// ValidateJobIDParam valide un paramètre job_id depuis l'URL
func (av *APIValidator) ValidateJobIDParam(jobIDStr string) (uuid.UUID, *ValidationResult) {
	return parseID(av.validationService.ValidateJobID(jobIDStr), jobIDStr)
}

// ValidateCourseIDParam valide un paramètre course_id depuis l'URL
func (av *APIValidator) ValidateCourseIDParam(courseIDStr string) (uuid.UUID, *ValidationResult) {
	return parseID(av.validationService.ValidateCourseID(courseIDStr), courseIDStr)
}

// ValidateLessonIDParam valide un paramètre lesson_id depuis l'URL
func (av *APIValidator) ValidateLessonIDParam(lessonIDStr string) (uuid.UUID, *ValidationResult) {
	return parseID(av.validationService.ValidateLessonID(lessonIDStr), lessonIDStr)
}

func parseID(result *ValidationResult, value string) (uuid.UUID, *ValidationResult) {
	if !result.Valid {
		return uuid.Nil, result
	}
	// Déjà validé ci-dessus
	id, _ := uuid.Parse(value)
	return id, result
}

// ValidateStatusParam valide un paramètre status de job (optionnel)
func (av *APIValidator) ValidateStatusParam(status string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if status == "" {
		return result
	}

	for _, valid := range validStatuses {
		if models.JobStatus(status) == valid {
			return result
		}
	}

	result.AddError("status", status,
		"invalid status (must be: uploading, pending_selection, queued, processing, ready, error)",
		"INVALID_STATUS")
	return result
}

// ValidateListJobsParams valide tous les paramètres pour ListJobs
func (av *APIValidator) ValidateListJobsParams(ownerParam, statusParam string) (*ListJobsParams, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	result.Merge(av.ValidateStatusParam(statusParam))
	if ownerParam != "" {
		result.Merge(av.validationService.ValidateOwnerID(ownerParam))
	}

	return &ListJobsParams{OwnerID: strings.TrimSpace(ownerParam), Status: statusParam}, result
}

// SanitizeFilename nettoie un nom de fichier en supprimant les caractères dangereux
func (av *APIValidator) SanitizeFilename(filename string) string {
	return SanitizeFilename(filename)
}

// SanitizeFilename nettoie un nom de fichier en supprimant les caractères dangereux.
// L'extension est conservée.
func SanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	if base == "" && ext != "" {
		base = "hidden_file" // cas des fichiers cachés
	}

	base = dotSequence.ReplaceAllString(base, "_")
	base = dangerousChars.ReplaceAllString(base, "_")
	base = strayDots.ReplaceAllString(base, "_")
	base = underscoreRuns.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_ ")

	ext = strings.Trim(ext, "_")
	if len(ext) < 2 {
		ext = ""
	}

	if base == "" {
		base = "unnamed_file"
	}

	if base == "hidden_file" {
		base = ""
	}

	sanitized := base + ext

	if len(sanitized) > 200 {
		if len(ext) < 200 {
			maxBaseLen := 200 - len(ext)
			if len(base) > maxBaseLen {
				base = base[:maxBaseLen]
			}
			sanitized = base + ext
		} else {
			sanitized = sanitized[:200]
		}
	}

	return sanitized
}
