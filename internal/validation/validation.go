// internal/validation/validation.go - Service de validation des entrées

package validation

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
)

// pdfMagic ouvre tout fichier PDF valide
var pdfMagic = []byte("%PDF-")

// ValidationConfig contient la configuration de validation
type ValidationConfig struct {
	MaxFileSize       int64           // Taille max du document (bytes)
	AllowedExtensions map[string]bool // Extensions autorisées
	MaxFilenameLength int             // Longueur max du nom de fichier
	AllowedMimeTypes  map[string]bool // Types MIME autorisés
	MaxTitleLength    int
	MaxOwnerIDLength  int
	MaxSelectedRanges int
}

// DefaultValidationConfig retourne une configuration par défaut sécurisée
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxFileSize:       50 * 1024 * 1024, // 50MB
		MaxFilenameLength: 255,
		AllowedExtensions: map[string]bool{
			".pdf": true,
		},
		AllowedMimeTypes: map[string]bool{
			"application/pdf":          true,
			"application/x-pdf":        true,
			"application/octet-stream": true, // Certains navigateurs n'envoient rien de plus précis
		},
		MaxTitleLength:    500,
		MaxOwnerIDLength:  64,
		MaxSelectedRanges: 200,
	}
}

// ValidationService gère la validation des entrées
type ValidationService struct {
	config *ValidationConfig
}

// NewValidationService crée un nouveau service de validation
func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidationService{
		config: config,
	}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError ajoute une erreur de validation
func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// Merge ajoute les erreurs d'un autre résultat
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// Err retourne la première erreur, nil si le résultat est valide
func (vr *ValidationResult) Err() error {
	if vr.Valid || len(vr.Errors) == 0 {
		return nil
	}
	return vr.Errors[0]
}

// ValidateID valide un identifiant UUID porté par le champ field
func (vs *ValidationService) ValidateID(field, value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.AddError(field, "", field+" is required", "REQUIRED")
		return result
	}

	if _, err := uuid.Parse(value); err != nil {
		result.AddError(field, value, field+" must be a valid UUID", "INVALID_UUID")
	}

	return result
}

// ValidateJobID valide un ID de job
func (vs *ValidationService) ValidateJobID(jobID string) *ValidationResult {
	return vs.ValidateID("job_id", jobID)
}

// ValidateCourseID valide un ID de cours
func (vs *ValidationService) ValidateCourseID(courseID string) *ValidationResult {
	return vs.ValidateID("course_id", courseID)
}

// ValidateLessonID valide un ID de leçon
func (vs *ValidationService) ValidateLessonID(lessonID string) *ValidationResult {
	return vs.ValidateID("lesson_id", lessonID)
}

// ValidateFilename valide un nom de fichier de manière robuste
func (vs *ValidationService) ValidateFilename(filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if filename == "" {
		result.AddError("filename", "", "filename is required", "REQUIRED")
		return result
	}

	if len(filename) > vs.config.MaxFilenameLength {
		result.AddError("filename", filename,
			fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength),
			"TOO_LONG")
	}

	if !utf8.ValidString(filename) {
		result.AddError("filename", filename, "filename must be valid UTF-8", "INVALID_ENCODING")
	}

	forbiddenChars := []string{
		"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|",
		"\x00", "\x01", "\x02", "\x03", "\x04", "\x05", "\x06", "\x07",
		"\x08", "\x09", "\x0a", "\x0b", "\x0c", "\x0d", "\x0e", "\x0f",
	}

	for _, char := range forbiddenChars {
		if strings.Contains(filename, char) {
			result.AddError("filename", filename,
				fmt.Sprintf("filename contains forbidden character: %q", char),
				"FORBIDDEN_CHAR")
		}
	}

	// Noms réservés (Windows)
	reservedNames := []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}

	baseName := strings.ToUpper(strings.TrimSuffix(filename, filepath.Ext(filename)))
	for _, reserved := range reservedNames {
		if baseName == reserved {
			result.AddError("filename", filename,
				fmt.Sprintf("filename uses reserved name: %s", reserved),
				"RESERVED_NAME")
		}
	}

	if strings.HasPrefix(filename, " ") || strings.HasSuffix(filename, " ") ||
		strings.HasPrefix(filename, ".") || strings.HasSuffix(filename, ".") {
		result.AddError("filename", filename,
			"filename cannot start or end with space or dot",
			"INVALID_FORMAT")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.AddError("filename", filename, "filename must have an extension", "NO_EXTENSION")
	} else if !vs.config.AllowedExtensions[ext] {
		result.AddError("filename", filename,
			fmt.Sprintf("file extension %s not allowed", ext),
			"FORBIDDEN_EXTENSION")
	}

	return result
}

// ValidateFileHeader valide le document téléversé. Le nom est validé après
// sanitisation: les titres de livres contiennent souvent des caractères interdits.
func (vs *ValidationService) ValidateFileHeader(header *multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if header == nil {
		result.AddError("file", "", "file is required", "REQUIRED")
		return result
	}

	result.Merge(vs.ValidateFilename(SanitizeFilename(header.Filename)))

	if header.Size > vs.config.MaxFileSize {
		result.AddError("file_size", fmt.Sprintf("%d", header.Size),
			fmt.Sprintf("file too large (max %d bytes)", vs.config.MaxFileSize),
			"FILE_TOO_LARGE")
	}

	if header.Size == 0 {
		result.AddError("file_size", "0", "file is empty", "EMPTY_FILE")
	}

	if contentType := header.Header.Get("Content-Type"); contentType != "" {
		mainType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if !vs.config.AllowedMimeTypes[mainType] {
			result.AddError("content_type", contentType,
				fmt.Sprintf("content type %s not allowed", mainType),
				"FORBIDDEN_MIME_TYPE")
		}
	}

	return result
}

// ValidatePDFContent vérifie la signature du document
func (vs *ValidationService) ValidatePDFContent(content []byte, filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if int64(len(content)) > vs.config.MaxFileSize {
		result.AddError("content", filename, "content too large", "CONTENT_TOO_LARGE")
	}

	// La signature peut être précédée de quelques octets parasites
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, pdfMagic) {
		result.AddError("content", filename, "file is not a PDF document", "NOT_A_PDF")
	}

	return result
}

// ValidateOwnerID valide l'identifiant du propriétaire
func (vs *ValidationService) ValidateOwnerID(ownerID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		result.AddError("owner", "", "owner is required", "REQUIRED")
		return result
	}
	if len(ownerID) > vs.config.MaxOwnerIDLength {
		result.AddError("owner", ownerID,
			fmt.Sprintf("owner too long (max %d characters)", vs.config.MaxOwnerIDLength),
			"TOO_LONG")
	}
	if strings.ContainsAny(ownerID, "/\\") || strings.Contains(ownerID, "..") {
		result.AddError("owner", ownerID, "owner contains path characters", "FORBIDDEN_CHAR")
	}

	return result
}

// ValidateUploadType valide le type de téléversement (vide = notes)
func (vs *ValidationService) ValidateUploadType(uploadType models.UploadType) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch uploadType {
	case "", models.UploadBook, models.UploadNotes:
	default:
		result.AddError("upload_type", string(uploadType),
			"invalid upload type (must be: book, notes)", "INVALID_UPLOAD_TYPE")
	}

	return result
}

// ValidateTitle valide un titre optionnel
func (vs *ValidationService) ValidateTitle(title string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if utf8.RuneCountInString(title) > vs.config.MaxTitleLength {
		result.AddError("title", title,
			fmt.Sprintf("title too long (max %d characters)", vs.config.MaxTitleLength),
			"TOO_LONG")
	}

	return result
}

// ValidatePageRanges valide une sélection de chapitres. La borne haute n'est
// connue qu'au traitement: le worker rejette les plages hors du document.
func (vs *ValidationService) ValidatePageRanges(ranges []models.PageRange) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(ranges) == 0 {
		result.AddError("selected_chapters", "", "at least one chapter must be selected", "NO_SELECTION")
		return result
	}

	if len(ranges) > vs.config.MaxSelectedRanges {
		result.AddError("selected_chapters", fmt.Sprintf("%d ranges", len(ranges)),
			fmt.Sprintf("too many selected chapters (max %d)", vs.config.MaxSelectedRanges),
			"TOO_MANY_RANGES")
	}

	for i, r := range ranges {
		field := fmt.Sprintf("selected_chapters[%d]", i)
		value := fmt.Sprintf("%d-%d", r.StartPage, r.EndPage)
		if r.StartPage < 1 {
			result.AddError(field, value, "start_page must be at least 1", "INVALID_START_PAGE")
		}
		if r.EndPage < r.StartPage {
			result.AddError(field, value, "end_page cannot be before start_page", "INVALID_PAGE_RANGE")
		}
		if utf8.RuneCountInString(r.Title) > vs.config.MaxTitleLength {
			result.AddError(field+".title", r.Title, "chapter title too long", "TOO_LONG")
		}
	}

	return result
}
