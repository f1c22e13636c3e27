// internal/api/archive_handlers.go - Export d'un cours en archive ZIP
package api

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// archiveEntry est un fichier de l'archive
type archiveEntry struct {
	Name    string
	Content []byte
}

// DownloadCourseArchive godoc
// @Summary Download a course as archive
// @Description Creates a ZIP archive with the course, one JSON file per lesson and the generation log
// @Tags Courses
// @Produce application/zip
// @Param id path string true "Course ID"
// @Param compress query bool false "Enable compression" default(true)
// @Success 200 {file} archive "Archive file"
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Course not found"
// @Router /api/v1/courses/{id}/archive [get]
func (h *Handlers) DownloadCourseArchive(c *gin.Context) {
	courseID := c.MustGet(validation.ValidatedCourseIDKey).(uuid.UUID)
	compress := c.DefaultQuery("compress", "true") == "true"

	course, err := h.services.Courses.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		h.respondCourseError(c, courseID, err)
		return
	}

	entries, err := courseArchiveEntries(course)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to build archive", err)
		return
	}

	// Le log de génération est facultatif: il manque quand SAVE_JOB_LOGS est désactivé
	if h.services.Storage != nil {
		if jobLog, err := h.services.Storage.GetJobLog(c.Request.Context(), course.JobID); err == nil {
			entries = append(entries, archiveEntry{Name: "generation.log", Content: []byte(jobLog)})
		}
	}

	filename := fmt.Sprintf("course-%s-%s.zip", courseID.String()[:8], slugify(course.Title))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("X-Archive-Files-Count", fmt.Sprintf("%d", len(entries)))
	c.Status(http.StatusOK)

	if err := writeZip(c.Writer, entries, compress); err != nil {
		// Headers déjà envoyés, on ne peut plus renvoyer d'erreur JSON
		h.log.Errorf("Handlers.DownloadCourseArchive: Failed to stream archive of course %s: %v", courseID, err)
	}
}

// courseArchiveEntries sérialise le cours puis chaque leçon dans l'ordre du plan
func courseArchiveEntries(course *models.Course) ([]archiveEntry, error) {
	overview, err := json.MarshalIndent(course.ToResponse(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal course: %w", err)
	}
	entries := []archiveEntry{{Name: "course.json", Content: overview}}

	for _, chapter := range course.Chapters {
		dir := fmt.Sprintf("%02d-%s", chapter.Order+1, slugify(chapter.Title))
		for _, lesson := range chapter.Lessons {
			content, err := json.MarshalIndent(lesson.ToResponse(), "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal lesson %s: %w", lesson.ID, err)
			}
			entries = append(entries, archiveEntry{
				Name:    fmt.Sprintf("%s/%02d-%s.json", dir, lesson.Order+1, slugify(lesson.Title)),
				Content: content,
			})
		}
	}
	return entries, nil
}

// writeZip écrit les entrées en streaming
func writeZip(w io.Writer, entries []archiveEntry, compress bool) error {
	zipWriter := zip.NewWriter(w)

	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		if !compress {
			header.Method = zip.Store
		}

		entryWriter, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create zip entry for %s: %w", entry.Name, err)
		}
		if _, err := entryWriter.Write(entry.Content); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", entry.Name, err)
		}
	}

	return zipWriter.Close()
}

func slugify(title string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// ValidateArchiveParams valide les paramètres d'archive
func ValidateArchiveParams(c *gin.Context, v *validation.APIValidator) *validation.ValidationResult {
	result := &validation.ValidationResult{Valid: true}

	if compress := c.Query("compress"); compress != "" {
		if compress != "true" && compress != "false" {
			result.AddError("compress", compress, "compress must be true or false", "INVALID_BOOLEAN")
		}
	}

	return result
}
