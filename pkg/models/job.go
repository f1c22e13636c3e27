package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	StatusUploading        JobStatus = "uploading"
	StatusPendingSelection JobStatus = "pending_selection"
	StatusQueued           JobStatus = "queued"
	StatusProcessing       JobStatus = "processing"
	StatusReady            JobStatus = "ready"
	StatusError            JobStatus = "error"
)

type UploadType string

const (
	UploadBook  UploadType = "book"
	UploadNotes UploadType = "notes"
)

// JSON type for PostgreSQL compatibility
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	bytes, err := scanBytes(value, "JSON")
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*j = make(map[string]interface{})
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// PageRange est une plage de pages sélectionnée par l'utilisateur (1-indexée, bornes incluses)
type PageRange struct {
	StartPage int    `json:"start_page" binding:"required,min=1"`
	EndPage   int    `json:"end_page" binding:"required,min=1"`
	Title     string `json:"title,omitempty"`
}

// PageCount retourne le nombre de pages couvertes par la plage
func (r PageRange) PageCount() int {
	if r.EndPage < r.StartPage {
		return 0
	}
	return r.EndPage - r.StartPage + 1
}

// PageRanges type pour stocker la sélection en JSON
type PageRanges []PageRange

func (pr PageRanges) Value() (driver.Value, error) {
	if pr == nil {
		return nil, nil
	}
	return json.Marshal(pr)
}

func (pr *PageRanges) Scan(value interface{}) error {
	bytes, err := scanBytes(value, "PageRanges")
	if err != nil {
		return err
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*pr = nil
		return nil
	}
	return json.Unmarshal(bytes, pr)
}

func scanBytes(value interface{}, target string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot scan %T into %s", value, target)
	}
}

// Job représente un document soumis et son cycle de traitement
type Job struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID        string     `json:"owner_id" gorm:"type:varchar(64);not null;index"`
	Title          string     `json:"title" gorm:"type:text;not null"`
	UploadType     UploadType `json:"upload_type" gorm:"type:varchar(10);not null;default:'notes'"`
	Tier           string     `json:"tier" gorm:"type:varchar(20);not null;default:'free'"`
	SourceBucket   string     `json:"source_bucket" gorm:"type:varchar(64)"`
	SourcePath     string     `json:"source_path" gorm:"type:text"`
	FileURL        string     `json:"file_url,omitempty" gorm:"type:text"`
	Status         JobStatus  `json:"status" gorm:"type:varchar(20);not null;default:'uploading';index"`
	ProcessingStep string     `json:"processing_step,omitempty" gorm:"type:text"`
	ProgressStage  Stage      `json:"progress_stage,omitempty" gorm:"type:varchar(32)"`
	SelectedRanges PageRanges `json:"selected_chapters,omitempty" gorm:"type:jsonb"`
	ErrorDetail    string     `json:"error,omitempty" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// TableName spécifie le nom de la table
func (Job) TableName() string {
	return "jobs"
}

// BeforeCreate hook GORM pour initialiser l'ID et les timestamps
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate hook GORM pour mettre à jour le timestamp
func (j *Job) BeforeUpdate(tx *gorm.DB) error {
	j.UpdatedAt = time.Now()
	return nil
}

// IsTerminal retourne true si le job est dans un état final
func (j *Job) IsTerminal() bool {
	return j.Status == StatusReady || j.Status == StatusError
}

// CanEnqueue indique si le job peut (re)passer en file d'attente
func (j *Job) CanEnqueue() bool {
	switch j.Status {
	case StatusPendingSelection, StatusQueued, StatusError:
		return true
	}
	return false
}

// HasSelection indique si le job ne doit traiter qu'une partie du document
func (j *Job) HasSelection() bool {
	return len(j.SelectedRanges) > 0
}

// UploadRequest décrit les métadonnées d'un document téléversé
type UploadRequest struct {
	OwnerID     string     `form:"owner" binding:"required"`
	UploadType  UploadType `form:"upload_type"`
	Tier        string     `form:"tier"`
	Title       string     `form:"title"`
	Filename    string     `form:"-"`
	ContentType string     `form:"-"`
}

// ProcessRequest démarre le traitement d'un document, complet ou partiel
// @Description Sélection des chapitres à traiter
type ProcessRequest struct {
	ProcessFull      bool        `json:"process_full"`
	SelectedChapters []PageRange `json:"selected_chapters,omitempty"`
} // @name ProcessRequest

// SelectionSummary résume une sélection de chapitres
type SelectionSummary struct {
	ChapterCount int         `json:"chapter_count" example:"3"`
	TotalPages   int         `json:"total_pages" example:"84"`
	Chapters     []PageRange `json:"chapters"`
} // @name SelectionSummary

// Summarize construit le résumé d'une sélection
func Summarize(ranges []PageRange) SelectionSummary {
	summary := SelectionSummary{Chapters: []PageRange{}}
	for _, r := range ranges {
		summary.ChapterCount++
		summary.TotalPages += r.PageCount()
		summary.Chapters = append(summary.Chapters, r)
	}
	return summary
}

// JobResponse représente la réponse contenant les détails d'un job
// @Description Détails d'un job de conversion
type JobResponse struct {
	ID             uuid.UUID   `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Title          string      `json:"title"`
	UploadType     UploadType  `json:"upload_type"`
	Status         JobStatus   `json:"status"`
	ProcessingStep string      `json:"processing_step,omitempty"`
	ProgressStage  Stage       `json:"progress_stage,omitempty"`
	QueuePosition  *int        `json:"queue_position,omitempty"`
	Selected       []PageRange `json:"selected_chapters,omitempty"`
	Error          string      `json:"error,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
} // @name JobResponse

// ToResponse convertit un Job en JobResponse
func (j *Job) ToResponse() *JobResponse {
	return &JobResponse{
		ID:             j.ID,
		OwnerID:        j.OwnerID,
		Title:          j.Title,
		UploadType:     j.UploadType,
		Status:         j.Status,
		ProcessingStep: j.ProcessingStep,
		ProgressStage:  j.ProgressStage,
		Selected:       []PageRange(j.SelectedRanges),
		Error:          j.ErrorDetail,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
	}
}

// JobListResponse représente une liste de jobs
// @Description Liste de jobs
type JobListResponse struct {
	Jobs  []*JobResponse `json:"jobs"`
	Count int            `json:"count" example:"25"`
} // @name JobListResponse

// UploadResponse est renvoyée après un téléversement
type UploadResponse struct {
	JobID   uuid.UUID `json:"book_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
} // @name UploadResponse
