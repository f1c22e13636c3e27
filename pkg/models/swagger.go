// pkg/models/swagger.go
package models

import (
	"time"
)

// ErrorResponse représente une réponse d'erreur standard
// @Description Réponse d'erreur standard de l'API
type ErrorResponse struct {
	Error            string            `json:"error" example:"Validation failed"`
	Message          string            `json:"message,omitempty" example:"Detailed error message"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	Timestamp        time.Time         `json:"timestamp" example:"2025-01-17T10:30:00Z"`
	Path             string            `json:"path,omitempty" example:"/api/v1/upload"`
} // @name ErrorResponse

// ValidationError représente une erreur de validation spécifique
// @Description Détail d'une erreur de validation
type ValidationError struct {
	Field   string `json:"field" example:"file"`
	Value   string `json:"value" example:"notes.docx"`
	Message string `json:"message" example:"file must be a PDF"`
	Code    string `json:"code" example:"INVALID_EXTENSION"`
} // @name ValidationError

// HealthResponse représente la réponse du health check
// @Description Statut de santé du service
type HealthResponse struct {
	Status      string    `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Service     string    `json:"service" example:"ocf-coursegen"`
	Version     string    `json:"version" example:"1.0.0"`
	Timestamp   time.Time `json:"timestamp" example:"2025-01-17T10:30:00Z"`
	Environment string    `json:"environment,omitempty" example:"development"`
	Scheduler   bool      `json:"scheduler_running" example:"true"`
} // @name HealthResponse

// ProcessResponse est renvoyée après la mise en file d'un document
// @Description Confirmation de mise en file d'attente
type ProcessResponse struct {
	JobID       string            `json:"book_id"`
	Status      JobStatus         `json:"status" example:"queued"`
	ProcessFull bool              `json:"process_full"`
	Summary     *SelectionSummary `json:"summary,omitempty"`
	Message     string            `json:"message" example:"Book added to processing queue"`
} // @name ProcessResponse
