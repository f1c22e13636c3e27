package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
	pkgstorage "github.com/Open-Course-Factory/ocf-coursegen/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const serviceName = "ocf-coursegen"

type Handlers struct {
	services Services
	config   RouterConfig
	log      *logger.Logger
}

func NewHandlers(services Services, cfg RouterConfig, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		services: services,
		config:   cfg,
		log:      log.Named("api"),
	}
}

// wake réveille le scheduler quand un job vient d'entrer en file
func (h *Handlers) wake() {
	if h.services.Scheduler != nil {
		h.services.Scheduler.Wake()
	}
}

func (h *Handlers) publish(event models.ProgressEvent) {
	if h.services.Hub != nil {
		h.services.Hub.Publish(event)
	}
}

// jobResponse ajoute la position en file à la vue d'un job
func (h *Handlers) jobResponse(c *gin.Context, job *models.Job) *models.JobResponse {
	resp := job.ToResponse()
	if job.Status != models.StatusQueued {
		return resp
	}
	position, err := h.services.Jobs.QueuePosition(c.Request.Context(), job)
	if err != nil {
		h.log.Warnf("Handlers.jobResponse: Failed to compute queue position of job %s: %v", job.ID, err)
		return resp
	}
	resp.QueuePosition = position
	return resp
}

// respondJobError traduit les erreurs du service de jobs en statut HTTP
func (h *Handlers) respondJobError(c *gin.Context, jobID uuid.UUID, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		respondError(c, http.StatusNotFound, "Job not found", nil)
	case errors.Is(err, jobs.ErrNotEnqueueable):
		respondError(c, http.StatusConflict, "Job cannot be processed in its current state", err)
	default:
		h.log.Errorf("Handlers: Job %s request failed: %v", jobID, err)
		respondError(c, http.StatusInternalServerError, "Internal error", err)
	}
}

// Health godoc
// @Summary Health check
// @Description Returns the service status and whether the job scheduler is running
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	resp := models.HealthResponse{
		Status:      "healthy",
		Service:     serviceName,
		Version:     h.config.Version,
		Timestamp:   time.Now().UTC(),
		Environment: h.config.Environment,
	}
	if h.services.Scheduler != nil {
		resp.Scheduler = h.services.Scheduler.GetStats(c.Request.Context()).Running
	}
	c.JSON(http.StatusOK, resp)
}

// ListJobs godoc
// @Summary List jobs
// @Description Lists the most recent jobs, optionally filtered by owner and status
// @Tags Jobs
// @Produce json
// @Param owner query string false "Owner ID"
// @Param status query string false "Job status" Enums(uploading, pending_selection, queued, processing, ready, error)
// @Success 200 {object} models.JobListResponse
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 500 {object} models.ErrorResponse "Internal error"
// @Router /api/v1/jobs [get]
func (h *Handlers) ListJobs(c *gin.Context) {
	params := c.MustGet(validation.ValidatedListKey).(validation.ListJobsParams)

	jobList, err := h.services.Jobs.ListJobs(c.Request.Context(), params.OwnerID, params.Status)
	if err != nil {
		h.log.Errorf("Handlers.ListJobs: Failed to list jobs: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	responses := make([]*models.JobResponse, len(jobList))
	for i, job := range jobList {
		responses[i] = h.jobResponse(c, job)
	}

	c.JSON(http.StatusOK, models.JobListResponse{Jobs: responses, Count: len(responses)})
}

// GetJob godoc
// @Summary Get job status
// @Description Returns the job status, current processing step and queue position
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.JobResponse
// @Failure 400 {object} models.ErrorResponse "Invalid job ID"
// @Failure 404 {object} models.ErrorResponse "Job not found"
// @Router /api/v1/jobs/{id} [get]
func (h *Handlers) GetJob(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)

	job, err := h.services.Jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, h.jobResponse(c, job))
}

// ProcessJob godoc
// @Summary Start processing a document
// @Description Stores the chapter selection (or the whole document) and queues the job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param request body models.ProcessRequest true "Chapter selection"
// @Success 200 {object} models.ProcessResponse
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Job not found"
// @Failure 409 {object} models.ErrorResponse "Job already processing or ready"
// @Router /api/v1/jobs/{id}/process [post]
func (h *Handlers) ProcessJob(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)
	req := c.MustGet(validation.ValidatedRequestKey).(models.ProcessRequest)

	job, err := h.services.Jobs.EnqueueJob(c.Request.Context(), jobID, &req)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	h.wake()

	view := h.jobResponse(c, job)
	h.publish(models.ProgressEvent{
		JobID:         job.ID.String(),
		Status:        job.Status,
		Step:          job.ProcessingStep,
		QueuePosition: view.QueuePosition,
	})

	resp := models.ProcessResponse{
		JobID:       job.ID.String(),
		Status:      job.Status,
		ProcessFull: req.ProcessFull,
		Message:     "Book added to processing queue",
	}
	if !req.ProcessFull {
		summary := models.Summarize(req.SelectedChapters)
		resp.Summary = &summary
	}

	h.log.Infof("Handlers.ProcessJob: Job %s queued (full: %t)", job.ID, req.ProcessFull)
	c.JSON(http.StatusOK, resp)
}

// DeleteJob godoc
// @Summary Delete a job
// @Description Deletes the job and its stored document. A job being processed is cancelled at its next step.
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{} "Job deleted"
// @Failure 400 {object} models.ErrorResponse "Invalid job ID"
// @Failure 404 {object} models.ErrorResponse "Job not found"
// @Router /api/v1/jobs/{id} [delete]
func (h *Handlers) DeleteJob(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)
	ctx := c.Request.Context()

	job, err := h.services.Jobs.DeleteJob(ctx, jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	h.publish(models.ProgressEvent{JobID: jobID.String(), Status: job.Status, Deleted: true})

	// Le nettoyage du stockage n'empêche pas la suppression
	ref, err := pkgstorage.ResolveRef(job.SourceBucket, job.SourcePath, job.FileURL)
	if err != nil {
		h.log.Warnf("Handlers.DeleteJob: No document reference for job %s: %v", jobID, err)
	}
	if h.services.Storage != nil {
		if err := h.services.Storage.CleanupJob(ctx, jobID, ref); err != nil {
			h.log.Warnf("Handlers.DeleteJob: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Job deleted",
		"book_id": jobID,
		"status":  job.Status,
	})
}

// GetWorkerStats godoc
// @Summary Scheduler statistics
// @Description Returns the scheduler state, current job and counters
// @Tags Worker
// @Produce json
// @Success 200 {object} models.SchedulerStats
// @Failure 503 {object} models.ErrorResponse "Scheduler unavailable"
// @Router /api/v1/worker/stats [get]
func (h *Handlers) GetWorkerStats(c *gin.Context) {
	if h.services.Scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "Scheduler unavailable", nil)
		return
	}
	c.JSON(http.StatusOK, h.services.Scheduler.GetStats(c.Request.Context()))
}
