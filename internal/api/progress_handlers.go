package api

import (
	"net/http"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/validation"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	progressWriteWait  = 10 * time.Second
	progressPongWait   = 60 * time.Second
	progressPingPeriod = (progressPongWait * 9) / 10
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamProgress godoc
// @Summary Stream job progress
// @Description Upgrades to a websocket and streams progress events until the job is ready, failed or deleted
// @Tags Jobs
// @Param id path string true "Job ID"
// @Success 101 {object} models.ProgressEvent "Switching protocols"
// @Failure 400 {object} models.ErrorResponse "Invalid job ID"
// @Failure 404 {object} models.ErrorResponse "Job not found"
// @Router /api/v1/jobs/{id}/progress [get]
func (h *Handlers) StreamProgress(c *gin.Context) {
	jobID := c.MustGet(validation.ValidatedJobIDKey).(uuid.UUID)

	if h.services.Hub == nil {
		respondError(c, http.StatusServiceUnavailable, "Progress stream unavailable", nil)
		return
	}

	// Abonnement avant la lecture de l'état initial: aucun évènement n'est perdu entre les deux
	events, unsubscribe := h.services.Hub.Subscribe(jobID.String())
	defer unsubscribe()

	job, err := h.services.Jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondJobError(c, jobID, err)
		return
	}

	conn, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("Handlers.StreamProgress: Failed to upgrade connection for job %s: %v", jobID, err)
		return
	}
	defer conn.Close()

	initial := models.ProgressEvent{
		JobID:         job.ID.String(),
		Status:        job.Status,
		Stage:         job.ProgressStage,
		Step:          job.ProcessingStep,
		QueuePosition: h.jobResponse(c, job).QueuePosition,
		Error:         job.ErrorDetail,
	}
	if err := writeProgress(conn, initial); err != nil || initial.IsFinal() {
		closeProgress(conn)
		return
	}

	h.log.Debugf("Handlers.StreamProgress: Client following job %s", jobID)

	// Les messages du client sont ignorés; la lecture détecte la déconnexion et traite les pongs
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(progressPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(progressPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeProgress(conn, event); err != nil {
				return
			}
			if event.IsFinal() {
				closeProgress(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(progressWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-disconnected:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeProgress(conn *websocket.Conn, event models.ProgressEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(progressWriteWait))
	return conn.WriteJSON(event)
}

func closeProgress(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(progressWriteWait))
}
