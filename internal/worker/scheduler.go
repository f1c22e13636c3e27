// internal/worker/scheduler.go
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/jobs"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
	"github.com/Open-Course-Factory/ocf-coursegen/internal/progress"
	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"

	"github.com/google/uuid"
)

// ErrAlreadyStarted est renvoyé par un second appel à Run
var ErrAlreadyStarted = errors.New("scheduler already started")

const (
	statusIdle    = "idle"
	statusBusy    = "busy"
	statusStopped = "stopped"
)

// DefaultPollInterval est l'attente entre deux recherches de job quand la file est vide
const DefaultPollInterval = 5 * time.Second

// Processor traite un job réclamé
type Processor interface {
	ProcessJob(ctx context.Context, job *models.Job, onStep StepFunc) *JobResult
}

// Scheduler traite les jobs en file un par un, du plus ancien au plus récent.
// Une seule boucle tourne par processus; Wake la réveille sans attendre l'intervalle.
type Scheduler struct {
	jobService   jobs.JobService
	processor    Processor
	publisher    progress.Publisher
	pollInterval time.Duration
	log          *logger.Logger

	wake     chan struct{}
	stopCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	// État courant - protégé par mutex
	mu           sync.RWMutex
	status       string
	currentJobID uuid.UUID
	currentStep  string
	lastPollAt   time.Time

	// Statistiques - atomic pour éviter les locks
	jobsTotal     int64
	jobsSuccess   int64
	jobsFailed    int64
	jobsCancelled int64
}

// NewScheduler crée le scheduler; publisher peut être nil
func NewScheduler(jobService jobs.JobService, processor Processor, publisher progress.Publisher, pollInterval time.Duration, log *logger.Logger) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		jobService:   jobService,
		processor:    processor,
		publisher:    publisher,
		pollInterval: pollInterval,
		log:          log.Named("scheduler"),
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		status:       statusStopped,
	}
}

// Wake signale qu'un job vient d'être mis en file. N'attend jamais.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run exécute la boucle jusqu'à l'annulation du contexte ou l'appel à Stop.
// Un second appel retourne ErrAlreadyStarted.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if _, err := s.jobService.RecoverInterrupted(ctx); err != nil {
		s.log.Warnf("Scheduler.Run: %v", err)
	}

	s.setState(statusIdle, uuid.Nil, "")
	s.log.Infof("Scheduler.Run: started (poll interval: %v)", s.pollInterval)
	defer func() {
		s.setState(statusStopped, uuid.Nil, "")
		s.log.Info("Scheduler.Run: stopped")
	}()

	for {
		if s.stopping(ctx) {
			return nil
		}

		job, err := s.jobService.ClaimNextJob(ctx)
		s.markPoll()
		if err != nil && ctx.Err() == nil {
			s.log.Errorf("Scheduler.Run: error polling jobs: %v", err)
		}
		if job != nil {
			s.processJob(ctx, job)
			continue
		}

		wait := time.NewTimer(s.pollInterval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil
		case <-s.stopCh:
			wait.Stop()
			return nil
		case <-s.wake:
			wait.Stop()
		case <-wait.C:
		}
	}
}

// Stop arrête la boucle après le job en cours
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Scheduler) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// processJob traite un job et met à jour les statistiques
func (s *Scheduler) processJob(ctx context.Context, job *models.Job) {
	s.setState(statusBusy, job.ID, job.ProcessingStep)
	atomic.AddInt64(&s.jobsTotal, 1)
	s.publish(job.ID, models.StatusProcessing, models.Progress{Detail: job.ProcessingStep}, "")

	result := s.processor.ProcessJob(ctx, job, func(job *models.Job, p models.Progress) {
		s.setStep(p.Detail)
		s.publish(job.ID, models.StatusProcessing, p, "")
	})

	switch {
	case result.Success:
		atomic.AddInt64(&s.jobsSuccess, 1)
		s.publish(job.ID, models.StatusReady, models.Progress{Stage: models.StageComplete, Detail: "Complete!"}, "")
	case result.Cancelled:
		atomic.AddInt64(&s.jobsCancelled, 1)
	default:
		atomic.AddInt64(&s.jobsFailed, 1)
		if result.ErrorDetail != "" {
			s.publish(job.ID, models.StatusError, models.Progress{}, result.ErrorDetail)
		}
	}

	s.setState(statusIdle, uuid.Nil, "")
}

func (s *Scheduler) publish(jobID uuid.UUID, status models.JobStatus, p models.Progress, errMsg string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(models.ProgressEvent{
		JobID:  jobID.String(),
		Status: status,
		Stage:  p.Stage,
		Step:   p.Detail,
		Error:  errMsg,
	})
}

// setState met à jour l'état du scheduler de manière atomique
func (s *Scheduler) setState(status string, jobID uuid.UUID, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	s.currentJobID = jobID
	s.currentStep = step
}

func (s *Scheduler) setStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentStep = step
}

func (s *Scheduler) markPoll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPollAt = time.Now()
}

// getState retourne l'état actuel du scheduler
func (s *Scheduler) getState() (string, uuid.UUID, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status, s.currentJobID, s.currentStep
}

// GetStats retourne les statistiques du scheduler
func (s *Scheduler) GetStats(ctx context.Context) models.SchedulerStats {
	status, currentJobID, currentStep := s.getState()

	stats := models.SchedulerStats{
		Running:       status != statusStopped,
		Status:        status,
		CurrentStep:   currentStep,
		JobsTotal:     atomic.LoadInt64(&s.jobsTotal),
		JobsSuccess:   atomic.LoadInt64(&s.jobsSuccess),
		JobsFailed:    atomic.LoadInt64(&s.jobsFailed),
		JobsCancelled: atomic.LoadInt64(&s.jobsCancelled),
	}
	if currentJobID != uuid.Nil {
		stats.CurrentJobID = currentJobID.String()
	}

	s.mu.RLock()
	if !s.lastPollAt.IsZero() {
		last := s.lastPollAt
		stats.LastPollAt = &last
	}
	s.mu.RUnlock()

	if queued, err := s.jobService.CountQueued(ctx); err == nil {
		stats.QueuedJobs = queued
	}
	return stats
}
