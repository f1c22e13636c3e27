package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Open-Course-Factory/ocf-coursegen/internal/logger"
)

// CleanupService supprime périodiquement les jobs en erreur trop anciens
type CleanupService struct {
	jobService JobService
	interval   time.Duration
	maxAge     time.Duration
	log        *logger.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewCleanupService(jobService JobService, interval, maxAge time.Duration, log *logger.Logger) *CleanupService {
	if log == nil {
		log = logger.Nop()
	}
	return &CleanupService{
		jobService: jobService,
		interval:   interval,
		maxAge:     maxAge,
		log:        log.Named("cleanup"),
		stopCh:     make(chan struct{}),
	}
}

// Start bloque jusqu'à l'annulation du contexte ou l'appel à Stop
func (c *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Infof("CleanupService.Start: started (interval: %v, max age: %v)", c.interval, c.maxAge)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("CleanupService.Start: stopped due to context cancellation")
			return
		case <-c.stopCh:
			c.log.Info("CleanupService.Start: stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce effectue un passage de nettoyage
func (c *CleanupService) RunOnce(ctx context.Context) int64 {
	deleted, err := c.jobService.CleanupOldJobs(ctx, c.maxAge)
	if err != nil {
		c.log.Errorf("CleanupService.RunOnce: cleanup error: %v", err)
		return 0
	}
	if deleted > 0 {
		c.log.Infof("CleanupService.RunOnce: %d jobs removed", deleted)
	}
	return deleted
}

func (c *CleanupService) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
