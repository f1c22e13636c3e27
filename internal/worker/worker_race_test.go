// internal/worker/worker_race_test.go - Test des race conditions

package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestSchedulerStateConsistency teste la cohérence de l'état du scheduler
func TestSchedulerStateConsistency(t *testing.T) {
	scheduler := NewScheduler(nil, nil, nil, 0, nil)

	// Nombre de goroutines concurrentes
	const numGoroutines = 100
	const numOperations = 1000

	var wg sync.WaitGroup
	var inconsistencies int64

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < numOperations; j++ {
				jobID := uuid.New()

				scheduler.setState(statusBusy, jobID, "Downloading PDF...")

				// Un scheduler occupé a toujours un job courant
				status, currentJobID, _ := scheduler.getState()
				if status == statusBusy && currentJobID == uuid.Nil {
					atomic.AddInt64(&inconsistencies, 1)
				}

				scheduler.setStep("Generating lesson 1/3: Basics...")
				scheduler.setState(statusIdle, uuid.Nil, "")

				status, currentJobID, _ = scheduler.getState()
				if status == statusIdle && currentJobID != uuid.Nil {
					atomic.AddInt64(&inconsistencies, 1)
				}
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(0), inconsistencies, "Detected state inconsistencies")
}

// TestSchedulerStatisticsAtomic teste que les statistiques sont thread-safe
func TestSchedulerStatisticsAtomic(t *testing.T) {
	env := newTestEnv(t)
	scheduler := NewScheduler(env.jobs, nil, nil, 0, nil)

	const numGoroutines = 50
	const numIncrements = 1000

	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < numIncrements; j++ {
				atomic.AddInt64(&scheduler.jobsTotal, 1)

				switch j % 4 {
				case 0, 1:
					atomic.AddInt64(&scheduler.jobsSuccess, 1)
				case 2:
					atomic.AddInt64(&scheduler.jobsFailed, 1)
				default:
					atomic.AddInt64(&scheduler.jobsCancelled, 1)
				}
			}
		}()
	}

	wg.Wait()

	stats := scheduler.GetStats(context.Background())
	expectedTotal := int64(numGoroutines * numIncrements)

	assert.Equal(t, expectedTotal, stats.JobsTotal)
	assert.Equal(t, expectedTotal/2, stats.JobsSuccess)
	assert.Equal(t, expectedTotal/4, stats.JobsFailed)
	assert.Equal(t, expectedTotal/4, stats.JobsCancelled)
	assert.Equal(t, statusStopped, stats.Status)
	assert.False(t, stats.Running)
}

// BenchmarkSchedulerStateOperations benchmark les opérations d'état
func BenchmarkSchedulerStateOperations(b *testing.B) {
	scheduler := NewScheduler(nil, nil, nil, 0, nil)
	jobID := uuid.New()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			scheduler.setState(statusBusy, jobID, "Saving course to database...")
			scheduler.getState()
			scheduler.setState(statusIdle, uuid.Nil, "")
		}
	})
}
