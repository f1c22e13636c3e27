package models

import "time"

// SchedulerStats représente les statistiques du scheduler de jobs
// @Description Statistiques du scheduler (un seul job traité à la fois)
type SchedulerStats struct {
	Running       bool       `json:"running" example:"true"`
	Status        string     `json:"status" example:"busy" enums:"idle,busy,stopped"`
	CurrentJobID  string     `json:"current_job_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	CurrentStep   string     `json:"current_step,omitempty" example:"Generating lesson 3/10: Variables..."`
	QueuedJobs    int64      `json:"queued_jobs" example:"4"`
	JobsTotal     int64      `json:"jobs_total" example:"150"`
	JobsSuccess   int64      `json:"jobs_success" example:"145"`
	JobsFailed    int64      `json:"jobs_failed" example:"3"`
	JobsCancelled int64      `json:"jobs_cancelled" example:"2"`
	LastPollAt    *time.Time `json:"last_poll_at,omitempty"`
} // @name SchedulerStats
