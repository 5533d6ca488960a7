package domain

import "time"

type Status string

const (
	// Scheduled jobs wait in the eta set until due.
	Scheduled Status = "scheduled"
	// Queued jobs are on the ready list; the scheduler moves due
	// Scheduled jobs here.
	Queued Status = "queued"
)

// Job is the persisted record of one unit of work. Queue limits are copied
// from the queue.Definition at enqueue time so later config changes do not
// alter jobs already in flight.
type Job struct {
	ID          string
	Queue       string
	Prefix      string
	Priority    int
	Payload     []byte
	ETA         time.Time
	Attempt     int
	MaxRetries  *int
	SoftTimeout *time.Duration
	HardTimeout *time.Duration
	Status      Status
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
