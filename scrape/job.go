// Package scrape is the batch engine shared by every web-service client in
// the library.  It owns job lifecycle tracking, the bounded worker pool
// with retry and rate-limit polling, ordered result tables with spreadsheet
// export, and the auto-resume checkpoint store.
package scrape

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a scrape job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusPolling   Status = "polling"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// validTransitions encodes the job state machine.  Polling may loop back to
// submitted when the remote service accepts a resubmission.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusSubmitted, StatusFailed},
	StatusSubmitted: {StatusPolling, StatusComplete, StatusFailed},
	StatusPolling:   {StatusPolling, StatusSubmitted, StatusComplete, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job tracks one identifier through the scrape lifecycle.  A Job belongs to
// a single worker goroutine at a time; the engine never shares a live Job
// across workers.
type Job struct {
	// ID uniquely identifies the job within the process.
	ID string

	// Identifier is the input the job was created for, a SMILES string or
	// a search keyword depending on the service.
	Identifier string

	Status Status

	// Attempts counts work-function invocations, including retries.
	Attempts int

	// RemoteJobID is the server-side handle for services that process
	// asynchronously, empty otherwise.
	RemoteJobID string

	SubmittedAt time.Time
	CompletedAt time.Time

	// Err records the terminal failure for StatusFailed jobs.
	Err error
}

// NewJob creates a pending job for an identifier.
func NewJob(identifier string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Status:     StatusPending,
	}
}

// transition moves the job to a new status if the state machine allows it.
// Invalid transitions are ignored so a late worker cannot resurrect a
// terminal job.
func (j *Job) transition(to Status) bool {
	if j.Status == to {
		return true
	}
	if !canTransition(j.Status, to) {
		return false
	}
	j.Status = to
	return true
}

func (j *Job) markSubmitted() {
	if j.transition(StatusSubmitted) && j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now()
	}
}

func (j *Job) markPolling() { j.transition(StatusPolling) }

func (j *Job) markComplete() {
	if j.transition(StatusComplete) {
		j.CompletedAt = time.Now()
	}
}

func (j *Job) markFailed(err error) {
	if j.transition(StatusFailed) {
		j.Err = err
		j.CompletedAt = time.Now()
	}
}
