package service

import (
	"sync"

	"tgparser/internal/domain"
)

// Job tracks one end-to-end membership enumeration. It is owned by a single
// GetMembers call; other goroutines may only poll its state and progress, and
// intermediate progress values may be lost (last value wins).
type Job struct {
	groupID string

	mu       sync.Mutex
	state    domain.JobState
	progress int
	attempt  int
	lastErr  error
}

func newJob(groupID string) *Job {
	return &Job{groupID: groupID, state: domain.JobInit}
}

// State returns the job's current lifecycle state
func (j *Job) State() domain.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Progress returns the completion percentage, 0..100
func (j *Job) Progress() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// Attempt returns the current attempt number, 1-based
func (j *Job) Attempt() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempt
}

// LastError returns the error the job failed with, nil otherwise
func (j *Job) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

func (j *Job) setState(s domain.JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = s
}

func (j *Job) setProgress(p int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = p
}

func (j *Job) setAttempt(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempt = n
}

// reset discards accumulated progress before a whole-job restart
func (j *Job) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = 0
}

func (j *Job) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = domain.JobDone
	j.progress = 100
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = domain.JobFailed
	j.lastErr = err
}
