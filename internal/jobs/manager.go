package jobs

import (
	"fmt"
	"sync"

	"line-sieve/internal/domain"
)

// Manager tracks the single current job and its transitions.
// Starting a job while another is active supersedes the older one.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start makes jobID the current job in pending state.
// It returns the previous job and whether that job was superseded.
func (m *Manager) Start(jobID string, opts domain.ProcessingOptions) (domain.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.current
	superseded := isActive(prev.Status)
	if superseded {
		prev.Status = domain.JobStatusSuperseded
	}

	m.current = domain.Job{
		ID:      jobID,
		Status:  domain.JobStatusPending,
		Options: opts,
	}
	return prev, superseded
}

// Transition validates and applies a state change for jobID.
func (m *Manager) Transition(jobID string, status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCurrent(jobID); err != nil {
		return err
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Progress records a running job's percentage; lower values are rejected.
func (m *Manager) Progress(jobID string, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCurrent(jobID); err != nil {
		return err
	}
	if m.current.Status != domain.JobStatusRunning {
		return fmt.Errorf("progress for %s job", m.current.Status)
	}
	if percent < m.current.Progress {
		return fmt.Errorf("progress went backwards: %d -> %d", m.current.Progress, percent)
	}

	m.current.Progress = percent
	return nil
}

// Complete moves a running job to completed and records the result size.
func (m *Manager) Complete(jobID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCurrent(jobID); err != nil {
		return err
	}
	if !isValidTransition(m.current.Status, domain.JobStatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current.Status, domain.JobStatusCompleted)
	}

	m.current.Status = domain.JobStatusCompleted
	m.current.Progress = 100
	m.current.Count = count
	return nil
}

// Fail moves an active job to failed and records the reason.
func (m *Manager) Fail(jobID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCurrent(jobID); err != nil {
		return err
	}
	if !isValidTransition(m.current.Status, domain.JobStatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current.Status, domain.JobStatusFailed)
	}

	m.current.Status = domain.JobStatusFailed
	m.current.Error = reason
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether the current job is pending or running.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.Status)
}

// checkCurrent requires jobID to identify the current job. Caller holds mu.
func (m *Manager) checkCurrent(jobID string) error {
	if m.current.ID == "" || m.current.ID != jobID {
		return ErrStaleJob
	}
	return nil
}

// isActive checks if a status represents a job that may still emit events.
func isActive(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusPending, domain.JobStatusRunning:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusPending:
		return to == domain.JobStatusRunning || to == domain.JobStatusFailed || to == domain.JobStatusSuperseded
	case domain.JobStatusRunning:
		return to == domain.JobStatusCompleted || to == domain.JobStatusFailed || to == domain.JobStatusSuperseded
	default:
		return false
	}
}
