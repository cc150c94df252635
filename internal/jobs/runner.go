package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"line-sieve/internal/domain"
	"line-sieve/internal/lineset"
	"line-sieve/internal/logger"
)

// Engine computes one difference run. lineset.Engine satisfies it.
type Engine interface {
	Difference(ctx context.Context, req lineset.Request, onProgress func(percent int)) ([]string, error)
}

// Observer receives events for the current job only.
// It is called synchronously and must not call back into the Runner.
type Observer func(Event)

// Runner executes difference jobs off the caller's goroutine.
// At most one job is current; a new submission supersedes the old one and
// nothing the old job produces afterwards reaches the observer.
type Runner struct {
	engine  Engine
	manager *Manager
	observe Observer
	log     *logger.Logger
	newID   func() string

	// deliverMu orders event delivery against supersession and Close.
	deliverMu sync.Mutex
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
}

// NewRunner builds a runner. A nil engine yields ErrEngineUnavailable.
func NewRunner(engine Engine, manager *Manager, observe Observer, log *logger.Logger) (*Runner, error) {
	if engine == nil {
		return nil, ErrEngineUnavailable
	}
	if manager == nil {
		manager = NewManager()
	}
	if observe == nil {
		observe = func(Event) {}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Runner{
		engine:  engine,
		manager: manager,
		observe: observe,
		log:     log,
		newID:   func() string { return "job-" + uuid.NewString() },
	}, nil
}

// Submit validates the request, supersedes any active job, and starts a new
// one in the background. It returns the pending job without waiting.
func (r *Runner) Submit(req lineset.Request) (domain.Job, error) {
	if lineset.Trim(req.CandidateText) == "" {
		return domain.Job{}, &ValidationError{Field: "candidateText", Message: "candidate data is empty"}
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	if r.closed {
		return domain.Job{}, ErrEngineUnavailable
	}

	if r.cancel != nil {
		r.cancel()
	}

	jobID := r.newID()
	prev, superseded := r.manager.Start(jobID, req.Options)
	if superseded {
		r.log.Info().Str("job_id", prev.ID).Str("by", jobID).Msg("job superseded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	job := r.manager.Current()
	r.observe(Event{
		JobID:   jobID,
		Type:    EventTypeStatus,
		Status:  domain.JobStatusPending,
		Message: "Job submitted",
	})
	r.log.Debug().
		Str("job_id", jobID).
		Int("reference_bytes", len(req.ReferenceText)).
		Int("candidate_bytes", len(req.CandidateText)).
		Msg("job pending")

	r.wg.Add(1)
	go r.run(ctx, cancel, jobID, req)
	return job, nil
}

// Current returns the current job snapshot.
func (r *Runner) Current() domain.Job {
	return r.manager.Current()
}

// IsRunning reports whether the current job is still pending or running.
func (r *Runner) IsRunning() bool {
	return r.manager.IsRunning()
}

// Close stops accepting work, cancels the active job, and waits for the
// background goroutine to exit. No events are delivered after Close returns.
// Calling Close more than once is safe.
func (r *Runner) Close() {
	r.deliverMu.Lock()
	if r.closed {
		r.deliverMu.Unlock()
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if current := r.manager.Current(); isActive(current.Status) {
		_ = r.manager.Transition(current.ID, domain.JobStatusSuperseded)
	}
	r.deliverMu.Unlock()

	r.wg.Wait()
	r.log.Debug().Msg("runner closed")
}

// Abort ends the active job as failed with reason and delivers its terminal
// error event. It reports whether a job was aborted. The runner stays open.
func (r *Runner) Abort(reason string) bool {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	current := r.manager.Current()
	if r.closed || !isActive(current.Status) {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if err := r.manager.Fail(current.ID, reason); err != nil {
		r.log.Warn().Err(err).Str("job_id", current.ID).Msg("abort rejected")
		return false
	}

	r.observe(Event{
		JobID:     current.ID,
		Type:      EventTypeError,
		Status:    domain.JobStatusFailed,
		Message:   reason,
		ErrorKind: ErrorKindExecution,
	})
	r.log.Info().Str("job_id", current.ID).Str("reason", reason).Msg("job aborted")
	return true
}

// Wait blocks until no background job goroutine is alive.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// run drives one job from running to a terminal state.
func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, jobID string, req lineset.Request) {
	defer r.wg.Done()
	defer cancel()

	running := r.deliver(jobID, func() error {
		return r.manager.Transition(jobID, domain.JobStatusRunning)
	}, Event{
		JobID:   jobID,
		Type:    EventTypeStatus,
		Status:  domain.JobStatusRunning,
		Message: "Processing",
	})
	if !running {
		return
	}

	lines, err := r.execute(ctx, jobID, req)
	if ctx.Err() != nil {
		r.log.Debug().Str("job_id", jobID).Msg("dropping output of inactive job")
		return
	}

	if err != nil {
		execErr := &ExecutionError{JobID: jobID, Err: err}
		r.log.Error().Err(err).Str("job_id", jobID).Msg("job failed")
		r.deliver(jobID, func() error {
			return r.manager.Fail(jobID, err.Error())
		}, Event{
			JobID:     jobID,
			Type:      EventTypeError,
			Status:    domain.JobStatusFailed,
			Message:   execErr.Error(),
			ErrorKind: ErrorKindExecution,
		})
		return
	}

	r.deliver(jobID, func() error {
		return r.manager.Complete(jobID, len(lines))
	}, Event{
		JobID:   jobID,
		Type:    EventTypeDone,
		Status:  domain.JobStatusCompleted,
		Percent: 100,
		Lines:   lines,
		Count:   len(lines),
		Message: fmt.Sprintf("Found %d unique items", len(lines)),
	})
	r.log.Debug().Str("job_id", jobID).Int("count", len(lines)).Msg("job completed")
}

// execute invokes the engine and converts panics into errors.
func (r *Runner) execute(ctx context.Context, jobID string, req lineset.Request) (lines []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lines = nil
			err = fmt.Errorf("engine panic: %v", rec)
		}
	}()

	lines, err = r.engine.Difference(ctx, req, func(percent int) {
		r.deliver(jobID, func() error {
			return r.manager.Progress(jobID, percent)
		}, Event{
			JobID:   jobID,
			Type:    EventTypeProgress,
			Status:  domain.JobStatusRunning,
			Percent: percent,
		})
	})
	if err == nil && lines == nil {
		lines = []string{}
	}
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		err = fmt.Errorf("engine cancelled unexpectedly: %w", err)
	}
	return lines, err
}

// deliver applies a state change and emits event only while jobID is current
// and the runner is open. It reports whether the event was delivered.
func (r *Runner) deliver(jobID string, apply func() error, event Event) bool {
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	if r.closed {
		return false
	}
	if err := apply(); err != nil {
		if !errors.Is(err, ErrStaleJob) {
			r.log.Warn().Err(err).Str("job_id", jobID).Str("event", string(event.Type)).Msg("event rejected")
		}
		return false
	}

	r.observe(event)
	return true
}
