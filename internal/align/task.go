package align

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/isoalign/internal/feature"
	"github.com/banshee-data/isoalign/internal/monitoring"
	"github.com/banshee-data/isoalign/internal/timeutil"
)

var taskLogf = monitoring.Component("AlignTask")

// Status is the lifecycle state of a Task.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusProcessing Status = "PROCESSING"
	StatusFinished   Status = "FINISHED"
	StatusCanceled   Status = "CANCELED"
	StatusError      Status = "ERROR"
)

// Done reports whether s is a terminal state.
func (s Status) Done() bool {
	return s == StatusFinished || s == StatusCanceled || s == StatusError
}

// TaskState is a snapshot of a task for pollers.
type TaskState struct {
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Task runs one alignment and exposes its status, progress and result for
// polling. A task runs at most once.
type Task struct {
	aligner *Aligner
	lists   []*feature.PeakList
	clock   timeutil.Clock

	mu     sync.RWMutex
	state  TaskState
	result *AlignmentResult
	cancel context.CancelFunc
	done   chan struct{}
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithClock stamps StartedAt and CompletedAt from clock.
func WithClock(clock timeutil.Clock) TaskOption {
	return func(t *Task) { t.clock = clock }
}

// NewTask validates params and prepares a task over lists. Configuration
// errors are returned here, before anything runs.
func NewTask(lists []*feature.PeakList, params Params, extractor feature.Extractor, opts ...TaskOption) (*Task, error) {
	aligner, err := NewAligner(params, extractor)
	if err != nil {
		return nil, err
	}
	t := &Task{
		aligner: aligner,
		lists:   append([]*feature.PeakList(nil), lists...),
		clock:   timeutil.RealClock{},
		state:   TaskState{Status: StatusWaiting},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Description names the task for schedulers and logs.
func (t *Task) Description() string {
	return fmt.Sprintf("Join aligner, %d peak lists.", len(t.lists))
}

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Status
}

// Progress returns the fraction of samples processed, in [0,1].
func (t *Task) Progress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Progress
}

// ErrorMessage returns the failure message once the task is in ERROR.
func (t *Task) ErrorMessage() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Error
}

// State returns a copy of the current state.
func (t *Task) State() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Result returns the alignment and the parameters that produced it. The
// result is nil unless the task FINISHED.
func (t *Task) Result() (*AlignmentResult, Params) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result, t.aligner.Params()
}

// Done is closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel requests cooperative cancellation. A waiting task is canceled at
// once; a running task stops before its next sample.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.state.Status == StatusWaiting:
		t.finishLocked(StatusCanceled, "")
		taskLogf("Canceled before start: %s", t.Description())
	case t.cancel != nil:
		t.cancel()
	}
}

// Start runs the task in a background goroutine.
func (t *Task) Start(ctx context.Context) error {
	runCtx, err := t.begin(ctx)
	if err != nil {
		return err
	}
	go t.run(runCtx)
	return nil
}

// Run executes the task on the calling goroutine. It returns nil when the
// task FINISHED, the cancellation error when CANCELED, and the failure
// otherwise.
func (t *Task) Run(ctx context.Context) error {
	runCtx, err := t.begin(ctx)
	if err != nil {
		return err
	}
	return t.run(runCtx)
}

// begin moves WAITING to PROCESSING.
func (t *Task) begin(ctx context.Context) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state.Status {
	case StatusWaiting:
	case StatusCanceled:
		return nil, context.Canceled
	default:
		return nil, ErrTaskStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	now := t.clock.Now()
	t.state.Status = StatusProcessing
	t.state.StartedAt = &now
	return runCtx, nil
}

func (t *Task) run(ctx context.Context) error {
	taskLogf("Started: %s", t.Description())

	res, err := t.aligner.Align(ctx, t.lists, t.setProgress)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	switch {
	case err == nil:
		t.result = res
		t.finishLocked(StatusFinished, "")
		taskLogf("Finished: %d output rows", len(res.Rows))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		t.finishLocked(StatusCanceled, "")
		taskLogf("Canceled at %.0f%%", t.state.Progress*100)
	default:
		t.finishLocked(StatusError, err.Error())
		taskLogf("Failed: %v", err)
	}
	return err
}

// setProgress keeps progress monotonic.
func (t *Task) setProgress(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fraction > t.state.Progress {
		t.state.Progress = fraction
	}
}

func (t *Task) finishLocked(status Status, msg string) {
	now := t.clock.Now()
	t.state.Status = status
	t.state.Error = msg
	t.state.CompletedAt = &now
	close(t.done)
}
