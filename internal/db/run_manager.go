package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/isoalign/internal/align"
	"github.com/banshee-data/isoalign/internal/feature"
	"github.com/banshee-data/isoalign/internal/monitoring"
	"github.com/banshee-data/isoalign/internal/timeutil"
)

var runLogf = monitoring.Component("RunManager")

// RunManager records the lifecycle of alignment tasks in the database.
// It is safe for concurrent use.
type RunManager struct {
	db    *DB
	clock timeutil.Clock

	mu     sync.Mutex
	active map[*align.Task]*activeRun
}

type activeRun struct {
	id      string
	started time.Time
}

// NewRunManager creates a manager writing to db.
func NewRunManager(db *DB) *RunManager {
	return NewRunManagerWithClock(db, timeutil.RealClock{})
}

// NewRunManagerWithClock creates a manager that timestamps runs with clock.
func NewRunManagerWithClock(db *DB, clock timeutil.Clock) *RunManager {
	return &RunManager{db: db, clock: clock, active: make(map[*align.Task]*activeRun)}
}

// StartRun records task as running over samples and returns the new run ID.
func (m *RunManager) StartRun(task *align.Task, samples []feature.SampleID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[task]; ok {
		return "", fmt.Errorf("task already has an active run")
	}

	_, params := task.Result()
	run := &AlignmentRun{
		RunID:       uuid.New().String(),
		CreatedAt:   m.clock.Now(),
		Description: task.Description(),
		Status:      RunRunning,
		Params:      params,
		SampleIDs:   samples,
	}
	if err := m.db.InsertRun(run); err != nil {
		return "", err
	}

	m.active[task] = &activeRun{id: run.RunID, started: run.CreatedAt}
	runLogf("Started run %s: %s", run.RunID, run.Description)
	return run.RunID, nil
}

// Finish stores the outcome of a task that has reached a terminal state.
func (m *RunManager) Finish(task *align.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ar, ok := m.active[task]
	if !ok {
		return fmt.Errorf("task has no active run")
	}

	state := task.State()
	if !state.Status.Done() {
		return fmt.Errorf("run %s: task is still %s", ar.id, state.Status)
	}
	delete(m.active, task)
	finished := m.clock.Now()
	elapsed := finished.Sub(ar.started)

	switch state.Status {
	case align.StatusFinished:
		res, _ := task.Result()
		if err := m.db.CompleteRun(ar.id, res, elapsed, finished); err != nil {
			return err
		}
		runLogf("Completed run %s: %d master rows, %d output rows in %.2fs",
			ar.id, res.Summary.MasterRows, len(res.Rows), elapsed.Seconds())
	case align.StatusCanceled:
		if err := m.db.UpdateRunStatus(ar.id, RunCanceled, "", elapsed, finished); err != nil {
			return err
		}
		runLogf("Canceled run %s after %.2fs", ar.id, elapsed.Seconds())
	default:
		if err := m.db.UpdateRunStatus(ar.id, RunFailed, state.Error, elapsed, finished); err != nil {
			return err
		}
		runLogf("Failed run %s: %s", ar.id, state.Error)
	}
	return nil
}

// ActiveRunID returns the run ID recorded for task, if any.
func (m *RunManager) ActiveRunID(task *align.Task) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ar, ok := m.active[task]
	if !ok {
		return "", false
	}
	return ar.id, true
}
