package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/isoalign/internal/align"
	"github.com/banshee-data/isoalign/internal/feature"
	"github.com/banshee-data/isoalign/internal/timeutil"
)

func newTestTask(t *testing.T, extractor feature.Extractor) (*align.Task, []feature.SampleID) {
	t.Helper()
	lists := []*feature.PeakList{testList("a", 100, 200), testList("b", 100.01, 300)}
	task, err := align.NewTask(lists, align.DefaultParams(), extractor)
	require.NoError(t, err)
	return task, []feature.SampleID{"a", "b"}
}

func TestRunManager_Completed(t *testing.T) {
	d := newTestDB(t)
	m := NewRunManager(d)
	task, samples := newTestTask(t, feature.GroupingExtractor{})

	runID, err := m.StartRun(task, samples)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err)

	id, ok := m.ActiveRunID(task)
	assert.True(t, ok)
	assert.Equal(t, runID, id)

	run, err := d.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, "Join aligner, 2 peak lists.", run.Description)

	require.NoError(t, task.Run(context.Background()))
	require.NoError(t, m.Finish(task))

	run, err = d.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 6, run.OutputRows)

	_, ok = m.ActiveRunID(task)
	assert.False(t, ok)
	assert.Error(t, m.Finish(task))
}

func TestRunManager_Failed(t *testing.T) {
	d := newTestDB(t)
	m := NewRunManager(d)
	task, samples := newTestTask(t, feature.ExtractorFunc(
		func(context.Context, *feature.PeakList) ([]feature.IsotopePattern, error) {
			return nil, errors.New("detector offline")
		}))

	runID, err := m.StartRun(task, samples)
	require.NoError(t, err)
	assert.Error(t, task.Run(context.Background()))
	require.NoError(t, m.Finish(task))

	run, err := d.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "detector offline")
}

func TestRunManager_Canceled(t *testing.T) {
	d := newTestDB(t)
	m := NewRunManager(d)
	task, samples := newTestTask(t, feature.GroupingExtractor{})

	runID, err := m.StartRun(task, samples)
	require.NoError(t, err)
	task.Cancel()
	require.NoError(t, m.Finish(task))

	run, err := d.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, RunCanceled, run.Status)
}

func TestRunManager_NotDone(t *testing.T) {
	d := newTestDB(t)
	m := NewRunManager(d)
	task, samples := newTestTask(t, feature.GroupingExtractor{})

	_, err := m.StartRun(task, samples)
	require.NoError(t, err)
	_, err = m.StartRun(task, samples)
	assert.Error(t, err)

	assert.ErrorContains(t, m.Finish(task), "still WAITING")
	_, ok := m.ActiveRunID(task)
	assert.True(t, ok)
}

func TestRunManager_ClockTiming(t *testing.T) {
	d := newTestDB(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	m := NewRunManagerWithClock(d, clock)
	task, samples := newTestTask(t, feature.GroupingExtractor{})

	runID, err := m.StartRun(task, samples)
	require.NoError(t, err)
	require.NoError(t, task.Run(context.Background()))
	clock.Advance(2500 * time.Millisecond)
	require.NoError(t, m.Finish(task))

	run, err := d.GetRun(runID)
	require.NoError(t, err)
	assert.True(t, run.CreatedAt.Equal(start))
	assert.InDelta(t, 2.5, run.DurationSecs, 1e-9)
	require.NotNil(t, run.CompletedAt)
	assert.True(t, run.CompletedAt.Equal(start.Add(2500*time.Millisecond)))
}

func TestRunManager_ClockOnFailure(t *testing.T) {
	d := newTestDB(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	m := NewRunManagerWithClock(d, clock)
	task, samples := newTestTask(t, feature.ExtractorFunc(
		func(context.Context, *feature.PeakList) ([]feature.IsotopePattern, error) {
			return nil, errors.New("detector offline")
		}))

	runID, err := m.StartRun(task, samples)
	require.NoError(t, err)
	assert.Error(t, task.Run(context.Background()))
	clock.Advance(time.Minute)
	require.NoError(t, m.Finish(task))

	run, err := d.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run.CompletedAt)
	assert.True(t, run.CompletedAt.Equal(start.Add(time.Minute)))
	assert.InDelta(t, 60.0, run.DurationSecs, 1e-9)
}
