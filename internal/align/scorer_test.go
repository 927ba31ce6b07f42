package align

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowAt(charge int, mz, rt float64) *MasterRow {
	store := NewRowStore()
	id := store.Create("seed", pat(charge, mz, rt, 1))
	return store.Row(id)
}

func TestScorer_ChargeIsolation(t *testing.T) {
	t.Parallel()

	s := NewScorer(testParams())
	row := rowAt(1, 300.0, 60.0)

	got := s.Score(row, pat(2, 300.0, 60.0, 2))
	assert.False(t, got.Acceptable)
	assert.True(t, math.IsInf(got.Value, 1))

	got = s.Score(row, pat(1, 300.0, 60.0, 2))
	assert.True(t, got.Acceptable)
	assert.Equal(t, 0.0, got.Value)
}

func TestScorer_MZGateIsStrict(t *testing.T) {
	t.Parallel()

	s := NewScorer(Params{MZTolerance: 0.01, RT: AbsoluteRT(5), MZRTBalance: 1})

	t.Run("just inside", func(t *testing.T) {
		row := rowAt(1, 100.0, 60.0)
		got := s.Score(row, pat(1, 100.0099, 60.0, 1))
		assert.True(t, got.Acceptable)
	})

	t.Run("exactly at tolerance", func(t *testing.T) {
		row := rowAt(1, 0.0, 60.0)
		got := s.Score(row, pat(1, 0.01, 60.0, 1))
		assert.False(t, got.Acceptable)
		assert.True(t, math.IsInf(got.Value, 1))
	})
}

func TestScorer_RTGate(t *testing.T) {
	t.Parallel()

	t.Run("absolute", func(t *testing.T) {
		s := NewScorer(Params{MZTolerance: 1, RT: AbsoluteRT(5), MZRTBalance: 1})
		row := rowAt(1, 200, 100)
		assert.True(t, s.Score(row, pat(1, 200, 104.5, 1)).Acceptable)
		assert.False(t, s.Score(row, pat(1, 200, 105, 1)).Acceptable)
		assert.False(t, s.Score(row, pat(1, 200, 94, 1)).Acceptable)
	})

	t.Run("relative uses mean of both retention times", func(t *testing.T) {
		s := NewScorer(Params{MZTolerance: 1, RT: RelativeRT(0.05), MZRTBalance: 1})
		row := rowAt(1, 200, 100)
		// window = 0.05 * 0.5 * (100 + 104) = 5.1
		assert.True(t, s.Score(row, pat(1, 200, 104, 1)).Acceptable)
		// window = 0.05 * 0.5 * (100 + 110) = 5.25
		assert.False(t, s.Score(row, pat(1, 200, 110, 1)).Acceptable)
	})
}

func TestScorer_Cost(t *testing.T) {
	t.Parallel()

	s := NewScorer(Params{MZTolerance: 0.05, RT: AbsoluteRT(10), MZRTBalance: 10})
	row := rowAt(1, 300.0, 60.0)

	got := s.Score(row, pat(1, 300.005, 64.0, 3))
	require.True(t, got.Acceptable)
	assert.InDelta(t, 10*0.005+4.0, got.Value, 1e-9)

	closer := s.Score(row, pat(1, 300.001, 61.0, 1))
	require.True(t, closer.Acceptable)
	assert.Less(t, closer.Value, got.Value)
}

func TestRTTolerance_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "15", AbsoluteRT(15).String())
	assert.Equal(t, "5%", RelativeRT(0.05).String())
}
