package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/isoalign/internal/feature"
)

func TestAssemble_ExpandsIsotopePositions(t *testing.T) {
	t.Parallel()

	long := pat(1, 300.0, 60, 3)
	short := pat(1, 300.001, 60.5, 1)

	store := NewRowStore()
	id := store.Create("a", long)
	store.Assign(id, "b", short)
	require.Equal(t, 3, store.Row(id).MaxPatternLength)

	res := assemble(store, []feature.SampleID{"a", "b"})
	require.Len(t, res.Rows, 3)
	assert.Equal(t, ResultName, res.Name)
	assert.Equal(t, []feature.SampleID{"a", "b"}, res.Samples)

	for i, row := range res.Rows {
		assert.Equal(t, id, row.MasterRow)
		assert.Equal(t, i, row.IsotopeIndex)
		assert.Equal(t, 1, row.Pattern.Charge)
		assert.Empty(t, row.Pattern.Peaks)

		p, ok := row.Peak("a")
		require.True(t, ok)
		assert.Equal(t, long.Peaks[i], p)
	}

	p, ok := res.Rows[0].Peak("b")
	require.True(t, ok)
	assert.Equal(t, short.Peaks[0], p)

	for _, row := range res.Rows[1:] {
		_, ok := row.Peak("b")
		assert.False(t, ok)
		assert.Len(t, row.Peaks, 1)
	}
}

func TestAssemble_RowOrder(t *testing.T) {
	t.Parallel()

	store := NewRowStore()
	store.Create("a", pat(2, 500, 10, 2))
	store.Create("a", pat(1, 100, 20, 1))
	store.Create("b", pat(1, 900, 30, 2))

	res := assemble(store, []feature.SampleID{"a", "b"})

	type key struct {
		row RowID
		iso int
	}
	var got []key
	for _, r := range res.Rows {
		got = append(got, key{r.MasterRow, r.IsotopeIndex})
	}
	assert.Equal(t, []key{{0, 0}, {0, 1}, {1, 0}, {2, 0}, {2, 1}}, got)
	assert.Equal(t, 2, res.Rows[0].Pattern.Charge)
	assert.Equal(t, 1, res.Rows[2].Pattern.Charge)
}

func TestAssemble_Empty(t *testing.T) {
	t.Parallel()

	res := assemble(NewRowStore(), []feature.SampleID{"a"})
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.Summary.MasterRows)
	assert.Equal(t, 0.0, res.Summary.MeanSamplesPerRow)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	store := NewRowStore()
	id := store.Create("a", pat(1, 100.0, 50, 2))
	store.Assign(id, "b", pat(1, 100.2, 52, 1))
	store.Assign(id, "c", pat(1, 100.1, 51, 1))
	store.Create("b", pat(1, 400.0, 90, 1))

	s := summarize(store, []feature.SampleID{"a", "b", "c"}, 3)

	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 4, s.Patterns)
	assert.Equal(t, 2, s.MasterRows)
	assert.Equal(t, 3, s.OutputRows)
	assert.Equal(t, 1, s.SingletonRows)
	assert.Equal(t, 1, s.CompleteRows)
	assert.InDelta(t, 2.0, s.MeanSamplesPerRow, 1e-12)

	// Deviations from centroid (100.1, 51): row 0 gives 0.1, 0.1, 0 and
	// 1, 1, 0; the singleton row adds a zero to each.
	assert.InDelta(t, 0.05, s.MZDeviationMean, 1e-9)
	assert.InDelta(t, 0.5, s.RTDeviationMean, 1e-9)
	assert.Greater(t, s.MZDeviationStdDev, 0.0)

	require.Len(t, s.Coverage, 3)
	assert.Equal(t, SampleCoverage{Sample: "a", Rows: 1, Fraction: 0.5}, s.Coverage[0])
	assert.Equal(t, SampleCoverage{Sample: "b", Rows: 2, Fraction: 1}, s.Coverage[1])
	assert.Equal(t, SampleCoverage{Sample: "c", Rows: 1, Fraction: 0.5}, s.Coverage[2])
}

func TestMeanStdDev(t *testing.T) {
	t.Parallel()

	m, s := meanStdDev(nil)
	assert.Equal(t, 0.0, m)
	assert.Equal(t, 0.0, s)

	m, s = meanStdDev([]float64{3})
	assert.Equal(t, 3.0, m)
	assert.Equal(t, 0.0, s)

	m, s = meanStdDev([]float64{2, 4})
	assert.Equal(t, 3.0, m)
	assert.InDelta(t, 1.41421356, s, 1e-6)
}
