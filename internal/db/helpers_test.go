package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/isoalign/internal/feature"
	"github.com/banshee-data/isoalign/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

// newTestDB opens a migrated database in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(filepath.Join(t.TempDir(), "align.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// testList builds a peak list with one two-peak pattern per m/z given.
func testList(sample string, mzs ...float64) *feature.PeakList {
	list := &feature.PeakList{Sample: feature.SampleID(sample)}
	for i, mz := range mzs {
		for iso := 0; iso < 2; iso++ {
			list.Peaks = append(list.Peaks, feature.ListedPeak{
				Peak:         feature.Peak{MZ: mz + float64(iso)*1.003, RT: 60 + float64(i), Height: 1000, Area: 5000},
				PatternID:    int64(i + 1),
				Charge:       1,
				IsotopeIndex: iso,
			})
		}
	}
	return list
}
