package feature

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPeakListCSV(t *testing.T) {
	in := `# exported peak list
RT,mz,Height,Area,pattern_id,charge,isotope_index
60.5,300.1,1200,8000,7,2,0
60.5,300.6,600,4000,7,2,1
75.0,412.2,90,300,,,
`
	list, err := ReadPeakListCSV(strings.NewReader(in), "qc1")
	require.NoError(t, err)
	assert.Equal(t, SampleID("qc1"), list.Sample)
	require.Len(t, list.Peaks, 3)

	assert.Equal(t, ListedPeak{
		Peak:         Peak{MZ: 300.6, RT: 60.5, Height: 600, Area: 4000},
		PatternID:    7,
		Charge:       2,
		IsotopeIndex: 1,
	}, list.Peaks[1])
	assert.Equal(t, int64(0), list.Peaks[2].PatternID)
	assert.Equal(t, 0, list.Peaks[2].Charge)

	patterns, err := GroupingExtractor{}.ExtractIsotopePatterns(context.Background(), list)
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, 2, patterns[0].Charge)
	assert.Equal(t, 2, patterns[0].Len())
	assert.Equal(t, 1, patterns[1].Charge)
}

func TestReadPeakListCSV_MinimalColumns(t *testing.T) {
	list, err := ReadPeakListCSV(strings.NewReader("mz,rt,height,area\n100,10,1,1\n"), "s")
	require.NoError(t, err)
	require.Len(t, list.Peaks, 1)
	assert.Equal(t, 100.0, list.Peaks[0].MZ)
}

func TestReadPeakListCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty peak list"},
		{"missing column", "mz,rt,height\n1,2,3\n", `missing column "area"`},
		{"bad float", "mz,rt,height,area\n100,abc,1,1\n", "line 2: column rt"},
		{"non-positive mz", "mz,rt,height,area\n0,1,1,1\n", "must be positive"},
		{"bad charge", "mz,rt,height,area,charge\n100,1,1,1,two\n", "column charge"},
		{"short record", "mz,rt,height,area\n100,1\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPeakListCSV(strings.NewReader(tt.in), "s")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
