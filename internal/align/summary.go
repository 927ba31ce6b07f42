package align

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/isoalign/internal/feature"
)

// SampleCoverage is the share of master rows a sample contributed to.
type SampleCoverage struct {
	Sample   feature.SampleID `json:"sample"`
	Rows     int              `json:"rows"`
	Fraction float64          `json:"fraction"`
}

// Summary describes the quality of an alignment.
type Summary struct {
	Samples    int `json:"samples"`
	Patterns   int `json:"patterns"`
	MasterRows int `json:"master_rows"`
	OutputRows int `json:"output_rows"`
	// SingletonRows holds a pattern from one sample only; CompleteRows
	// has a pattern from every sample.
	SingletonRows     int     `json:"singleton_rows"`
	CompleteRows      int     `json:"complete_rows"`
	MeanSamplesPerRow float64 `json:"mean_samples_per_row"`

	// Absolute deviation of each assigned monoisotopic peak from its
	// row's final centroid.
	MZDeviationMean   float64 `json:"mz_deviation_mean"`
	MZDeviationStdDev float64 `json:"mz_deviation_stddev"`
	RTDeviationMean   float64 `json:"rt_deviation_mean"`
	RTDeviationStdDev float64 `json:"rt_deviation_stddev"`

	Coverage []SampleCoverage `json:"coverage"`
}

func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

func summarize(store *RowStore, samples []feature.SampleID, outputRows int) Summary {
	s := Summary{
		Samples:    len(samples),
		MasterRows: store.Len(),
		OutputRows: outputRows,
	}

	perSample := make(map[feature.SampleID]int, len(samples))
	samplesPerRow := make([]float64, 0, store.Len())
	var mzDev, rtDev []float64

	store.Each(func(row *MasterRow) {
		n := row.NumSamples()
		s.Patterns += n
		samplesPerRow = append(samplesPerRow, float64(n))
		if n == 1 {
			s.SingletonRows++
		}
		if n == len(samples) {
			s.CompleteRows++
		}
		for _, sample := range row.samples {
			perSample[sample]++
		}
		for _, v := range row.mzVals {
			mzDev = append(mzDev, math.Abs(v-row.CentroidMZ))
		}
		for _, v := range row.rtVals {
			rtDev = append(rtDev, math.Abs(v-row.CentroidRT))
		}
	})

	if len(samplesPerRow) > 0 {
		s.MeanSamplesPerRow = stat.Mean(samplesPerRow, nil)
	}
	s.MZDeviationMean, s.MZDeviationStdDev = meanStdDev(mzDev)
	s.RTDeviationMean, s.RTDeviationStdDev = meanStdDev(rtDev)

	for _, sample := range samples {
		c := SampleCoverage{Sample: sample, Rows: perSample[sample]}
		if s.MasterRows > 0 {
			c.Fraction = float64(c.Rows) / float64(s.MasterRows)
		}
		s.Coverage = append(s.Coverage, c)
	}
	return s
}
