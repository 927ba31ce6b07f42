package align

import (
	"math"

	"github.com/banshee-data/isoalign/internal/feature"
)

// Score is the fit between a master row and a candidate pattern. Lower
// values are better; unacceptable pairs carry +Inf.
type Score struct {
	Value      float64
	Acceptable bool
}

var rejected = Score{Value: math.Inf(1)}

// Scorer gates and costs (row, pattern) pairs.
type Scorer struct {
	params Params
}

// NewScorer returns a scorer for the given parameters. Params are assumed
// to be validated.
func NewScorer(params Params) Scorer {
	return Scorer{params: params}
}

// Score compares the pattern's monoisotopic peak with the row centroid.
// Pairs of different charge are never acceptable. Both gates are strict:
// a difference equal to the tolerance is rejected.
func (s Scorer) Score(row *MasterRow, pattern feature.IsotopePattern) Score {
	if row.Charge != pattern.Charge {
		return rejected
	}
	mono, ok := pattern.Monoisotopic()
	if !ok {
		return rejected
	}

	diffMZ := math.Abs(row.CentroidMZ - mono.MZ)
	diffRT := math.Abs(row.CentroidRT - mono.RT)
	rtTolerance := s.params.RT.Window(row.CentroidRT, mono.RT)

	if diffMZ < s.params.MZTolerance && diffRT < rtTolerance {
		return Score{
			Value:      s.params.MZRTBalance*diffMZ + diffRT,
			Acceptable: true,
		}
	}
	return rejected
}
