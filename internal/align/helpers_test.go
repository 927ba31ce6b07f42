package align

import (
	"context"
	"fmt"

	"github.com/banshee-data/isoalign/internal/feature"
)

const isotopeSpacing = 1.00335

// pat builds a pattern of n peaks whose monoisotopic peak sits at (mz, rt).
func pat(charge int, mz, rt float64, n int) feature.IsotopePattern {
	peaks := make([]feature.Peak, n)
	for i := range peaks {
		peaks[i] = feature.Peak{
			MZ:     mz + float64(i)*isotopeSpacing/float64(charge),
			RT:     rt,
			Height: 1000 / float64(i+1),
			Area:   5000 / float64(i+1),
		}
	}
	return feature.IsotopePattern{Charge: charge, Peaks: peaks}
}

// sampleSet pairs ordered peak lists with the patterns the extractor
// returns for each of them.
type sampleSet struct {
	lists    []*feature.PeakList
	patterns map[feature.SampleID][]feature.IsotopePattern
}

func newSampleSet() *sampleSet {
	return &sampleSet{patterns: make(map[feature.SampleID][]feature.IsotopePattern)}
}

func (s *sampleSet) add(id feature.SampleID, patterns ...feature.IsotopePattern) *sampleSet {
	s.lists = append(s.lists, &feature.PeakList{Sample: id})
	s.patterns[id] = patterns
	return s
}

func (s *sampleSet) total() int {
	n := 0
	for _, p := range s.patterns {
		n += len(p)
	}
	return n
}

func (s *sampleSet) extractor() feature.Extractor {
	return feature.ExtractorFunc(func(_ context.Context, list *feature.PeakList) ([]feature.IsotopePattern, error) {
		p, ok := s.patterns[list.Sample]
		if !ok {
			return nil, fmt.Errorf("unknown sample %s", list.Sample)
		}
		return p, nil
	})
}

func testParams() Params {
	return Params{MZTolerance: 0.05, RT: AbsoluteRT(5), MZRTBalance: 1}
}
