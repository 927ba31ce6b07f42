package align

import (
	"context"
	"fmt"

	"github.com/banshee-data/isoalign/internal/feature"
	"github.com/banshee-data/isoalign/internal/monitoring"
)

var logf = monitoring.Component("JoinAligner")

// ProgressFunc receives the fraction of samples processed so far.
type ProgressFunc func(fraction float64)

// Aligner runs the join alignment over an ordered set of samples.
type Aligner struct {
	params    Params
	scorer    Scorer
	extractor feature.Extractor
}

// NewAligner validates params and returns an aligner that obtains each
// sample's isotope patterns from extractor.
func NewAligner(params Params, extractor feature.Extractor) (*Aligner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if extractor == nil {
		return nil, fmt.Errorf("align: nil extractor")
	}
	return &Aligner{
		params:    params,
		scorer:    NewScorer(params),
		extractor: extractor,
	}, nil
}

// Params returns the parameters the aligner was built with.
func (a *Aligner) Params() Params { return a.params }

// Align processes lists in the given order and returns the aligned table.
//
// Cancellation is checked once before each sample. A sample whose round
// has started always runs to completion; the extractor is handed a context
// that is not canceled with ctx. On cancellation Align returns ctx.Err()
// and no result.
func (a *Aligner) Align(ctx context.Context, lists []*feature.PeakList, progress ProgressFunc) (*AlignmentResult, error) {
	samples, err := sampleIDs(lists)
	if err != nil {
		return nil, err
	}

	store := NewRowStore()
	roundCtx := context.WithoutCancel(ctx)

	for i, list := range lists {
		if err := ctx.Err(); err != nil {
			logf("Canceled before sample %d/%d (%s)", i+1, len(lists), list.Sample)
			return nil, err
		}

		patterns, err := a.extract(roundCtx, list)
		if err != nil {
			return nil, err
		}

		stats := matchSample(store, a.scorer, list.Sample, patterns)
		logf("Sample %d/%d %s: %d patterns, %d candidate pairs, %d matched, %d new rows",
			i+1, len(lists), stats.Sample, stats.Patterns, stats.Candidates, stats.Matched, stats.NewRows)

		if progress != nil {
			progress(float64(i+1) / float64(len(lists)))
		}
	}

	res := assemble(store, samples)
	if len(lists) == 0 && progress != nil {
		progress(1)
	}
	logf("Aligned %d samples into %d master rows, %d output rows",
		len(samples), store.Len(), len(res.Rows))
	return res, nil
}

// extract obtains and checks one sample's patterns.
func (a *Aligner) extract(ctx context.Context, list *feature.PeakList) ([]feature.IsotopePattern, error) {
	patterns, err := a.extractor.ExtractIsotopePatterns(ctx, list)
	if err != nil {
		return nil, &ExtractionError{Sample: list.Sample, Err: err}
	}
	for i, p := range patterns {
		if p.Len() == 0 {
			return nil, &ExtractionError{Sample: list.Sample, Err: fmt.Errorf("pattern %d has no peaks", i)}
		}
		if p.Charge < 1 {
			return nil, &ExtractionError{Sample: list.Sample, Err: fmt.Errorf("pattern %d has charge %d", i, p.Charge)}
		}
	}
	return patterns, nil
}

// sampleIDs returns the sample order, rejecting nil lists and repeated ids
// since a master row may hold only one pattern per sample.
func sampleIDs(lists []*feature.PeakList) ([]feature.SampleID, error) {
	ids := make([]feature.SampleID, 0, len(lists))
	seen := make(map[feature.SampleID]bool, len(lists))
	for i, list := range lists {
		if list == nil {
			return nil, fmt.Errorf("align: peak list %d is nil", i)
		}
		if seen[list.Sample] {
			return nil, fmt.Errorf("align: sample %q listed more than once", list.Sample)
		}
		seen[list.Sample] = true
		ids = append(ids, list.Sample)
	}
	return ids, nil
}
