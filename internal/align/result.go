package align

import "github.com/banshee-data/isoalign/internal/feature"

// ResultName is the name given to every alignment result.
const ResultName = "Result from Join Aligner"

// ResultRow is one row of the aligned table: a single isotope position of
// one master row, with at most one peak per sample.
type ResultRow struct {
	MasterRow    RowID
	IsotopeIndex int
	// Pattern is synthesized from the master row's charge state and
	// carries no peaks.
	Pattern feature.IsotopePattern
	Peaks   map[feature.SampleID]feature.Peak
}

// Peak returns the peak sample contributes to this row, if any.
func (r ResultRow) Peak(sample feature.SampleID) (feature.Peak, bool) {
	p, ok := r.Peaks[sample]
	return p, ok
}

// AlignmentResult is the finished aligned table. It is not modified after
// it is returned.
type AlignmentResult struct {
	Name    string
	Samples []feature.SampleID
	Rows    []ResultRow
	Summary Summary
}

// assemble expands every master row into one output row per isotope
// position, in row creation order then isotope order.
func assemble(store *RowStore, samples []feature.SampleID) *AlignmentResult {
	res := &AlignmentResult{
		Name:    ResultName,
		Samples: append([]feature.SampleID(nil), samples...),
	}

	store.Each(func(row *MasterRow) {
		tag := feature.IsotopePattern{Charge: row.Charge}
		for i := 0; i < row.MaxPatternLength; i++ {
			out := ResultRow{
				MasterRow:    row.ID,
				IsotopeIndex: i,
				Pattern:      tag,
				Peaks:        make(map[feature.SampleID]feature.Peak),
			}
			for _, sample := range samples {
				pattern, ok := row.Pattern(sample)
				if !ok {
					continue
				}
				if peak, ok := pattern.PeakAt(i); ok {
					out.Peaks[sample] = peak
				}
			}
			res.Rows = append(res.Rows, out)
		}
	})

	res.Summary = summarize(store, samples, len(res.Rows))
	return res
}
