package align

import "github.com/banshee-data/isoalign/internal/feature"

// RowID addresses a master row in its RowStore. IDs are assigned in
// creation order starting at 0.
type RowID int

// MasterRow is one consolidated alignment bucket: at most one isotope
// pattern per sample, all of the same charge state.
type MasterRow struct {
	ID     RowID
	Charge int
	// MaxPatternLength is the peak count of the longest assigned pattern.
	MaxPatternLength int
	// CentroidMZ and CentroidRT are the medians of the monoisotopic
	// values of every assigned pattern.
	CentroidMZ float64
	CentroidRT float64

	mzVals   []float64
	rtVals   []float64
	samples  []feature.SampleID
	patterns map[feature.SampleID]feature.IsotopePattern
}

// Pattern returns the pattern assigned from sample, if any.
func (r *MasterRow) Pattern(sample feature.SampleID) (feature.IsotopePattern, bool) {
	ip, ok := r.patterns[sample]
	return ip, ok
}

// Samples returns the contributing samples in assignment order.
func (r *MasterRow) Samples() []feature.SampleID {
	out := make([]feature.SampleID, len(r.samples))
	copy(out, r.samples)
	return out
}

// NumSamples returns how many samples contributed a pattern.
func (r *MasterRow) NumSamples() int { return len(r.samples) }

// MonoisotopicMZs returns the assigned monoisotopic m/z values in
// assignment order.
func (r *MasterRow) MonoisotopicMZs() []float64 {
	out := make([]float64, len(r.mzVals))
	copy(out, r.mzVals)
	return out
}

// MonoisotopicRTs returns the assigned monoisotopic RT values in
// assignment order.
func (r *MasterRow) MonoisotopicRTs() []float64 {
	out := make([]float64, len(r.rtVals))
	copy(out, r.rtVals)
	return out
}

// add binds pattern to the row for sample and refreshes the centroid.
// Callers guarantee the pattern is non-empty, the sample is new to this
// row and the charge matches.
func (r *MasterRow) add(sample feature.SampleID, pattern feature.IsotopePattern) {
	mono := pattern.Peaks[0]

	r.mzVals = append(r.mzVals, mono.MZ)
	r.rtVals = append(r.rtVals, mono.RT)
	// Recomputed from the full history on every insert.
	r.CentroidMZ = median(r.mzVals)
	r.CentroidRT = median(r.rtVals)

	if n := pattern.Len(); n > r.MaxPatternLength {
		r.MaxPatternLength = n
	}

	r.samples = append(r.samples, sample)
	r.patterns[sample] = pattern
}

// RowStore is the arena of master rows built up during one alignment.
type RowStore struct {
	rows []MasterRow
}

// NewRowStore returns an empty store.
func NewRowStore() *RowStore {
	return &RowStore{}
}

// Len returns the number of master rows.
func (s *RowStore) Len() int { return len(s.rows) }

// Row returns the row with the given id. The pointer is only valid until
// the next Create.
func (s *RowStore) Row(id RowID) *MasterRow {
	return &s.rows[id]
}

// Create starts a new master row whose charge state is fixed by pattern.
func (s *RowStore) Create(sample feature.SampleID, pattern feature.IsotopePattern) RowID {
	id := RowID(len(s.rows))
	s.rows = append(s.rows, MasterRow{
		ID:       id,
		Charge:   pattern.Charge,
		patterns: make(map[feature.SampleID]feature.IsotopePattern),
	})
	s.rows[id].add(sample, pattern)
	return id
}

// Assign adds pattern from sample to an existing row.
func (s *RowStore) Assign(id RowID, sample feature.SampleID, pattern feature.IsotopePattern) {
	s.rows[id].add(sample, pattern)
}

// Each calls fn for every row in creation order.
func (s *RowStore) Each(fn func(*MasterRow)) {
	for i := range s.rows {
		fn(&s.rows[i])
	}
}
