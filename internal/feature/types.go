package feature

import "fmt"

// SampleID identifies one measurement file's feature set.
type SampleID string

// Peak is one detected chromatographic feature in one sample.
// MZ and RT are the normalized m/z and retention time values.
type Peak struct {
	MZ     float64
	RT     float64
	Height float64
	Area   float64
}

func (p Peak) String() string {
	return fmt.Sprintf("m/z %.4f @ %.2f", p.MZ, p.RT)
}

// IsotopePattern is an ordered run of peaks sharing one charge state.
// Peaks[0] is the monoisotopic (reference) peak.
type IsotopePattern struct {
	Charge int
	Peaks  []Peak
}

// NewIsotopePattern builds a pattern, copying peaks so later changes to the
// caller's slice are not observed.
func NewIsotopePattern(charge int, peaks ...Peak) IsotopePattern {
	p := make([]Peak, len(peaks))
	copy(p, peaks)
	return IsotopePattern{Charge: charge, Peaks: p}
}

// Monoisotopic returns the reference peak. ok is false for an empty pattern.
func (ip IsotopePattern) Monoisotopic() (Peak, bool) {
	if len(ip.Peaks) == 0 {
		return Peak{}, false
	}
	return ip.Peaks[0], true
}

// Len returns the number of peaks in the pattern.
func (ip IsotopePattern) Len() int { return len(ip.Peaks) }

// PeakAt returns the peak at isotope position i, if the pattern is that long.
func (ip IsotopePattern) PeakAt(i int) (Peak, bool) {
	if i < 0 || i >= len(ip.Peaks) {
		return Peak{}, false
	}
	return ip.Peaks[i], true
}
