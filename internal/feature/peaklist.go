package feature

import (
	"context"
	"fmt"
	"sort"
)

// ListedPeak is a peak as it appears in a sample's feature list, labelled
// with the isotope pattern the upstream deisotoping step placed it in.
// PatternID 0 means the peak was not grouped with any other peak.
type ListedPeak struct {
	Peak
	PatternID    int64
	Charge       int
	IsotopeIndex int
}

// PeakList is one sample's feature list.
type PeakList struct {
	Sample SampleID
	Peaks  []ListedPeak
}

// Extractor turns a sample's feature list into its ordered isotope patterns.
type Extractor interface {
	ExtractIsotopePatterns(ctx context.Context, list *PeakList) ([]IsotopePattern, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, list *PeakList) ([]IsotopePattern, error)

// ExtractIsotopePatterns calls f.
func (f ExtractorFunc) ExtractIsotopePatterns(ctx context.Context, list *PeakList) ([]IsotopePattern, error) {
	return f(ctx, list)
}

// GroupingExtractor rebuilds isotope patterns from peak lists whose peaks are
// already labelled with pattern membership.
//
// Patterns are returned in order of first appearance in the list; peaks in a
// pattern are ordered by IsotopeIndex, which must be unique within a pattern.
// Peaks without a charge take the charge of the other peaks in their
// pattern; a pattern where no peak carries one gets DefaultCharge. Unlabelled
// peaks become one-peak patterns.
type GroupingExtractor struct {
	DefaultCharge int
}

// ExtractIsotopePatterns implements Extractor.
func (g GroupingExtractor) ExtractIsotopePatterns(ctx context.Context, list *PeakList) ([]IsotopePattern, error) {
	if list == nil {
		return nil, fmt.Errorf("nil peak list")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defaultCharge := g.DefaultCharge
	if defaultCharge < 1 {
		defaultCharge = 1
	}

	type group struct {
		id     int64
		charge int // 0 until a peak in the group carries one
		peaks  []ListedPeak
	}
	var order []*group
	byID := make(map[int64]*group)

	for i, lp := range list.Peaks {
		charge := lp.Charge
		if charge < 0 {
			charge = 0
		}
		if lp.PatternID == 0 {
			order = append(order, &group{charge: charge, peaks: []ListedPeak{lp}})
			continue
		}
		grp, ok := byID[lp.PatternID]
		if !ok {
			grp = &group{id: lp.PatternID}
			byID[lp.PatternID] = grp
			order = append(order, grp)
		}
		switch {
		case charge == 0:
		case grp.charge == 0:
			grp.charge = charge
		case grp.charge != charge:
			return nil, fmt.Errorf("sample %s: peak %d in pattern %d has charge %d, pattern has %d",
				list.Sample, i, lp.PatternID, charge, grp.charge)
		}
		grp.peaks = append(grp.peaks, lp)
	}

	patterns := make([]IsotopePattern, 0, len(order))
	for _, grp := range order {
		sort.SliceStable(grp.peaks, func(a, b int) bool {
			return grp.peaks[a].IsotopeIndex < grp.peaks[b].IsotopeIndex
		})
		peaks := make([]Peak, len(grp.peaks))
		for i, lp := range grp.peaks {
			if i > 0 && lp.IsotopeIndex == grp.peaks[i-1].IsotopeIndex {
				return nil, fmt.Errorf("sample %s: pattern %d has two peaks at isotope index %d",
					list.Sample, grp.id, lp.IsotopeIndex)
			}
			peaks[i] = lp.Peak
		}
		charge := grp.charge
		if charge == 0 {
			charge = defaultCharge
		}
		patterns = append(patterns, IsotopePattern{Charge: charge, Peaks: peaks})
	}
	return patterns, nil
}
