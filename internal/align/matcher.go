package align

import (
	"sort"

	"github.com/banshee-data/isoalign/internal/feature"
)

// candidate is an acceptable (row, pattern) pairing found while scoring one
// sample.
type candidate struct {
	row     RowID
	pattern int
	score   float64
}

// byFit orders candidates best fit first. Equal scores are both kept and
// fall back to row creation order, then pattern order, so the walk is
// identical across runs.
func byFit(c []candidate) func(i, j int) bool {
	return func(i, j int) bool {
		if c[i].score != c[j].score {
			return c[i].score < c[j].score
		}
		if c[i].row != c[j].row {
			return c[i].row < c[j].row
		}
		return c[i].pattern < c[j].pattern
	}
}

// roundClaims is the scratch state of one sample's matching round. It is
// built fresh for every round and thrown away afterwards, so rows carry no
// per-round flags.
type roundClaims struct {
	rows     []bool // indexed by RowID, sized to the rows present before the round
	patterns []bool // indexed by the pattern's position in the sample
}

func newRoundClaims(rows, patterns int) *roundClaims {
	return &roundClaims{
		rows:     make([]bool, rows),
		patterns: make([]bool, patterns),
	}
}

// claim marks the pair as consumed if neither side has been used yet.
func (rc *roundClaims) claim(c candidate) bool {
	if rc.rows[c.row] || rc.patterns[c.pattern] {
		return false
	}
	rc.rows[c.row] = true
	rc.patterns[c.pattern] = true
	return true
}

// RoundStats summarises one sample's matching round.
type RoundStats struct {
	Sample     feature.SampleID
	Patterns   int
	Candidates int
	Matched    int
	NewRows    int
}

// scoreCandidates returns every acceptable pairing of an existing row with
// one of the sample's patterns.
func scoreCandidates(store *RowStore, scorer Scorer, patterns []feature.IsotopePattern) []candidate {
	var out []candidate
	for p, pattern := range patterns {
		for id := 0; id < store.Len(); id++ {
			row := store.Row(RowID(id))
			s := scorer.Score(row, pattern)
			if !s.Acceptable {
				continue
			}
			out = append(out, candidate{row: row.ID, pattern: p, score: s.Value})
		}
	}
	return out
}

// matchSample folds one sample's patterns into the store. Candidates are
// walked best fit first; a pair is taken only when neither its row nor its
// pattern has been claimed earlier in the walk. Unclaimed patterns each
// start a new row, in sample order.
func matchSample(store *RowStore, scorer Scorer, sample feature.SampleID, patterns []feature.IsotopePattern) RoundStats {
	stats := RoundStats{Sample: sample, Patterns: len(patterns)}

	candidates := scoreCandidates(store, scorer, patterns)
	stats.Candidates = len(candidates)
	sort.Slice(candidates, byFit(candidates))

	claims := newRoundClaims(store.Len(), len(patterns))
	for _, c := range candidates {
		if !claims.claim(c) {
			continue
		}
		store.Assign(c.row, sample, patterns[c.pattern])
		stats.Matched++
	}

	for p, pattern := range patterns {
		if claims.patterns[p] {
			continue
		}
		store.Create(sample, pattern)
		stats.NewRows++
	}

	return stats
}
