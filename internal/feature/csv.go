package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Columns required in a peak list CSV. pattern_id, charge and
// isotope_index are optional; absent columns read as zero.
var requiredColumns = []string{"mz", "rt", "height", "area"}

// ReadPeakListCSV reads one sample's peak list. The first record is a
// header naming the columns in any order; names are case-insensitive.
func ReadPeakListCSV(r io.Reader, sample SampleID) (*PeakList, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty peak list file", sample)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", sample, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", sample, name)
		}
	}

	list := &PeakList{Sample: sample}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sample, err)
		}
		line, _ := cr.FieldPos(0)

		p, err := parsePeakRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", sample, line, err)
		}
		list.Peaks = append(list.Peaks, p)
	}
	return list, nil
}

func parsePeakRecord(rec []string, cols map[string]int) (ListedPeak, error) {
	var p ListedPeak
	floats := []struct {
		name string
		dst  *float64
	}{
		{"mz", &p.MZ}, {"rt", &p.RT}, {"height", &p.Height}, {"area", &p.Area},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[f.name]]), 64)
		if err != nil {
			return p, fmt.Errorf("column %s: %w", f.name, err)
		}
		*f.dst = v
	}
	if p.MZ <= 0 {
		return p, fmt.Errorf("column mz: must be positive, got %g", p.MZ)
	}

	if i, ok := cols["pattern_id"]; ok {
		v, err := parseOptionalInt(rec[i], 64)
		if err != nil {
			return p, fmt.Errorf("column pattern_id: %w", err)
		}
		p.PatternID = v
	}
	if i, ok := cols["charge"]; ok {
		v, err := parseOptionalInt(rec[i], 32)
		if err != nil {
			return p, fmt.Errorf("column charge: %w", err)
		}
		p.Charge = int(v)
	}
	if i, ok := cols["isotope_index"]; ok {
		v, err := parseOptionalInt(rec[i], 32)
		if err != nil {
			return p, fmt.Errorf("column isotope_index: %w", err)
		}
		p.IsotopeIndex = int(v)
	}
	return p, nil
}

func parseOptionalInt(s string, bits int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, bits)
}
