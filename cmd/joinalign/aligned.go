package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/isoalign/internal/align"
	"github.com/banshee-data/isoalign/internal/db"
	"github.com/banshee-data/isoalign/internal/feature"
)

// alignedRow is one row of an aligned table, from a fresh result or a
// stored run.
type alignedRow struct {
	MasterRow    int
	IsotopeIndex int
	Charge       int
	Peaks        map[feature.SampleID]feature.Peak
}

func rowsFromResult(res *align.AlignmentResult) []alignedRow {
	out := make([]alignedRow, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = alignedRow{
			MasterRow:    int(r.MasterRow),
			IsotopeIndex: r.IsotopeIndex,
			Charge:       r.Pattern.Charge,
			Peaks:        r.Peaks,
		}
	}
	return out
}

func rowsFromStore(stored []db.StoredRow) []alignedRow {
	out := make([]alignedRow, len(stored))
	for i, r := range stored {
		out[i] = alignedRow{
			MasterRow:    r.MasterRow,
			IsotopeIndex: r.IsotopeIndex,
			Charge:       r.Charge,
			Peaks:        r.Peaks,
		}
	}
	return out
}

// meanPosition returns the mean m/z and RT of the peaks in a row.
func (r alignedRow) meanPosition(samples []feature.SampleID) (mz, rt float64) {
	mzs := make([]float64, 0, len(r.Peaks))
	rts := make([]float64, 0, len(r.Peaks))
	for _, s := range samples {
		if p, ok := r.Peaks[s]; ok {
			mzs = append(mzs, p.MZ)
			rts = append(rts, p.RT)
		}
	}
	if len(mzs) == 0 {
		return 0, 0
	}
	return stat.Mean(mzs, nil), stat.Mean(rts, nil)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeAlignedCSV writes one line per aligned row with the mean position
// and, per sample, the peak height and area. Absent peaks are empty cells.
func writeAlignedCSV(w io.Writer, samples []feature.SampleID, rows []alignedRow) error {
	cw := csv.NewWriter(w)

	header := []string{"row", "master_row", "isotope_index", "charge", "mz", "rt"}
	for _, s := range samples {
		header = append(header, string(s)+"_height", string(s)+"_area")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range rows {
		mz, rt := r.meanPosition(samples)
		rec := []string{
			strconv.Itoa(i),
			strconv.Itoa(r.MasterRow),
			strconv.Itoa(r.IsotopeIndex),
			strconv.Itoa(r.Charge),
			formatFloat(mz),
			formatFloat(rt),
		}
		for _, s := range samples {
			if p, ok := r.Peaks[s]; ok {
				rec = append(rec, formatFloat(p.Height), formatFloat(p.Area))
			} else {
				rec = append(rec, "", "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// renderAlignedRows renders at most limit rows as a table of per-sample
// heights.
func renderAlignedRows(samples []feature.SampleID, rows []alignedRow, limit int) string {
	if limit > len(rows) {
		limit = len(rows)
	}
	headers := []string{"Row", "Iso", "z", "m/z", "RT"}
	for _, s := range samples {
		headers = append(headers, string(s))
	}
	body := make([][]string, 0, limit)
	for _, r := range rows[:limit] {
		mz, rt := r.meanPosition(samples)
		line := []string{
			strconv.Itoa(r.MasterRow),
			strconv.Itoa(r.IsotopeIndex),
			strconv.Itoa(r.Charge),
			fmt.Sprintf("%.4f", mz),
			fmt.Sprintf("%.2f", rt),
		}
		for _, s := range samples {
			if p, ok := r.Peaks[s]; ok {
				line = append(line, fmt.Sprintf("%.4g", p.Height))
			} else {
				line = append(line, "-")
			}
		}
		body = append(body, line)
	}
	return renderTable(headers, body, columnsFrom(0, len(headers))...)
}
