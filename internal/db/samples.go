package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/isoalign/internal/feature"
)

// SampleRecord describes an imported sample. Position fixes the order in
// which samples are aligned.
type SampleRecord struct {
	ID         feature.SampleID
	SourcePath string
	Position   int
	PeakCount  int
	ImportedAt time.Time
}

// ImportPeakList stores a sample's peak list after every sample already
// imported.
func (db *DB) ImportPeakList(list *feature.PeakList, sourcePath string) error {
	if list == nil || list.Sample == "" {
		return fmt.Errorf("peak list has no sample id")
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM samples WHERE sample_id = ?`, string(list.Sample)).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("sample %q already imported", list.Sample)
	}

	var position int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM samples`).Scan(&position); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO samples (sample_id, source_path, position, peak_count, imported_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(list.Sample), sourcePath, position, len(list.Peaks), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert sample %q: %w", list.Sample, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO peaks
		(sample_id, peak_index, mz, rt, height, area, pattern_id, charge, isotope_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range list.Peaks {
		if _, err := stmt.Exec(string(list.Sample), i, p.MZ, p.RT, p.Height, p.Area,
			p.PatternID, p.Charge, p.IsotopeIndex); err != nil {
			return fmt.Errorf("insert peak %d of %q: %w", i, list.Sample, err)
		}
	}

	return tx.Commit()
}

// ListSamples returns every imported sample in alignment order.
func (db *DB) ListSamples() ([]SampleRecord, error) {
	rows, err := db.Query(`SELECT sample_id, source_path, position, peak_count, imported_at
		FROM samples ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SampleRecord
	for rows.Next() {
		var rec SampleRecord
		var id string
		var importedAt int64
		if err := rows.Scan(&id, &rec.SourcePath, &rec.Position, &rec.PeakCount, &importedAt); err != nil {
			return nil, err
		}
		rec.ID = feature.SampleID(id)
		rec.ImportedAt = time.Unix(0, importedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadPeakList reads one sample's peak list in its original peak order.
func (db *DB) LoadPeakList(id feature.SampleID) (*feature.PeakList, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM samples WHERE sample_id = ?`, string(id)).Scan(&n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("sample %q: %w", id, sql.ErrNoRows)
	}

	rows, err := db.Query(`SELECT mz, rt, height, area, pattern_id, charge, isotope_index
		FROM peaks WHERE sample_id = ? ORDER BY peak_index`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &feature.PeakList{Sample: id}
	for rows.Next() {
		var p feature.ListedPeak
		if err := rows.Scan(&p.MZ, &p.RT, &p.Height, &p.Area, &p.PatternID, &p.Charge, &p.IsotopeIndex); err != nil {
			return nil, err
		}
		list.Peaks = append(list.Peaks, p)
	}
	return list, rows.Err()
}

// LoadPeakLists reads the named samples in the order given, or every
// sample in import order when ids is empty.
func (db *DB) LoadPeakLists(ids []feature.SampleID) ([]*feature.PeakList, error) {
	if len(ids) == 0 {
		recs, err := db.ListSamples()
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			ids = append(ids, rec.ID)
		}
	}

	lists := make([]*feature.PeakList, 0, len(ids))
	var missing []string
	for _, id := range ids {
		list, err := db.LoadPeakList(id)
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, string(id))
			continue
		}
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown samples: %s", strings.Join(missing, ", "))
	}
	return lists, nil
}

// DeleteSample removes a sample and its peaks.
func (db *DB) DeleteSample(id feature.SampleID) error {
	res, err := db.Exec(`DELETE FROM samples WHERE sample_id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sample %q: %w", id, sql.ErrNoRows)
	}
	return nil
}
