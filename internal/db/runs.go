package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/isoalign/internal/align"
	"github.com/banshee-data/isoalign/internal/feature"
)

// RunStatus is the persisted state of an alignment run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// AlignmentRun is one recorded alignment.
type AlignmentRun struct {
	RunID        string
	CreatedAt    time.Time
	Description  string
	Status       RunStatus
	Params       align.Params
	SampleIDs    []feature.SampleID
	MasterRows   int
	OutputRows   int
	Summary      *align.Summary
	DurationSecs float64
	ErrorMessage string
	CompletedAt  *time.Time
}

// StoredRow is one persisted row of an alignment result.
type StoredRow struct {
	RowIndex     int
	MasterRow    int
	IsotopeIndex int
	Charge       int
	Peaks        map[feature.SampleID]feature.Peak
}

// InsertRun records a new run.
func (db *DB) InsertRun(run *AlignmentRun) error {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	samplesJSON, err := json.Marshal(run.SampleIDs)
	if err != nil {
		return fmt.Errorf("marshal sample ids: %w", err)
	}

	_, err = db.Exec(`INSERT INTO alignment_runs
		(run_id, created_at, description, status, params_json, sample_ids_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UnixNano(), run.Description, string(run.Status),
		string(paramsJSON), string(samplesJSON))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

// CompleteRun marks a run completed at completedAt and stores its result
// rows.
func (db *DB) CompleteRun(runID string, res *align.AlignmentResult, duration time.Duration, completedAt time.Time) error {
	if res == nil {
		return fmt.Errorf("run %s: nil result", runID)
	}
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	out, err := tx.Exec(`UPDATE alignment_runs
		SET status = ?, master_rows = ?, output_rows = ?, summary_json = ?,
		    duration_secs = ?, completed_at = ?
		WHERE run_id = ?`,
		string(RunCompleted), res.Summary.MasterRows, len(res.Rows), string(summaryJSON),
		duration.Seconds(), completedAt.UnixNano(), runID)
	if err != nil {
		return err
	}
	if n, err := out.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("run %s: %w", runID, sql.ErrNoRows)
	}

	rowStmt, err := tx.Prepare(`INSERT INTO alignment_rows
		(run_id, row_index, master_row, isotope_index, charge) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	peakStmt, err := tx.Prepare(`INSERT INTO alignment_peaks
		(run_id, row_index, sample_id, mz, rt, height, area) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer peakStmt.Close()

	for i, row := range res.Rows {
		if _, err := rowStmt.Exec(runID, i, int(row.MasterRow), row.IsotopeIndex, row.Pattern.Charge); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
		// Sample order keeps the insert order stable.
		for _, s := range res.Samples {
			p, ok := row.Peaks[s]
			if !ok {
				continue
			}
			if _, err := peakStmt.Exec(runID, i, string(s), p.MZ, p.RT, p.Height, p.Area); err != nil {
				return fmt.Errorf("insert peak %d/%s: %w", i, s, err)
			}
		}
	}

	return tx.Commit()
}

// UpdateRunStatus sets the terminal status of a run that has no result.
func (db *DB) UpdateRunStatus(runID string, status RunStatus, errMsg string, duration time.Duration, completedAt time.Time) error {
	res, err := db.Exec(`UPDATE alignment_runs
		SET status = ?, error_message = ?, duration_secs = ?, completed_at = ?
		WHERE run_id = ?`,
		string(status), errMsg, duration.Seconds(), completedAt.UnixNano(), runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

const runColumns = `run_id, created_at, description, status, params_json, sample_ids_json,
	master_rows, output_rows, summary_json, duration_secs, error_message, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*AlignmentRun, error) {
	var (
		run         AlignmentRun
		createdAt   int64
		status      string
		paramsJSON  string
		samplesJSON string
		summaryJSON sql.NullString
		completedAt sql.NullInt64
	)
	if err := s.Scan(&run.RunID, &createdAt, &run.Description, &status, &paramsJSON, &samplesJSON,
		&run.MasterRows, &run.OutputRows, &summaryJSON, &run.DurationSecs, &run.ErrorMessage,
		&completedAt); err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, createdAt)
	run.Status = RunStatus(status)
	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("run %s params: %w", run.RunID, err)
	}
	if err := json.Unmarshal([]byte(samplesJSON), &run.SampleIDs); err != nil {
		return nil, fmt.Errorf("run %s samples: %w", run.RunID, err)
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var sum align.Summary
		if err := json.Unmarshal([]byte(summaryJSON.String), &sum); err != nil {
			return nil, fmt.Errorf("run %s summary: %w", run.RunID, err)
		}
		run.Summary = &sum
	}
	if completedAt.Valid {
		t := time.Unix(0, completedAt.Int64)
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetRun loads one run by ID.
func (db *DB) GetRun(runID string) (*AlignmentRun, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM alignment_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return run, err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(limit int) ([]*AlignmentRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM alignment_runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AlignmentRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LoadRunRows reads the stored result rows of a completed run in output
// order.
func (db *DB) LoadRunRows(runID string) ([]StoredRow, error) {
	rows, err := db.Query(`SELECT row_index, master_row, isotope_index, charge
		FROM alignment_rows WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, err
	}
	var out []StoredRow
	for rows.Next() {
		r := StoredRow{Peaks: make(map[feature.SampleID]feature.Peak)}
		if err := rows.Scan(&r.RowIndex, &r.MasterRow, &r.IsotopeIndex, &r.Charge); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Second pass after the first cursor is closed; the pool holds one
	// connection.
	peaks, err := db.Query(`SELECT row_index, sample_id, mz, rt, height, area
		FROM alignment_peaks WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, err
	}
	defer peaks.Close()

	for peaks.Next() {
		var (
			idx    int
			sample string
			p      feature.Peak
		)
		if err := peaks.Scan(&idx, &sample, &p.MZ, &p.RT, &p.Height, &p.Area); err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(out) || out[idx].RowIndex != idx {
			return nil, fmt.Errorf("run %s: peak for unknown row %d", runID, idx)
		}
		out[idx].Peaks[feature.SampleID(sample)] = p
	}
	return out, peaks.Err()
}
