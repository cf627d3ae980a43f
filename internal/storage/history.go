package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docaudit/internal/audit"
	"docaudit/internal/report"
)

// ErrRunNotFound is returned when a scan ID is not in the history.
var ErrRunNotFound = errors.New("run not found")

// timeLayout has fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded scan.
type Run struct {
	ScanID         string        `json:"scanId"`
	Root           string        `json:"root"`
	Rules          string        `json:"rules"`
	Project        string        `json:"project"`
	Fingerprint    string        `json:"fingerprint"`
	Files          int           `json:"files"`
	StartedAt      time.Time     `json:"startedAt"`
	Duration       time.Duration `json:"-"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	SpecFailed     int           `json:"specFailed"`
	CrossRefFailed int           `json:"crossrefFailed"`
}

// CheckRecord is one check's outcome in a recorded scan.
type CheckRecord struct {
	ScanID     string    `json:"scanId"`
	StartedAt  time.Time `json:"startedAt"`
	CheckID    int       `json:"checkId"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Violations int       `json:"violations"`
}

// History provides access to the runs and check_results tables
type History struct {
	db *DB
}

// NewHistory creates a history repository
func NewHistory(db *DB) *History {
	return &History{db: db}
}

// Save records a completed scan.
func (h *History) Save(r *audit.Report) error {
	var blob bytes.Buffer
	if err := report.Write(&blob, r, report.CompressionZstd); err != nil {
		return err
	}

	var specFailed, crossFailed int
	if r.Specs != nil {
		specFailed = r.Specs.Failed
	}
	if r.CrossRef != nil {
		crossFailed = r.CrossRef.Failed
	}

	return h.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (
				scan_id, root, rules, project, fingerprint, files, started_at, duration_ms,
				passed, failed, skipped, spec_failed, crossref_failed, report
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.ScanID,
			r.Root,
			r.Rules,
			string(r.Project.Class),
			r.Fingerprint,
			r.Files,
			r.StartedAt.UTC().Format(timeLayout),
			r.Duration.Milliseconds(),
			r.Summary.Passed,
			r.Summary.Failed,
			r.Summary.Skipped,
			specFailed,
			crossFailed,
			blob.Bytes(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO check_results (scan_id, check_id, position, category, status, reason, violations)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range r.Checks {
			if _, err := stmt.Exec(r.ScanID, c.ID, i, c.Category, string(c.Status), c.Reason, len(c.Violations)); err != nil {
				return fmt.Errorf("failed to insert result for check %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

const runColumns = `scan_id, root, rules, project, fingerprint, files, started_at, duration_ms,
	passed, failed, skipped, spec_failed, crossref_failed`

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (h *History) List(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, scan_id"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run. A scan ID prefix is accepted when it is unambiguous.
func (h *History) Get(scanID string) (*Run, error) {
	rows, err := h.db.conn.Query("SELECT "+runColumns+" FROM runs WHERE scan_id LIKE ? || '%' LIMIT 2", scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, scanID)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("scan ID prefix %q is ambiguous", scanID)
	}
}

// Report returns the stored JSON report of a run.
func (h *History) Report(scanID string) ([]byte, error) {
	run, err := h.Get(scanID)
	if err != nil {
		return nil, err
	}

	var blob []byte
	if err := h.db.conn.QueryRow("SELECT report FROM runs WHERE scan_id = ?", run.ScanID).Scan(&blob); err != nil {
		return nil, err
	}
	return report.Decode(blob, report.CompressionZstd)
}

// CheckTrend returns a check's recorded outcomes, newest first.
func (h *History) CheckTrend(checkID int, limit int) ([]CheckRecord, error) {
	query := `
		SELECT c.scan_id, r.started_at, c.check_id, c.category, c.status, c.reason, c.violations
		FROM check_results c JOIN runs r ON r.scan_id = c.scan_id
		WHERE c.check_id = ?
		ORDER BY r.started_at DESC`
	args := []interface{}{checkID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckRecord
	for rows.Next() {
		var rec CheckRecord
		var started string
		if err := rows.Scan(&rec.ScanID, &started, &rec.CheckID, &rec.Category, &rec.Status, &rec.Reason, &rec.Violations); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(timeLayout, started)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (h *History) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	var removed int64
	err := h.db.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM runs WHERE scan_id NOT IN (
				SELECT scan_id FROM runs ORDER BY started_at DESC, scan_id LIMIT ?
			)
		`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if removed > 0 {
		h.db.logger.Debug("Pruned history", "removed", removed, "kept", keep)
	}
	return removed, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started string
	var durationMs int64
	err := row.Scan(
		&run.ScanID, &run.Root, &run.Rules, &run.Project, &run.Fingerprint, &run.Files,
		&started, &durationMs, &run.Passed, &run.Failed, &run.Skipped,
		&run.SpecFailed, &run.CrossRefFailed,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt, err = time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", started, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
