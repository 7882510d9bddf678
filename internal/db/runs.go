package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tdaseries/internal/config"
	"github.com/banshee-data/tdaseries/internal/tda/features"
	"github.com/banshee-data/tdaseries/internal/tda/homology"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("db: run not found")

// Run is one pipeline invocation. Only the parameters that shape the
// output are persisted: Workers, OnWindowError and ProgressEvery are not.
type Run struct {
	ID        string
	CreatedAt time.Time
	Input     string
	Version   string
	Params    config.Pipeline
	Windows   int
}

// InsertRun stores run. A missing ID is generated and a zero CreatedAt is
// set to now; both are written back into run.
func (db *DB) InsertRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	p := run.Params

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, created_at_ns, input, version, window_size, max_edge_length,
			cpx_dimension, field_charac, min_persistence, homology_dimension,
			norm_exponent, distance, windows
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Input, run.Version, p.WindowSize,
		nullIfInf(p.MaxEdgeLength), p.MaxDimension, p.FieldCharacteristic,
		p.MinPersistence, p.HomologyDimension, p.NormExponent, p.Distance, run.Windows,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Runs returns every stored run, oldest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, created_at_ns, input, version, window_size, max_edge_length,
			cpx_dimension, field_charac, min_persistence, homology_dimension,
			norm_exponent, distance, windows
		FROM runs ORDER BY created_at_ns, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			createdNs int64
			maxEdge   sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &createdNs, &r.Input, &r.Version, &r.Params.WindowSize, &maxEdge,
			&r.Params.MaxDimension, &r.Params.FieldCharacteristic, &r.Params.MinPersistence,
			&r.Params.HomologyDimension, &r.Params.NormExponent, &r.Params.Distance, &r.Windows); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdNs).UTC()
		r.Params.MaxEdgeLength = math.Inf(1)
		if maxEdge.Valid {
			r.Params.MaxEdgeLength = maxEdge.Float64
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertRows stores the feature table of a run in one transaction. NaN
// norms of failed windows are stored as NULL.
func (db *DB) InsertRows(ctx context.Context, runID string, t features.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feature_rows (run_id, window_index, coords, norm, label)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range t {
		norm := sql.NullFloat64{Float64: r.Norm, Valid: !math.IsNaN(r.Norm)}
		if _, err := stmt.ExecContext(ctx, runID, r.Index, formatCoords(r.Coords), norm, r.Label); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", r.Index, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE runs SET windows = ? WHERE run_id = ?`, len(t), runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return tx.Commit()
}

// Rows returns the feature table of a run in window order.
func (db *DB) Rows(ctx context.Context, runID string) (features.Table, error) {
	if err := db.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT window_index, coords, norm, label
		FROM feature_rows WHERE run_id = ? ORDER BY window_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var t features.Table
	for rows.Next() {
		var (
			r      features.Row
			coords string
			norm   sql.NullFloat64
		)
		if err := rows.Scan(&r.Index, &coords, &norm, &r.Label); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if r.Coords, err = parseCoords(coords); err != nil {
			return nil, fmt.Errorf("window %d: %w", r.Index, err)
		}
		r.Norm = math.NaN()
		if norm.Valid {
			r.Norm = norm.Float64
		}
		t = append(t, r)
	}
	return t, rows.Err()
}

// InsertIntervals stores diagrams[i] as the intervals of window i. Nil
// diagrams are skipped and essential deaths are stored as NULL.
func (db *DB) InsertIntervals(ctx context.Context, runID string, diagrams []homology.Diagram) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO intervals (run_id, window_index, dim, birth, death)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare interval insert: %w", err)
	}
	defer stmt.Close()

	for w, d := range diagrams {
		for _, iv := range d {
			if _, err := stmt.ExecContext(ctx, runID, w, iv.Dim, iv.Birth, nullIfInf(iv.Death)); err != nil {
				return fmt.Errorf("failed to insert interval of window %d: %w", w, err)
			}
		}
	}
	return tx.Commit()
}

// Intervals returns the stored diagram of one window, ordered by dimension,
// birth and death.
func (db *DB) Intervals(ctx context.Context, runID string, window int) (homology.Diagram, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT dim, birth, death FROM intervals
		WHERE run_id = ? AND window_index = ?
		ORDER BY dim, birth, death IS NULL, death`, runID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var d homology.Diagram
	for rows.Next() {
		var (
			iv    homology.Interval
			death sql.NullFloat64
		)
		if err := rows.Scan(&iv.Dim, &iv.Birth, &death); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		iv.Death = math.Inf(1)
		if death.Valid {
			iv.Death = death.Float64
		}
		d = append(d, iv)
	}
	return d, rows.Err()
}

func (db *DB) requireRun(ctx context.Context, runID string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func nullIfInf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsInf(v, 0)}
}

// formatCoords encodes coordinates as space-separated shortest floats.
// NaN round-trips.
func formatCoords(coords []float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func parseCoords(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
