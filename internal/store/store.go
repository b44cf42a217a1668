// Package store keeps raw observation records in SQLite, grouped into
// datasets, and reassembles them into frames for replay.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/oceanview/internal/monitoring"
	"github.com/banshee-data/oceanview/internal/ocean/points"
)

var logf = monitoring.Tagged("store")

// ErrDatasetNotFound is returned for an unknown dataset id.
var ErrDatasetNotFound = errors.New("dataset not found")

// Store wraps the observation database.
type Store struct {
	db *sql.DB
}

// Dataset describes one imported collection of observations.
type Dataset struct {
	ID           string
	Name         string
	Source       string
	CreatedAt    time.Time
	Observations int
	Frames       int // distinct timestamps
}

// InsertStats reports what InsertRecords stored.
type InsertStats struct {
	Inserted int
	// NoTime counts records skipped because they carry no usable timestamp.
	NoTime int
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps PRAGMA settings and avoids SQLITE_BUSY between
	// pooled writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDataset registers a new dataset and returns it with a fresh id.
func (s *Store) CreateDataset(ctx context.Context, name, source string) (Dataset, error) {
	ds := Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		Source:    source,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (dataset_id, name, source, created_at) VALUES (?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.Source, ds.CreatedAt.Unix(),
	)
	if err != nil {
		return Dataset{}, fmt.Errorf("create dataset %q: %w", name, err)
	}
	logf("created dataset %s (%s)", ds.ID, name)
	return ds, nil
}

// InsertRecords stores raw records under datasetID in one transaction.
// Records without a timestamp cannot be placed in a frame and are skipped.
func (s *Store) InsertRecords(ctx context.Context, datasetID string, recs []points.Record) (InsertStats, error) {
	var stats InsertStats
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return stats, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (dataset_id, ts_unix_nanos, record_json) VALUES (?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		ts, ok := points.RecordTime(rec)
		if !ok {
			stats.NoTime++
			continue
		}
		body, err := json.Marshal(rec)
		if err != nil {
			return InsertStats{}, fmt.Errorf("encode record: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, datasetID, ts.UnixNano(), string(body)); err != nil {
			return InsertStats{}, fmt.Errorf("insert record: %w", err)
		}
		stats.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return InsertStats{}, fmt.Errorf("commit insert: %w", err)
	}
	if stats.NoTime > 0 {
		logf("dataset %s: skipped %d records without a timestamp", datasetID, stats.NoTime)
	}
	return stats, nil
}

// ListDatasets returns every dataset, newest first, with row and frame counts.
func (s *Store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.dataset_id, d.name, d.source, d.created_at,
		       COUNT(o.observation_id), COUNT(DISTINCT o.ts_unix_nanos)
		FROM datasets d
		LEFT JOIN observations o ON o.dataset_id = d.dataset_id
		GROUP BY d.dataset_id
		ORDER BY d.created_at DESC, d.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		var ds Dataset
		var created int64
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Source, &created, &ds.Observations, &ds.Frames); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		ds.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, ds)
	}
	return out, rows.Err()
}

// DeleteDataset removes a dataset and its observations.
func (s *Store) DeleteDataset(ctx context.Context, datasetID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", datasetID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	return nil
}

// LoadFrames reads a dataset back as frames ordered by timestamp. Each
// frame's dataset tag is the dataset id. Records that fail ingestion are
// counted in the returned stats and skipped.
func (s *Store) LoadFrames(ctx context.Context, datasetID string) ([]*points.Frame, points.IngestStats, error) {
	var total points.IngestStats
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, total, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts_unix_nanos, record_json FROM observations
		WHERE dataset_id = ?
		ORDER BY ts_unix_nanos, observation_id`, datasetID)
	if err != nil {
		return nil, total, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var (
		frames  []*points.Frame
		batch   []points.Record
		batchTS int64
		started bool
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		pts, stats := points.IngestAll(batch)
		total.Accepted += stats.Accepted
		total.Malformed += stats.Malformed
		total.OutOfRange += stats.OutOfRange
		frames = append(frames, points.NewFrame(len(frames), datasetID, time.Unix(0, batchTS).UTC(), pts))
		batch = batch[:0]
	}

	for rows.Next() {
		var ts int64
		var body string
		if err := rows.Scan(&ts, &body); err != nil {
			return nil, total, fmt.Errorf("scan observation: %w", err)
		}
		if started && ts != batchTS {
			flush()
		}
		batchTS, started = ts, true

		rec, err := decodeRecord(body)
		if err != nil {
			total.Malformed++
			continue
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, total, fmt.Errorf("read observations: %w", err)
	}
	flush()

	logf("loaded dataset %s: %d frames, %d points, %d skipped", datasetID, len(frames), total.Accepted, total.Skipped())
	return frames, total, nil
}

func (s *Store) requireDataset(ctx context.Context, datasetID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM datasets WHERE dataset_id = ?`, datasetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	if err != nil {
		return fmt.Errorf("look up dataset %s: %w", datasetID, err)
	}
	return nil
}

func decodeRecord(body string) (points.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var rec points.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
