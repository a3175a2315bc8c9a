// Package storage archives pipeline runs in a SQLite database: the raw
// and synchronized robot pose streams, the detection stream, and the
// tracker results. Archived runs are what the chart tool reads.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agvkit/loadtrack/internal/pose"
)

// Run describes one archived pipeline run.
type Run struct {
	ID             int64
	CreatedAt      time.Time
	InputPath      string
	RobotPoseCount int
	DetectionCount int
}

// Store handles database operations. Connections are opened lazily,
// one for writing (with schema initialization) and one read-only.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store for the database at dbPath. No connection is
// opened until the first operation.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateRun records a new pipeline run and returns its unique identifier.
func (s *Store) CreateRun(ctx context.Context, inputPath string, robotPoseCount, detectionCount int) (runID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, inputPath, robotPoseCount, detectionCount)
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	runID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting run ID: %w", err)
	}
	return
}

// Run retrieves a specific archived run by its ID.
func (s *Store) Run(ctx context.Context, id int64) (run *Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var r Run
	if err = stmt.QueryRowContext(ctx, id).Scan(&r.ID, &r.CreatedAt, &r.InputPath, &r.RobotPoseCount, &r.DetectionCount); err != nil {
		err = fmt.Errorf("scanning run: %w", err)
		return
	}
	return &r, nil
}

// LatestRunID returns the ID of the most recently archived run.
func (s *Store) LatestRunID(ctx context.Context) (runID int64, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	if err = db.QueryRowContext(ctx, selectLatestRunSQL).Scan(&runID); err != nil {
		err = fmt.Errorf("scanning latest run ID: %w", err)
	}
	return
}

// StoreRobotPoses archives a robot pose stream for a run in a single
// transaction. The synchronized flag separates the raw localization
// stream from the resampled one.
func (s *Store) StoreRobotPoses(ctx context.Context, runID int64, synchronized bool, poses []pose.TimedRobotPose) (err error) {
	if len(poses) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertRobotPoseSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, p := range poses {
		if _, err = stmt.ExecContext(ctx, runID, synchronized, p.Time, p.Pose.X, p.Pose.Y, p.Pose.Orientation); err != nil {
			return fmt.Errorf("inserting robot pose: %w", err)
		}
	}

	return tx.Commit()
}

// RobotPoses reads back an archived robot pose stream in insertion order.
func (s *Store) RobotPoses(ctx context.Context, runID int64, synchronized bool) (poses []pose.TimedRobotPose, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRobotPosesSQL, runID, synchronized)
	if err != nil {
		err = fmt.Errorf("querying robot poses: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var p pose.TimedRobotPose
		if err = rows.Scan(&p.Time, &p.Pose.X, &p.Pose.Y, &p.Pose.Orientation); err != nil {
			err = fmt.Errorf("scanning robot pose: %w", err)
			return
		}
		poses = append(poses, p)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("reading robot poses: %w", err)
	}
	return
}

// StoreDetections archives the detection stream for a run, flattened
// to one row per detected load carrier, in a single transaction.
func (s *Store) StoreDetections(ctx context.Context, runID int64, frames []pose.TimedDetectionPoses) (err error) {
	if len(frames) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertDetectionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, frame := range frames {
		for _, d := range frame.Detections {
			detectionType := sql.NullString{String: d.Type, Valid: d.Type != ""}
			confidence := sql.NullFloat64{Float64: d.Confidence, Valid: d.Confidence != 0}

			if _, err = stmt.ExecContext(ctx, runID, frame.Time, d.Pose.X, d.Pose.Y, d.Pose.Orientation, detectionType, confidence); err != nil {
				return fmt.Errorf("inserting detection: %w", err)
			}
		}
	}

	return tx.Commit()
}

// StoreGlobalPoses archives tracker results for a run, flattened to one
// row per global-frame pose, in a single transaction.
func (s *Store) StoreGlobalPoses(ctx context.Context, runID int64, results []pose.TimedGlobalPoses) (err error) {
	if len(results) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertGlobalPoseSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, frame := range results {
		for _, p := range frame.Poses {
			if _, err = stmt.ExecContext(ctx, runID, frame.Time, p.X, p.Y, p.Theta); err != nil {
				return fmt.Errorf("inserting global pose: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GlobalPoses reads back archived tracker results grouped by frame
// timestamp, in insertion order.
func (s *Store) GlobalPoses(ctx context.Context, runID int64) (results []pose.TimedGlobalPoses, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectGlobalPosesSQL, runID)
	if err != nil {
		err = fmt.Errorf("querying global poses: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var frameTime float64
		var p pose.GlobalPose
		if err = rows.Scan(&frameTime, &p.X, &p.Y, &p.Theta); err != nil {
			err = fmt.Errorf("scanning global pose: %w", err)
			return
		}

		if n := len(results); n > 0 && results[n-1].Time == frameTime {
			results[n-1].Poses = append(results[n-1].Poses, p)
			continue
		}
		results = append(results, pose.TimedGlobalPoses{Time: frameTime, Poses: []pose.GlobalPose{p}})
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("reading global poses: %w", err)
	}
	return
}

// Close releases both database connections. It is safe to call Close
// multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing write connection: %w", err))
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing read connection: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
	})

	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}
