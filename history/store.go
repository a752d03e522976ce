// Package history keeps a SQLite log of finished runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded run.
type Run struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	VideoID          string    `json:"video_id,omitempty"`
	Translate        bool      `json:"translate"`
	TargetLanguage   string    `json:"target_language,omitempty"`
	State            string    `json:"state"`
	ErrorKind        string    `json:"error_kind,omitempty"`
	Message          string    `json:"message,omitempty"`
	CaptionLanguage  string    `json:"caption_language,omitempty"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	Warnings         []string  `json:"warnings,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// Store is a lazily opened SQLite database. An open failure is cached and
// returned by every later call.
type Store struct {
	path string

	once sync.Once
	db   *sql.DB
	err  error
}

// Open returns a store for the database at path. Nothing touches the disk
// until the first call.
func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) conn() (*sql.DB, error) {
	s.once.Do(func() {
		if dir := filepath.Dir(s.path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				s.err = fmt.Errorf("history: mkdir %s: %w", dir, err)
				return
			}
		}
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			s.err = fmt.Errorf("history: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initSchema(db); err != nil {
			_ = db.Close()
			s.err = fmt.Errorf("history: init schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.err
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id                TEXT PRIMARY KEY,
		url               TEXT NOT NULL,
		video_id          TEXT,
		translate         INTEGER NOT NULL DEFAULT 0,
		target_language   TEXT,
		state             TEXT NOT NULL,
		error_kind        TEXT,
		message           TEXT,
		caption_language  TEXT,
		detected_language TEXT,
		warnings          TEXT,
		started_at        TEXT NOT NULL,
		finished_at       TEXT NOT NULL
	)`)
	return err
}

// Save inserts or replaces a run.
func (s *Store) Save(ctx context.Context, r Run) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if r.ID == "" {
		return errors.New("history: run id is required")
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, url, video_id, translate, target_language, state, error_kind, message,
			 caption_language, detected_language, warnings, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.VideoID, r.Translate, r.TargetLanguage, r.State, r.ErrorKind, r.Message,
		r.CaptionLanguage, r.DetectedLanguage, strings.Join(r.Warnings, ","),
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: save %s: %w", r.ID, err)
	}
	return nil
}

const selectRuns = `SELECT id, url, video_id, translate, target_language, state, error_kind, message,
	caption_language, detected_language, warnings, started_at, finished_at FROM runs`

// List returns the most recent runs first. limit <= 0 means 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	r, err := scanRun(db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Close closes the database if it was opened.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                          Run
		videoID, target, errorKind sql.NullString
		message, captionLang       sql.NullString
		detectedLang, warnings     sql.NullString
		startedAt, finishedAt      string
	)
	err := sc.Scan(&r.ID, &r.URL, &videoID, &r.Translate, &target, &r.State, &errorKind, &message,
		&captionLang, &detectedLang, &warnings, &startedAt, &finishedAt)
	if err != nil {
		return Run{}, err
	}

	r.VideoID = videoID.String
	r.TargetLanguage = target.String
	r.ErrorKind = errorKind.String
	r.Message = message.String
	r.CaptionLanguage = captionLang.String
	r.DetectedLanguage = detectedLang.String
	if warnings.String != "" {
		r.Warnings = strings.Split(warnings.String, ",")
	}
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	r.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
	return r, nil
}
