// Package store persists parsed resumes and saved job applications in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"resumescout/internal/engine"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite handle. One Store per process; SQLite gets a single
// connection because it has a single writer anyway.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if needed and
// ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS resumes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		filename   TEXT NOT NULL,
		name       TEXT,
		email      TEXT,
		record     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS applications (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id      TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL,
		location    TEXT,
		provider    TEXT,
		apply_url   TEXT,
		match_score REAL,
		status      TEXT NOT NULL DEFAULT 'saved',
		notes       TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`)
	return err
}

// SavedResume is one stored resume row with its parsed record inflated.
type SavedResume struct {
	ID        int64               `json:"id"`
	Filename  string              `json:"filename"`
	Record    engine.ResumeRecord `json:"record"`
	CreatedAt string              `json:"created_at"`
}

// SaveResume stores a parsed resume and returns its row id. The full record
// is kept as JSON; name and email are denormalized for listing.
func (s *Store) SaveResume(ctx context.Context, filename string, rec engine.ResumeRecord) (int64, error) {
	blob, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("store: marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (filename, name, email, record, created_at) VALUES (?, ?, ?, ?, ?)`,
		filename, rec.Contact.Name, rec.Contact.Email, string(blob), now)
	if err != nil {
		return 0, fmt.Errorf("store: insert resume: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// GetResume loads one stored resume by id.
func (s *Store) GetResume(ctx context.Context, id int64) (*SavedResume, error) {
	var sr SavedResume
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, record, created_at FROM resumes WHERE id = ?`, id).
		Scan(&sr.ID, &sr.Filename, &blob, &sr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get resume: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &sr.Record); err != nil {
		return nil, fmt.Errorf("store: decode record: %w", err)
	}
	return &sr, nil
}

// Application is one saved listing and its lifecycle status.
type Application struct {
	ID         int64   `json:"id"`
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	Location   string  `json:"location,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	ApplyURL   string  `json:"apply_url,omitempty"`
	MatchScore float64 `json:"match_score"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// SaveApplication records a listing with the initial saved status. Saving
// the same listing twice is a no-op that returns the existing row id.
func (s *Store) SaveApplication(ctx context.Context, l engine.JobListing) (int64, error) {
	if l.ID == "" || l.Title == "" {
		return 0, errors.New("store: listing id and title are required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (job_id, title, company, location, provider, apply_url, match_score, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO NOTHING`,
		l.ID, l.Title, l.Company, l.Location, l.Provider, l.ApplyURL, l.MatchScore,
		string(engine.StatusSaved), now, now)
	if err != nil {
		return 0, fmt.Errorf("store: insert application: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM applications WHERE job_id = ?`, l.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: lookup application: %w", err)
	}
	return id, nil
}

func validStatus(status string) bool {
	switch engine.ApplicationStatus(status) {
	case engine.StatusSaved, engine.StatusApplied, engine.StatusInProgress, engine.StatusRejected:
		return true
	}
	return false
}

// UpdateApplication changes status and/or notes of a saved listing.
func (s *Store) UpdateApplication(ctx context.Context, id int64, status, notes string) error {
	if id <= 0 {
		return errors.New("store: id is required")
	}
	if status == "" && notes == "" {
		return errors.New("store: nothing to update")
	}
	if status != "" && !validStatus(strings.ToLower(status)) {
		return fmt.Errorf("store: invalid status %q", status)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var res sql.Result
	var err error
	switch {
	case status != "" && notes != "":
		res, err = s.db.ExecContext(ctx,
			`UPDATE applications SET status=?, notes=?, updated_at=? WHERE id=?`,
			strings.ToLower(status), notes, now, id)
	case status != "":
		res, err = s.db.ExecContext(ctx,
			`UPDATE applications SET status=?, updated_at=? WHERE id=?`,
			strings.ToLower(status), now, id)
	default:
		res, err = s.db.ExecContext(ctx,
			`UPDATE applications SET notes=?, updated_at=? WHERE id=?`,
			notes, now, id)
	}
	if err != nil {
		return fmt.Errorf("store: update application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListApplications returns saved listings, newest activity first, optionally
// narrowed to one status.
func (s *Store) ListApplications(ctx context.Context, status string, limit int) ([]Application, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if status != "" {
		status = strings.ToLower(status)
		if !validStatus(status) {
			return nil, fmt.Errorf("store: invalid status %q", status)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, job_id, title, company, location, provider, apply_url, match_score, status, notes, created_at, updated_at
			 FROM applications WHERE status = ? ORDER BY updated_at DESC, id DESC LIMIT ?`, status, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, job_id, title, company, location, provider, apply_url, match_score, status, notes, created_at, updated_at
			 FROM applications ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		var a Application
		var location, provider, applyURL, notes sql.NullString
		var score sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.JobID, &a.Title, &a.Company, &location, &provider,
			&applyURL, &score, &a.Status, &notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan application: %w", err)
		}
		a.Location = location.String
		a.Provider = provider.String
		a.ApplyURL = applyURL.String
		a.Notes = notes.String
		a.MatchScore = score.Float64
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
