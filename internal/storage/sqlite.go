// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_snapshots (
		session_id TEXT PRIMARY KEY,
		states TEXT NOT NULL,
		cursor INTEGER NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS saved_documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		target_role TEXT,
		preview_text TEXT,
		state TEXT NOT NULL,
		goals TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_documents_user ON saved_documents(user_id, created_at);

	CREATE TABLE IF NOT EXISTS export_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		succeeded INTEGER NOT NULL,
		degraded INTEGER NOT NULL,
		fixes_applied INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		reason TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_session ON export_outcomes(session_id, created_at);

	CREATE TABLE IF NOT EXISTS job_applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		company TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		date_applied TIMESTAMP,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_user ON job_applications(user_id);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSnapshot upserts the full history for a session. Writing the same
// snapshot twice leaves the stored states and cursor identical.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, sessionID string, states []models.DocumentState, cursor int) error {
	statesJSON, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("failed to marshal states: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (session_id, states, cursor, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   states = excluded.states,
		   cursor = excluded.cursor,
		   updated_at = excluded.updated_at`,
		sessionID, string(statesJSON), cursor, time.Now(),
	)
	return err
}

// LoadSnapshot returns the stored history for a session.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, sessionID string) ([]models.DocumentState, int, error) {
	var statesJSON string
	var cursor int
	err := s.db.QueryRowContext(ctx,
		`SELECT states, cursor FROM session_snapshots WHERE session_id = ?`, sessionID,
	).Scan(&statesJSON, &cursor)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	var states []models.DocumentState
	if err := json.Unmarshal([]byte(statesJSON), &states); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal states: %w", err)
	}
	return states, cursor, nil
}

// DeleteSnapshot removes a session's stored history. Returns ErrNotFound when
// no snapshot exists for the session.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE session_id = ?`, sessionID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveDocument archives a document state.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *models.SavedDocument) error {
	stateJSON, err := json.Marshal(doc.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	goalsJSON, err := json.Marshal(doc.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_documents (id, user_id, target_role, preview_text, state, goals, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.TargetRole, doc.PreviewText, string(stateJSON), string(goalsJSON), doc.CreatedAt,
	)
	return err
}

// GetDocument returns an archived document by ID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.SavedDocument, error) {
	var doc models.SavedDocument
	var stateJSON, goalsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, target_role, preview_text, state, goals, created_at
		 FROM saved_documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.UserID, &doc.TargetRole, &doc.PreviewText, &stateJSON, &goalsJSON, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stateJSON), &doc.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if goalsJSON != "" {
		if err := json.Unmarshal([]byte(goalsJSON), &doc.Goals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
		}
	}
	return &doc, nil
}

// ListDocuments returns a user's archived documents, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, userID string, offset, limit int) ([]*models.SavedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, target_role, preview_text, state, goals, created_at
		 FROM saved_documents WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.SavedDocument
	for rows.Next() {
		var doc models.SavedDocument
		var stateJSON, goalsJSON string
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.TargetRole, &doc.PreviewText, &stateJSON, &goalsJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(stateJSON), &doc.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		if goalsJSON != "" {
			_ = json.Unmarshal([]byte(goalsJSON), &doc.Goals)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes an archived document by ID. Returns ErrNotFound when
// no such document exists.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordOutcome appends one export outcome for a session.
func (s *SQLiteStorage) RecordOutcome(ctx context.Context, sessionID string, o models.ExportOutcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_outcomes (session_id, succeeded, degraded, fixes_applied, warning_count, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, boolToInt(o.Succeeded), boolToInt(o.Degraded), o.FixesApplied, o.WarningCount, o.Reason, o.Timestamp,
	)
	return err
}

// ListOutcomes returns the most recent outcomes for a session, newest first.
func (s *SQLiteStorage) ListOutcomes(ctx context.Context, sessionID string, limit int) ([]models.ExportOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT succeeded, degraded, fixes_applied, warning_count, reason, created_at
		 FROM export_outcomes WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.ExportOutcome
	for rows.Next() {
		var o models.ExportOutcome
		var succeeded, degraded int
		if err := rows.Scan(&succeeded, &degraded, &o.FixesApplied, &o.WarningCount, &o.Reason, &o.Timestamp); err != nil {
			return nil, err
		}
		o.Succeeded = succeeded != 0
		o.Degraded = degraded != 0
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// CreateJob inserts a job application.
func (s *SQLiteStorage) CreateJob(ctx context.Context, job *models.JobApplication) error {
	if job.DateApplied.IsZero() {
		job.DateApplied = time.Now()
	}
	if job.Status == "" {
		job.Status = models.JobSaved
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_applications (id, user_id, company, role, status, date_applied, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.Company, job.Role, string(job.Status), job.DateApplied, job.Notes,
	)
	return err
}

// GetJob returns a job application by ID.
func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*models.JobApplication, error) {
	var job models.JobApplication
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company, role, status, date_applied, notes
		 FROM job_applications WHERE id = ?`, id,
	).Scan(&job.ID, &job.UserID, &job.Company, &job.Role, &status, &job.DateApplied, &job.Notes)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	return &job, nil
}

// ListJobs returns all job applications for a user, most recent first.
func (s *SQLiteStorage) ListJobs(ctx context.Context, userID string) ([]*models.JobApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, company, role, status, date_applied, notes
		 FROM job_applications WHERE user_id = ? ORDER BY date_applied DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.JobApplication
	for rows.Next() {
		var job models.JobApplication
		var status string
		if err := rows.Scan(&job.ID, &job.UserID, &job.Company, &job.Role, &status, &job.DateApplied, &job.Notes); err != nil {
			return nil, err
		}
		job.Status = models.JobStatus(status)
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus moves a job application through the pipeline.
func (s *SQLiteStorage) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, notes string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE job_applications SET status = ?, notes = ? WHERE id = ?`,
		string(status), notes, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteJob removes a job application by ID. Returns ErrNotFound when no such
// job exists.
func (s *SQLiteStorage) DeleteJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM job_applications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountDocuments returns the total number of archived documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_documents`).Scan(&count)
	return count, err
}

// CountSnapshots returns the total number of stored session snapshots.
func (s *SQLiteStorage) CountSnapshots(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_snapshots`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
