// Package storage defines the persistence interface for session snapshots,
// archived documents, export outcomes, and job applications.
package storage

import (
	"context"
	"errors"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// ErrNotFound is returned for lookups of unknown IDs.
var ErrNotFound = errors.New("storage: not found")

// Storage defines all persistence operations.
type Storage interface {
	// Session snapshots. SaveSnapshot is an idempotent upsert keyed by
	// session ID: replaying the same snapshot leaves the row unchanged.
	SaveSnapshot(ctx context.Context, sessionID string, states []models.DocumentState, cursor int) error
	LoadSnapshot(ctx context.Context, sessionID string) ([]models.DocumentState, int, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error

	// Archived documents.
	SaveDocument(ctx context.Context, doc *models.SavedDocument) error
	GetDocument(ctx context.Context, id string) (*models.SavedDocument, error)
	ListDocuments(ctx context.Context, userID string, offset, limit int) ([]*models.SavedDocument, error)
	DeleteDocument(ctx context.Context, id string) error

	// Export outcomes.
	RecordOutcome(ctx context.Context, sessionID string, o models.ExportOutcome) error
	ListOutcomes(ctx context.Context, sessionID string, limit int) ([]models.ExportOutcome, error)

	// Job applications.
	CreateJob(ctx context.Context, job *models.JobApplication) error
	GetJob(ctx context.Context, id string) (*models.JobApplication, error)
	ListJobs(ctx context.Context, userID string) ([]*models.JobApplication, error)
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, notes string) error
	DeleteJob(ctx context.Context, id string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountSnapshots(ctx context.Context) (int64, error)

	Close() error
}
