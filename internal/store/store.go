// Package store defines the meeting record store contract shared by the
// memory, Postgres and Mongo backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aura-meetings/backend/internal/models"
)

var (
	// ErrNotFound is returned when no meeting matches.
	ErrNotFound = errors.New("meeting not found")
	// ErrVersionConflict is returned by Patch when the stored version moved on.
	ErrVersionConflict = errors.New("meeting version conflict")
	// ErrDuplicateStream is returned by Insert when the stream id is taken.
	ErrDuplicateStream = errors.New("stream id already exists")
)

// Store persists meetings as single documents with optimistic versioning.
type Store interface {
	Get(ctx context.Context, id string) (*models.Meeting, error)
	GetByStream(ctx context.Context, streamID string) (*models.Meeting, error)
	// Insert stores m. m.Version must already be set (normally 1).
	Insert(ctx context.Context, m *models.Meeting) error
	// Patch applies p only when the stored version equals version, bumps the
	// version and updatedAt, and returns the new version.
	Patch(ctx context.Context, id string, version int64, p models.MeetingPatch) (int64, error)
	Delete(ctx context.Context, id string) error
	// ListByHost returns the host's meetings, newest first.
	ListByHost(ctx context.Context, hostID string) ([]models.Meeting, error)
	// ListByStatus returns meetings in status whose startsAt is before the given
	// instant, earliest first.
	ListByStatus(ctx context.Context, status models.Status, startsBefore time.Time, limit int) ([]models.Meeting, error)
	// ListEnded returns meetings in status whose startsAt + duration is before
	// endedBefore, earliest start first.
	ListEnded(ctx context.Context, status models.Status, endedBefore time.Time, limit int) ([]models.Meeting, error)
	Close(ctx context.Context) error
}
