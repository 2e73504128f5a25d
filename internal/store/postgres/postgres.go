// Package postgres stores meetings in PostgreSQL with the roster, settings and
// recordings held in JSONB columns of a single row.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/store"
)

const uniqueViolation = "23505"

const columns = `id, stream_id, meeting_url, title, description, starts_at, duration_minutes, status, type,
	host_id, host_name, host_image, is_recurring, require_registration, max_participants,
	settings, password_hash, participants, recordings, analytics, version, created_at, updated_at`

// Store handles meeting persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed meeting store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns a meeting by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Meeting, error) {
	const q = `SELECT ` + columns + ` FROM meetings WHERE id = $1`
	return scanMeeting(s.pool.QueryRow(ctx, q, id))
}

// GetByStream returns a meeting by its stream reference.
func (s *Store) GetByStream(ctx context.Context, streamID string) (*models.Meeting, error) {
	const q = `SELECT ` + columns + ` FROM meetings WHERE stream_id = $1`
	return scanMeeting(s.pool.QueryRow(ctx, q, streamID))
}

// Insert stores a new meeting.
func (s *Store) Insert(ctx context.Context, m *models.Meeting) error {
	const q = `INSERT INTO meetings (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	settings, participants, recordings, analytics, err := encodeDocuments(m)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, q,
		m.ID, m.StreamID, m.MeetingURL, m.Title, m.Description, m.StartsAt, m.Duration, string(m.Status), string(m.Type),
		m.HostID, m.HostName, m.HostImage, m.IsRecurring, m.RequireRegistration, m.MaxParticipants,
		settings, m.Settings.PasswordHash, participants, recordings, analytics, m.Version, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicateStream
		}
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

// Patch applies p when the stored version still equals version.
func (s *Store) Patch(ctx context.Context, id string, version int64, p models.MeetingPatch) (int64, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.StartsAt != nil {
		add("starts_at", *p.StartsAt)
	}
	if p.Duration != nil {
		add("duration_minutes", *p.Duration)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.IsRecurring != nil {
		add("is_recurring", *p.IsRecurring)
	}
	if p.RequireRegistration != nil {
		add("require_registration", *p.RequireRegistration)
	}
	if p.MaxParticipants != nil {
		if *p.MaxParticipants == 0 {
			add("max_participants", nil)
		} else {
			add("max_participants", *p.MaxParticipants)
		}
	}
	if p.Settings != nil {
		raw, err := json.Marshal(p.Settings)
		if err != nil {
			return 0, fmt.Errorf("marshal settings: %w", err)
		}
		add("settings", raw)
		add("password_hash", p.Settings.PasswordHash)
	}
	if p.Participants != nil {
		raw, err := json.Marshal(p.Participants)
		if err != nil {
			return 0, fmt.Errorf("marshal participants: %w", err)
		}
		add("participants", raw)
	}
	if p.Analytics != nil {
		raw, err := json.Marshal(p.Analytics)
		if err != nil {
			return 0, fmt.Errorf("marshal analytics: %w", err)
		}
		add("analytics", raw)
	}

	args = append(args, id, version)
	q := fmt.Sprintf(`UPDATE meetings SET %s version = version + 1, updated_at = NOW()
		WHERE id = $%d AND version = $%d RETURNING version`,
		joinSets(sets), len(args)-1, len(args))

	var next int64
	err := s.pool.QueryRow(ctx, q, args...).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("patch meeting: %w", err)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM meetings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check meeting: %w", err)
	}
	if !exists {
		return 0, store.ErrNotFound
	}
	return 0, store.ErrVersionConflict
}

func joinSets(sets []string) string {
	if len(sets) == 0 {
		return ""
	}
	return strings.Join(sets, ", ") + ","
}

// Delete removes a meeting.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByHost returns meetings hosted by hostID, newest first.
func (s *Store) ListByHost(ctx context.Context, hostID string) ([]models.Meeting, error) {
	const q = `SELECT ` + columns + ` FROM meetings WHERE host_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, fmt.Errorf("list meetings by host: %w", err)
	}
	return collect(rows)
}

// ListByStatus returns meetings in status starting before startsBefore, earliest first.
func (s *Store) ListByStatus(ctx context.Context, status models.Status, startsBefore time.Time, limit int) ([]models.Meeting, error) {
	const q = `SELECT ` + columns + ` FROM meetings
		WHERE status = $1 AND starts_at IS NOT NULL AND starts_at < $2
		ORDER BY starts_at ASC LIMIT $3`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, q, string(status), startsBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list meetings by status: %w", err)
	}
	return collect(rows)
}

// ListEnded returns meetings in status whose scheduled end is before endedBefore.
func (s *Store) ListEnded(ctx context.Context, status models.Status, endedBefore time.Time, limit int) ([]models.Meeting, error) {
	const q = `SELECT ` + columns + ` FROM meetings
		WHERE status = $1 AND starts_at IS NOT NULL
		  AND starts_at + duration_minutes * interval '1 minute' < $2
		ORDER BY starts_at ASC LIMIT $3`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, q, string(status), endedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list ended meetings: %w", err)
	}
	return collect(rows)
}

// Close releases the pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func collect(rows pgx.Rows) ([]models.Meeting, error) {
	defer rows.Close()
	var list []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var (
		m                                       models.Meeting
		status, typ                             string
		settings, participants, recordings, ana []byte
	)
	err := row.Scan(
		&m.ID, &m.StreamID, &m.MeetingURL, &m.Title, &m.Description, &m.StartsAt, &m.Duration, &status, &typ,
		&m.HostID, &m.HostName, &m.HostImage, &m.IsRecurring, &m.RequireRegistration, &m.MaxParticipants,
		&settings, &m.Settings.PasswordHash, &participants, &recordings, &ana, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	m.Status = models.Status(status)
	m.Type = models.Type(typ)

	hash := m.Settings.PasswordHash
	if err := json.Unmarshal(settings, &m.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	m.Settings.PasswordHash = hash
	if err := json.Unmarshal(participants, &m.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if len(recordings) > 0 {
		if err := json.Unmarshal(recordings, &m.Recordings); err != nil {
			return nil, fmt.Errorf("decode recordings: %w", err)
		}
	}
	if len(ana) > 0 && string(ana) != "null" {
		m.Analytics = &models.Analytics{}
		if err := json.Unmarshal(ana, m.Analytics); err != nil {
			return nil, fmt.Errorf("decode analytics: %w", err)
		}
	}
	if m.StartsAt != nil {
		t := m.StartsAt.UTC()
		m.StartsAt = &t
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func encodeDocuments(m *models.Meeting) (settings, participants, recordings, analytics []byte, err error) {
	if settings, err = json.Marshal(m.Settings); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	roster := m.Participants
	if roster == nil {
		roster = []models.Participant{}
	}
	if participants, err = json.Marshal(roster); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal participants: %w", err)
	}
	recs := m.Recordings
	if recs == nil {
		recs = []models.Recording{}
	}
	if recordings, err = json.Marshal(recs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal recordings: %w", err)
	}
	if m.Analytics != nil {
		if analytics, err = json.Marshal(m.Analytics); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal analytics: %w", err)
		}
	}
	return settings, participants, recordings, analytics, nil
}
