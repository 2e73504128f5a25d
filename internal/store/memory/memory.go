// Package memory is an in-process meeting store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/store"
)

// Store keeps meetings in a map guarded by a mutex. Values are copied on the way
// in and out so callers never share roster slices with the store.
type Store struct {
	mu       sync.RWMutex
	meetings map[string]*models.Meeting
	streams  map[string]string
	now      func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		meetings: make(map[string]*models.Meeting),
		streams:  make(map[string]string),
		now:      time.Now,
	}
}

func (s *Store) Get(ctx context.Context, id string) (*models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *Store) GetByStream(ctx context.Context, streamID string) (*models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.streams[streamID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.meetings[id].Clone(), nil
}

func (s *Store) Insert(ctx context.Context, m *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.streams[m.StreamID]; taken {
		return store.ErrDuplicateStream
	}
	s.meetings[m.ID] = m.Clone()
	s.streams[m.StreamID] = m.ID
	return nil
}

func (s *Store) Patch(ctx context.Context, id string, version int64, p models.MeetingPatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if m.Version != version {
		return 0, store.ErrVersionConflict
	}
	next := m.Clone()
	p.Apply(next)
	next.Version++
	next.UpdatedAt = s.now().UTC()
	s.meetings[id] = next
	return next.Version, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.streams, m.StreamID)
	delete(s.meetings, id)
	return nil
}

func (s *Store) ListByHost(ctx context.Context, hostID string) ([]models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Meeting
	for _, m := range s.meetings {
		if m.HostID == hostID {
			out = append(out, *m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListByStatus(ctx context.Context, status models.Status, startsBefore time.Time, limit int) ([]models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Meeting
	for _, m := range s.meetings {
		if m.Status == status && m.StartsAt != nil && m.StartsAt.Before(startsBefore) {
			out = append(out, *m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(*out[j].StartsAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListEnded(ctx context.Context, status models.Status, endedBefore time.Time, limit int) ([]models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Meeting
	for _, m := range s.meetings {
		if m.Status != status || m.StartsAt == nil {
			continue
		}
		if m.StartsAt.Add(time.Duration(m.Duration) * time.Minute).Before(endedBefore) {
			out = append(out, *m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(*out[j].StartsAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Close(ctx context.Context) error { return nil }
