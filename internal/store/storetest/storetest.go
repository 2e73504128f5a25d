// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// NewMeeting builds a valid meeting owned by hostID.
func NewMeeting(hostID string, createdAt time.Time) *models.Meeting {
	start := createdAt.Add(time.Hour).UTC().Truncate(time.Millisecond)
	return &models.Meeting{
		ID:       uuid.New().String(),
		StreamID: uuid.New().String(),
		Title:    "Weekly sync",
		StartsAt: &start,
		Duration: 30,
		Status:   models.StatusScheduled,
		Type:     models.TypeScheduled,
		HostID:   hostID,
		HostName: "Host " + hostID,
		Settings: models.DefaultSettings(),
		Participants: []models.Participant{
			{ID: hostID, Name: "Host " + hostID, Role: models.RoleHost, IsActive: true},
		},
		Version:   1,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

// Run exercises the store contract against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("DuplicateStream", func(t *testing.T) { testDuplicateStream(t, newStore(t)) })
	t.Run("PatchVersioning", func(t *testing.T) { testPatchVersioning(t, newStore(t)) })
	t.Run("PatchClearsCap", func(t *testing.T) { testPatchClearsCap(t, newStore(t)) })
	t.Run("ConcurrentPatch", func(t *testing.T) { testConcurrentPatch(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("ListByHost", func(t *testing.T) { testListByHost(t, newStore(t)) })
	t.Run("ListByStatus", func(t *testing.T) { testListByStatus(t, newStore(t)) })
	t.Run("ListEnded", func(t *testing.T) { testListEnded(t, newStore(t)) })
}

func testInsertGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := NewMeeting("host-a", time.Now())
	m.Settings.PasswordHash = "$2a$10$abc"
	m.Settings.PasswordProtected = true
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != m.Title || got.HostID != m.HostID || got.StreamID != m.StreamID {
		t.Errorf("Get: got %+v, want %+v", got, m)
	}
	if got.StartsAt == nil || !got.StartsAt.Equal(*m.StartsAt) {
		t.Errorf("StartsAt: got %v, want %v", got.StartsAt, m.StartsAt)
	}
	if len(got.Participants) != 1 || got.Participants[0].Role != models.RoleHost {
		t.Errorf("Participants: got %+v", got.Participants)
	}
	if got.Settings.PasswordHash != "$2a$10$abc" {
		t.Errorf("PasswordHash not persisted: %q", got.Settings.PasswordHash)
	}

	byStream, err := s.GetByStream(ctx, m.StreamID)
	if err != nil {
		t.Fatalf("GetByStream: %v", err)
	}
	if byStream.ID != m.ID {
		t.Errorf("GetByStream: got %q, want %q", byStream.ID, m.ID)
	}

	if _, err := s.Get(ctx, uuid.New().String()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
	if _, err := s.GetByStream(ctx, "no-such-stream"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetByStream missing: got %v, want ErrNotFound", err)
	}
}

func testDuplicateStream(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := NewMeeting("host-a", time.Now())
	if err := s.Insert(ctx, a); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b := NewMeeting("host-b", time.Now())
	b.StreamID = a.StreamID
	if err := s.Insert(ctx, b); !errors.Is(err, store.ErrDuplicateStream) {
		t.Fatalf("Insert duplicate: got %v, want ErrDuplicateStream", err)
	}
}

func testPatchVersioning(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := NewMeeting("host-a", time.Now())
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	title := "Renamed"
	roster := append(models.CloneParticipants(m.Participants),
		models.Participant{ID: "guest@example.com", Name: "Guest", Email: "guest@example.com", Role: models.RoleParticipant})
	v, err := s.Patch(ctx, m.ID, 1, models.MeetingPatch{Title: &title, Participants: roster})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if v != 2 {
		t.Errorf("version: got %d, want 2", v)
	}

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Renamed" || len(got.Participants) != 2 || got.Version != 2 {
		t.Errorf("after patch: title=%q participants=%d version=%d", got.Title, len(got.Participants), got.Version)
	}
	if got.Description != m.Description || got.Duration != m.Duration {
		t.Error("untouched fields changed")
	}

	if _, err := s.Patch(ctx, m.ID, 1, models.MeetingPatch{Title: &title}); !errors.Is(err, store.ErrVersionConflict) {
		t.Errorf("stale patch: got %v, want ErrVersionConflict", err)
	}
	if _, err := s.Patch(ctx, uuid.New().String(), 1, models.MeetingPatch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing patch: got %v, want ErrNotFound", err)
	}
}

func testPatchClearsCap(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := NewMeeting("host-a", time.Now())
	limit := 5
	m.MaxParticipants = &limit
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	zero := 0
	if _, err := s.Patch(ctx, m.ID, 1, models.MeetingPatch{MaxParticipants: &zero}); err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MaxParticipants != nil {
		t.Errorf("MaxParticipants: got %d, want nil", *got.MaxParticipants)
	}
}

// Exactly one of several writers holding the same version may win.
func testConcurrentPatch(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := NewMeeting("host-a", time.Now())
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := "writer"
			_, err := s.Patch(ctx, m.ID, 1, models.MeetingPatch{Title: &title})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrVersionConflict):
				conflicts++
			default:
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 || conflicts != writers-1 {
		t.Errorf("got %d wins and %d conflicts, want 1 and %d", wins, conflicts, writers-1)
	}
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := NewMeeting("host-a", time.Now())
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
	// The stream id is free again.
	again := NewMeeting("host-a", time.Now())
	again.StreamID = m.StreamID
	if err := s.Insert(ctx, again); err != nil {
		t.Errorf("reuse stream id after delete: %v", err)
	}
}

func testListByHost(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	hostID := "host-" + uuid.New().String()
	var ids []string
	for i := 0; i < 3; i++ {
		m := NewMeeting(hostID, base.Add(time.Duration(i)*time.Minute))
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, m.ID)
	}
	if err := s.Insert(ctx, NewMeeting("someone-else", base)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.ListByHost(ctx, hostID)
	if err != nil {
		t.Fatalf("ListByHost: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len: got %d, want 3", len(got))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}
}

func testListByStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()
	hostID := "host-" + uuid.New().String()

	past := NewMeeting(hostID, now.Add(-3*time.Hour))
	earlier := NewMeeting(hostID, now.Add(-5*time.Hour))
	future := NewMeeting(hostID, now.Add(2*time.Hour))
	done := NewMeeting(hostID, now.Add(-4*time.Hour))
	done.Status = models.StatusCompleted
	unscheduled := NewMeeting(hostID, now.Add(-6*time.Hour))
	unscheduled.StartsAt = nil
	for _, m := range []*models.Meeting{past, earlier, future, done, unscheduled} {
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := s.ListByStatus(ctx, models.StatusScheduled, now, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	var mine []string
	for _, m := range got {
		if m.HostID == hostID {
			mine = append(mine, m.ID)
		}
	}
	if len(mine) != 2 || mine[0] != earlier.ID || mine[1] != past.ID {
		t.Errorf("got %v, want [%s %s]", mine, earlier.ID, past.ID)
	}

	limited, err := s.ListByStatus(ctx, models.StatusScheduled, now, 1)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d, want 1", len(limited))
	}
}

func testListEnded(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	hostID := "host-" + uuid.New().String()

	at := func(start time.Duration, minutes int) *models.Meeting {
		m := NewMeeting(hostID, now.Add(-24*time.Hour))
		st := now.Add(start)
		m.StartsAt = &st
		m.Duration = minutes
		m.Status = models.StatusInProgress
		return m
	}
	// Still running: started long ago but scheduled for a full day.
	long := at(-6*time.Hour, 24*60)
	ended := at(-2*time.Hour, 30)
	recent := at(-40*time.Minute, 30)
	running := at(-10*time.Minute, 30)
	for _, m := range []*models.Meeting{long, ended, recent, running} {
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := s.ListEnded(ctx, models.StatusInProgress, now, 10)
	if err != nil {
		t.Fatalf("ListEnded: %v", err)
	}
	var mine []string
	for _, m := range got {
		if m.HostID == hostID {
			mine = append(mine, m.ID)
		}
	}
	if len(mine) != 2 || mine[0] != ended.ID || mine[1] != recent.ID {
		t.Errorf("got %v, want [%s %s]", mine, ended.ID, recent.ID)
	}

	limited, err := s.ListEnded(ctx, models.StatusInProgress, now, 1)
	if err != nil {
		t.Fatalf("ListEnded: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d, want 1", len(limited))
	}
}
