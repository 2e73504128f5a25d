package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aura-meetings/backend/internal/meetings"
	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/store/memory"
	"github.com/aura-meetings/backend/internal/worker"
	"github.com/aura-meetings/backend/pkg/queue"
)

var now = time.Date(2026, 5, 12, 15, 0, 0, 0, time.UTC)

type fakeQueue struct {
	mu      sync.Mutex
	pending []*queue.Job
	dead    []*queue.Job
}

func (q *fakeQueue) EnqueueStatusTransition(_ context.Context, p queue.StatusTransitionPayload) error {
	job, err := queue.NewJob(queue.JobTypeStatusTransition, p)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, job)
	return nil
}

func (q *fakeQueue) Dequeue(context.Context) (*queue.Job, string, error) {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil, "", nil
	}
	defer q.mu.Unlock()
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, queue.QueueStatusTransitions, nil
}

func (q *fakeQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	if job.Attempt >= queue.MaxRetries {
		q.dead = append(q.dead, job)
		return nil
	}
	q.pending = append(q.pending, job)
	return nil
}

func (q *fakeQueue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0
}

func (q *fakeQueue) deadCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dead)
}

func (q *fakeQueue) payloads(t *testing.T) map[string]queue.StatusTransitionPayload {
	t.Helper()
	out := map[string]queue.StatusTransitionPayload{}
	for _, job := range q.pending {
		var p queue.StatusTransitionPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		out[p.MeetingID] = p
	}
	return out
}

func seed(t *testing.T, svc *meetings.Service, title string, start *time.Time, duration int) string {
	t.Helper()
	res, err := svc.Create(context.Background(), meetings.Actor{Subject: "host"}, meetings.CreateInput{Title: title, StartsAt: start, Duration: duration})
	if err != nil {
		t.Fatalf("Create %s: %v", title, err)
	}
	return res.MeetingID
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestTarget(t *testing.T) {
	tests := []struct {
		current models.Status
		derived models.DerivedStatus
		want    models.Status
		due     bool
	}{
		{models.StatusScheduled, models.DerivedLive, models.StatusInProgress, true},
		{models.StatusScheduled, models.DerivedEnded, models.StatusCompleted, true},
		{models.StatusInProgress, models.DerivedEnded, models.StatusCompleted, true},
		{models.StatusInProgress, models.DerivedLive, "", false},
		{models.StatusScheduled, models.DerivedToday, "", false},
		{models.StatusCancelled, models.DerivedEnded, "", false},
		{models.StatusCompleted, models.DerivedEnded, "", false},
	}
	for _, tt := range tests {
		got, due := worker.Target(tt.current, tt.derived)
		if got != tt.want || due != tt.due {
			t.Errorf("Target(%s, %s) = %q, %v; want %q, %v", tt.current, tt.derived, got, due, tt.want, tt.due)
		}
	}
}

func TestScanner_EnqueuesDueTransitions(t *testing.T) {
	st := memory.New()
	svc := meetings.NewService(st, meetings.Options{Now: func() time.Time { return now }}, nil)
	live := seed(t, svc, "live", at(-10*time.Minute), 30)
	ended := seed(t, svc, "ended", at(-2*time.Hour), 30)
	seed(t, svc, "later", at(time.Hour), 30)
	seed(t, svc, "instant", nil, 30)
	cancelled := seed(t, svc, "cancelled", at(-3*time.Hour), 30)
	if err := svc.Update(context.Background(), meetings.Actor{Subject: "host"}, cancelled, meetings.UpdateInput{Status: statusPtr(models.StatusCancelled)}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	q := &fakeQueue{}
	scanner := worker.NewScanner(st, q, worker.ScannerOptions{Now: func() time.Time { return now }}, nil)
	n, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 2 {
		t.Fatalf("enqueued: got %d, want 2", n)
	}
	got := q.payloads(t)
	if p := got[live]; p.From != "scheduled" || p.To != "inProgress" {
		t.Errorf("live: got %+v", p)
	}
	if p := got[ended]; p.From != "scheduled" || p.To != "completed" {
		t.Errorf("ended: got %+v", p)
	}
}

func TestScanner_EndedMeetingsNotStarvedByLongRunning(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := meetings.NewService(st, meetings.Options{Now: func() time.Time { return now }}, nil)
	var running []string
	for i := 0; i < 3; i++ {
		running = append(running, seed(t, svc, "all day", at(-6*time.Hour), 24*60))
	}
	ended := seed(t, svc, "ended", at(-2*time.Hour), 30)
	for _, id := range append(running, ended) {
		if _, err := svc.ApplyTransition(ctx, id, models.StatusScheduled, models.StatusInProgress); err != nil {
			t.Fatalf("ApplyTransition: %v", err)
		}
	}

	q := &fakeQueue{}
	scanner := worker.NewScanner(st, q, worker.ScannerOptions{BatchSize: 2, Now: func() time.Time { return now }}, nil)
	n, err := scanner.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("enqueued: got %d, want 1", n)
	}
	if p := q.payloads(t)[ended]; p.From != "inProgress" || p.To != "completed" {
		t.Errorf("ended: got %+v", p)
	}
}

func TestProcessor_AppliesTransitions(t *testing.T) {
	st := memory.New()
	svc := meetings.NewService(st, meetings.Options{Now: func() time.Time { return now }}, nil)
	live := seed(t, svc, "live", at(-10*time.Minute), 30)
	ended := seed(t, svc, "ended", at(-2*time.Hour), 30)

	q := &fakeQueue{}
	scanner := worker.NewScanner(st, q, worker.ScannerOptions{Now: func() time.Time { return now }}, nil)
	if _, err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// A stale duplicate is dropped once the meeting has moved on.
	if err := q.EnqueueStatusTransition(context.Background(), queue.StatusTransitionPayload{MeetingID: live, From: "scheduled", To: "inProgress"}); err != nil {
		t.Fatal(err)
	}
	// So is a job for a meeting that no longer exists.
	if err := q.EnqueueStatusTransition(context.Background(), queue.StatusTransitionPayload{MeetingID: "gone", From: "scheduled", To: "completed"}); err != nil {
		t.Fatal(err)
	}

	runUntil(t, worker.NewStatusProcessor(svc, q, nil), func() bool {
		if !q.drained() {
			return false
		}
		a, _ := st.Get(context.Background(), live)
		b, _ := st.Get(context.Background(), ended)
		return a.Status == models.StatusInProgress && b.Status == models.StatusCompleted
	})

	for id, want := range map[string]models.Status{live: models.StatusInProgress, ended: models.StatusCompleted} {
		m, err := st.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if m.Status != want {
			t.Errorf("%s: got %s, want %s", m.Title, m.Status, want)
		}
	}
	if n := q.deadCount(); n != 0 {
		t.Errorf("dead letters: got %d, want 0", n)
	}
}

type failingTransitioner struct{}

func (failingTransitioner) ApplyTransition(context.Context, string, models.Status, models.Status) (bool, error) {
	return false, errors.New("store down")
}

func TestProcessor_DeadLettersAfterRetries(t *testing.T) {
	q := &fakeQueue{}
	if err := q.EnqueueStatusTransition(context.Background(), queue.StatusTransitionPayload{MeetingID: "m1", From: "scheduled", To: "completed"}); err != nil {
		t.Fatal(err)
	}
	runUntil(t, worker.NewStatusProcessor(failingTransitioner{}, q, nil), func() bool {
		return q.deadCount() == 1
	})

	if len(q.dead) != 1 || q.dead[0].Attempt != queue.MaxRetries {
		t.Fatalf("dead letters: got %+v", q.dead)
	}
}

func TestProcessor_RejectsUnknownJobType(t *testing.T) {
	p := worker.NewStatusProcessor(failingTransitioner{}, &fakeQueue{}, nil)
	if err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "email"}); err == nil {
		t.Error("expected an error for an unknown job type")
	}
}

func runUntil(t *testing.T, p *worker.StatusProcessor, done func() bool) {
	t.Helper()
	p.Backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = p.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	deadline := time.After(5 * time.Second)
	for !done() {
		select {
		case <-deadline:
			t.Fatal("condition not reached")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func statusPtr(s models.Status) *models.Status { return &s }
