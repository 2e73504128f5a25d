package queue_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/aura-meetings/backend/pkg/queue"
)

func TestNewJob(t *testing.T) {
	job, err := queue.NewJob(queue.JobTypeStatusTransition, queue.StatusTransitionPayload{MeetingID: "m1", From: "scheduled", To: "inProgress"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if job.ID == "" || job.Attempt != 0 || job.CreatedAt.IsZero() {
		t.Errorf("envelope: got %+v", job)
	}
	var p queue.StatusTransitionPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.MeetingID != "m1" || p.To != "inProgress" {
		t.Errorf("payload: got %+v", p)
	}
}

// Set TEST_REDIS_ADDR to run against a real server. Uses DB 15 and flushes it.
func TestQueue_RetryThenDeadLetter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	q := queue.NewQueue(client, nil)

	if err := q.EnqueueStatusTransition(ctx, queue.StatusTransitionPayload{MeetingID: "m1", From: "scheduled", To: "completed"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	for attempt := 1; attempt <= queue.MaxRetries; attempt++ {
		job, key, err := q.Dequeue(ctx)
		if err != nil || job == nil {
			t.Fatalf("Dequeue attempt %d: job=%v err=%v", attempt, job, err)
		}
		if key != queue.QueueStatusTransitions {
			t.Errorf("key: got %q", key)
		}
		if err := q.Retry(ctx, job); err != nil {
			t.Fatalf("Retry: %v", err)
		}
	}

	pending, dead, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if pending != 0 || dead != 1 {
		t.Errorf("depth: pending=%d dead=%d, want 0 and 1", pending, dead)
	}
}
