package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aura-meetings/backend/internal/store"
	"github.com/aura-meetings/backend/internal/store/memory"
	"github.com/aura-meetings/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	m := storetest.NewMeeting("host-a", time.Now())
	if err := s.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	m.Participants[0].Name = "mutated after insert"
	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Participants[0].Role = "observer"

	again, _ := s.Get(ctx, m.ID)
	if again.Participants[0].Name == "mutated after insert" || again.Participants[0].Role != "host" {
		t.Errorf("store shares roster memory with callers: %+v", again.Participants[0])
	}
}
