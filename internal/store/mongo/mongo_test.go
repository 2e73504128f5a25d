package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aura-meetings/backend/internal/store"
	meetingmongo "github.com/aura-meetings/backend/internal/store/mongo"
	"github.com/aura-meetings/backend/internal/store/storetest"
	"github.com/aura-meetings/backend/pkg/mongodb"
)

// Set TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run against a real server.
// Each subtest gets its own throwaway database.
func TestStoreContract(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, uri, 10*time.Second, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) store.Store {
		db := client.Database("meetings_test_" + uuid.New().String()[:8])
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s := meetingmongo.New(db)
		if err := s.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
		return s
	})
}
