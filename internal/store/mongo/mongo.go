// Package mongo stores each meeting as one document with its roster embedded.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/internal/store"
)

const collectionName = "meetings"

// Store is the MongoDB meeting store.
type Store struct {
	c *mongo.Collection
}

// New returns a store over db's meetings collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(collectionName)}
}

// EnsureIndexes creates the lookup indexes. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stream_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("stream_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("host_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "starts_at", Value: 1}},
			Options: options.Index().SetName("status_starts"),
		},
	}
	if _, err := s.c.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create meeting indexes: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Meeting, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByStream(ctx context.Context, streamID string) (*models.Meeting, error) {
	return s.findOne(ctx, bson.M{"stream_id": streamID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Meeting, error) {
	var m models.Meeting
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find meeting: %w", err)
	}
	normalize(&m)
	return &m, nil
}

func (s *Store) Insert(ctx context.Context, m *models.Meeting) error {
	doc := m.Clone()
	if doc.Participants == nil {
		doc.Participants = []models.Participant{}
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateStream
		}
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (s *Store) Patch(ctx context.Context, id string, version int64, p models.MeetingPatch) (int64, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.StartsAt != nil {
		set["starts_at"] = p.StartsAt.UTC()
	}
	if p.Duration != nil {
		set["duration"] = *p.Duration
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.IsRecurring != nil {
		set["is_recurring"] = *p.IsRecurring
	}
	if p.RequireRegistration != nil {
		set["require_registration"] = *p.RequireRegistration
	}
	if p.MaxParticipants != nil {
		if *p.MaxParticipants == 0 {
			unset["max_participants"] = ""
		} else {
			set["max_participants"] = *p.MaxParticipants
		}
	}
	if p.Settings != nil {
		set["settings"] = *p.Settings
	}
	if p.Participants != nil {
		set["participants"] = p.Participants
	}
	if p.Analytics != nil {
		set["analytics"] = *p.Analytics
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "version": version}, update)
	if err != nil {
		return 0, fmt.Errorf("patch meeting: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return 0, fmt.Errorf("check meeting: %w", err)
		}
		if n == 0 {
			return 0, store.ErrNotFound
		}
		return 0, store.ErrVersionConflict
	}
	return version + 1, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListByHost(ctx context.Context, hostID string) ([]models.Meeting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"host_id": hostID}, opts)
}

func (s *Store) ListByStatus(ctx context.Context, status models.Status, startsBefore time.Time, limit int) ([]models.Meeting, error) {
	if limit <= 0 {
		limit = 100
	}
	filter := bson.M{
		"status":    status,
		"starts_at": bson.M{"$ne": nil, "$lt": startsBefore.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}}).SetLimit(int64(limit))
	return s.find(ctx, filter, opts)
}

// ListEnded returns meetings in status whose scheduled end is before endedBefore.
func (s *Store) ListEnded(ctx context.Context, status models.Status, endedBefore time.Time, limit int) ([]models.Meeting, error) {
	if limit <= 0 {
		limit = 100
	}
	filter := bson.M{
		"status":    status,
		"starts_at": bson.M{"$ne": nil},
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$add": bson.A{"$starts_at", bson.M{"$multiply": bson.A{"$duration", 60000}}}},
			endedBefore.UTC(),
		}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}}).SetLimit(int64(limit))
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Meeting, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find meetings: %w", err)
	}
	defer cur.Close(ctx)

	var list []models.Meeting
	for cur.Next(ctx) {
		var m models.Meeting
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode meeting: %w", err)
		}
		normalize(&m)
		list = append(list, m)
	}
	return list, cur.Err()
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.c.Database().Client().Disconnect(ctx)
}

// BSON datetimes carry millisecond precision and decode in local time.
func normalize(m *models.Meeting) {
	if m.StartsAt != nil {
		t := m.StartsAt.UTC()
		m.StartsAt = &t
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
}
