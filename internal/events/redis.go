// Package events fans meeting changes out over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "meeting:"
	publishTimeout = 5 * time.Second
)

// Event names.
const (
	MeetingCreated         = "meeting.created"
	MeetingUpdated         = "meeting.updated"
	MeetingDeleted         = "meeting.deleted"
	MeetingStatusChanged   = "meeting.status_changed"
	ParticipantAdded       = "participant.added"
	ParticipantRemoved     = "participant.removed"
	ParticipantRoleChanged = "participant.role_changed"
	ParticipantJoined      = "participant.joined"
	ParticipantLeft        = "participant.left"
)

// Message is the payload published on a meeting's channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// Channel returns the pub/sub channel for a meeting.
func Channel(meetingID string) string {
	return channelPrefix + meetingID
}

// RedisPublisher publishes meeting events using Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a Redis pub/sub bridge for meeting events.
func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, logger: logger}
}

// Publish sends event with data to the meeting's channel.
func (r *RedisPublisher) Publish(ctx context.Context, meetingID, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	body, err := json.Marshal(Message{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, Channel(meetingID), body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	r.logger.Debug("event published", zap.String("meeting_id", meetingID), zap.String("event", event))
	return nil
}

// Subscribe calls handler for each message on the meeting's channel until ctx is done.
func (r *RedisPublisher) Subscribe(ctx context.Context, meetingID string, handler func(Message)) error {
	pubsub := r.client.Subscribe(ctx, Channel(meetingID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.logger.Warn("invalid event payload", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			handler(m)
		}
	}
}

// Nop discards events. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, interface{}) error { return nil }
