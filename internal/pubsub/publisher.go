package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

// Notification kinds pushed on a session's topic. Both carry the complete
// current snapshot, never a diff, so a client that misses one is
// self-correcting on the next.
const (
	EventPlayerJoined = "game.player_joined"
	EventStateChanged = "game.updated"
)

type Event struct {
	Kind string          `json:"event"`
	Game *entity.Session `json:"game"`
}

// TopicFor keys the pub/sub channel by session identity.
func TopicFor(sessionID string) string {
	return "game:" + sessionID
}

type Publisher interface {
	PublishJoined(ctx context.Context, session *entity.Session) error
	PublishState(ctx context.Context, session *entity.Session) error
}

type redisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{
		client: client,
	}
}

func (that *redisPublisher) PublishJoined(ctx context.Context, session *entity.Session) error {
	return that.publish(ctx, EventPlayerJoined, session)
}

func (that *redisPublisher) PublishState(ctx context.Context, session *entity.Session) error {
	return that.publish(ctx, EventStateChanged, session)
}

// publish fans the sanitized snapshot out to everyone subscribed to the
// session's topic. Delivery is fire-and-forget: no acknowledgement, no retry,
// no persistence of missed events.
func (that *redisPublisher) publish(ctx context.Context, kind string, session *entity.Session) error {
	payload, err := json.Marshal(Event{Kind: kind, Game: session.Sanitized()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, TopicFor(session.ID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
