package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher fans out change feed events after boost/save mutations
type Publisher interface {
	PublishBoostInsert(ctx context.Context, postID string, userID uint) error
	PublishBoostDelete(ctx context.Context, postID string, userID uint) error
	PublishSaveInsert(ctx context.Context, postID string, userID uint) error
	PublishSaveDelete(ctx context.Context, postID string, userID uint) error
}

// RedisPublisher implements Publisher on top of Redis pub/sub
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, ev ChangeEvent) error {
	payload, err := ev.Marshal()
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// PublishBoostInsert announces a new boost on the global and per-user channels
func (p *RedisPublisher) PublishBoostInsert(ctx context.Context, postID string, userID uint) error {
	ev := ChangeEvent{EventType: EventInsert, PostID: postID, UserID: userID}
	if err := p.publish(ctx, BoostChannel, ev); err != nil {
		return err
	}
	return p.publish(ctx, UserBoostChannel(userID), ev)
}

// PublishBoostDelete announces an unboost. The global channel event carries no
// post id (the row is gone by the time the event fires); the per-user channel
// keeps it so the actor's own session can reconcile precisely.
func (p *RedisPublisher) PublishBoostDelete(ctx context.Context, postID string, userID uint) error {
	if err := p.publish(ctx, BoostChannel, ChangeEvent{EventType: EventDelete, UserID: userID}); err != nil {
		return err
	}
	return p.publish(ctx, UserBoostChannel(userID), ChangeEvent{EventType: EventDelete, PostID: postID, UserID: userID})
}

// PublishSaveInsert announces a save on the acting user's save channel
func (p *RedisPublisher) PublishSaveInsert(ctx context.Context, postID string, userID uint) error {
	return p.publish(ctx, UserSaveChannel(userID), ChangeEvent{EventType: EventInsert, PostID: postID, UserID: userID})
}

// PublishSaveDelete announces an unsave on the acting user's save channel
func (p *RedisPublisher) PublishSaveDelete(ctx context.Context, postID string, userID uint) error {
	return p.publish(ctx, UserSaveChannel(userID), ChangeEvent{EventType: EventDelete, PostID: postID, UserID: userID})
}
