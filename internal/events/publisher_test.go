package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPubSubPair(t *testing.T, channels ...string) (*RedisPublisher, *redis.PubSub) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sub := client.Subscribe(context.Background(), channels...)
	t.Cleanup(func() { sub.Close() })
	// Wait for the subscription ack so nothing published below is lost.
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	return NewRedisPublisher(client), sub
}

func nextEvent(t *testing.T, sub *redis.PubSub) (string, ChangeEvent) {
	t.Helper()
	for {
		msg, err := sub.ReceiveTimeout(context.Background(), 3*time.Second)
		require.NoError(t, err)
		switch m := msg.(type) {
		case *redis.Subscription:
			continue
		case *redis.Message:
			ev, err := UnmarshalChangeEvent([]byte(m.Payload))
			require.NoError(t, err)
			return m.Channel, ev
		default:
			t.Fatalf("unexpected pubsub message %T", msg)
		}
	}
}

func TestPublishBoostInsertFansOut(t *testing.T) {
	pub, sub := newPubSubPair(t, BoostChannel, UserBoostChannel(7))
	require.NoError(t, pub.PublishBoostInsert(context.Background(), "p1", 7))

	seen := map[string]ChangeEvent{}
	for i := 0; i < 2; i++ {
		ch, ev := nextEvent(t, sub)
		seen[ch] = ev
	}

	global, ok := seen[BoostChannel]
	require.True(t, ok)
	assert.Equal(t, ChangeEvent{EventType: EventInsert, PostID: "p1", UserID: 7}, global)

	own, ok := seen[UserBoostChannel(7)]
	require.True(t, ok)
	assert.Equal(t, ChangeEvent{EventType: EventInsert, PostID: "p1", UserID: 7}, own)
}

func TestPublishBoostDeleteOmitsPostIDGlobally(t *testing.T) {
	pub, sub := newPubSubPair(t, BoostChannel, UserBoostChannel(7))
	require.NoError(t, pub.PublishBoostDelete(context.Background(), "p1", 7))

	seen := map[string]ChangeEvent{}
	for i := 0; i < 2; i++ {
		ch, ev := nextEvent(t, sub)
		seen[ch] = ev
	}

	// The boost row is gone when the global event fires, so it names only
	// the actor.
	assert.Equal(t, ChangeEvent{EventType: EventDelete, UserID: 7}, seen[BoostChannel])
	// The actor's own channel keeps the post id for precise reconciliation.
	assert.Equal(t, ChangeEvent{EventType: EventDelete, PostID: "p1", UserID: 7}, seen[UserBoostChannel(7)])
}

func TestPublishSaveEventsStayOnUserChannel(t *testing.T) {
	pub, sub := newPubSubPair(t, BoostChannel, UserSaveChannel(7))

	require.NoError(t, pub.PublishSaveInsert(context.Background(), "p1", 7))
	ch, ev := nextEvent(t, sub)
	assert.Equal(t, UserSaveChannel(7), ch)
	assert.Equal(t, ChangeEvent{EventType: EventInsert, PostID: "p1", UserID: 7}, ev)

	require.NoError(t, pub.PublishSaveDelete(context.Background(), "p1", 7))
	ch, ev = nextEvent(t, sub)
	assert.Equal(t, UserSaveChannel(7), ch)
	assert.Equal(t, ChangeEvent{EventType: EventDelete, PostID: "p1", UserID: 7}, ev)
}

func TestUnmarshalChangeEventRejectsGarbage(t *testing.T) {
	_, err := UnmarshalChangeEvent([]byte("{nope"))
	assert.Error(t, err)
}
