// Package realtime folds out-of-band boost/save notifications into the state
// mirror. Counts are always re-queried from the authoritative source rather
// than accumulated from event deltas, so local optimistic state and remote
// events converge in any arrival order.
package realtime

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/events"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/ledger"
	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/mirror"
)

// CountSource answers authoritative boost count queries. *ledger.Client
// satisfies it.
type CountSource interface {
	GetBoostCount(ctx context.Context, postID string) (int64, error)
}

// Listener subscribes to the change feed channels relevant to one viewer and
// reconciles each notification into the mirror.
type Listener struct {
	client *redis.Client
	mirror *mirror.Mirror
	counts CountSource
	viewer ledger.Viewer
}

// NewListener creates a reconciliation listener for the viewer
func NewListener(client *redis.Client, m *mirror.Mirror, counts CountSource, viewer ledger.Viewer) *Listener {
	return &Listener{client: client, mirror: m, counts: counts, viewer: viewer}
}

// Run subscribes and processes notifications until the context is cancelled
// or the subscription closes.
func (l *Listener) Run(ctx context.Context) error {
	sub := l.client.Subscribe(ctx,
		events.BoostChannel,
		events.UserBoostChannel(l.viewer.ID),
		events.UserSaveChannel(l.viewer.ID),
	)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

func (l *Listener) handle(ctx context.Context, channel string, payload []byte) {
	ev, err := events.UnmarshalChangeEvent(payload)
	if err != nil {
		log.Printf("realtime: dropping malformed event on %s: %v", channel, err)
		return
	}

	switch channel {
	case events.UserSaveChannel(l.viewer.ID):
		l.handleOwnSave(ev)
	case events.UserBoostChannel(l.viewer.ID):
		l.handleOwnBoost(ctx, ev)
	case events.BoostChannel:
		l.handleAnyBoost(ctx, ev)
	}
}

// handleOwnSave treats the event as authoritative confirmation of the
// viewer's own save toggle and fixes up saved-by-me membership.
func (l *Listener) handleOwnSave(ev events.ChangeEvent) {
	if ev.PostID == "" {
		return
	}
	saved := ev.EventType == events.EventInsert
	l.mirror.ApplyMutation(ev.PostID, mirror.Patch{UserHasSaved: mirror.Bool(saved)})
}

// handleOwnBoost confirms the viewer's own boost or unboost. The count comes
// from a fresh authoritative query; racing notifications make any embedded
// delta untrustworthy.
func (l *Listener) handleOwnBoost(ctx context.Context, ev events.ChangeEvent) {
	if ev.PostID == "" {
		l.recountAll(ctx)
		return
	}
	count, err := l.counts.GetBoostCount(ctx, ev.PostID)
	if err != nil {
		log.Printf("realtime: boost recount for %s failed: %v", ev.PostID, err)
		return
	}
	boosted := ev.EventType == events.EventInsert
	l.mirror.ApplyMutation(ev.PostID, mirror.Patch{
		BoostCount:     mirror.Int64(count),
		UserHasBoosted: mirror.Bool(boosted),
		CanUnboost:     mirror.Bool(boosted),
	})
}

// handleAnyBoost reconciles another viewer's boost change. Only the count is
// touched; the local viewer's own flags never move on someone else's action.
// Deletes on the global channel carry no post id, which forces the degraded
// full recount.
func (l *Listener) handleAnyBoost(ctx context.Context, ev events.ChangeEvent) {
	if ev.UserID == l.viewer.ID {
		// Already reconciled authoritatively via the per-user channel.
		return
	}
	if ev.PostID == "" {
		l.recountAll(ctx)
		return
	}
	count, err := l.counts.GetBoostCount(ctx, ev.PostID)
	if err != nil {
		log.Printf("realtime: boost recount for %s failed: %v", ev.PostID, err)
		return
	}
	l.mirror.ApplyMutation(ev.PostID, mirror.Patch{BoostCount: mirror.Int64(count)})
}

// recountAll re-queries the authoritative count for every held entity. This
// is the O(visible entities) degraded-mode pass, not the common path.
func (l *Listener) recountAll(ctx context.Context) {
	for _, id := range l.mirror.EntityIDs() {
		count, err := l.counts.GetBoostCount(ctx, id)
		if err != nil {
			log.Printf("realtime: recount for %s failed: %v", id, err)
			continue
		}
		l.mirror.ApplyMutation(id, mirror.Patch{BoostCount: mirror.Int64(count)})
	}
}
