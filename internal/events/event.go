// Package events carries the change feed for boost and save rows over Redis
// pub/sub. Every mutation publishes to the global boost channel and to the
// acting user's own channels; clients reconcile from these rather than from
// local deltas.
package events

import (
	"encoding/json"
	"fmt"
)

// Event types for change feed notifications
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// ChangeEvent is one change feed notification. PostID may be empty on delete
// events published to the global boost channel: the row is already gone when
// the event is emitted, so only the actor is known there. Consumers must fall
// back to a full recount in that case.
type ChangeEvent struct {
	EventType string `json:"event_type"`
	PostID    string `json:"post_id,omitempty"`
	UserID    uint   `json:"user_id"`
}

// Marshal encodes the event for publishing
func (e ChangeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalChangeEvent decodes a change feed payload
func UnmarshalChangeEvent(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	return ev, nil
}

// BoostChannel is the global channel carrying every boost change by anyone.
const BoostChannel = "changes:boosts"

// UserBoostChannel is the per-user channel carrying that user's own boost changes.
func UserBoostChannel(userID uint) string {
	return fmt.Sprintf("changes:boosts:user:%d", userID)
}

// UserSaveChannel is the per-user channel carrying that user's own save changes.
func UserSaveChannel(userID uint) string {
	return fmt.Sprintf("changes:saves:user:%d", userID)
}
