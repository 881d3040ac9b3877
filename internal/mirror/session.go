package mirror

import (
	"context"
	"errors"
	"sync"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/ledger"
)

var (
	// ErrToggleInFlight is returned when the same action on the same post is
	// already outstanding; re-entrant toggles are rejected, not queued.
	ErrToggleInFlight = errors.New("toggle already in flight for this post")

	// ErrUnknownEntity is returned when no collection holds the post
	ErrUnknownEntity = errors.New("post is not held in any collection")
)

type actionType string

const (
	actionBoost actionType = "boost"
	actionSave  actionType = "save"
)

type inflightKey struct {
	entityID string
	action   actionType
}

// Session drives optimistic toggles for one viewer over one mirror: apply the
// predicted state immediately, issue the single remote call, and reverse the
// exact patch if the call fails. Precondition failures never mutate the
// mirror at all.
type Session struct {
	mirror *Mirror
	ledger *ledger.Client
	viewer ledger.Viewer

	mu       sync.Mutex
	inflight map[inflightKey]struct{}
}

// NewSession creates a toggle session for the viewer
func NewSession(m *Mirror, lc *ledger.Client, viewer ledger.Viewer) *Session {
	return &Session{
		mirror:   m,
		ledger:   lc,
		viewer:   viewer,
		inflight: make(map[inflightKey]struct{}),
	}
}

func (s *Session) begin(id string, action actionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inflightKey{entityID: id, action: action}
	if _, ok := s.inflight[key]; ok {
		return ErrToggleInFlight
	}
	s.inflight[key] = struct{}{}
	return nil
}

// end clears the in-flight marker on every path, so a failed toggle never
// blocks future toggles of the same post.
func (s *Session) end(id string, action actionType) {
	s.mu.Lock()
	delete(s.inflight, inflightKey{entityID: id, action: action})
	s.mu.Unlock()
}

func ledgerState(e Entity) ledger.EntityState {
	return ledger.EntityState{
		ID:             e.ID,
		AuthorID:       e.AuthorID,
		BoostCount:     e.BoostCount,
		UserHasBoosted: e.UserHasBoosted,
		CanUnboost:     e.CanUnboost,
		UserHasSaved:   e.UserHasSaved,
	}
}

// ToggleBoost boosts the post if the viewer has not boosted it, or withdraws
// the boost if they have. The mirror reflects the predicted state before the
// remote call resolves; a remote failure restores the captured snapshot in
// every collection, including membership.
func (s *Session) ToggleBoost(ctx context.Context, entityID string) error {
	e, ok := s.mirror.Lookup(entityID)
	if !ok {
		return ErrUnknownEntity
	}

	if err := s.begin(entityID, actionBoost); err != nil {
		return err
	}
	defer s.end(entityID, actionBoost)

	if err := s.ledger.ValidateBoost(ledgerState(e), s.viewer); err != nil {
		return err
	}

	snapshot := SnapshotOf(e)

	var optimistic Patch
	if e.UserHasBoosted {
		optimistic = Patch{
			BoostCount:     Int64(e.BoostCount - 1),
			UserHasBoosted: Bool(false),
			CanUnboost:     Bool(false),
		}
	} else {
		optimistic = Patch{
			BoostCount:     Int64(e.BoostCount + 1),
			UserHasBoosted: Bool(true),
			CanUnboost:     Bool(true),
		}
	}
	s.mirror.ApplyMutation(entityID, optimistic)

	if _, err := s.ledger.ToggleBoost(ctx, ledgerState(e), s.viewer); err != nil {
		s.mirror.ApplyMutation(entityID, snapshot)
		return err
	}
	return nil
}

// ToggleSave flips the viewer's saved state on the post with the same
// optimistic protocol. The server's returned saved state is authoritative and
// is folded back in when it disagrees with the prediction.
func (s *Session) ToggleSave(ctx context.Context, entityID string) error {
	e, ok := s.mirror.Lookup(entityID)
	if !ok {
		return ErrUnknownEntity
	}

	if err := s.begin(entityID, actionSave); err != nil {
		return err
	}
	defer s.end(entityID, actionSave)

	if err := s.ledger.ValidateSave(s.viewer); err != nil {
		return err
	}

	snapshot := SnapshotOf(e)
	predicted := !e.UserHasSaved
	s.mirror.ApplyMutation(entityID, Patch{UserHasSaved: Bool(predicted)})

	res, err := s.ledger.ToggleSave(ctx, ledgerState(e), s.viewer)
	if err != nil {
		s.mirror.ApplyMutation(entityID, snapshot)
		return err
	}
	if res.UserHasSaved != predicted {
		s.mirror.ApplyMutation(entityID, Patch{UserHasSaved: Bool(res.UserHasSaved)})
	}
	return nil
}

// Viewer returns the viewer this session acts as
func (s *Session) Viewer() ledger.Viewer {
	return s.viewer
}
