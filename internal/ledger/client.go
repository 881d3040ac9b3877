// Package ledger issues boost/save toggles against the remote point ledger.
// It enforces the preconditions that must hold before a call is attempted
// (authentication, the self-boost ban, balance, the unboost window) and issues
// exactly one remote call per passing toggle.
package ledger

import (
	"context"
	"sync"
)

// Viewer identifies the acting user. ID is the relational user id; the
// FirebaseUID is what post author fields store, so the self-boost check
// compares against it.
type Viewer struct {
	ID          uint
	FirebaseUID string
}

// Authenticated reports whether the viewer is signed in
func (v Viewer) Authenticated() bool {
	return v.ID != 0
}

// EntityState is the post projection the client needs to validate a toggle
type EntityState struct {
	ID             string
	AuthorID       string
	BoostCount     int64
	UserHasBoosted bool
	CanUnboost     bool
	UserHasSaved   bool
}

// BoostResult is the predicted post state after a successful boost toggle
type BoostResult struct {
	BoostCount     int64
	UserHasBoosted bool
	CanUnboost     bool
}

// SaveResult is the post state after a successful save toggle
type SaveResult struct {
	UserHasSaved bool
}

// Client validates and issues toggle calls. It caches the viewer's balance so
// the insufficient-balance precondition can be checked without a network
// round trip; the cache is refreshed from the authoritative balance query, not
// adjusted by local deltas.
type Client struct {
	svc RemoteService

	mu           sync.Mutex
	balanceKnown bool
	wallet       int64
	earnings     int64
}

// NewClient creates a ledger client over the given remote service
func NewClient(svc RemoteService) *Client {
	return &Client{svc: svc}
}

// RefreshBalance re-queries the viewer's authoritative balance and caches it
func (c *Client) RefreshBalance(ctx context.Context, viewer Viewer) (wallet, earnings int64, err error) {
	wallet, earnings, err = c.svc.GetBalance(ctx, viewer.ID)
	if err != nil {
		return 0, 0, &RemoteError{Op: "balance query", Err: err}
	}
	c.mu.Lock()
	c.wallet, c.earnings, c.balanceKnown = wallet, earnings, true
	c.mu.Unlock()
	return wallet, earnings, nil
}

// SpendableBalance returns the cached wallet+earnings sum. The second return
// is false until RefreshBalance has succeeded at least once.
func (c *Client) SpendableBalance() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet + c.earnings, c.balanceKnown
}

// ValidateBoost runs every local precondition for a boost toggle without
// touching the network. A nil return means the toggle may proceed.
func (c *Client) ValidateBoost(e EntityState, viewer Viewer) error {
	if !viewer.Authenticated() {
		return ErrUnauthenticated
	}
	if e.UserHasBoosted {
		if !e.CanUnboost {
			return ErrUnboostWindowExpired
		}
		return nil
	}
	if e.AuthorID == viewer.FirebaseUID {
		return ErrSelfBoostForbidden
	}
	// An unknown balance does not block: the backend re-checks it anyway, and
	// sessions refresh the balance during hydration.
	if spendable, known := c.SpendableBalance(); known && spendable < 1 {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateSave runs the local preconditions for a save toggle
func (c *Client) ValidateSave(viewer Viewer) error {
	if !viewer.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// Boost issues the single remote boost call
func (c *Client) Boost(ctx context.Context, postID string, viewer Viewer) error {
	if err := c.svc.Boost(ctx, postID, viewer.ID); err != nil {
		return &RemoteError{Op: "boost", Err: err}
	}
	return nil
}

// Unboost issues the single remote unboost call
func (c *Client) Unboost(ctx context.Context, postID string, viewer Viewer) error {
	if err := c.svc.Unboost(ctx, postID, viewer.ID); err != nil {
		return &RemoteError{Op: "unboost", Err: err}
	}
	return nil
}

// ToggleBoost validates and issues one boost or unboost call depending on the
// entity's current state, and returns the predicted post state. After a
// successful boost the cached balance is re-queried, never decremented
// locally.
func (c *Client) ToggleBoost(ctx context.Context, e EntityState, viewer Viewer) (BoostResult, error) {
	if err := c.ValidateBoost(e, viewer); err != nil {
		return BoostResult{}, err
	}

	if e.UserHasBoosted {
		if err := c.Unboost(ctx, e.ID, viewer); err != nil {
			return BoostResult{}, err
		}
	} else {
		if err := c.Boost(ctx, e.ID, viewer); err != nil {
			return BoostResult{}, err
		}
	}

	// Best effort: a failed re-query keeps the previous cache, it never fails
	// the toggle that already succeeded.
	c.RefreshBalance(ctx, viewer) //nolint:errcheck

	if e.UserHasBoosted {
		return BoostResult{BoostCount: e.BoostCount - 1, UserHasBoosted: false, CanUnboost: false}, nil
	}
	return BoostResult{BoostCount: e.BoostCount + 1, UserHasBoosted: true, CanUnboost: true}, nil
}

// ToggleSave validates and issues the single idempotent save toggle call
func (c *Client) ToggleSave(ctx context.Context, e EntityState, viewer Viewer) (SaveResult, error) {
	if err := c.ValidateSave(viewer); err != nil {
		return SaveResult{}, err
	}
	saved, err := c.svc.ToggleSave(ctx, e.ID, viewer.ID)
	if err != nil {
		return SaveResult{}, &RemoteError{Op: "toggle save", Err: err}
	}
	return SaveResult{UserHasSaved: saved}, nil
}

// GetBoostCount re-queries the authoritative boost count for a post
func (c *Client) GetBoostCount(ctx context.Context, postID string) (int64, error) {
	count, err := c.svc.GetBoostCount(ctx, postID)
	if err != nil {
		return 0, &RemoteError{Op: "boost count query", Err: err}
	}
	return count, nil
}

// CanUnboost re-queries whether the viewer's boost is still inside the undo window
func (c *Client) CanUnboost(ctx context.Context, postID string, viewer Viewer) (bool, error) {
	ok, err := c.svc.CanUnboost(ctx, postID, viewer.ID)
	if err != nil {
		return false, &RemoteError{Op: "unboost window query", Err: err}
	}
	return ok, nil
}
