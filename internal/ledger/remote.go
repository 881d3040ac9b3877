package ledger

import "context"

// RemoteService is the boundary contract the ledger client consumes. The
// backend owns all durable state and transactional integrity; this interface
// only names the calls the client issues. Boost and Unboost are distinct
// operations because boosting moves a point; ToggleSave is a single idempotent
// toggle because saving moves nothing.
type RemoteService interface {
	Boost(ctx context.Context, postID string, userID uint) error
	Unboost(ctx context.Context, postID string, userID uint) error
	ToggleSave(ctx context.Context, postID string, userID uint) (saved bool, err error)
	GetBoostCount(ctx context.Context, postID string) (int64, error)
	CanUnboost(ctx context.Context, postID string, userID uint) (bool, error)
	GetBalance(ctx context.Context, userID uint) (wallet int64, earnings int64, err error)
}
