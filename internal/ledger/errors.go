package ledger

import (
	"errors"
	"fmt"
)

// Precondition errors. These are raised locally before any remote call is
// attempted, so callers never need to roll anything back for them.
var (
	ErrUnauthenticated      = errors.New("viewer is not authenticated")
	ErrSelfBoostForbidden   = errors.New("cannot boost your own post")
	ErrInsufficientBalance  = errors.New("insufficient balance to boost")
	ErrUnboostWindowExpired = errors.New("unboost window has expired")
)

// RemoteError wraps any failure of the remote call itself (network, backend
// validation, conflict). It is the only error kind that requires rolling back
// an already-applied optimistic mutation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err is (or wraps) a RemoteError
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
