package lifecycle

import "context"

// Store is the keyed state behind the Tracker. The interface exists so a
// persistent backing store can be swapped in without touching the
// transition logic.
//
// Range callbacks return false to stop iteration. Implementations must be
// safe for concurrent use.
type Store interface {
	GetPending(ctx context.Context, eventID string) (PendingEntry, bool, error)
	PutPending(ctx context.Context, e PendingEntry) error
	DeletePending(ctx context.Context, eventID string) error
	RangePending(ctx context.Context, fn func(PendingEntry) bool) error

	GetNotified(ctx context.Context, eventID string) (NotifiedEntry, bool, error)
	PutNotified(ctx context.Context, e NotifiedEntry) error
	DeleteNotified(ctx context.Context, eventID string) error
	RangeNotified(ctx context.Context, fn func(NotifiedEntry) bool) error

	// Counts returns the current pending and notified set sizes.
	Counts(ctx context.Context) (pending, notified int, err error)
}
