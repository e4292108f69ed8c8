package lifecycle

import "time"

// PendingEntry is an event that has been observed but not yet confirmed
// stable. It is promoted once it survives the confirmation window, or dropped
// when the event disappears from the active set before confirmation.
type PendingEntry struct {
	EventID     string
	FirstSeenAt time.Time
}

// NotifiedEntry is an event that survived the confirmation window and was
// announced to its destination. NotifiedAt is the promotion time, not the
// original alert time.
type NotifiedEntry struct {
	EventID     string
	Host        string
	Description string
	Contract    string
	Severity    int
	Name        string
	OpData      string
	AlertAt     time.Time // when the upstream first raised the problem
	NotifiedAt  time.Time
}

// ResolvedEvent is a notified entry for which a recovery signal was observed.
// Duration is the time the entry spent in the notified set.
type ResolvedEvent struct {
	NotifiedEntry
	RecoveryEventID string
	ResolvedAt      time.Time
	Duration        time.Duration
}
