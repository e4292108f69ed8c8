package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/herald/internal/event"
)

// Tracker owns all mutations of the pending and notified sets. A single
// mutex serializes Advance, Resolve and Evict so that interleaved poll
// cycles can never observe or produce a half-applied transition (e.g. a
// double promotion).
type Tracker struct {
	mu    sync.Mutex
	store Store

	confirmWindow time.Duration
	minNotified   time.Duration
	evictAge      time.Duration
}

// NewTracker creates a tracker over the given store.
//
// confirmWindow is the minimum dwell before a pending event is promoted.
// minNotified is the minimum notified duration for a resolution to be worth
// announcing. evictAge bounds how long a notified entry may be tracked
// without a resolution before the eviction sweep removes it.
func NewTracker(store Store, confirmWindow, minNotified, evictAge time.Duration) *Tracker {
	return &Tracker{
		store:         store,
		confirmWindow: confirmWindow,
		minNotified:   minNotified,
		evictAge:      evictAge,
	}
}

// Advance runs one poll cycle's worth of state transitions for the admitted
// events and returns the entries promoted to notified this cycle.
//
// Per admitted event: already notified is a no-op; pending past the
// confirmation window is promoted exactly once with NotifiedAt=now; anything
// unseen enters the pending set with FirstSeenAt=now. After the batch, any
// pending entry absent from activeIDs is dropped: the underlying condition
// cleared before it was ever confirmed.
func (t *Tracker) Advance(ctx context.Context, now time.Time, admitted []event.RawEvent, activeIDs map[string]bool) ([]NotifiedEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var promoted []NotifiedEntry

	for _, ev := range admitted {
		if _, ok, err := t.store.GetNotified(ctx, ev.EventID); err != nil {
			return promoted, fmt.Errorf("get notified %s: %w", ev.EventID, err)
		} else if ok {
			continue
		}

		pe, ok, err := t.store.GetPending(ctx, ev.EventID)
		if err != nil {
			return promoted, fmt.Errorf("get pending %s: %w", ev.EventID, err)
		}

		if !ok {
			if err := t.store.PutPending(ctx, PendingEntry{EventID: ev.EventID, FirstSeenAt: now}); err != nil {
				return promoted, fmt.Errorf("put pending %s: %w", ev.EventID, err)
			}
			continue
		}

		if now.Sub(pe.FirstSeenAt) < t.confirmWindow {
			continue
		}

		ne := NotifiedEntry{
			EventID:     ev.EventID,
			Host:        ev.Host,
			Description: ev.Description,
			Contract:    ev.Contract(),
			Severity:    ev.Severity,
			Name:        ev.Name,
			OpData:      ev.OpData,
			AlertAt:     time.Unix(ev.Clock, 0),
			NotifiedAt:  now,
		}
		if err := t.store.PutNotified(ctx, ne); err != nil {
			return promoted, fmt.Errorf("put notified %s: %w", ev.EventID, err)
		}
		if err := t.store.DeletePending(ctx, ev.EventID); err != nil {
			return promoted, fmt.Errorf("delete pending %s: %w", ev.EventID, err)
		}
		promoted = append(promoted, ne)
	}

	// Drop pending entries that left the active set before confirmation.
	var stale []string
	if err := t.store.RangePending(ctx, func(pe PendingEntry) bool {
		if !activeIDs[pe.EventID] {
			stale = append(stale, pe.EventID)
		}
		return true
	}); err != nil {
		return promoted, fmt.Errorf("range pending: %w", err)
	}
	for _, id := range stale {
		if err := t.store.DeletePending(ctx, id); err != nil {
			return promoted, fmt.Errorf("delete pending %s: %w", id, err)
		}
	}

	return promoted, nil
}

// Resolve removes notified entries for which the current poll carries an
// explicit recovery signal, and returns the ones whose notified duration
// exceeded the minimum threshold. Short-lived entries are evicted silently.
//
// Disappearance from the active set alone is not treated as resolution: the
// source's lookback window can lag, so only an explicit recovery reference is
// trusted.
func (t *Tracker) Resolve(ctx context.Context, now time.Time, active []event.RawEvent) ([]ResolvedEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recovery := make(map[string]string)
	for _, ev := range active {
		if ev.Resolved() {
			recovery[ev.EventID] = ev.RecoveryEventID
		}
	}
	if len(recovery) == 0 {
		return nil, nil
	}

	var resolved []ResolvedEvent
	var done []string

	if err := t.store.RangeNotified(ctx, func(ne NotifiedEntry) bool {
		rid, ok := recovery[ne.EventID]
		if !ok {
			return true
		}
		done = append(done, ne.EventID)

		dur := now.Sub(ne.NotifiedAt)
		if dur > t.minNotified {
			resolved = append(resolved, ResolvedEvent{
				NotifiedEntry:   ne,
				RecoveryEventID: rid,
				ResolvedAt:      now,
				Duration:        dur,
			})
		}
		return true
	}); err != nil {
		return nil, fmt.Errorf("range notified: %w", err)
	}

	// Removal is unconditional: a recovered entry never resolves twice.
	for _, id := range done {
		if err := t.store.DeleteNotified(ctx, id); err != nil {
			return resolved, fmt.Errorf("delete notified %s: %w", id, err)
		}
	}

	return resolved, nil
}

// Evict removes notified entries older than the eviction age and returns how
// many were removed. It covers entries whose recovery signal was never
// observed, e.g. because the problem aged out of the source's lookback
// window.
func (t *Tracker) Evict(ctx context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var old []string
	if err := t.store.RangeNotified(ctx, func(ne NotifiedEntry) bool {
		if now.Sub(ne.NotifiedAt) >= t.evictAge {
			old = append(old, ne.EventID)
		}
		return true
	}); err != nil {
		return 0, fmt.Errorf("range notified: %w", err)
	}
	for _, id := range old {
		if err := t.store.DeleteNotified(ctx, id); err != nil {
			return 0, fmt.Errorf("delete notified %s: %w", id, err)
		}
	}
	return len(old), nil
}

// Counts returns the current pending and notified set sizes. Read-only.
func (t *Tracker) Counts(ctx context.Context) (pending, notified int, err error) {
	return t.store.Counts(ctx)
}
