// Package lifecycle tracks the notification state of every observed alert
// event. It defines the pending/notified entry models, the Store interface
// (keyed state), and the Tracker that owns all state transitions: confirmation
// dwell, promotion, resolution and age-based eviction.
package lifecycle
