// Package event defines the normalized Zabbix event model and the pure
// admission rules applied to every polled record before it enters the
// lifecycle tracker.
package event

import "strconv"

// Severity ordinals as reported by Zabbix.
const (
	SeverityNotClassified = 0
	SeverityInformation   = 1
	SeverityWarning       = 2
	SeverityAverage       = 3
	SeverityHigh          = 4
	SeverityCritical      = 5
)

// UnknownContract is the routing key for hosts whose name carries no
// contract prefix.
const UnknownContract = "UNKNOWN"

// RawEvent is one problem record returned by the event source. Clock is
// seconds since epoch. RecoveryEventID is non-empty and != "0" when the
// upstream has already closed the problem.
type RawEvent struct {
	EventID         string
	Host            string
	Severity        int
	Clock           int64
	Name            string
	Description     string
	OpData          string
	RecoveryEventID string
}

// Resolved reports whether the record carries an upstream recovery signal.
func (e RawEvent) Resolved() bool {
	return e.RecoveryEventID != "" && e.RecoveryEventID != "0"
}

// Contract derives the routing key for this event's host.
func (e RawEvent) Contract() string {
	return DeriveContract(e.Host)
}

// DeriveContract returns the substring of the host name before the first
// hyphen. Host names without a hyphen map to UnknownContract.
func DeriveContract(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] == '-' {
			if i == 0 {
				return UnknownContract
			}
			return host[:i]
		}
	}
	return UnknownContract
}

var severityLabels = map[int]string{
	SeverityNotClassified: "Not classified",
	SeverityInformation:   "Information",
	SeverityWarning:       "Warning",
	SeverityAverage:       "Average",
	SeverityHigh:          "High",
	SeverityCritical:      "Critical",
}

// SeverityLabel maps a severity ordinal to its display name. Unmapped
// ordinals render as the raw number.
func SeverityLabel(sev int) string {
	if s, ok := severityLabels[sev]; ok {
		return s
	}
	return strconv.Itoa(sev)
}
