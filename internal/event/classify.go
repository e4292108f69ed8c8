package event

import "strings"

// Rejection reasons reported by Classify. They double as metric label values.
const (
	ReasonLowSeverity     = "low_severity"
	ReasonAlreadyResolved = "already_resolved"
	ReasonBlockedHost     = "blocked_host"
)

// Policy holds the admission rules applied to every polled event.
type Policy struct {
	// MinSeverity is the lowest severity ordinal that is admitted.
	MinSeverity int

	// BlockedHosts maps a contract code to a substring. Hosts of that
	// contract whose name contains the substring are rejected outright.
	BlockedHosts map[string]string
}

// Decision is the outcome of classifying one raw event.
type Decision struct {
	Admit    bool
	Reason   string
	Contract string
	Severity int
}

// Classify applies severity, upstream-resolution and block-rule checks to a
// raw event. It is pure: no state is read or written beyond its arguments.
func Classify(ev RawEvent, pol Policy) Decision {
	d := Decision{
		Contract: ev.Contract(),
		Severity: ev.Severity,
	}

	if ev.Severity < pol.MinSeverity {
		d.Reason = ReasonLowSeverity
		return d
	}

	// The upstream closed this problem before we ever tracked it.
	if ev.Resolved() {
		d.Reason = ReasonAlreadyResolved
		return d
	}

	if blocked, ok := pol.BlockedHosts[d.Contract]; ok && blocked != "" {
		if strings.Contains(ev.Host, blocked) {
			d.Reason = ReasonBlockedHost
			return d
		}
	}

	d.Admit = true
	return d
}
