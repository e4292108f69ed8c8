// Package message renders alert batches, on-demand listings and status
// reports into destination-agnostic text. All functions are pure; the only
// state a Formatter carries is the display timezone.
package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/herald/internal/event"
	"github.com/linnemanlabs/herald/internal/lifecycle"
)

const timeLayout = "02/01/2006 15:04:05"

// Formatter renders messages with timestamps in a fixed display timezone.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a formatter. A nil location falls back to UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// FormatDuration renders a duration as its largest applicable units down to
// seconds: "2d 3h 14m 5s". Leading zero units are omitted, seconds always
// shown.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int64(d / time.Second)

	days := totalSeconds / 86400
	hours := (totalSeconds / 3600) % 24
	minutes := (totalSeconds / 60) % 60
	seconds := totalSeconds % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 || days > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 || hours > 0 || days > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}

// ActiveBatch renders a batch of newly notified entries for one contract.
// Durations are measured from the original alert time to now, phrased as
// still unresolved.
func (f *Formatter) ActiveBatch(contract string, entries []lifecycle.NotifiedEntry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*⚠️ ZABBIX ALERT - %d event(s) for %s ⚠️*\n", len(entries), contract)

	for i, e := range entries {
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "*--- Event %d ---*\n", i+1)
		fmt.Fprintf(&b, "*Host:* %s\n", e.Host)
		fmt.Fprintf(&b, "*Problem:* %s\n", e.Description)
		fmt.Fprintf(&b, "*Time:* %s\n", e.AlertAt.In(f.loc).Format(timeLayout))
		b.WriteString(detailsLine(e.Name, e.OpData))
		fmt.Fprintf(&b, "_Still unresolved. Duration: %s_", FormatDuration(now.Sub(e.AlertAt)))
	}
	return b.String()
}

// ResolvedBatch renders a batch of resolved entries for one contract.
// Durations are the notified lifetimes, phrased as resolved after.
func (f *Formatter) ResolvedBatch(contract string, events []lifecycle.ResolvedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*✅ RESOLVED ALERTS - %d event(s) for %s ✅*\n", len(events), contract)

	for i, e := range events {
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "*--- Event %d ---*\n", i+1)
		fmt.Fprintf(&b, "*Host:* %s\n", e.Host)
		fmt.Fprintf(&b, "*Problem:* %s\n", e.Description)
		fmt.Fprintf(&b, "*Severity:* %s\n", event.SeverityLabel(e.Severity))
		b.WriteString(detailsLine(e.Name, e.OpData))
		fmt.Fprintf(&b, "_Resolved after %s._", FormatDuration(e.Duration))
	}
	return b.String()
}

// EventList renders an on-demand listing of raw events under a title line.
func (f *Formatter) EventList(title string, events []event.RawEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", title)

	for _, e := range events {
		fmt.Fprintf(&b, "*Host:* %s\n", e.Host)
		fmt.Fprintf(&b, "*Problem:* %s\n", e.Description)
		fmt.Fprintf(&b, "*Time:* %s\n", time.Unix(e.Clock, 0).In(f.loc).Format(timeLayout))
		fmt.Fprintf(&b, "*Severity:* %s\n", event.SeverityLabel(e.Severity))
		b.WriteString(detailsLine(e.Name, e.OpData))
		b.WriteString("---\n")
	}
	return b.String()
}

// Status renders the operator status report.
func (f *Formatter) Status(pending, notified, minSeverity int, uptime time.Duration) string {
	var b strings.Builder
	b.WriteString("*System Status*\n\n")
	fmt.Fprintf(&b, "Pending events: %d\n", pending)
	fmt.Fprintf(&b, "Notified events: %d\n", notified)
	fmt.Fprintf(&b, "Monitoring severities: %d+ (%s and above)\n", minSeverity, event.SeverityLabel(minSeverity))
	fmt.Fprintf(&b, "Uptime: %dh %dm", int(uptime.Hours()), int(uptime.Minutes())%60)
	return b.String()
}

func detailsLine(name, opdata string) string {
	if opdata != "" {
		return fmt.Sprintf("*Details:* %s - %s\n", name, opdata)
	}
	return fmt.Sprintf("*Details:* %s\n", name)
}
