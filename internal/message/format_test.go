package message

import (
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/herald/internal/event"
	"github.com/linnemanlabs/herald/internal/lifecycle"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 61 * time.Second, "1m 1s"},
		{"hours carry zero minutes", time.Hour, "1h 0m 0s"},
		{"full units", 25*time.Hour + time.Minute + time.Second, "1d 1h 1m 1s"},
		{"zero", 0, "0s"},
		{"negative clamps to zero", -5 * time.Second, "0s"},
		{"sub-second truncates", 900 * time.Millisecond, "0s"},
		{"many days", 72 * time.Hour, "3d 0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestActiveBatch(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)
	alertAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	now := alertAt.Add(10 * time.Minute)

	entries := []lifecycle.NotifiedEntry{
		{
			EventID:     "1",
			Host:        "ACME-SRV-01",
			Description: "CPU load too high",
			Contract:    "ACME",
			Severity:    5,
			Name:        "High CPU",
			OpData:      "97%",
			AlertAt:     alertAt,
			NotifiedAt:  now,
		},
		{
			EventID:     "2",
			Host:        "ACME-SRV-02",
			Description: "Disk almost full",
			Contract:    "ACME",
			Severity:    4,
			Name:        "Low disk space",
			AlertAt:     alertAt.Add(-time.Hour),
			NotifiedAt:  now,
		},
	}

	got := f.ActiveBatch("ACME", entries, now)

	wantParts := []string{
		"*⚠️ ZABBIX ALERT - 2 event(s) for ACME ⚠️*",
		"*--- Event 1 ---*",
		"*Host:* ACME-SRV-01",
		"*Problem:* CPU load too high",
		"*Time:* 14/03/2026 12:00:00",
		"*Details:* High CPU - 97%",
		"_Still unresolved. Duration: 10m 0s_",
		"*--- Event 2 ---*",
		"*Details:* Low disk space\n", // no opdata suffix
		"_Still unresolved. Duration: 1h 10m 0s_",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("ActiveBatch missing %q in:\n%s", part, got)
		}
	}
}

func TestActiveBatch_Timezone(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("timezone db unavailable: %v", err)
	}
	f := NewFormatter(loc)

	alertAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	got := f.ActiveBatch("ACME", []lifecycle.NotifiedEntry{
		{Host: "ACME-SRV-01", AlertAt: alertAt, NotifiedAt: alertAt},
	}, alertAt)

	// UTC-3 in March
	if !strings.Contains(got, "*Time:* 14/03/2026 09:00:00") {
		t.Errorf("timestamp not rendered in display timezone:\n%s", got)
	}
}

func TestResolvedBatch(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)

	events := []lifecycle.ResolvedEvent{
		{
			NotifiedEntry: lifecycle.NotifiedEntry{
				EventID:     "1",
				Host:        "BETA-DB-01",
				Description: "Replication lag",
				Contract:    "BETA",
				Severity:    4,
				Name:        "Lag alarm",
				OpData:      "120s behind",
			},
			RecoveryEventID: "9001",
			Duration:        14 * time.Minute,
		},
	}

	got := f.ResolvedBatch("BETA", events)

	wantParts := []string{
		"*✅ RESOLVED ALERTS - 1 event(s) for BETA ✅*",
		"*--- Event 1 ---*",
		"*Host:* BETA-DB-01",
		"*Problem:* Replication lag",
		"*Severity:* High",
		"*Details:* Lag alarm - 120s behind",
		"_Resolved after 14m 0s._",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("ResolvedBatch missing %q in:\n%s", part, got)
		}
	}
}

func TestEventList(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC).Unix()

	events := []event.RawEvent{
		{EventID: "1", Host: "ACME-SRV-01", Severity: 5, Clock: clock, Name: "High CPU", Description: "CPU load too high"},
		{EventID: "2", Host: "BETA-DB-01", Severity: 4, Clock: clock, Name: "Lag alarm", Description: "Replication lag", OpData: "120s"},
	}

	got := f.EventList("Unhandled high severity events", events)

	wantParts := []string{
		"*Unhandled high severity events*",
		"*Host:* ACME-SRV-01",
		"*Severity:* Critical",
		"*Time:* 14/03/2026 12:00:00",
		"*Details:* High CPU\n",
		"*Details:* Lag alarm - 120s",
		"---",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("EventList missing %q in:\n%s", part, got)
		}
	}
	if n := strings.Count(got, "---\n"); n != 2 {
		t.Errorf("EventList has %d separators, want 2", n)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)

	got := f.Status(2, 5, 4, 90*time.Minute)

	wantParts := []string{
		"*System Status*",
		"Pending events: 2",
		"Notified events: 5",
		"Monitoring severities: 4+ (High and above)",
		"Uptime: 1h 30m",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("Status missing %q in:\n%s", part, got)
		}
	}
}

func TestNewFormatter_NilLocation(t *testing.T) {
	t.Parallel()

	f := NewFormatter(nil)
	alertAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	got := f.ActiveBatch("X", []lifecycle.NotifiedEntry{{Host: "X-1", AlertAt: alertAt}}, alertAt)
	if !strings.Contains(got, "14/03/2026 12:00:00") {
		t.Errorf("nil location did not fall back to UTC:\n%s", got)
	}
}
