package cfg

import (
	"errors"
	"flag"
	"fmt"
	"time"
)

// Config holds herald's application-level configuration. Routing policy
// (contract chat mappings, block rules, allow lists) lives in a separate
// YAML file referenced by RoutesFile and is loaded once at startup.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	ZabbixURL             string
	ZabbixToken           string
	TelegramAPIURL        string
	TelegramToken         string
	RoutesFile            string
	MinSeverity           int
	LookbackHours         int
	ConfirmWindow         time.Duration
	MinResolvedDuration   time.Duration
	NotifyInterval        time.Duration
	ResolveInterval       time.Duration
	EvictInterval         time.Duration
	EvictAge              time.Duration
	Timezone              string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token protecting the operator HTTP API")
	fs.StringVar(&c.ZabbixURL, "zabbix-url", "", "Zabbix JSON-RPC API endpoint")
	fs.StringVar(&c.ZabbixToken, "zabbix-token", "", "Zabbix API bearer token")
	fs.StringVar(&c.TelegramAPIURL, "telegram-api-url", "https://api.telegram.org", "Telegram Bot API base URL")
	fs.StringVar(&c.TelegramToken, "telegram-token", "", "Telegram bot token")
	fs.StringVar(&c.RoutesFile, "routes-file", "", "path to the routing policy YAML file")
	fs.IntVar(&c.MinSeverity, "min-severity", 4, "lowest severity to relay (0..5)")
	fs.IntVar(&c.LookbackHours, "lookback-hours", 2, "event source query window in hours (1..48)")
	fs.DurationVar(&c.ConfirmWindow, "confirm-window", 9*time.Minute, "minimum dwell before a pending event is announced")
	fs.DurationVar(&c.MinResolvedDuration, "min-resolved-duration", 9*time.Minute, "minimum notified duration for a resolution notice to be sent")
	fs.DurationVar(&c.NotifyInterval, "notify-interval", time.Minute, "interval between notify-check cycles")
	fs.DurationVar(&c.ResolveInterval, "resolve-interval", time.Minute, "interval between resolved-check cycles")
	fs.DurationVar(&c.EvictInterval, "evict-interval", 6*time.Hour, "interval between eviction sweeps")
	fs.DurationVar(&c.EvictAge, "evict-age", 48*time.Hour, "age past which unresolved notified entries are evicted")
	fs.StringVar(&c.Timezone, "timezone", "UTC", "IANA timezone for message timestamps")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}
	if c.ZabbixURL == "" {
		errs = append(errs, errors.New("ZABBIX_URL is required"))
	}
	if c.ZabbixToken == "" {
		errs = append(errs, errors.New("ZABBIX_TOKEN is required"))
	}
	if c.TelegramAPIURL == "" {
		errs = append(errs, errors.New("TELEGRAM_API_URL is required"))
	}
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.RoutesFile == "" {
		errs = append(errs, errors.New("ROUTES_FILE is required"))
	}

	if c.MinSeverity < 0 || c.MinSeverity > 5 {
		errs = append(errs, fmt.Errorf("invalid MIN_SEVERITY %d (must be 0..5)", c.MinSeverity))
	}
	if c.LookbackHours <= 0 || c.LookbackHours > 48 {
		errs = append(errs, fmt.Errorf("invalid LOOKBACK_HOURS %d (must be 1..48)", c.LookbackHours))
	}

	if c.ConfirmWindow <= 0 {
		errs = append(errs, fmt.Errorf("invalid CONFIRM_WINDOW %s (must be positive)", c.ConfirmWindow))
	}
	if c.MinResolvedDuration <= 0 {
		errs = append(errs, fmt.Errorf("invalid MIN_RESOLVED_DURATION %s (must be positive)", c.MinResolvedDuration))
	}
	if c.NotifyInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid NOTIFY_INTERVAL %s (must be positive)", c.NotifyInterval))
	}
	if c.ResolveInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid RESOLVE_INTERVAL %s (must be positive)", c.ResolveInterval))
	}
	if c.EvictInterval <= 0 {
		errs = append(errs, fmt.Errorf("invalid EVICT_INTERVAL %s (must be positive)", c.EvictInterval))
	}
	if c.EvictAge <= 0 {
		errs = append(errs, fmt.Errorf("invalid EVICT_AGE %s (must be positive)", c.EvictAge))
	}

	// Eviction is the backstop for entries whose resolution was never
	// observed; it must not fire before an event can even be announced
	if c.EvictAge > 0 && c.ConfirmWindow > 0 && c.EvictAge <= c.ConfirmWindow {
		errs = append(errs, fmt.Errorf("EVICT_AGE %s must be greater than CONFIRM_WINDOW %s", c.EvictAge, c.ConfirmWindow))
	}

	if c.Timezone == "" {
		errs = append(errs, errors.New("TIMEZONE is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
