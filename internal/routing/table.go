// Package routing resolves which destination chat receives each group of
// alert events. A static table maps contract codes to chat IDs; hosts that
// fail a contract's allow policy, and contracts with no mapping at all, are
// redirected to the fallback chat.
package routing

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table is the static routing policy, loaded once at startup.
type Table struct {
	// Fallback is the chat that receives groups with no usable
	// contract-specific destination. Required.
	Fallback string `yaml:"fallback"`

	// Contracts maps a contract code to its destination chat ID.
	Contracts map[string]string `yaml:"contracts"`

	// BlockedHosts maps a contract code to a substring; hosts containing it
	// are rejected before they ever reach the tracker.
	BlockedHosts map[string]string `yaml:"blocked_hosts"`

	// AllowedHosts maps a contract code to the host-name tokens permitted to
	// use its specific destination. Contracts without an entry allow all
	// hosts implicitly.
	AllowedHosts map[string][]string `yaml:"allowed_hosts"`
}

// LoadTable reads and validates a routing table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing table: %w", err)
	}
	return &t, nil
}

// Validate checks the table for correctness.
func (t *Table) Validate() error {
	var errs []error

	if t.Fallback == "" {
		errs = append(errs, errors.New("fallback chat is required"))
	}
	for contract, chat := range t.Contracts {
		if contract == "" {
			errs = append(errs, errors.New("empty contract code in contracts"))
		}
		if chat == "" {
			errs = append(errs, fmt.Errorf("empty chat ID for contract %q", contract))
		}
	}
	for contract, tokens := range t.AllowedHosts {
		if len(tokens) == 0 {
			errs = append(errs, fmt.Errorf("empty allow list for contract %q (omit the contract to allow all hosts)", contract))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Destinations returns every configured chat ID exactly once, fallback
// included, sorted for deterministic startup validation.
func (t *Table) Destinations() []string {
	seen := map[string]bool{t.Fallback: true}
	out := []string{t.Fallback}
	for _, chat := range t.Contracts {
		if !seen[chat] {
			seen[chat] = true
			out = append(out, chat)
		}
	}
	sort.Strings(out)
	return out
}
