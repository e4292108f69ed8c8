package routing

import (
	"sort"
	"strings"

	"github.com/linnemanlabs/herald/internal/lifecycle"
)

// Group is one destination's share of a routed batch. Contract is the
// originating contract even when the group was redirected to the fallback
// chat, so rendered messages still name it.
type Group struct {
	Contract    string
	Destination string
	Fallback    bool
	Entries     []lifecycle.NotifiedEntry
}

// Engine applies the routing policy to batches of tracked entries.
type Engine struct {
	table *Table
}

// NewEngine creates a routing engine over a validated table.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table}
}

// Destination resolves where a single event for the given contract and host
// should go. It falls back when the contract has no configured chat or the
// host fails the contract's allow policy.
func (e *Engine) Destination(contract, host string) (dest string, fallback bool) {
	chat, ok := e.table.Contracts[contract]
	if !ok || chat == "" || !e.HostAllowed(contract, host) {
		return e.table.Fallback, true
	}
	return chat, false
}

// HostAllowed reports whether the host may use the contract's specific
// destination. The host name is normalized (whitespace to hyphens,
// upper-cased) and split on hyphens; it is allowed iff any token appears in
// the contract's allow list. Contracts without an allow list admit all hosts.
func (e *Engine) HostAllowed(contract, host string) bool {
	tokens, ok := e.table.AllowedHosts[contract]
	if !ok {
		return true
	}

	normalized := strings.ToUpper(strings.Join(strings.Fields(host), "-"))
	for _, part := range strings.Split(normalized, "-") {
		for _, tok := range tokens {
			if part == tok {
				return true
			}
		}
	}
	return false
}

// Route groups a notified batch by contract and resolves each group's
// destination. Every input entry lands in exactly one group; routing
// redirects but never discards. Groups are returned in contract order, with
// fallback-redirected groups kept separate from native fallback traffic.
func (e *Engine) Route(batch []lifecycle.NotifiedEntry) []Group {
	byContract := make(map[string][]lifecycle.NotifiedEntry)
	var order []string
	for _, entry := range batch {
		if _, ok := byContract[entry.Contract]; !ok {
			order = append(order, entry.Contract)
		}
		byContract[entry.Contract] = append(byContract[entry.Contract], entry)
	}
	sort.Strings(order)

	var groups []Group
	for _, contract := range order {
		entries := byContract[contract]

		// The allow check is per host; one contract can split between its
		// own chat and the fallback in the same cycle.
		var allowed, denied []lifecycle.NotifiedEntry
		for _, entry := range entries {
			if _, fb := e.Destination(contract, entry.Host); fb {
				denied = append(denied, entry)
			} else {
				allowed = append(allowed, entry)
			}
		}

		if len(allowed) > 0 {
			groups = append(groups, Group{
				Contract:    contract,
				Destination: e.table.Contracts[contract],
				Entries:     allowed,
			})
		}
		if len(denied) > 0 {
			groups = append(groups, Group{
				Contract:    contract,
				Destination: e.table.Fallback,
				Fallback:    true,
				Entries:     denied,
			})
		}
	}
	return groups
}
