// Package relay is the business boundary for the alert relay. The Service
// drives the notify-check, resolved-check and eviction cycles against the
// event source, lifecycle tracker, routing engine and delivery transport;
// the Scheduler runs those cycles on independent run-to-completion timers;
// the CommandListener answers read-only operator commands.
package relay
