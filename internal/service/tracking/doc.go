// Package tracking implements the delivery-event state machine.
//
// The service consumes normalized email events (at-least-once delivery from
// the provider webhook layer), advances the per-message delivery record,
// conditionally feeds the suppression list, and appends audit entries.
//
// Correctness under concurrent duplicate events relies on atomic
// single-statement storage operations, not application-level locks: the
// repository's engagement update is conditional (set only if null) and the
// status update carries the terminal-status guard. Every mutation is
// idempotent or uniquely keyed, so storage errors are safe to retry.
package tracking
