// Package settings manages the singleton tracking configuration.
//
// The configuration is lazily created on first read with privacy-first
// defaults and mutated only through a validated partial update. Every
// successful update writes an audit entry carrying exactly the changed
// fields (before/after). Validation failures reject the whole update;
// there is no partial apply.
package settings
