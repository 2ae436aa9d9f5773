// Package suppression implements the suppression list service.
//
// This is the single source of truth for whether an email address should
// receive mail. Suppressions flow in from the event processor (hard bounces,
// complaints) and from manual admin actions, and must be checked by the send
// pipeline before every dispatch.
//
// Entries may carry an expiry; an expired entry is treated as absent by
// readers (lazy expiry, no background sweep). Callers must not cache
// IsSuppressed results beyond the current operation.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
