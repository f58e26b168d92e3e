// Package ledger defines the chat-scoped expense record model and the
// store contract both persistence backends implement.
package ledger

import (
	"context"
	"time"
)

// Record is the sole persisted entity: one normalized spending event.
type Record struct {
	// ID is assigned at insertion and immutable afterwards.
	ID string `json:"id"`

	// OwnerScope identifies the conversation that created the record.
	// nil marks a legacy record from before ownership existed; those
	// are visible to every scope.
	OwnerScope *string `json:"owner_scope,omitempty"`

	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Payee    string  `json:"payee"`

	// TimeLocal is the wall-clock timestamp "YYYY-MM-DD HH:MM" in the
	// fixed local timezone. MonthPartition and InstantUTC derive from
	// it and are only ever updated together with it.
	TimeLocal      string    `json:"time_local"`
	MonthPartition string    `json:"month"`
	InstantUTC     time.Time `json:"instant_utc"`

	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// VisibleTo is the owned-or-legacy predicate every scoped query must
// express: a record is visible to scope when it carries that scope or
// no scope at all.
func (r *Record) VisibleTo(scope string) bool {
	return r.OwnerScope == nil || *r.OwnerScope == scope
}

// DeleteResult accumulates the outcome of a batch delete. Each id is
// deleted atomically on its own; the batch has no cross-id atomicity.
type DeleteResult struct {
	Deleted  int      `json:"deleted"`
	NotFound int      `json:"not_found"`
	Invalid  []string `json:"invalid,omitempty"`
}

// Store persists records. Every operation that takes a scope only
// touches records visible to that scope. Implementations must be safe
// under concurrent invocation, including concurrent updates and
// deletes targeting the same id.
type Store interface {
	// Insert assigns ID and CreatedAt, derives MonthPartition and
	// InstantUTC from TimeLocal, persists the record and returns it in
	// full. A TimeLocal that fails the strict format is a
	// ValidationError.
	Insert(ctx context.Context, rec *Record) (*Record, error)

	// Get returns one visible record by id. A missing, foreign or
	// malformed id is ErrNotFound.
	Get(ctx context.Context, id, scope string) (*Record, error)

	// ListMonth returns the scope's records (plus legacy ones) for a
	// YYYY-MM month, newest instant first, capped at limit.
	ListMonth(ctx context.Context, scope, month string, limit int) ([]*Record, error)

	// Update applies an allow-listed field set to one visible record
	// and returns it after the update. A missing, foreign or
	// malformed id is ErrNotFound.
	Update(ctx context.Context, id, scope string, upd Update) (*Record, error)

	// Delete removes at most one visible record per id and tallies
	// deleted, not-found and syntactically invalid ids.
	Delete(ctx context.Context, ids []string, scope string) (DeleteResult, error)
}
