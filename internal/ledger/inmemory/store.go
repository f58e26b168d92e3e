// Package inmemory provides a mutex-guarded, map-backed ledger store.
// Data is lost on restart; it backs tests and local development, while
// mongostore carries production traffic. Both implement the same
// contract, including id syntax, so records move between them cleanly.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/normalize"
)

// Store is an in-memory ledger.Store. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	clock *normalize.Clock
	recs  map[string]*ledger.Record
}

// New creates an empty store using clock for timestamp derivation.
func New(clock *normalize.Clock) *Store {
	return &Store{
		clock: clock,
		recs:  make(map[string]*ledger.Record),
	}
}

// Insert implements ledger.Store.
func (s *Store) Insert(ctx context.Context, rec *ledger.Record) (*ledger.Record, error) {
	_, utc, err := s.clock.LocalToUTC(rec.TimeLocal)
	if err != nil {
		return nil, &ledger.ValidationError{Field: "time", Err: err}
	}

	stored := *rec
	stored.ID = primitive.NewObjectID().Hex()
	stored.MonthPartition = normalize.MonthOf(stored.TimeLocal)
	stored.InstantUTC = utc
	stored.Timezone = s.clock.Location().String()
	stored.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.recs[stored.ID] = &stored
	s.mu.Unlock()

	out := stored
	return &out, nil
}

// Get implements ledger.Store.
func (s *Store) Get(ctx context.Context, id, scope string) (*ledger.Record, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ledger.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok || !rec.VisibleTo(scope) {
		return nil, ledger.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListMonth implements ledger.Store.
func (s *Store) ListMonth(ctx context.Context, scope, month string, limit int) ([]*ledger.Record, error) {
	s.mu.RLock()
	var result []*ledger.Record
	for _, rec := range s.recs {
		if rec.MonthPartition != month || !rec.VisibleTo(scope) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].InstantUTC.Equal(result[j].InstantUTC) {
			return result[i].InstantUTC.After(result[j].InstantUTC)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Update implements ledger.Store.
func (s *Store) Update(ctx context.Context, id, scope string, upd ledger.Update) (*ledger.Record, error) {
	if upd.IsEmpty() {
		return nil, ledger.ErrEmptyUpdate
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ledger.ErrNotFound
	}

	// Validate before taking the lock so a bad time string mutates
	// nothing.
	var newUTC time.Time
	if upd.TimeLocal != nil {
		_, utc, err := s.clock.LocalToUTC(*upd.TimeLocal)
		if err != nil {
			return nil, &ledger.ValidationError{Field: "time", Err: err}
		}
		newUTC = utc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok || !rec.VisibleTo(scope) {
		return nil, ledger.ErrNotFound
	}

	if upd.Amount != nil {
		rec.Amount = *upd.Amount
	}
	if upd.Category != nil {
		rec.Category = *upd.Category
	}
	if upd.Payee != nil {
		rec.Payee = *upd.Payee
	}
	if upd.TimeLocal != nil {
		// TimeLocal and its derived fields change as one unit.
		rec.TimeLocal = *upd.TimeLocal
		rec.MonthPartition = normalize.MonthOf(*upd.TimeLocal)
		rec.InstantUTC = newUTC
		rec.Timezone = s.clock.Location().String()
	}

	cp := *rec
	return &cp, nil
}

// Delete implements ledger.Store.
func (s *Store) Delete(ctx context.Context, ids []string, scope string) (ledger.DeleteResult, error) {
	var res ledger.DeleteResult

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			res.Invalid = append(res.Invalid, id)
			continue
		}
		rec, ok := s.recs[id]
		if !ok || !rec.VisibleTo(scope) {
			res.NotFound++
			continue
		}
		delete(s.recs, id)
		res.Deleted++
	}
	return res, nil
}

var _ ledger.Store = (*Store)(nil)
