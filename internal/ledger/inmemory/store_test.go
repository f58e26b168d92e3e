package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/normalize"
)

func testClock(t *testing.T) *normalize.Clock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	frozen := time.Date(2025, 8, 12, 15, 30, 0, 0, loc)
	return normalize.NewClockAt(loc, func() time.Time { return frozen })
}

func mustInsert(t *testing.T, s *Store, scope, timeLocal string, amount float64) *ledger.Record {
	t.Helper()
	rec := &ledger.Record{
		OwnerScope: &scope,
		Amount:     amount,
		Category:   "dining",
		Payee:      "肯德基",
		TimeLocal:  timeLocal,
	}
	stored, err := s.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return stored
}

func TestInsertDerivesFields(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)

	if rec.ID == "" {
		t.Fatal("Insert must assign an id")
	}
	if rec.MonthPartition != "2025-08" {
		t.Errorf("month = %q, want 2025-08", rec.MonthPartition)
	}
	if rec.Timezone != "Asia/Shanghai" {
		t.Errorf("timezone = %q", rec.Timezone)
	}
	wantUTC := time.Date(2025, 8, 12, 11, 30, 0, 0, time.UTC)
	if !rec.InstantUTC.Equal(wantUTC) {
		t.Errorf("instant = %v, want %v", rec.InstantUTC, wantUTC)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestInsertRejectsBadTime(t *testing.T) {
	s := New(testClock(t))
	scope := "chat-a"
	_, err := s.Insert(context.Background(), &ledger.Record{
		OwnerScope: &scope,
		Amount:     5,
		TimeLocal:  "2025-8-12 19:30",
	})
	var verr *ledger.ValidationError
	if !errors.As(err, &verr) || verr.Field != "time" {
		t.Fatalf("err = %v, want time ValidationError", err)
	}
}

func TestListMonthOrdersNewestFirst(t *testing.T) {
	s := New(testClock(t))
	old := mustInsert(t, s, "chat-a", "2025-08-01 09:00", 10)
	newest := mustInsert(t, s, "chat-a", "2025-08-20 21:00", 30)
	mid := mustInsert(t, s, "chat-a", "2025-08-12 12:00", 20)
	mustInsert(t, s, "chat-a", "2025-07-31 23:59", 99)

	got, err := s.ListMonth(context.Background(), "chat-a", "2025-08", 20)
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []*ledger.Record{newest, mid, old} {
		if got[i].ID != want.ID {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, want.ID)
		}
	}
}

func TestListMonthAppliesLimit(t *testing.T) {
	s := New(testClock(t))
	for day := 1; day <= 5; day++ {
		mustInsert(t, s, "chat-a", time.Date(2025, 8, day, 12, 0, 0, 0, time.UTC).Format(normalize.LocalLayout), float64(day))
	}

	got, err := s.ListMonth(context.Background(), "chat-a", "2025-08", 2)
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TimeLocal != "2025-08-05 12:00" {
		t.Errorf("got[0].TimeLocal = %q", got[0].TimeLocal)
	}
}

func TestListMonthScoping(t *testing.T) {
	s := New(testClock(t))
	mustInsert(t, s, "chat-a", "2025-08-12 10:00", 10)
	mustInsert(t, s, "chat-b", "2025-08-12 11:00", 20)

	// Legacy record with no owner is visible to everyone.
	legacy, err := s.Insert(context.Background(), &ledger.Record{
		Amount:    5,
		Category:  "other",
		TimeLocal: "2025-08-12 12:00",
	})
	if err != nil {
		t.Fatalf("Insert legacy: %v", err)
	}

	got, err := s.ListMonth(context.Background(), "chat-a", "2025-08", 20)
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (owned + legacy)", len(got))
	}
	seen := map[string]bool{}
	for _, r := range got {
		seen[r.ID] = true
	}
	if !seen[legacy.ID] {
		t.Error("legacy record missing from scoped listing")
	}
}

func TestGet(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)
	ctx := context.Background()

	got, err := s.Get(ctx, rec.ID, "chat-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != rec.ID || got.Amount != 18 {
		t.Errorf("got = %+v", got)
	}

	if _, err := s.Get(ctx, rec.ID, "chat-b"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("foreign scope: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "bogus", "chat-a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("malformed id: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateFields(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)

	amount := 21.5
	timeLocal := "2025-09-01 08:00"
	got, err := s.Update(context.Background(), rec.ID, "chat-a", ledger.Update{
		Amount:    &amount,
		TimeLocal: &timeLocal,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Amount != 21.5 {
		t.Errorf("amount = %v", got.Amount)
	}
	if got.TimeLocal != timeLocal {
		t.Errorf("time = %q", got.TimeLocal)
	}
	if got.MonthPartition != "2025-09" {
		t.Errorf("month = %q, want 2025-09 after time edit", got.MonthPartition)
	}
	wantUTC := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if !got.InstantUTC.Equal(wantUTC) {
		t.Errorf("instant = %v, want %v", got.InstantUTC, wantUTC)
	}
	if got.Category != "dining" {
		t.Errorf("category changed unexpectedly: %q", got.Category)
	}
}

func TestUpdateBadTimeMutatesNothing(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)

	amount := 99.0
	bad := "tomorrow"
	_, err := s.Update(context.Background(), rec.ID, "chat-a", ledger.Update{
		Amount:    &amount,
		TimeLocal: &bad,
	})
	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	got, err := s.ListMonth(context.Background(), "chat-a", "2025-08", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListMonth: %v (%d records)", err, len(got))
	}
	if got[0].Amount != 18 {
		t.Errorf("amount = %v, want untouched 18", got[0].Amount)
	}
}

func TestUpdateNotFoundCases(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)
	amount := 1.0
	upd := ledger.Update{Amount: &amount}
	ctx := context.Background()

	for name, id := range map[string]string{
		"malformed id":  "not-an-id",
		"absent id":     "64d2ab4f9d1e6f0001a2b3c4",
		"foreign scope": rec.ID,
	} {
		scope := "chat-a"
		if name == "foreign scope" {
			scope = "chat-b"
		}
		if _, err := s.Update(ctx, id, scope, upd); !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("%s: err = %v, want ErrNotFound", name, err)
		}
	}
}

func TestUpdateEmpty(t *testing.T) {
	s := New(testClock(t))
	rec := mustInsert(t, s, "chat-a", "2025-08-12 19:30", 18)
	if _, err := s.Update(context.Background(), rec.ID, "chat-a", ledger.Update{}); !errors.Is(err, ledger.ErrEmptyUpdate) {
		t.Fatalf("err = %v, want ErrEmptyUpdate", err)
	}
}

func TestDeleteBatch(t *testing.T) {
	s := New(testClock(t))
	a := mustInsert(t, s, "chat-a", "2025-08-12 10:00", 10)
	b := mustInsert(t, s, "chat-a", "2025-08-12 11:00", 20)
	foreign := mustInsert(t, s, "chat-b", "2025-08-12 12:00", 30)

	res, err := s.Delete(context.Background(), []string{
		a.ID,
		b.ID,
		foreign.ID,                 // other scope: counts as not found
		"64d2ab4f9d1e6f0001a2b3c4", // absent
		"oops",                     // malformed
	}, "chat-a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", res.Deleted)
	}
	if res.NotFound != 2 {
		t.Errorf("not found = %d, want 2", res.NotFound)
	}
	if len(res.Invalid) != 1 || res.Invalid[0] != "oops" {
		t.Errorf("invalid = %v", res.Invalid)
	}

	// Foreign record survives a cross-scope delete attempt.
	got, err := s.ListMonth(context.Background(), "chat-b", "2025-08", 20)
	if err != nil || len(got) != 1 {
		t.Fatalf("foreign record gone: %v (%d records)", err, len(got))
	}
}
