package ledger

import (
	"sort"
	"strings"

	"github.com/chatledger/chatledger/internal/normalize"
)

// Update is the allow-listed field set a caller may change on a stored
// record. nil fields are left untouched. Setting TimeLocal always
// re-derives MonthPartition and InstantUTC inside the store; they are
// not independently settable.
type Update struct {
	Amount    *float64
	Category  *string
	Payee     *string
	TimeLocal *string
}

// IsEmpty reports whether the update would change nothing.
func (u Update) IsEmpty() bool {
	return u.Amount == nil && u.Category == nil && u.Payee == nil && u.TimeLocal == nil
}

// allowed is the update command surface: these are the only keys an
// edit may name.
var allowed = map[string]bool{
	"amount":   true,
	"category": true,
	"payee":    true,
	"time":     true,
}

// ParseUpdate converts parsed key=value pairs into an Update. Any key
// outside the allow-listed set rejects the whole update with
// UnsupportedFieldError; there are no partial updates on bad input.
// Amount values run through the same normalization as ingestion.
func ParseUpdate(pairs map[string]string) (Update, error) {
	var unknown []string
	for key := range pairs {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Update{}, &UnsupportedFieldError{Fields: unknown}
	}
	if len(pairs) == 0 {
		return Update{}, ErrEmptyUpdate
	}

	var upd Update
	if v, ok := pairs["amount"]; ok {
		amount := normalize.Amount(v)
		upd.Amount = &amount
	}
	if v, ok := pairs["category"]; ok {
		category := strings.TrimSpace(v)
		upd.Category = &category
	}
	if v, ok := pairs["payee"]; ok {
		payee := strings.TrimSpace(v)
		upd.Payee = &payee
	}
	if v, ok := pairs["time"]; ok {
		t := strings.TrimSpace(v)
		upd.TimeLocal = &t
	}
	return upd, nil
}
