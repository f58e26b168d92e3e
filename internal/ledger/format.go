package ledger

import (
	"fmt"

	"github.com/chatledger/chatledger/internal/normalize"
)

// Line renders the editable echo line returned after every successful
// ingestion. Its key=value tail round-trips through the kv parser, so
// users can copy it straight into an edit command:
//
//	<id> amount=<n> category=<label> payee=<quoted> time=<quoted>
func Line(r *Record) string {
	return fmt.Sprintf("%s amount=%s category=%s payee=%s time=%s",
		r.ID,
		normalize.FormatAmount(r.Amount),
		r.Category,
		normalize.QuoteValue(r.Payee),
		normalize.QuoteValue(r.TimeLocal),
	)
}

// DisplayLine renders the listing form used by monthly listings.
func DisplayLine(r *Record) string {
	return fmt.Sprintf("%s | %s | %.2f | %s | %s",
		r.ID, r.TimeLocal, r.Amount, r.Category, r.Payee)
}
