// Package report aggregates ledger records into monthly summaries.
// Sums run on decimal arithmetic so repeated float amounts cannot
// drift the totals.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chatledger/chatledger/internal/ledger"
)

// Total is one aggregation bucket: a category label, a payee name or a
// local date, with the summed amount and record count behind it.
type Total struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Summary is a full monthly breakdown.
type Summary struct {
	Month      string          `json:"month"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	ByCategory []Total         `json:"by_category"`
	ByPayee    []Total         `json:"by_payee"`
	Daily      []Total         `json:"daily"`
}

// Build aggregates records into a Summary for the given month. Records
// are assumed pre-filtered by the store; Build does not re-check the
// partition.
func Build(month string, recs []*ledger.Record) *Summary {
	s := &Summary{Month: month, Count: len(recs)}

	byCategory := map[string]*Total{}
	byPayee := map[string]*Total{}
	daily := map[string]*Total{}

	for _, rec := range recs {
		amount := decimal.NewFromFloat(rec.Amount)
		s.Total = s.Total.Add(amount)

		add(byCategory, rec.Category, amount)
		if rec.Payee != "" {
			add(byPayee, rec.Payee, amount)
		}
		if len(rec.TimeLocal) >= 10 {
			add(daily, rec.TimeLocal[:10], amount)
		}
	}

	s.ByCategory = sortedByAmount(byCategory)
	s.ByPayee = sortedByAmount(byPayee)
	s.Daily = sortedByLabel(daily)
	return s
}

func add(buckets map[string]*Total, label string, amount decimal.Decimal) {
	b, ok := buckets[label]
	if !ok {
		b = &Total{Label: label}
		buckets[label] = b
	}
	b.Amount = b.Amount.Add(amount)
	b.Count++
}

// sortedByAmount orders buckets largest first; equal amounts fall back
// to label order so output is stable.
func sortedByAmount(buckets map[string]*Total) []Total {
	out := collect(buckets)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func sortedByLabel(buckets map[string]*Total) []Total {
	out := collect(buckets)
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func collect(buckets map[string]*Total) []Total {
	out := make([]Total, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	return out
}

// Render produces the human-readable monthly digest shown in chat and
// by the CLI report command.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d records, total %s\n", s.Month, s.Count, s.Total.StringFixed(2))
	for _, t := range s.ByCategory {
		fmt.Fprintf(&b, "  %s: %s (%d)\n", t.Label, t.Amount.StringFixed(2), t.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// WriteCSV streams records as a CSV export with a header row. Amounts
// keep two decimal places to match the listing format.
func WriteCSV(w io.Writer, recs []*ledger.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "time_local", "amount", "category", "payee", "month"}); err != nil {
		return fmt.Errorf("WriteCSV: write header: %w", err)
	}
	for _, rec := range recs {
		row := []string{
			rec.ID,
			rec.TimeLocal,
			decimal.NewFromFloat(rec.Amount).StringFixed(2),
			rec.Category,
			rec.Payee,
			rec.MonthPartition,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: write record %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}
