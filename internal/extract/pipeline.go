// Package extract turns informal spending evidence (payment
// screenshots run through a recognition service, or free-text chat
// messages) into normalized ledger candidates.
package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/category"
	"github.com/chatledger/chatledger/internal/normalize"
)

// Recognizer is the hosted recognition service, treated as a black box
// that returns raw text expected (but not guaranteed) to contain one
// JSON object with amount/payee/category/time fields.
type Recognizer interface {
	RecognizeImage(ctx context.Context, image []byte, mimeType string) (string, error)
	RecognizeText(ctx context.Context, text string) (string, error)
}

// Candidate is a normalized record candidate ready for insertion.
type Candidate struct {
	Amount    float64
	Category  string
	Payee     string
	TimeLocal string
}

// Pipeline orchestrates extraction over image- or text-derived input.
type Pipeline struct {
	rec        Recognizer
	classifier *category.Classifier
	clock      *normalize.Clock
	timeout    time.Duration
	log        zerolog.Logger
}

// New creates a Pipeline. timeout bounds each recognizer call.
func New(rec Recognizer, classifier *category.Classifier, clock *normalize.Clock, timeout time.Duration, log zerolog.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Pipeline{
		rec:        rec,
		classifier: classifier,
		clock:      clock,
		timeout:    timeout,
		log:        log,
	}
}

// FromImage extracts a candidate from a payment screenshot. The
// recognizer output must contain a JSON object; there is no heuristic
// to fall back to for pixels. The date is always forced to today in
// the local timezone regardless of what the screenshot says:
// screenshots are treated as same-day evidence. No zero-amount guard
// applies here.
func (p *Pipeline) FromImage(ctx context.Context, image []byte, mimeType string) (*Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.rec.RecognizeImage(ctx, image, mimeType)
	if err != nil {
		return nil, &ExtractionError{Stage: "image recognition", Err: err}
	}

	fields, err := DecodeModelJSON(raw)
	if err != nil {
		return nil, &ExtractionError{Stage: "image recognition output", Err: err}
	}

	payee := stringField(fields, "payee")
	hint := stringField(fields, "category")

	return &Candidate{
		Amount:    normalize.Amount(fields["amount"]),
		Category:  p.classifier.Classify(payee, "", hint),
		Payee:     payee,
		TimeLocal: p.clock.TodayAt(stringField(fields, "time")),
	}, nil
}

// FromText extracts a candidate from a free-text message. Structured
// extraction is attempted first; any failure there is logged and the
// deterministic regex heuristic takes over. A candidate whose
// normalized amount is exactly zero aborts with ErrNoAmount instead of
// producing a zero-amount record.
func (p *Pipeline) FromText(ctx context.Context, text string) (*Candidate, error) {
	var (
		amount    float64
		payee     string
		hint      string
		timeLocal string
	)

	fields, ok := p.structuredFromText(ctx, text)
	if ok {
		amount = normalize.Amount(fields["amount"])
		payee = stringField(fields, "payee")
		hint = stringField(fields, "category")
		timeLocal = p.clock.TodayAt(stringField(fields, "time"))
	} else {
		h := parseTextHeuristic(p.clock, text)
		amount = normalize.Amount(heuristicAmount(h))
		payee = h.Payee
		hint = p.classifier.Classify(h.Payee, text, "")
		timeLocal = h.TimeLocal
	}

	if amount == 0 {
		return nil, ErrNoAmount
	}

	return &Candidate{
		Amount:    amount,
		Category:  p.classifier.Classify(payee, text, hint),
		Payee:     payee,
		TimeLocal: timeLocal,
	}, nil
}

// structuredFromText runs the AI extraction step and reports whether
// it produced usable fields. This is the explicit first half of the
// two-strategy selection; false means the caller must use the
// heuristic.
func (p *Pipeline) structuredFromText(ctx context.Context, text string) (map[string]any, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.rec.RecognizeText(ctx, text)
	if err != nil {
		p.log.Warn().Err(err).Msg("structured text extraction failed, falling back to heuristic")
		return nil, false
	}

	fields, err := DecodeModelJSON(raw)
	if err != nil {
		p.log.Warn().Err(err).Msg("structured text extraction returned no JSON, falling back to heuristic")
		return nil, false
	}
	return fields, true
}

func heuristicAmount(h heuristicFields) any {
	if h.Amount == nil {
		return nil
	}
	return *h.Amount
}
