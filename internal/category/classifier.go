// Package category maps free-text spending descriptions to ledger
// category labels using a configurable keyword table.
package category

import (
	"strings"

	"github.com/chatledger/chatledger/internal/config"
)

// TransferLabel is the label forced by the transfer-keyword override.
const TransferLabel = "transfer"

// Classifier assigns category labels. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	keywords map[string][]string
	priority []string
	triggers []string
	fallback string
}

// New builds a Classifier from the category table. Keywords are
// matched case-insensitively, so they are lower-cased up front.
func New(cfg config.CategoryConfig) *Classifier {
	keywords := make(map[string][]string, len(cfg.Keywords))
	for label, kws := range cfg.Keywords {
		lowered := make([]string, len(kws))
		for i, kw := range kws {
			lowered[i] = strings.ToLower(kw)
		}
		keywords[label] = lowered
	}
	return &Classifier{
		keywords: keywords,
		priority: cfg.Priority,
		triggers: cfg.TransferTriggers,
		fallback: cfg.Fallback,
	}
}

// Classify picks a category for the given payee and description. hint
// is an optional label suggested by the recognition service; it joins
// the keyword scan and, failing that, is checked for a category name
// verbatim.
//
// Multi-category hits resolve through the priority list. A hit outside
// the priority list is returned in arbitrary order; with the stock
// table every category is listed, so this only matters for custom
// tables.
func (c *Classifier) Classify(payee, desc, hint string) string {
	text := strings.ToLower(payee + " " + desc + " " + hint)

	hits := make(map[string]bool)
	for label, kws := range c.keywords {
		for _, kw := range kws {
			if kw != "" && strings.Contains(text, kw) {
				hits[label] = true
				break
			}
		}
	}

	if len(hits) == 0 && hint != "" {
		for label := range c.keywords {
			if strings.Contains(hint, label) {
				hits[label] = true
				break
			}
		}
	}

	if len(hits) == 0 {
		for _, trigger := range c.triggers {
			if strings.Contains(text, strings.ToLower(trigger)) {
				return TransferLabel
			}
		}
		return c.fallback
	}

	for _, label := range c.priority {
		if hits[label] {
			return label
		}
	}
	for label := range hits {
		return label
	}
	return c.fallback
}

// Fallback exposes the catch-all label.
func (c *Classifier) Fallback() string { return c.fallback }
