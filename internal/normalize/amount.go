// Package normalize holds the pure field normalizers shared by the
// extraction pipeline and the ledger store: amount parsing, wall-clock
// timestamp handling and key/value quoting.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// Currency markers stripped before the numeric scan. The scan
	// itself ignores anything non-numeric, so this list only needs to
	// cover words that could glue onto digits.
	currencyReplacer = strings.NewReplacer(
		"￥", "", "¥", "",
		"元", "", "块", "",
		"RMB", "", "rmb", "",
		"CNY", "", "cny", "",
		",", "",
	)
)

// Amount coerces an arbitrary extracted value into a canonical float
// amount. Numeric inputs pass through; strings are stripped of
// currency symbols/words and thousands separators, then the first
// signed decimal number wins. Anything unparseable yields 0.0; Amount
// never fails.
func Amount(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return amountFromString(v.String())
		}
		return f
	case string:
		return amountFromString(v)
	default:
		return amountFromString(fmt.Sprint(raw))
	}
}

func amountFromString(s string) float64 {
	s = currencyReplacer.Replace(strings.TrimSpace(s))
	m := amountPattern.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatAmount renders an amount the way it is echoed back to the
// user: shortest form, no trailing zeros.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'g', -1, 64)
}
