package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chatledger/chatledger/internal/normalize"
)

var (
	heurAmountPattern = regexp.MustCompile(`(?i)(-?\d+(?:[.,]\d+)?)(?:\s*(?:元|块|rmb|cny|￥|¥))?`)

	heurDateTimePattern = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})[ T]?(\d{1,2}):(\d{2})`)
	heurDatePattern     = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	heurTimePattern     = regexp.MustCompile(`\d{1,2}:\d{2}`)

	// Payee after a leading preposition (在/于/去/给/向 X), else the
	// first contiguous run of word-like characters.
	heurPayeePattern         = regexp.MustCompile(`[在于去给向]([\x{4e00}-\x{9fa5}A-Za-z0-9_\-·]{2,20})`)
	heurPayeeFallbackPattern = regexp.MustCompile(`[\x{4e00}-\x{9fa5}A-Za-z]{2,20}`)
)

// heuristicFields is what the regex fallback could recover from a free
// text message. Amount is nil when no number was found.
type heuristicFields struct {
	Amount    *float64
	TimeLocal string
	Payee     string
}

// parseTextHeuristic is the deterministic fallback used when the
// structured extraction call fails. It mirrors what a human would scan
// for: a number with an optional currency suffix, a preposition-led
// merchant name, and the most specific time pattern available.
func parseTextHeuristic(clock *normalize.Clock, raw string) heuristicFields {
	s := strings.TrimSpace(raw)
	var out heuristicFields

	if m := heurAmountPattern.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			out.Amount = &f
		}
	}

	out.TimeLocal = heuristicTime(clock, s)

	if m := heurPayeePattern.FindStringSubmatch(s); m != nil {
		out.Payee = m[1]
	} else if m := heurPayeeFallbackPattern.FindString(s); m != "" {
		out.Payee = m
	}

	return out
}

// heuristicTime resolves a local timestamp from free text, most
// specific pattern first: full date+time, separate date and time, bare
// time anchored to today, then today at the current instant.
func heuristicTime(clock *normalize.Clock, s string) string {
	if m := heurDateTimePattern.FindStringSubmatch(s); m != nil {
		return padDateTime(m[1], m[2], m[3], m[4], m[5])
	}

	d := heurDatePattern.FindStringSubmatch(s)
	hm := heurTimePattern.FindString(s)
	if d != nil && hm != "" {
		parts := strings.SplitN(hm, ":", 2)
		return padDateTime(d[1], d[2], d[3], parts[0], parts[1])
	}
	if hm != "" {
		return clock.TodayAt(hm)
	}
	return clock.TodayAt("")
}

// padDateTime renders zero-padded "YYYY-MM-DD HH:MM" from loosely
// matched numeric fragments. Out-of-range values (month 13, hour 25)
// pass through here and are rejected by the strict parser at insert.
func padDateTime(year, month, day, hour, minute string) string {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", y, mo, d, h, mi)
}
