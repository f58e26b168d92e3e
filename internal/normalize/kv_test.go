package normalize

import "testing"

func TestParseKVPairs(t *testing.T) {
	got := ParseKVPairs(`amount=18.5 category=dining payee="肯德基 前门店" time="2025-08-12 19:30"`)

	want := map[string]string{
		"amount":   "18.5",
		"category": "dining",
		"payee":    "肯德基 前门店",
		"time":     "2025-08-12 19:30",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("pairs[%q] = %q, want %q", k, got[k], v)
		}
	}
	if len(got) != len(want) {
		t.Errorf("got %d pairs, want %d", len(got), len(want))
	}
}

func TestParseKVPairsQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		key  string
		want string
	}{
		{"single quotes", `payee='say "hi"'`, "payee", `say "hi"`},
		{"escaped double quote", `payee="it's \"fine\""`, "payee", `it's "fine"`},
		{"bare value", "amount=12.5", "amount", "12.5"},
		{"upper-case key folded", `Amount=3`, "amount", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKVPairs(tt.in)
			if got[tt.key] != tt.want {
				t.Errorf("ParseKVPairs(%q)[%q] = %q, want %q", tt.in, tt.key, got[tt.key], tt.want)
			}
		})
	}
}

func TestQuoteValueRoundTrip(t *testing.T) {
	values := []string{
		"",
		"肯德基",
		"KFC Qianmen",
		"with space",
		`contains "double" quotes`,
		`it's got apostrophes`,
		`both 'single' and "double"`,
		`back\slash`,
		`trailing backslash \`,
		"2025-08-12 19:30",
	}

	for _, val := range values {
		line := "payee=" + QuoteValue(val)
		pairs := ParseKVPairs(line)
		got, ok := pairs["payee"]
		if !ok {
			t.Errorf("QuoteValue(%q): rendered line %q did not parse", val, line)
			continue
		}
		if got != val {
			t.Errorf("round trip %q -> %q -> %q", val, line, got)
		}
	}
}
