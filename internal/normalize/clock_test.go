package normalize

import (
	"testing"
	"time"
)

func fixedClock(t *testing.T) *Clock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 2025-08-12 15:30 local.
	frozen := time.Date(2025, 8, 12, 15, 30, 0, 0, loc)
	return NewClockAt(loc, func() time.Time { return frozen })
}

func TestTodayAt(t *testing.T) {
	c := fixedClock(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"embedded time", "交易时间 14:20", "2025-08-12 14:20"},
		{"bare time", "12:05", "2025-08-12 12:05"},
		{"single-digit hour padded", "9:05", "2025-08-12 09:05"},
		{"no time falls back to now", "", "2025-08-12 15:30"},
		{"garbage falls back to now", "yesterday evening", "2025-08-12 15:30"},
		{"date in raw is ignored", "2024-01-01 08:15", "2025-08-12 08:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.TodayAt(tt.raw); got != tt.want {
				t.Errorf("TodayAt(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLocalToUTC(t *testing.T) {
	c := fixedClock(t)

	local, utc, err := c.LocalToUTC("2025-08-12 19:30")
	if err != nil {
		t.Fatalf("LocalToUTC: %v", err)
	}
	if got := local.Format(LocalLayout); got != "2025-08-12 19:30" {
		t.Errorf("local = %q", got)
	}
	// Asia/Shanghai is UTC+8.
	if got := utc.Format(LocalLayout); got != "2025-08-12 11:30" {
		t.Errorf("utc = %q", got)
	}
	if !local.Equal(utc) {
		t.Error("local and utc must be the same instant")
	}
}

func TestLocalToUTCRoundTrip(t *testing.T) {
	c := fixedClock(t)

	inputs := []string{
		"2025-01-01 00:00",
		"2025-08-12 19:30",
		"2025-12-31 23:59",
	}
	for _, in := range inputs {
		_, utc, err := c.LocalToUTC(in)
		if err != nil {
			t.Fatalf("LocalToUTC(%q): %v", in, err)
		}
		back := utc.In(c.Location()).Format(LocalLayout)
		if back != in {
			t.Errorf("round trip %q -> %q", in, back)
		}
	}
}

func TestLocalToUTCRejectsBadInput(t *testing.T) {
	c := fixedClock(t)

	bad := []string{
		"2025-08-12",
		"19:30",
		"2025/08/12 19:30",
		"2025-8-12 19:30",
		"2025-08-12 19:30:00",
		"2025-02-30 10:00",
		"2025-13-01 10:00",
		"2025-08-12 25:00",
		"not a time",
	}
	for _, in := range bad {
		if _, _, err := c.LocalToUTC(in); err == nil {
			t.Errorf("LocalToUTC(%q): expected error", in)
		}
	}
}

func TestMonthOf(t *testing.T) {
	if got := MonthOf("2025-08-12 19:30"); got != "2025-08" {
		t.Errorf("MonthOf = %q", got)
	}
}

func TestCurrentMonth(t *testing.T) {
	if got := fixedClock(t).CurrentMonth(); got != "2025-08" {
		t.Errorf("CurrentMonth = %q", got)
	}
}
