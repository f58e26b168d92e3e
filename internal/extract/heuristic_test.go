package extract

import (
	"testing"
	"time"

	"github.com/chatledger/chatledger/internal/normalize"
)

func testClock(t *testing.T) *normalize.Clock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	frozen := time.Date(2025, 8, 12, 15, 30, 0, 0, loc)
	return normalize.NewClockAt(loc, func() time.Time { return frozen })
}

func TestParseTextHeuristic(t *testing.T) {
	clock := testClock(t)

	tests := []struct {
		name       string
		in         string
		wantAmount float64
		hasAmount  bool
		wantTime   string
		wantPayee  string
	}{
		{
			name:       "amount payee and bare time",
			in:         "星巴克 32.5 14:20",
			wantAmount: 32.5, hasAmount: true,
			wantTime:  "2025-08-12 14:20",
			wantPayee: "星巴克",
		},
		{
			name:       "currency suffix",
			in:         "打车去机场 25元",
			wantAmount: 25, hasAmount: true,
			wantTime:  "2025-08-12 15:30",
			wantPayee: "机场",
		},
		{
			name:       "full date and time kept",
			in:         "房租 3200 2025/1/5 9:05",
			wantAmount: 3200, hasAmount: true,
			wantTime:  "2025-01-05 09:05",
			wantPayee: "房租",
		},
		{
			name:       "separate date and time combined",
			in:         "买菜 45.8 日期2025-08-10 时间18:40",
			wantAmount: 45.8, hasAmount: true,
			wantTime:  "2025-08-10 18:40",
			wantPayee: "买菜",
		},
		{
			name:      "no digits at all",
			in:        "吃饭",
			hasAmount: false,
			wantTime:  "2025-08-12 15:30",
			wantPayee: "吃饭",
		},
		{
			name:       "preposition payee",
			in:         "在沃尔玛买了 128.5",
			wantAmount: 128.5, hasAmount: true,
			wantTime:  "2025-08-12 15:30",
			wantPayee: "沃尔玛买了",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTextHeuristic(clock, tt.in)
			if tt.hasAmount {
				if got.Amount == nil {
					t.Fatalf("amount = nil, want %v", tt.wantAmount)
				}
				if *got.Amount != tt.wantAmount {
					t.Errorf("amount = %v, want %v", *got.Amount, tt.wantAmount)
				}
			} else if got.Amount != nil {
				t.Errorf("amount = %v, want nil", *got.Amount)
			}
			if got.TimeLocal != tt.wantTime {
				t.Errorf("time = %q, want %q", got.TimeLocal, tt.wantTime)
			}
			if got.Payee != tt.wantPayee {
				t.Errorf("payee = %q, want %q", got.Payee, tt.wantPayee)
			}
		})
	}
}
