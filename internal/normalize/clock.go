package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// LocalLayout is the canonical wall-clock timestamp format stored on
// every record.
const LocalLayout = "2006-01-02 15:04"

var (
	hmPattern     = regexp.MustCompile(`\d{1,2}:\d{2}`)
	strictPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)
)

// Clock anchors wall-clock parsing to one fixed local timezone. The
// zero source is time.Now; tests substitute a frozen source.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a Clock for the given location.
func NewClock(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// NewClockAt creates a Clock with a custom time source.
func NewClockAt(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

// Location returns the fixed local timezone.
func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the local timezone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// CurrentMonth returns the YYYY-MM partition of the current local day.
func (c *Clock) CurrentMonth() string { return c.Now().Format("2006-01") }

// TodayAt builds a full local timestamp from a raw time fragment. An
// HH:MM substring in raw wins; otherwise the current local time is
// used. The date is always today in the local timezone; upstream
// callers treat screenshots and bare times as same-day evidence.
func (c *Clock) TodayAt(raw string) string {
	now := c.Now()
	hm := now.Format("15:04")
	if m := hmPattern.FindString(strings.TrimSpace(raw)); m != "" {
		hm = PadHourMinute(m)
	}
	return now.Format("2006-01-02") + " " + hm
}

// PadHourMinute zero-pads a loosely matched H:MM fragment to HH:MM.
func PadHourMinute(hm string) string {
	if i := strings.IndexByte(hm, ':'); i == 1 {
		return "0" + hm
	}
	return hm
}

// LocalToUTC interprets a strict "YYYY-MM-DD HH:MM" string in the
// local timezone and returns the zoned and UTC instants. Anything that
// is not exactly that shape, or not a real date/time, is a format
// error.
func (c *Clock) LocalToUTC(s string) (local, utc time.Time, err error) {
	if !strictPattern.MatchString(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("time %q does not match %q", s, "YYYY-MM-DD HH:MM")
	}
	local, err = time.ParseInLocation(LocalLayout, s, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("time %q is not a valid local time: %w", s, err)
	}
	return local, local.UTC(), nil
}

// MonthOf derives the YYYY-MM partition key from a local timestamp
// string. It must only be called with strings that passed LocalToUTC.
func MonthOf(timeLocal string) string {
	if len(timeLocal) < 7 {
		return timeLocal
	}
	return timeLocal[:7]
}
