package risk

import (
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// Session labels the FX trading session an instant falls into, on the
// New York clock.
type Session string

const (
	SessionWeekendHoliday Session = "weekend_holiday"
	SessionDeadZone       Session = "dead_zone"
	SessionAsia           Session = "asia_session"
	SessionLondon         Session = "london_session"
	SessionUS             Session = "us_session"
	SessionDefault        Session = "default"
	SessionNoTrade        Session = "no_trade"
)

// SessionMultipliers scale a nominal order size per session.
type SessionMultipliers struct {
	WeekendHoliday decimal.Decimal
	DeadZone       decimal.Decimal
	Asia           decimal.Decimal
	London         decimal.Decimal
	US             decimal.Decimal
	Default        decimal.Decimal
}

func DefaultSessionMultipliers() SessionMultipliers {
	return SessionMultipliers{
		WeekendHoliday: decimal.RequireFromString("0.15"),
		DeadZone:       decimal.RequireFromString("0.15"),
		Asia:           decimal.RequireFromString("0.75"),
		London:         decimal.RequireFromString("1"),
		US:             decimal.RequireFromString("1.25"),
		Default:        decimal.RequireFromString("0.15"),
	}
}

func (m SessionMultipliers) For(s Session) decimal.Decimal {
	switch s {
	case SessionNoTrade:
		return decimal.Zero
	case SessionWeekendHoliday:
		return m.WeekendHoliday
	case SessionDeadZone:
		return m.DeadZone
	case SessionAsia:
		return m.Asia
	case SessionLondon:
		return m.London
	case SessionUS:
		return m.US
	default:
		return m.Default
	}
}

type SessionInfo struct {
	Session        Session
	NoTradeWindow  bool
	SizeMultiplier decimal.Decimal
}

// SessionCalendar classifies instants into sessions. The no-trade window
// runs from Friday 09:00 to Sunday 03:00 New York time and covers the US
// market holidays.
type SessionCalendar struct {
	loc           *time.Location
	noTradeWindow bool
	multipliers   SessionMultipliers
}

// NewSessionCalendar falls back to UTC when timezone cannot be loaded.
func NewSessionCalendar(timezone string, noTradeWindow bool, multipliers SessionMultipliers) *SessionCalendar {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &SessionCalendar{loc: loc, noTradeWindow: noTradeWindow, multipliers: multipliers}
}

func (c *SessionCalendar) At(t time.Time) SessionInfo {
	local := t.In(c.loc)
	if c.noTradeWindow && inNoTradeWindow(local) {
		return SessionInfo{Session: SessionNoTrade, NoTradeWindow: true, SizeMultiplier: decimal.Zero}
	}
	s := classify(local)
	return SessionInfo{Session: s, SizeMultiplier: c.multipliers.For(s)}
}

// ScaleQuantity sizes qty for the session at t. Non-positive quantities
// scale to zero.
func (c *SessionCalendar) ScaleQuantity(qty decimal.Decimal, t time.Time) decimal.Decimal {
	if !qty.IsPositive() {
		return decimal.Zero
	}
	return qty.Mul(c.At(t).SizeMultiplier)
}

func inNoTradeWindow(t time.Time) bool {
	h := t.Hour()
	// Sunday London open is tradable even on a holiday.
	if t.Weekday() == time.Sunday && h >= 3 && h < 9 {
		return false
	}
	if isMarketHoliday(t) {
		return true
	}
	switch t.Weekday() {
	case time.Friday:
		return h >= 9
	case time.Saturday:
		return true
	case time.Sunday:
		return h < 3
	}
	return false
}

func classify(t time.Time) Session {
	h := t.Hour()
	wd := t.Weekday()
	if wd == time.Sunday && h >= 3 && h < 9 {
		return SessionLondon
	}
	if wd == time.Saturday || wd == time.Sunday || isMarketHoliday(t) {
		return SessionWeekendHoliday
	}
	switch {
	case h >= 17 && h < 20:
		return SessionDeadZone
	case h >= 20 || h < 3:
		return SessionAsia
	case h < 9:
		return SessionLondon
	case h <= 17:
		return SessionUS
	}
	return SessionDefault
}

func isMarketHoliday(t time.Time) bool {
	y := t.Year()
	holidays := []time.Time{
		observed(date(y, time.January, 1)),
		nthWeekday(y, time.January, time.Monday, 3),  // Martin Luther King Jr. Day
		nthWeekday(y, time.February, time.Monday, 3), // Presidents' Day
		lastWeekday(y, time.May, time.Monday),        // Memorial Day
		observed(date(y, time.July, 4)),
		nthWeekday(y, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(y, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(y, time.December, 25)),
	}
	for _, h := range holidays {
		if t.Month() == h.Month() && t.Day() == h.Day() {
			return true
		}
	}
	return false
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// observed moves a Sunday holiday to the following Monday.
func observed(d time.Time) time.Time {
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(y int, m time.Month, wd time.Weekday, n int) time.Time {
	first := date(y, m, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekday(y int, m time.Month, wd time.Weekday) time.Time {
	last := date(y, m+1, 1).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}
