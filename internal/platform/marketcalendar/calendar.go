// Package marketcalendar answers whether the Indian stock market is in
// session: weekdays 09:15–15:30 IST, excluding listed trading holidays.
package marketcalendar

import "time"

// tradingHolidays are NSE/BSE trading holidays, "2006-01-02" in IST.
var tradingHolidays = []string{
	"2024-01-26",
	"2024-03-08",
	"2024-03-25",
	"2024-03-29",
	"2024-04-11",
	"2024-04-17",
	"2024-05-01",
	"2024-05-20",
	"2024-06-17",
	"2024-07-17",
	"2024-08-15",
	"2024-10-02",
	"2024-11-01",
	"2024-11-15",
	"2024-12-25",
}

const (
	openSeconds  = (9*60 + 15) * 60  // 09:15:00
	closeSeconds = (15*60 + 30) * 60 // 15:30:00, inclusive; 15:30:01 is closed
)

// Calendar evaluates market hours against a clock.
type Calendar struct {
	now      func() time.Time
	loc      *time.Location
	holidays map[string]struct{}
}

// New creates a Calendar using the system clock.
func New() *Calendar {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	holidays := make(map[string]struct{}, len(tradingHolidays))
	for _, d := range tradingHolidays {
		holidays[d] = struct{}{}
	}
	return &Calendar{now: time.Now, loc: loc, holidays: holidays}
}

// IsMarketOpen reports whether the market is in session right now.
func (c *Calendar) IsMarketOpen() bool {
	now := c.now().In(c.loc)

	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if _, ok := c.holidays[now.Format("2006-01-02")]; ok {
		return false
	}

	secs := (now.Hour()*60+now.Minute())*60 + now.Second()
	return secs >= openSeconds && secs <= closeSeconds
}
