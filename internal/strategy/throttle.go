package strategy

import "time"

// buyHistory holds the dates of executed ladder entries.
type buyHistory []time.Time

func (h *buyHistory) add(d time.Time) { *h = append(*h, d) }

// allowed reports whether another entry fits the daily and rolling 7-day
// limits on date. A zero limit is unlimited.
func (h buyHistory) allowed(date time.Time, maxDay, maxWeek int) bool {
	if maxDay <= 0 && maxWeek <= 0 {
		return true
	}
	today := dateOnly(date)
	if maxDay > 0 {
		n := 0
		for _, d := range h {
			if dateOnly(d).Equal(today) {
				n++
			}
		}
		if n >= maxDay {
			return false
		}
	}
	if maxWeek > 0 {
		from := today.AddDate(0, 0, -6)
		n := 0
		for _, d := range h {
			dd := dateOnly(d)
			if !dd.Before(from) && !dd.After(today) {
				n++
			}
		}
		if n >= maxWeek {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
