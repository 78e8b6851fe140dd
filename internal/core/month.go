package core

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month in YYYY-MM form, the key budgets are stored under.
type Month string

// ParseMonth validates a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(monthLayout) {
		return "", ErrInvalidMonth
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf truncates t to its calendar month.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

func (m Month) String() string {
	return string(m)
}
