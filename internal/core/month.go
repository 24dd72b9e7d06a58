package core

import (
	"fmt"
	"strings"
	"time"
)

const monthLayout = "2006-01"

// Month is a calendar month, the granularity of budgets, snapshots and
// amortization periods. Its string form YYYY-MM sorts chronologically.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) AddMonths(n int) Month {
	return NewMonth(m.Year, m.Month+time.Month(n))
}

func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

func (m Month) After(o Month) bool {
	return m.index() > o.index()
}

// FirstDay is the first calendar day of the month.
func (m Month) FirstDay() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

func (m Month) LastDay() Date {
	return m.AddMonths(1).FirstDay().AddDays(-1)
}

func (m Month) Days() int {
	return m.LastDay().Day()
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Period() == m
}

// MonthsBetween counts the months from start to end, both inclusive.
func MonthsBetween(start, end Month) int {
	return end.index() - start.index() + 1
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Month) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
