package services

import (
	"fmt"
	"regexp"
	"strconv"

	"finledger/internal/core"
)

// BillingSchedule decides on which days a subscription is billed. Each
// billing cycle has its own schedule.
type BillingSchedule interface {
	// IsDue reports whether sub has a bill on day.
	IsDue(sub core.Subscription, day core.Date) bool
}

// MonthlySchedule bills on the start date's day of month, and on the day
// named by the renewal rule when there is one. A day past the end of a
// short month falls on its last day.
type MonthlySchedule struct{}

func (MonthlySchedule) IsDue(sub core.Subscription, day core.Date) bool {
	if day.Before(sub.StartDate.Time) {
		return false
	}
	days := day.Period().Days()
	if clampDay(sub.StartDate.Day(), days) == day.Day() {
		return true
	}
	if ruleDay, ok := ParseRenewalDay(sub.RenewalRule); ok && clampDay(ruleDay, days) == day.Day() {
		return true
	}
	return false
}

// YearlySchedule never bills: a yearly subscription is paid up front and
// amortized through its companion prepaid expense.
type YearlySchedule struct{}

func (YearlySchedule) IsDue(core.Subscription, core.Date) bool {
	return false
}

var billingSchedules = map[core.BillingCycle]BillingSchedule{
	core.CycleMonthly: MonthlySchedule{},
	core.CycleYearly:  YearlySchedule{},
}

// GetBillingSchedule returns the schedule of a billing cycle.
func GetBillingSchedule(cycle core.BillingCycle) (BillingSchedule, error) {
	schedule, ok := billingSchedules[cycle]
	if !ok {
		return nil, fmt.Errorf("unknown billing cycle: %s", cycle)
	}
	return schedule, nil
}

// Renewal rules name a day of month: "15号", "15日", "15th", "day 15" or a
// bare "15".
var renewalDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})\s*[号日]`),
	regexp.MustCompile(`(?i)\bday\s*(\d{1,2})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`),
	regexp.MustCompile(`^\s*(\d{1,2})\s*$`),
}

// ParseRenewalDay extracts the day of month from a renewal rule.
func ParseRenewalDay(rule string) (int, bool) {
	for _, re := range renewalDayPatterns {
		m := re.FindStringSubmatch(rule)
		if m == nil {
			continue
		}
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			return 0, false
		}
		return day, true
	}
	return 0, false
}

func clampDay(day, daysInMonth int) int {
	if day > daysInMonth {
		return daysInMonth
	}
	return day
}
