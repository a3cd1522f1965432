package reconciliation

import (
	"time"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

// Schedule decides when automatic runs happen. All math is done at day
// granularity in UTC; an occurrence is midnight of its scheduled day.
type Schedule struct{}

// Due reports whether a scheduled run should fire now. A run is due when
// the most recent scheduled occurrence has no run at or after it, which
// makes the check idempotent: once a run lands inside the current period,
// repeated polling stays quiet until the next occurrence.
func (Schedule) Due(settings reconciliation.Settings, lastRun *time.Time, now time.Time) bool {
	if !settings.Enabled {
		return false
	}
	occurrence := lastOccurrence(settings, now.UTC())
	if lastRun == nil {
		return true
	}
	return lastRun.UTC().Before(occurrence)
}

// NextRunAt returns the first scheduled occurrence strictly after now
func (Schedule) NextRunAt(settings reconciliation.Settings, now time.Time) time.Time {
	now = now.UTC()
	occurrence := lastOccurrence(settings, now)

	switch settings.Frequency {
	case reconciliation.FrequencyWeekly:
		return occurrence.AddDate(0, 0, 7)
	case reconciliation.FrequencyMonthly:
		next := occurrence.AddDate(0, 1, 0)
		// AddDate keeps the day number; day_of_month is capped at 28 so
		// this never rolls over into the following month
		return next
	default:
		return occurrence.AddDate(0, 0, 1)
	}
}

// Period returns the date range a scheduled run should reconcile: the
// previous day, the previous seven days, or the previous calendar month
func (Schedule) Period(frequency reconciliation.Frequency, now time.Time) (start, end time.Time) {
	today := midnight(now.UTC())

	switch frequency {
	case reconciliation.FrequencyWeekly:
		return today.AddDate(0, 0, -7), today.AddDate(0, 0, -1)
	case reconciliation.FrequencyMonthly:
		firstOfThisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return firstOfThisMonth.AddDate(0, -1, 0), firstOfThisMonth.AddDate(0, 0, -1)
	default:
		yesterday := today.AddDate(0, 0, -1)
		return yesterday, yesterday
	}
}

// lastOccurrence finds the most recent scheduled occurrence at or before now
func lastOccurrence(settings reconciliation.Settings, now time.Time) time.Time {
	today := midnight(now)

	switch settings.Frequency {
	case reconciliation.FrequencyWeekly:
		offset := int(today.Weekday()) - settings.DayOfWeek
		if offset < 0 {
			offset += 7
		}
		return today.AddDate(0, 0, -offset)

	case reconciliation.FrequencyMonthly:
		occurrence := time.Date(today.Year(), today.Month(), settings.DayOfMonth, 0, 0, 0, 0, time.UTC)
		if occurrence.After(today) {
			occurrence = occurrence.AddDate(0, -1, 0)
		}
		return occurrence

	default:
		return today
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
