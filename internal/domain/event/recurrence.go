package event

import (
	"math"
	"time"
)

// OccurrenceCount returns the number of occurrences a stepping expansion
// over [start, end] (inclusive) should produce for the given pattern.
//
// The count is computed analytically, independent of the stepping loop, and
// acts as an upper bound during expansion. The two can disagree for
// calendar-irregular patterns (monthly stepping across short months), which
// is why expansion is double-guarded.
//
// PRE: end is on or after start
// POST: returns a count >= 1
func OccurrenceCount(start, end time.Time, pattern string) int {
	// The formula operates on whole days; any time-of-day component (such
	// as an end-of-day-normalized horizon) is dropped first.
	start = truncateToDay(start)
	end = truncateToDay(end)
	// +1 day makes the end date inclusive.
	diffDays := int(math.Ceil(end.AddDate(0, 0, 1).Sub(start).Hours() / 24))

	switch pattern {
	case PatternDaily:
		return diffDays
	case PatternBiweekly:
		return ceilDiv(diffDays, 14)
	case PatternMonthly:
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		// The final partial month counts only once the anchor day has been reached.
		if end.Day() >= start.Day() {
			months++
		}
		return months
	case PatternYearly:
		years := end.Year() - start.Year()
		if end.Month() > start.Month() || (end.Month() == start.Month() && end.Day() >= start.Day()) {
			years++
		}
		return years
	default:
		// weekly, and the fallback for unknown patterns
		return ceilDiv(diffDays, 7)
	}
}

// Expand materializes the full instance batch for a definition.
//
// Non-recurring definitions produce exactly one instance per date entry.
// Recurring definitions expand each date entry into an independent
// occurrence series; series are concatenated in entry order, with instance
// numbering continuing across them so derived IDs stay unique.
//
// PRE: def.Validate() returns nil
// POST: returned instances are numbered 1..N in emission order; every
// instance date falls within the definition's horizon
func Expand(def Definition) []Instance {
	if !def.IsRecurring {
		instances := make([]Instance, 0, len(def.Dates))
		for idx, entry := range def.Dates {
			instances = append(instances, materialize(def, entry, entry.Date, idx+1))
		}
		return instances
	}

	var instances []Instance
	seq := 0
	for _, entry := range def.Dates {
		start := entry.Date
		horizonEnd := def.RecurrenceEndDate
		if horizonEnd.IsZero() {
			horizonEnd = start.AddDate(0, 0, DefaultHorizonDays)
		}
		// Normalize to end-of-day so a same-day horizon still includes the day.
		horizonEnd = endOfDay(horizonEnd)

		totalOccurrences := def.TotalOccurrences
		if totalOccurrences == 0 {
			totalOccurrences = OccurrenceCount(start, horizonEnd, def.RecurrencePattern)
		}

		// Double guard: the count cap and the date cap must BOTH hold.
		// Calendar stepping can drift from the analytic count (e.g. Jan 31
		// + 1 month lands in March), so neither guard alone is trusted.
		current := start
		emitted := 0
		for emitted < totalOccurrences && !current.After(horizonEnd) {
			seq++
			instances = append(instances, materialize(def, entry, current, seq))
			current = Step(current, def.RecurrencePattern)
			emitted++
		}
	}
	return instances
}

// ContinueSeries generates the next forward-looking chunk of an open-ended
// recurring series. The new window is [lastInstanceDate, lastInstanceDate +
// 90 days], capped by the definition's recurrence end date when one exists.
//
// PRE: def is recurring; lastInstanceDate is the date of the last
// materialized instance; nextSeq is one past the highest existing
// instance number
// POST: returns zero instances when the series is exhausted
func ContinueSeries(def Definition, lastInstanceDate time.Time, nextSeq int) []Instance {
	if !def.IsRecurring || len(def.Dates) == 0 {
		return nil
	}
	windowEnd := lastInstanceDate.AddDate(0, 0, ContinuationWindowDays)
	if !def.RecurrenceEndDate.IsZero() {
		if !lastInstanceDate.Before(def.RecurrenceEndDate) {
			return nil // series exhausted
		}
		if windowEnd.After(def.RecurrenceEndDate) {
			windowEnd = def.RecurrenceEndDate
		}
	}
	windowEnd = endOfDay(windowEnd)

	anchor := Step(lastInstanceDate, def.RecurrencePattern)
	if anchor.After(windowEnd) {
		return nil
	}

	entry := def.Dates[0]
	total := OccurrenceCount(anchor, windowEnd, def.RecurrencePattern)

	var instances []Instance
	current := anchor
	emitted := 0
	for emitted < total && !current.After(windowEnd) {
		instances = append(instances, materialize(def, entry, current, nextSeq))
		nextSeq++
		current = Step(current, def.RecurrencePattern)
		emitted++
	}
	return instances
}

// Step advances a date by one recurrence interval. Monthly and yearly steps
// use calendar arithmetic, so month-end anchors can land past the next
// month's last day (Go normalizes Jan 31 + 1 month to March 2/3).
func Step(t time.Time, pattern string) time.Time {
	switch pattern {
	case PatternDaily:
		return t.AddDate(0, 0, 1)
	case PatternBiweekly:
		return t.AddDate(0, 0, 14)
	case PatternMonthly:
		return t.AddDate(0, 1, 0)
	case PatternYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}

// materialize builds one instance for the given date, inheriting the
// definition's title and the entry's time window.
func materialize(def Definition, entry DateEntry, date time.Time, seq int) Instance {
	startHour := entry.StartHour
	if startHour == "" {
		startHour = DefaultStartHour
	}
	endHour := entry.EndHour
	if endHour == "" {
		endHour = DefaultEndHour
	}
	day := truncateToDay(date)
	return Instance{
		ID:                InstanceID(def.ID, seq),
		ParentEventID:     def.ID,
		TenantID:          def.TenantID,
		Title:             def.Title,
		StartDate:         day,
		EndDate:           day,
		StartHour:         startHour,
		EndHour:           endHour,
		InstanceNumber:    seq,
		Order:             seq,
		Status:            StatusOptional,
		IsRecurring:       def.IsRecurring,
		RecurrencePattern: def.RecurrencePattern,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
