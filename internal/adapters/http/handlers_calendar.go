package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"parish/internal/domain/event"
)

// calendarWindowDays is how far ahead the public feed looks.
const calendarWindowDays = 90

// handleCalendarFeed serves GET /calendar/{slug}.ics — a public iCalendar
// feed of the tenant's upcoming event instances. Calendar clients poll this
// URL, so it is unauthenticated and tenant-scoped by slug.
func handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	feed := r.PathValue("feed")
	slug, ok := strings.CutSuffix(feed, ".ics")
	if !ok || slug == "" {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	tenant, err := stores.TenantStore.GetBySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	flag, err := stores.FeatureFlagStore.GetByKey(r.Context(), "calendar_feed")
	if err == nil && !flag.EnabledMember {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	now := timeNow()
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.AddDate(0, 0, calendarWindowDays).Format("2006-01-02")
	instances, err := stores.InstanceStore.ListByDateRange(r.Context(), tenant.ID, from, to)
	if err != nil {
		internalError(w, err)
		return
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Parish//Events//EN")
	cal.SetName(tenant.Name)

	for _, inst := range instances {
		if inst.IsDeleted {
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("%s@%s", inst.ID, tenant.Slug))
		ve.SetSummary(inst.Title)
		ve.SetDtStampTime(now)

		start, end, allDay := instanceTimes(inst, loc)
		if allDay {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(end)
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write([]byte(cal.Serialize()))
}

// handleCalendarSeries serves GET /calendar/{slug}/series.ics — one VEVENT
// per recurring definition with an RRULE, for clients that prefer compact
// recurring events over materialized instances.
func handleCalendarSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	slug := r.PathValue("slug")

	tenant, err := stores.TenantStore.GetBySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, "calendar not found", http.StatusNotFound)
		return
	}

	defs, err := stores.DefinitionStore.ListByTenant(r.Context(), tenant.ID)
	if err != nil {
		internalError(w, err)
		return
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := timeNow()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Parish//Events//EN")
	cal.SetName(tenant.Name + " (series)")

	for _, def := range defs {
		if !def.IsRecurring || len(def.Dates) == 0 {
			continue
		}
		rule, err := recurrenceRule(def, loc)
		if err != nil {
			continue
		}
		first := def.Dates[0]
		ve := cal.AddEvent(fmt.Sprintf("%s@%s", def.ID, tenant.Slug))
		ve.SetSummary(def.Title)
		ve.SetDtStampTime(now)

		start, end, allDay := entryTimes(first, loc)
		if allDay {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(end)
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
		}
		ve.AddRrule(rule.OrigOptions.RRuleString())
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write([]byte(cal.Serialize()))
}

// recurrenceRule converts a definition's recurrence into an RRULE.
func recurrenceRule(def event.Definition, loc *time.Location) (*rrule.RRule, error) {
	opt := rrule.ROption{Dtstart: def.Dates[0].Date.In(loc)}

	switch def.RecurrencePattern {
	case event.PatternDaily:
		opt.Freq = rrule.DAILY
	case event.PatternWeekly:
		opt.Freq = rrule.WEEKLY
	case event.PatternBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case event.PatternMonthly:
		opt.Freq = rrule.MONTHLY
	case event.PatternYearly:
		opt.Freq = rrule.YEARLY
	default:
		return nil, fmt.Errorf("unsupported recurrence pattern %q", def.RecurrencePattern)
	}
	if !def.RecurrenceEndDate.IsZero() {
		opt.Until = def.RecurrenceEndDate.In(loc)
	}
	return rrule.NewRRule(opt)
}

// instanceTimes resolves the concrete start and end of an instance in the
// tenant's timezone. Instances without hours are all-day.
func instanceTimes(inst event.Instance, loc *time.Location) (time.Time, time.Time, bool) {
	if inst.StartHour == "" {
		// All-day DTEND is exclusive per RFC 5545.
		return inst.StartDate, inst.EndDate.AddDate(0, 0, 1), true
	}
	start := atHour(inst.StartDate, inst.StartHour, loc)
	end := atHour(inst.EndDate, inst.EndHour, loc)
	if !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end, false
}

// entryTimes resolves a definition date entry the same way.
func entryTimes(e event.DateEntry, loc *time.Location) (time.Time, time.Time, bool) {
	if e.StartHour == "" {
		return e.Date, e.Date.AddDate(0, 0, 1), true
	}
	start := atHour(e.Date, e.StartHour, loc)
	end := atHour(e.Date, e.EndHour, loc)
	if !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end, false
}

// atHour combines a date with an "HH:MM" hour string in the given location.
func atHour(date time.Time, hour string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation("15:04", hour, loc)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
