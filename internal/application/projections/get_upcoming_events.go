package projections

import (
	"context"
	"sort"
	"time"

	"parish/internal/domain/registration"
)

// UpcomingEventResult represents one upcoming instance with its parent's
// catalog context resolved.
type UpcomingEventResult struct {
	InstanceID    string
	DefinitionID  string
	Title         string
	StartDate     time.Time
	EndDate       time.Time
	StartHour     string
	EndHour       string
	IsRecurring   bool
	Registrations int
}

// GetUpcomingEventsQuery carries query parameters.
type GetUpcomingEventsQuery struct {
	TenantID string
	From     time.Time
	Days     int // window length, defaults to 30
}

// GetUpcomingEventsDeps holds dependencies for the projection.
type GetUpcomingEventsDeps struct {
	InstanceStore     InstanceStore
	RegistrationStore RegistrationStore // optional: nil skips counts
}

// QueryGetUpcomingEvents lists active instances in the window, sorted by
// start date then display order.
// PRE: TenantID is non-empty
// POST: Soft-deleted instances are excluded; registration counts attached when available
func QueryGetUpcomingEvents(ctx context.Context, query GetUpcomingEventsQuery, deps GetUpcomingEventsDeps) ([]UpcomingEventResult, error) {
	days := query.Days
	if days <= 0 {
		days = 30
	}
	from := query.From.Format("2006-01-02")
	to := query.From.AddDate(0, 0, days).Format("2006-01-02")

	instances, err := deps.InstanceStore.ListByDateRange(ctx, query.TenantID, from, to)
	if err != nil {
		return nil, err
	}

	var results []UpcomingEventResult
	for _, inst := range instances {
		if inst.IsDeleted {
			continue
		}
		r := UpcomingEventResult{
			InstanceID:   inst.ID,
			DefinitionID: inst.ParentEventID,
			Title:        inst.Title,
			StartDate:    inst.StartDate,
			EndDate:      inst.EndDate,
			StartHour:    inst.StartHour,
			EndHour:      inst.EndHour,
			IsRecurring:  inst.IsRecurring,
		}
		if deps.RegistrationStore != nil {
			regs, err := deps.RegistrationStore.ListByInstance(ctx, inst.ID)
			if err == nil {
				for _, reg := range regs {
					if reg.Status != registration.StatusCancelled {
						r.Registrations++
					}
				}
			}
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].StartDate.Equal(results[j].StartDate) {
			return results[i].StartDate.Before(results[j].StartDate)
		}
		return results[i].InstanceID < results[j].InstanceID
	})

	return results, nil
}
