package projections

import (
	"context"

	"parish/internal/domain/registration"
)

// GetEventAnalyticsQuery carries query parameters.
type GetEventAnalyticsQuery struct {
	DefinitionID string
}

// InstanceAnalytics holds per-instance registration and attendance figures.
type InstanceAnalytics struct {
	InstanceID     string
	InstanceNumber int
	Date           string // YYYY-MM-DD
	Registered     int
	Attended       int
	Cancelled      int
	IsDeleted      bool
}

// EventAnalyticsResult aggregates a definition's instances.
type EventAnalyticsResult struct {
	DefinitionID    string
	Title           string
	TotalInstances  int
	ActiveInstances int
	TotalRegistered int
	TotalAttended   int
	// AttendanceRate is attended / registered across active instances,
	// zero when nothing is registered.
	AttendanceRate float64
	Instances      []InstanceAnalytics
}

// GetEventAnalyticsDeps holds dependencies for the projection.
type GetEventAnalyticsDeps struct {
	DefinitionStore   DefinitionStore
	InstanceStore     InstanceStore
	RegistrationStore RegistrationStore
}

// QueryGetEventAnalytics computes registration and attendance figures for
// every instance of one definition, soft-deleted instances included so the
// history stays visible.
// PRE: DefinitionID refers to an existing definition
// POST: Per-instance and aggregate counts returned in sequence order
func QueryGetEventAnalytics(ctx context.Context, query GetEventAnalyticsQuery, deps GetEventAnalyticsDeps) (EventAnalyticsResult, error) {
	def, err := deps.DefinitionStore.GetByID(ctx, query.DefinitionID)
	if err != nil {
		return EventAnalyticsResult{}, err
	}

	instances, err := deps.InstanceStore.ListByParent(ctx, def.ID, true)
	if err != nil {
		return EventAnalyticsResult{}, err
	}

	result := EventAnalyticsResult{
		DefinitionID:   def.ID,
		Title:          def.Title,
		TotalInstances: len(instances),
	}

	for _, inst := range instances {
		ia := InstanceAnalytics{
			InstanceID:     inst.ID,
			InstanceNumber: inst.InstanceNumber,
			Date:           inst.StartDate.Format("2006-01-02"),
			IsDeleted:      inst.IsDeleted,
		}

		regs, err := deps.RegistrationStore.ListByInstance(ctx, inst.ID)
		if err != nil {
			return EventAnalyticsResult{}, err
		}
		for _, reg := range regs {
			switch reg.Status {
			case registration.StatusAttended:
				ia.Attended++
				ia.Registered++
			case registration.StatusRegistered:
				ia.Registered++
			case registration.StatusCancelled:
				ia.Cancelled++
			}
		}

		if !inst.IsDeleted {
			result.ActiveInstances++
			result.TotalRegistered += ia.Registered
			result.TotalAttended += ia.Attended
		}
		result.Instances = append(result.Instances, ia)
	}

	if result.TotalRegistered > 0 {
		result.AttendanceRate = float64(result.TotalAttended) / float64(result.TotalRegistered)
	}

	return result, nil
}
