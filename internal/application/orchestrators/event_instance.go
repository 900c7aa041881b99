package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/event"
)

// --- Edit Event Instance ---

// EditInstanceInput carries input for the edit instance orchestrator.
// Zero-valued fields keep the instance's current value.
type EditInstanceInput struct {
	InstanceID string
	Title      string
	StartDate  time.Time
	EndDate    time.Time
	StartHour  string
	EndHour    string
	Order      int // 0 keeps the current order
	Status     string
}

// EditInstanceDeps holds dependencies for EditInstance.
type EditInstanceDeps struct {
	InstanceStore InstanceStoreForOrchestrator
}

// ExecuteEditInstance applies a per-instance edit. Edits survive until the
// parent definition is regenerated.
// PRE: InstanceID refers to an existing instance
// POST: Instance fields updated; identity and parent link unchanged
func ExecuteEditInstance(ctx context.Context, input EditInstanceInput, deps EditInstanceDeps) (event.Instance, error) {
	inst, err := deps.InstanceStore.GetByID(ctx, input.InstanceID)
	if err != nil {
		return event.Instance{}, err
	}

	if input.Title != "" {
		inst.Title = input.Title
	}
	if !input.StartDate.IsZero() {
		inst.StartDate = input.StartDate
		if input.EndDate.IsZero() {
			inst.EndDate = input.StartDate
		}
	}
	if !input.EndDate.IsZero() {
		inst.EndDate = input.EndDate
	}
	if input.StartHour != "" {
		inst.StartHour = input.StartHour
	}
	if input.EndHour != "" {
		inst.EndHour = input.EndHour
	}
	if input.Order != 0 {
		inst.Order = input.Order
	}
	if input.Status != "" {
		inst.Status = input.Status
	}

	if err := inst.Validate(); err != nil {
		return event.Instance{}, err
	}
	if err := deps.InstanceStore.Save(ctx, inst); err != nil {
		return event.Instance{}, err
	}

	slog.Info("event_event", "event", "instance_edited", "instance_id", inst.ID, "parent_id", inst.ParentEventID)
	return inst, nil
}

// --- Soft Delete / Restore ---

// InstanceLifecycleDeps holds dependencies for soft delete and restore.
type InstanceLifecycleDeps struct {
	InstanceStore InstanceStoreForOrchestrator
	Now           func() time.Time
}

// ExecuteSoftDeleteInstance hides a single instance without touching its
// siblings or the parent definition.
// PRE: instanceID refers to an existing, active instance
// POST: Instance is marked deleted with a deletion timestamp
func ExecuteSoftDeleteInstance(ctx context.Context, instanceID string, deps InstanceLifecycleDeps) (event.Instance, error) {
	inst, err := deps.InstanceStore.GetByID(ctx, instanceID)
	if err != nil {
		return event.Instance{}, err
	}
	if err := inst.SoftDelete(deps.Now()); err != nil {
		return event.Instance{}, err
	}
	if err := deps.InstanceStore.Save(ctx, inst); err != nil {
		return event.Instance{}, err
	}
	slog.Info("event_event", "event", "instance_deleted", "instance_id", inst.ID, "parent_id", inst.ParentEventID)
	return inst, nil
}

// ExecuteRestoreInstance brings a soft-deleted instance back with all of
// its pre-deletion data intact.
// PRE: instanceID refers to a soft-deleted instance
// POST: Instance is active again; restoration timestamp recorded
func ExecuteRestoreInstance(ctx context.Context, instanceID string, deps InstanceLifecycleDeps) (event.Instance, error) {
	inst, err := deps.InstanceStore.GetByID(ctx, instanceID)
	if err != nil {
		return event.Instance{}, err
	}
	if err := inst.Restore(deps.Now()); err != nil {
		return event.Instance{}, err
	}
	if err := deps.InstanceStore.Save(ctx, inst); err != nil {
		return event.Instance{}, err
	}
	slog.Info("event_event", "event", "instance_restored", "instance_id", inst.ID, "parent_id", inst.ParentEventID)
	return inst, nil
}

// --- Continue Series ---

// ContinueSeriesDeps holds dependencies for the series continuation job.
type ContinueSeriesDeps struct {
	DefinitionStore DefinitionStoreForOrchestrator
	InstanceStore   InstanceStoreForOrchestrator
}

// ExecuteContinueSeries extends an open-ended recurring series past its
// last materialized instance. Numbering continues from the existing
// sequence so instance IDs stay unique.
// PRE: eventID refers to a recurring definition with at least one instance
// POST: New instances appended for the continuation window, or none if the
// series is exhausted
func ExecuteContinueSeries(ctx context.Context, eventID string, deps ContinueSeriesDeps) ([]event.Instance, error) {
	def, err := deps.DefinitionStore.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !def.IsRecurring {
		return nil, errors.New("cannot continue a non-recurring event")
	}

	existing, err := deps.InstanceStore.ListByParent(ctx, eventID, true)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, errors.New("event has no instances to continue from")
	}

	lastDate := existing[0].StartDate
	maxSeq := 0
	for _, i := range existing {
		if i.StartDate.After(lastDate) {
			lastDate = i.StartDate
		}
		if i.InstanceNumber > maxSeq {
			maxSeq = i.InstanceNumber
		}
	}

	added := event.ContinueSeries(def, lastDate, maxSeq+1)
	if len(added) == 0 {
		return nil, nil
	}
	if err := deps.InstanceStore.SaveBatch(ctx, added); err != nil {
		return nil, err
	}

	slog.Info("event_event", "event", "series_continued", "event_id", eventID,
		"added", len(added), "from_seq", maxSeq+1)
	return added, nil
}
