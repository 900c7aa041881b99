package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/category"
	"parish/internal/domain/event"
)

// DefinitionStoreForOrchestrator defines the definition store interface
// needed by event orchestrators.
type DefinitionStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Definition, error)
	Save(ctx context.Context, d event.Definition) error
	Delete(ctx context.Context, id string) error
}

// InstanceStoreForOrchestrator defines the instance store interface needed
// by event orchestrators.
type InstanceStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Instance, error)
	Save(ctx context.Context, i event.Instance) error
	SaveBatch(ctx context.Context, instances []event.Instance) error
	ReplaceForDefinition(ctx context.Context, definitionID string, instances []event.Instance) error
	ListByParent(ctx context.Context, parentEventID string, includeDeleted bool) ([]event.Instance, error)
	DeleteForDefinition(ctx context.Context, definitionID string) error
}

// SubcategoryStoreForOrchestrator defines the subcategory store interface
// needed by event orchestrators to maintain the event back-reference list.
type SubcategoryStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (category.Subcategory, error)
	Save(ctx context.Context, s category.Subcategory) error
}

// --- Create Event Definition ---

// DateEntryInput is one date row of a create or edit request.
type DateEntryInput struct {
	Date      time.Time
	StartHour string
	EndHour   string
}

// CreateEventInput carries input for the create event orchestrator.
type CreateEventInput struct {
	TenantID          string
	SubcategoryID     string
	Title             string
	Dates             []DateEntryInput
	IsRecurring       bool
	RecurrencePattern string
	RecurrenceEndDate time.Time
	ImageURL          string
	UseParentImage    bool
	CreatedBy         string // AccountID of creator
}

// CreateEventDeps holds dependencies for CreateEvent.
type CreateEventDeps struct {
	DefinitionStore  DefinitionStoreForOrchestrator
	InstanceStore    InstanceStoreForOrchestrator
	SubcategoryStore SubcategoryStoreForOrchestrator
	GenerateID       func() string
	Now              func() time.Time
}

// CreateEventResult carries the persisted definition and its generated
// instances.
type CreateEventResult struct {
	Definition event.Definition
	Instances  []event.Instance
}

// ExecuteCreateEvent creates an event definition under a subcategory and
// materializes its instances in one step.
// PRE: SubcategoryID refers to an existing subcategory; input validates
// POST: Definition and all generated instances are persisted; the
// subcategory's event list references the new definition
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (CreateEventResult, error) {
	if input.CreatedBy == "" {
		return CreateEventResult{}, errors.New("creator account ID is required")
	}
	if input.TenantID == "" {
		return CreateEventResult{}, errors.New("tenant ID is required")
	}

	sub, err := deps.SubcategoryStore.GetByID(ctx, input.SubcategoryID)
	if err != nil {
		return CreateEventResult{}, err
	}

	def := event.Definition{
		ID:                deps.GenerateID(),
		TenantID:          input.TenantID,
		SubcategoryID:     input.SubcategoryID,
		Title:             input.Title,
		Dates:             toDateEntries(input.Dates),
		IsRecurring:       input.IsRecurring,
		RecurrencePattern: input.RecurrencePattern,
		RecurrenceEndDate: input.RecurrenceEndDate,
		ImageURL:          input.ImageURL,
		UseParentImage:    input.UseParentImage,
		CreatedBy:         input.CreatedBy,
		CreatedAt:         deps.Now(),
	}
	if def.UseParentImage {
		def.ImageURL = sub.ImageURL
	}

	if err := def.Validate(); err != nil {
		return CreateEventResult{}, err
	}

	instances := event.Expand(def)

	if err := deps.DefinitionStore.Save(ctx, def); err != nil {
		return CreateEventResult{}, err
	}
	if err := deps.InstanceStore.SaveBatch(ctx, instances); err != nil {
		return CreateEventResult{}, err
	}

	sub.AddEventID(def.ID)
	if err := deps.SubcategoryStore.Save(ctx, sub); err != nil {
		return CreateEventResult{}, err
	}

	slog.Info("event_event", "event", "event_created", "event_id", def.ID,
		"subcategory_id", def.SubcategoryID, "recurring", def.IsRecurring,
		"instances", len(instances), "created_by", input.CreatedBy)
	return CreateEventResult{Definition: def, Instances: instances}, nil
}

// --- Edit Event Definition ---

// EditEventInput carries input for the edit event orchestrator. All fields
// replace the definition's current values.
type EditEventInput struct {
	EventID           string
	Title             string
	Dates             []DateEntryInput
	IsRecurring       bool
	RecurrencePattern string
	RecurrenceEndDate time.Time
	ImageURL          string
	UseParentImage    bool
}

// EditEventDeps holds dependencies for EditEvent.
type EditEventDeps struct {
	DefinitionStore  DefinitionStoreForOrchestrator
	InstanceStore    InstanceStoreForOrchestrator
	SubcategoryStore SubcategoryStoreForOrchestrator
}

// ExecuteEditEvent updates a definition and regenerates its instances.
// Existing instances, including soft-deleted ones and any per-instance
// edits, are replaced by the new expansion.
// PRE: EventID refers to an existing definition; input validates
// POST: Definition updated; instance set fully replaced
func ExecuteEditEvent(ctx context.Context, input EditEventInput, deps EditEventDeps) (CreateEventResult, error) {
	def, err := deps.DefinitionStore.GetByID(ctx, input.EventID)
	if err != nil {
		return CreateEventResult{}, err
	}

	def.Title = input.Title
	def.Dates = toDateEntries(input.Dates)
	def.IsRecurring = input.IsRecurring
	def.RecurrencePattern = input.RecurrencePattern
	def.RecurrenceEndDate = input.RecurrenceEndDate
	def.ImageURL = input.ImageURL
	def.UseParentImage = input.UseParentImage
	// A fresh expansion recomputes the occurrence count
	def.TotalOccurrences = 0

	if def.UseParentImage {
		sub, err := deps.SubcategoryStore.GetByID(ctx, def.SubcategoryID)
		if err != nil {
			return CreateEventResult{}, err
		}
		def.ImageURL = sub.ImageURL
	}

	if err := def.Validate(); err != nil {
		return CreateEventResult{}, err
	}

	instances := event.Expand(def)

	if err := deps.DefinitionStore.Save(ctx, def); err != nil {
		return CreateEventResult{}, err
	}
	if err := deps.InstanceStore.ReplaceForDefinition(ctx, def.ID, instances); err != nil {
		return CreateEventResult{}, err
	}

	slog.Info("event_event", "event", "event_edited", "event_id", def.ID, "instances", len(instances))
	return CreateEventResult{Definition: def, Instances: instances}, nil
}

// --- Delete Event Definition ---

// DeleteEventDeps holds dependencies for DeleteEvent.
type DeleteEventDeps struct {
	DefinitionStore  DefinitionStoreForOrchestrator
	InstanceStore    InstanceStoreForOrchestrator
	SubcategoryStore SubcategoryStoreForOrchestrator
}

// ExecuteDeleteEvent removes a definition, all of its instances, and the
// subcategory back-reference.
// PRE: eventID refers to an existing definition
// POST: Definition and instances are gone; subcategory no longer lists it
func ExecuteDeleteEvent(ctx context.Context, eventID string, deps DeleteEventDeps) error {
	def, err := deps.DefinitionStore.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := deps.InstanceStore.DeleteForDefinition(ctx, eventID); err != nil {
		return err
	}
	if err := deps.DefinitionStore.Delete(ctx, eventID); err != nil {
		return err
	}

	sub, err := deps.SubcategoryStore.GetByID(ctx, def.SubcategoryID)
	if err == nil {
		sub.RemoveEventID(eventID)
		if err := deps.SubcategoryStore.Save(ctx, sub); err != nil {
			return err
		}
	}

	slog.Info("event_event", "event", "event_deleted", "event_id", eventID, "subcategory_id", def.SubcategoryID)
	return nil
}

func toDateEntries(in []DateEntryInput) []event.DateEntry {
	entries := make([]event.DateEntry, 0, len(in))
	for _, d := range in {
		entries = append(entries, event.DateEntry{Date: d.Date, StartHour: d.StartHour, EndHour: d.EndHour})
	}
	return entries
}
