package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength    = 200
	MaxImageURLLength = 2048
)

// Recurrence pattern constants.
const (
	PatternDaily    = "daily"
	PatternWeekly   = "weekly"
	PatternBiweekly = "biweekly"
	PatternMonthly  = "monthly"
	PatternYearly   = "yearly"
)

// ValidPatterns contains all valid recurrence pattern values.
var ValidPatterns = []string{PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly, PatternYearly}

// Instance status constants. Required instances count toward completion
// tracking; optional ones do not.
const (
	StatusRequired = "required"
	StatusOptional = "optional"
)

// Default time window applied when a date entry carries no hours.
const (
	DefaultStartHour = "09:00"
	DefaultEndHour   = "10:00"
)

// DefaultHorizonDays is the forward window used when a recurring definition
// has no explicit end date.
const DefaultHorizonDays = 180

// ContinuationWindowDays is the size of the window generated when an
// open-ended series is extended past its last materialized instance.
const ContinuationWindowDays = 90

// Domain errors
var (
	ErrEmptyTitle        = errors.New("event title cannot be empty")
	ErrNoDates           = errors.New("event must have at least one date entry")
	ErrInvalidPattern    = errors.New("recurrence pattern must be one of: daily, weekly, biweekly, monthly, yearly")
	ErrEndBeforeStart    = errors.New("recurrence end date cannot be before the first event date")
	ErrInvalidStatus     = errors.New("instance status must be 'required' or 'optional'")
	ErrAlreadyDeleted    = errors.New("instance is already deleted")
	ErrNotDeleted        = errors.New("instance is not deleted")
	ErrInvalidHourFormat = errors.New("hours must be in HH:MM format")
)

// DateEntry is one user-supplied date/time row on a definition. For a
// non-recurring definition every entry becomes its own instance; for a
// recurring one each entry seeds an independent occurrence series.
type DateEntry struct {
	Date      time.Time // date only, midnight UTC
	StartHour string    // HH:MM, may be empty
	EndHour   string    // HH:MM, may be empty
}

// Definition is the user-authored event template owned by a subcategory.
type Definition struct {
	ID                string
	TenantID          string
	SubcategoryID     string
	Title             string
	Dates             []DateEntry
	IsRecurring       bool
	RecurrencePattern string
	RecurrenceEndDate time.Time // zero value means no explicit end; the 180-day horizon applies
	ImageURL          string
	UseParentImage    bool
	// TotalOccurrences, when non-zero, overrides the computed occurrence
	// count during expansion. Set when continuing an existing sequence.
	TotalOccurrences int
	CreatedBy        string
	CreatedAt        time.Time
}

// Instance is one concrete, independently addressable occurrence
// materialized from a definition.
type Instance struct {
	ID                string // "{definitionID}-{sequenceNumber}"
	ParentEventID     string
	TenantID          string
	Title             string
	StartDate         time.Time // date only; equal to EndDate for single-day instances
	EndDate           time.Time
	StartHour         string
	EndHour           string
	InstanceNumber    int // 1-based position within the expansion run
	Order             int // user-editable display/sort key, starts equal to InstanceNumber
	Status            string
	IsDeleted         bool
	DeletedAt         time.Time
	RestoredAt        time.Time
	IsRecurring       bool
	RecurrencePattern string
}

// InstanceID derives the deterministic instance identifier for a
// definition and 1-based sequence number.
func InstanceID(definitionID string, seq int) string {
	return fmt.Sprintf("%s-%d", definitionID, seq)
}

// Validate checks the definition's invariants.
// PRE: Definition struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > MaxTitleLength {
		return errors.New("event title cannot exceed 200 characters")
	}
	if len(d.ImageURL) > MaxImageURLLength {
		return errors.New("event image URL cannot exceed 2048 characters")
	}
	if len(d.Dates) == 0 {
		return ErrNoDates
	}
	for _, entry := range d.Dates {
		if entry.Date.IsZero() {
			return errors.New("event date entry is missing a date")
		}
		if err := validateHour(entry.StartHour); err != nil {
			return err
		}
		if err := validateHour(entry.EndHour); err != nil {
			return err
		}
	}
	if d.IsRecurring {
		if !IsValidPattern(d.RecurrencePattern) {
			return ErrInvalidPattern
		}
		if !d.RecurrenceEndDate.IsZero() && d.RecurrenceEndDate.Before(d.Dates[0].Date) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

// Validate checks the instance's invariants.
// PRE: Instance struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Instance) Validate() error {
	if i.ParentEventID == "" {
		return errors.New("instance must reference its parent definition")
	}
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	if i.StartDate.IsZero() {
		return errors.New("instance start date is required")
	}
	if i.InstanceNumber < 1 {
		return errors.New("instance number must be 1 or greater")
	}
	if i.Status != StatusRequired && i.Status != StatusOptional {
		return ErrInvalidStatus
	}
	return nil
}

// SoftDelete marks the instance deleted without removing it from storage.
// PRE: Instance is not already deleted
// POST: IsDeleted is true, DeletedAt stamped
func (i *Instance) SoftDelete(now time.Time) error {
	if i.IsDeleted {
		return ErrAlreadyDeleted
	}
	i.IsDeleted = true
	i.DeletedAt = now
	return nil
}

// Restore clears the soft-delete flag. Restore is a pure inverse of
// SoftDelete: no data is reconstructed, only the flag is cleared.
// PRE: Instance is currently deleted
// POST: IsDeleted is false, RestoredAt stamped, Order/Status untouched
func (i *Instance) Restore(now time.Time) error {
	if !i.IsDeleted {
		return ErrNotDeleted
	}
	i.IsDeleted = false
	i.RestoredAt = now
	return nil
}

// IsActive returns true if the instance counts toward active displays.
// INVARIANT: Instance fields are not mutated
func (i *Instance) IsActive() bool {
	return !i.IsDeleted
}

// IsValidPattern reports whether p is a recognised recurrence pattern.
func IsValidPattern(p string) bool {
	for _, v := range ValidPatterns {
		if v == p {
			return true
		}
	}
	return false
}

func validateHour(h string) error {
	if h == "" {
		return nil
	}
	if _, err := time.Parse("15:04", h); err != nil {
		return ErrInvalidHourFormat
	}
	return nil
}
