package registration

import (
	"errors"
	"time"
)

// Status constants
const (
	StatusRegistered = "registered"
	StatusAttended   = "attended"
	StatusCancelled  = "cancelled"
)

// Domain errors
var (
	ErrEmptyInstanceID = errors.New("registration must reference an event instance")
	ErrEmptyMemberID   = errors.New("registration must reference a member")
	ErrAlreadyAttended = errors.New("registration is already marked attended")
	ErrCancelled       = errors.New("registration is cancelled")
)

// Registration links a member to one concrete event instance. Attended
// registrations against required instances feed completion tracking.
type Registration struct {
	ID           string
	InstanceID   string
	MemberID     string
	Status       string
	RegisteredAt time.Time
	AttendedAt   time.Time
	CancelledAt  time.Time
}

// Validate checks if the Registration has valid data.
// PRE: Registration struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Registration) Validate() error {
	if r.InstanceID == "" {
		return ErrEmptyInstanceID
	}
	if r.MemberID == "" {
		return ErrEmptyMemberID
	}
	if r.Status != StatusRegistered && r.Status != StatusAttended && r.Status != StatusCancelled {
		return errors.New("status must be 'registered', 'attended', or 'cancelled'")
	}
	if r.RegisteredAt.IsZero() {
		return errors.New("registered_at must be set")
	}
	return nil
}

// MarkAttended records attendance.
// PRE: Registration is in the registered state
// POST: Status is attended, AttendedAt stamped
func (r *Registration) MarkAttended(now time.Time) error {
	if r.Status == StatusAttended {
		return ErrAlreadyAttended
	}
	if r.Status == StatusCancelled {
		return ErrCancelled
	}
	r.Status = StatusAttended
	r.AttendedAt = now
	return nil
}

// Cancel withdraws the registration.
// PRE: Registration is not already cancelled
// POST: Status is cancelled, CancelledAt stamped
func (r *Registration) Cancel(now time.Time) error {
	if r.Status == StatusCancelled {
		return ErrCancelled
	}
	r.Status = StatusCancelled
	r.CancelledAt = now
	return nil
}
