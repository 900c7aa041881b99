package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/registration"
)

// RegistrationStoreForOrchestrator defines the store interface needed by
// registration orchestrators.
type RegistrationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (registration.Registration, error)
	GetByInstanceAndMember(ctx context.Context, instanceID, memberID string) (registration.Registration, error)
	Save(ctx context.Context, r registration.Registration) error
}

// --- Register for Event ---

// RegisterForEventInput carries input for event registration.
type RegisterForEventInput struct {
	InstanceID string
	MemberID   string
}

// RegisterForEventDeps holds dependencies for RegisterForEvent.
type RegisterForEventDeps struct {
	RegistrationStore RegistrationStoreForOrchestrator
	InstanceActive    func(ctx context.Context, instanceID string) (bool, error)
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteRegisterForEvent registers a member for an event instance.
// Registering twice returns the existing registration.
// PRE: InstanceID refers to an active (non-deleted) instance
// POST: Registration exists with registered status
func ExecuteRegisterForEvent(ctx context.Context, input RegisterForEventInput, deps RegisterForEventDeps) (registration.Registration, error) {
	active, err := deps.InstanceActive(ctx, input.InstanceID)
	if err != nil {
		return registration.Registration{}, err
	}
	if !active {
		return registration.Registration{}, errors.New("cannot register for a deleted event instance")
	}

	if existing, err := deps.RegistrationStore.GetByInstanceAndMember(ctx, input.InstanceID, input.MemberID); err == nil {
		if existing.Status != registration.StatusCancelled {
			return existing, nil
		}
		// Re-registering after cancellation starts a fresh record state
		existing.Status = registration.StatusRegistered
		existing.RegisteredAt = deps.Now()
		existing.CancelledAt = time.Time{}
		if err := deps.RegistrationStore.Save(ctx, existing); err != nil {
			return registration.Registration{}, err
		}
		return existing, nil
	}

	r := registration.Registration{
		ID:           deps.GenerateID(),
		InstanceID:   input.InstanceID,
		MemberID:     input.MemberID,
		Status:       registration.StatusRegistered,
		RegisteredAt: deps.Now(),
	}
	if err := r.Validate(); err != nil {
		return registration.Registration{}, err
	}
	if err := deps.RegistrationStore.Save(ctx, r); err != nil {
		return registration.Registration{}, err
	}

	slog.Info("registration_event", "event", "member_registered", "registration_id", r.ID,
		"instance_id", r.InstanceID, "member_id", r.MemberID)
	return r, nil
}

// --- Mark Attended / Cancel ---

// RegistrationLifecycleDeps holds dependencies for attendance and
// cancellation.
type RegistrationLifecycleDeps struct {
	RegistrationStore RegistrationStoreForOrchestrator
	Now               func() time.Time
}

// ExecuteMarkAttended records attendance against a registration.
// PRE: registrationID refers to a registered, non-cancelled registration
// POST: Registration marked attended with a timestamp
func ExecuteMarkAttended(ctx context.Context, registrationID string, deps RegistrationLifecycleDeps) (registration.Registration, error) {
	r, err := deps.RegistrationStore.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}
	if err := r.MarkAttended(deps.Now()); err != nil {
		return registration.Registration{}, err
	}
	if err := deps.RegistrationStore.Save(ctx, r); err != nil {
		return registration.Registration{}, err
	}
	slog.Info("registration_event", "event", "attendance_marked", "registration_id", r.ID)
	return r, nil
}

// ExecuteCancelRegistration cancels a registration.
// PRE: registrationID refers to a non-cancelled registration
// POST: Registration marked cancelled with a timestamp
func ExecuteCancelRegistration(ctx context.Context, registrationID string, deps RegistrationLifecycleDeps) (registration.Registration, error) {
	r, err := deps.RegistrationStore.GetByID(ctx, registrationID)
	if err != nil {
		return registration.Registration{}, err
	}
	if err := r.Cancel(deps.Now()); err != nil {
		return registration.Registration{}, err
	}
	if err := deps.RegistrationStore.Save(ctx, r); err != nil {
		return registration.Registration{}, err
	}
	slog.Info("registration_event", "event", "registration_cancelled", "registration_id", r.ID)
	return r, nil
}
