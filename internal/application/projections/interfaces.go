package projections

import (
	"context"

	"parish/internal/adapters/storage/member"
	domainEvent "parish/internal/domain/event"
	domainMember "parish/internal/domain/member"
	domainRegistration "parish/internal/domain/registration"
)

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domainMember.Member, error)
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
}

// DefinitionStore interface for event definition queries.
type DefinitionStore interface {
	GetByID(ctx context.Context, id string) (domainEvent.Definition, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domainEvent.Definition, error)
}

// InstanceStore interface for event instance queries.
type InstanceStore interface {
	ListByParent(ctx context.Context, parentEventID string, includeDeleted bool) ([]domainEvent.Instance, error)
	ListByDateRange(ctx context.Context, tenantID, from, to string) ([]domainEvent.Instance, error)
}

// RegistrationStore interface for registration queries.
type RegistrationStore interface {
	ListByInstance(ctx context.Context, instanceID string) ([]domainRegistration.Registration, error)
	ListByMember(ctx context.Context, memberID string) ([]domainRegistration.Registration, error)
}
