package registration

import (
	"context"

	domain "parish/internal/domain/registration"
)

// Store persists Registration state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Registration, error)
	GetByInstanceAndMember(ctx context.Context, instanceID, memberID string) (domain.Registration, error)
	Save(ctx context.Context, value domain.Registration) error
	Delete(ctx context.Context, id string) error
	ListByInstance(ctx context.Context, instanceID string) ([]domain.Registration, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Registration, error)
	CountByStatus(ctx context.Context, instanceID, status string) (int, error)
}
