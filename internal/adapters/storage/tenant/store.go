package tenant

import (
	"context"

	domain "parish/internal/domain/tenant"
)

// Store persists Tenant state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	Save(ctx context.Context, value domain.Tenant) error
	List(ctx context.Context) ([]domain.Tenant, error)
}
