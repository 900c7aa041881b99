package category

import (
	"context"

	domain "parish/internal/domain/category"
)

// Store persists Category state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Category, error)
	Save(ctx context.Context, value domain.Category) error
	Delete(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Category, error)
}

// SubcategoryStore persists Subcategory state, including the back-reference
// list of event definition IDs created under each subcategory.
type SubcategoryStore interface {
	GetByID(ctx context.Context, id string) (domain.Subcategory, error)
	Save(ctx context.Context, value domain.Subcategory) error
	Delete(ctx context.Context, id string) error
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Subcategory, error)
}
