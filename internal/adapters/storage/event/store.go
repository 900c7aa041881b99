package event

import (
	"context"

	domain "parish/internal/domain/event"
)

// DefinitionStore persists event definitions.
type DefinitionStore interface {
	Save(ctx context.Context, d domain.Definition) error
	GetByID(ctx context.Context, id string) (domain.Definition, error)
	ListBySubcategory(ctx context.Context, subcategoryID string) ([]domain.Definition, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Definition, error)
	Delete(ctx context.Context, id string) error
}

// InstanceStore persists materialized event instances.
type InstanceStore interface {
	Save(ctx context.Context, i domain.Instance) error
	SaveBatch(ctx context.Context, instances []domain.Instance) error
	// ReplaceForDefinition deletes all instances of a definition and inserts
	// the given replacements in a single transaction.
	ReplaceForDefinition(ctx context.Context, definitionID string, instances []domain.Instance) error
	GetByID(ctx context.Context, id string) (domain.Instance, error)
	ListByParent(ctx context.Context, parentEventID string, includeDeleted bool) ([]domain.Instance, error)
	ListByDateRange(ctx context.Context, tenantID, from, to string) ([]domain.Instance, error)
	DeleteForDefinition(ctx context.Context, definitionID string) error
}
