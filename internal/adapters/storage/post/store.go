package post

import (
	"context"

	domain "parish/internal/domain/post"
)

// Store persists Post state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Post, error)
	Save(ctx context.Context, value domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Post, error)
	// ListDue returns scheduled posts whose scheduled_at is at or before now.
	ListDue(ctx context.Context, now string, limit int) ([]domain.Post, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	TenantID string
	Platform string
	Status   string
	Limit    int
	Offset   int
}
