package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/tenant"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TenantStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const tenantColumns = "id, name, slug, contact_email, timezone, created_at"

// GetByID retrieves a Tenant by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tenantColumns+" FROM tenant WHERE id = ?", id)
	entity, err := scanTenant(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, fmt.Errorf("tenant not found: %w", err)
	}
	return entity, err
}

// GetBySlug retrieves a Tenant by its URL slug.
// PRE: slug is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tenantColumns+" FROM tenant WHERE slug = ?", slug)
	entity, err := scanTenant(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, fmt.Errorf("tenant not found: %w", err)
	}
	return entity, err
}

// Save persists a Tenant to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Tenant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenant (`+tenantColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, slug=excluded.slug,
		   contact_email=excluded.contact_email, timezone=excluded.timezone`,
		entity.ID, entity.Name, entity.Slug, entity.ContactEmail, entity.Timezone,
		entity.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// List returns all tenants sorted by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+tenantColumns+" FROM tenant ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Tenant
	for rows.Next() {
		entity, err := scanTenant(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanTenant(scan func(dest ...interface{}) error) (domain.Tenant, error) {
	var entity domain.Tenant
	var createdAt string
	err := scan(&entity.ID, &entity.Name, &entity.Slug, &entity.ContactEmail, &entity.Timezone, &createdAt)
	if err != nil {
		return domain.Tenant{}, err
	}
	entity.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return entity, nil
}
