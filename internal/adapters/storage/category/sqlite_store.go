package category

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/category"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new CategoryStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const categoryColumns = "id, tenant_id, name, description, image_url, sort_order"

// GetByID retrieves a Category by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Category, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM category WHERE id = ?", id)
	var c domain.Category
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.ImageURL, &c.Order)
	if err == sql.ErrNoRows {
		return domain.Category{}, fmt.Errorf("category not found: %w", err)
	}
	return c, err
}

// Save persists a Category to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO category (`+categoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description,
		   image_url=excluded.image_url, sort_order=excluded.sort_order`,
		c.ID, c.TenantID, c.Name, c.Description, c.ImageURL, c.Order,
	)
	return err
}

// Delete removes a Category. Subcategories are removed separately by
// the cascade orchestrator.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM category WHERE id = ?", id)
	return err
}

// ListByTenant returns a tenant's categories in display order.
func (s *SQLiteStore) ListByTenant(ctx context.Context, tenantID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM category WHERE tenant_id = ? ORDER BY sort_order ASC, name ASC", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.ImageURL, &c.Order); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// SQLiteSubcategoryStore implements SubcategoryStore using SQLite.
// EventIDs are serialized as a JSON array in the event_ids column.
type SQLiteSubcategoryStore struct {
	db storage.SQLDB
}

// NewSQLiteSubcategoryStore creates a new SubcategoryStore.
func NewSQLiteSubcategoryStore(db storage.SQLDB) *SQLiteSubcategoryStore {
	return &SQLiteSubcategoryStore{db: db}
}

const subcategoryColumns = "id, category_id, name, description, image_url, sort_order, event_ids"

// GetByID retrieves a Subcategory by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteSubcategoryStore) GetByID(ctx context.Context, id string) (domain.Subcategory, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+subcategoryColumns+" FROM subcategory WHERE id = ?", id)
	sub, err := scanSubcategory(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Subcategory{}, fmt.Errorf("subcategory not found: %w", err)
	}
	return sub, err
}

// Save persists a Subcategory to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteSubcategoryStore) Save(ctx context.Context, sub domain.Subcategory) error {
	eventIDs := sub.EventIDs
	if eventIDs == nil {
		eventIDs = []string{}
	}
	encoded, err := json.Marshal(eventIDs)
	if err != nil {
		return fmt.Errorf("failed to encode event ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subcategory (`+subcategoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description,
		   image_url=excluded.image_url, sort_order=excluded.sort_order,
		   event_ids=excluded.event_ids`,
		sub.ID, sub.CategoryID, sub.Name, sub.Description, sub.ImageURL, sub.Order, string(encoded),
	)
	return err
}

// Delete removes a Subcategory.
// PRE: id is non-empty
func (s *SQLiteSubcategoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM subcategory WHERE id = ?", id)
	return err
}

// ListByCategory returns a category's subcategories in display order.
func (s *SQLiteSubcategoryStore) ListByCategory(ctx context.Context, categoryID string) ([]domain.Subcategory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategory WHERE category_id = ? ORDER BY sort_order ASC, name ASC", categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Subcategory
	for rows.Next() {
		sub, err := scanSubcategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, sub)
	}
	return results, rows.Err()
}

func scanSubcategory(scan func(dest ...interface{}) error) (domain.Subcategory, error) {
	var sub domain.Subcategory
	var eventIDs string
	err := scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Description, &sub.ImageURL, &sub.Order, &eventIDs)
	if err != nil {
		return domain.Subcategory{}, err
	}
	if err := json.Unmarshal([]byte(eventIDs), &sub.EventIDs); err != nil {
		return domain.Subcategory{}, fmt.Errorf("failed to decode event ids for %s: %w", sub.ID, err)
	}
	return sub, nil
}
