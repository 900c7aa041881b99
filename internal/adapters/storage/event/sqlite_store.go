package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/event"
)

// dateEntryRow is the JSON shape used for the dates column.
type dateEntryRow struct {
	Date      string `json:"date"`
	StartHour string `json:"startHour,omitempty"`
	EndHour   string `json:"endHour,omitempty"`
}

// SQLiteDefinitionStore implements DefinitionStore using SQLite.
type SQLiteDefinitionStore struct {
	db storage.SQLDB
}

// NewSQLiteDefinitionStore creates a new SQLiteDefinitionStore.
// PRE: db is a valid, open database connection with the schema applied
// POST: store is ready for use
func NewSQLiteDefinitionStore(db storage.SQLDB) *SQLiteDefinitionStore {
	return &SQLiteDefinitionStore{db: db}
}

// Save inserts or updates an event definition.
// PRE: d is a valid Definition (Validate() returns nil)
// POST: definition is persisted, date entries serialized as JSON
func (s *SQLiteDefinitionStore) Save(ctx context.Context, d domain.Definition) error {
	dates, err := encodeDates(d.Dates)
	if err != nil {
		return fmt.Errorf("failed to encode dates: %w", err)
	}
	endDate := ""
	if !d.RecurrenceEndDate.IsZero() {
		endDate = d.RecurrenceEndDate.Format("2006-01-02")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_definition (id, tenant_id, subcategory_id, title, dates, is_recurring,
		   recurrence_pattern, recurrence_end_date, image_url, use_parent_image, total_occurrences, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   subcategory_id=excluded.subcategory_id, title=excluded.title, dates=excluded.dates,
		   is_recurring=excluded.is_recurring, recurrence_pattern=excluded.recurrence_pattern,
		   recurrence_end_date=excluded.recurrence_end_date, image_url=excluded.image_url,
		   use_parent_image=excluded.use_parent_image, total_occurrences=excluded.total_occurrences`,
		d.ID, d.TenantID, d.SubcategoryID, d.Title, dates, boolToInt(d.IsRecurring),
		d.RecurrencePattern, endDate, d.ImageURL, boolToInt(d.UseParentImage),
		d.TotalOccurrences, d.CreatedBy, d.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetByID retrieves a definition by ID.
// PRE: id is non-empty
// POST: returns the definition or sql.ErrNoRows if not found
func (s *SQLiteDefinitionStore) GetByID(ctx context.Context, id string) (domain.Definition, error) {
	row := s.db.QueryRowContext(ctx, selectDefinition+` WHERE id = ?`, id)
	return scanDefinition(row)
}

// ListBySubcategory returns all definitions under a subcategory.
func (s *SQLiteDefinitionStore) ListBySubcategory(ctx context.Context, subcategoryID string) ([]domain.Definition, error) {
	rows, err := s.db.QueryContext(ctx, selectDefinition+` WHERE subcategory_id = ? ORDER BY created_at ASC`, subcategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

// ListByTenant returns all definitions for a tenant.
func (s *SQLiteDefinitionStore) ListByTenant(ctx context.Context, tenantID string) ([]domain.Definition, error) {
	rows, err := s.db.QueryContext(ctx, selectDefinition+` WHERE tenant_id = ? ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

// Delete removes a definition. Instances are removed separately.
func (s *SQLiteDefinitionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM event_definition WHERE id = ?`, id)
	return err
}

const selectDefinition = `SELECT id, tenant_id, subcategory_id, title, dates, is_recurring,
	recurrence_pattern, recurrence_end_date, image_url, use_parent_image, total_occurrences, created_by, created_at
	FROM event_definition`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (domain.Definition, error) {
	var d domain.Definition
	var dates, endDate, createdAt string
	var isRecurring, useParent int
	err := row.Scan(&d.ID, &d.TenantID, &d.SubcategoryID, &d.Title, &dates, &isRecurring,
		&d.RecurrencePattern, &endDate, &d.ImageURL, &useParent, &d.TotalOccurrences, &d.CreatedBy, &createdAt)
	if err != nil {
		return d, err
	}
	d.Dates, err = decodeDates(dates)
	if err != nil {
		return d, fmt.Errorf("failed to decode dates for %s: %w", d.ID, err)
	}
	d.IsRecurring = isRecurring != 0
	d.UseParentImage = useParent != 0
	d.RecurrenceEndDate = parseDate(endDate)
	d.CreatedAt = parseTime(createdAt)
	return d, nil
}

func scanDefinitions(rows *sql.Rows) ([]domain.Definition, error) {
	var defs []domain.Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// SQLiteInstanceStore implements InstanceStore using SQLite.
type SQLiteInstanceStore struct {
	db storage.SQLDB
}

// NewSQLiteInstanceStore creates a new SQLiteInstanceStore.
func NewSQLiteInstanceStore(db storage.SQLDB) *SQLiteInstanceStore {
	return &SQLiteInstanceStore{db: db}
}

const insertInstance = `INSERT INTO event_instance (id, parent_event_id, tenant_id, title, start_date, end_date,
	start_hour, end_hour, instance_number, sort_order, status, is_deleted, deleted_at, restored_at,
	is_recurring, recurrence_pattern)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	title=excluded.title, start_date=excluded.start_date, end_date=excluded.end_date,
	start_hour=excluded.start_hour, end_hour=excluded.end_hour, instance_number=excluded.instance_number,
	sort_order=excluded.sort_order, status=excluded.status, is_deleted=excluded.is_deleted,
	deleted_at=excluded.deleted_at, restored_at=excluded.restored_at`

func instanceArgs(i domain.Instance) []any {
	return []any{
		i.ID, i.ParentEventID, i.TenantID, i.Title,
		i.StartDate.Format("2006-01-02"), i.EndDate.Format("2006-01-02"),
		i.StartHour, i.EndHour, i.InstanceNumber, i.Order, i.Status,
		boolToInt(i.IsDeleted), formatTime(i.DeletedAt), formatTime(i.RestoredAt),
		boolToInt(i.IsRecurring), i.RecurrencePattern,
	}
}

// Save inserts or updates a single instance.
// PRE: i is a valid Instance (Validate() returns nil)
// POST: instance is persisted
func (s *SQLiteInstanceStore) Save(ctx context.Context, i domain.Instance) error {
	_, err := s.db.ExecContext(ctx, insertInstance, instanceArgs(i)...)
	return err
}

// SaveBatch persists a slice of instances in a single transaction.
// PRE: all instances are valid
// POST: either all instances are persisted or none are
func (s *SQLiteInstanceStore) SaveBatch(ctx context.Context, instances []domain.Instance) error {
	if len(instances) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, i := range instances {
		if _, err := tx.ExecContext(ctx, insertInstance, instanceArgs(i)...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceForDefinition atomically swaps the instance set for a definition.
// PRE: definitionID is non-empty
// POST: only the supplied instances remain for the definition
func (s *SQLiteInstanceStore) ReplaceForDefinition(ctx context.Context, definitionID string, instances []domain.Instance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_instance WHERE parent_event_id = ?`, definitionID); err != nil {
		return err
	}
	for _, i := range instances {
		if _, err := tx.ExecContext(ctx, insertInstance, instanceArgs(i)...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const selectInstance = `SELECT id, parent_event_id, tenant_id, title, start_date, end_date,
	start_hour, end_hour, instance_number, sort_order, status, is_deleted, deleted_at, restored_at,
	is_recurring, recurrence_pattern
	FROM event_instance`

// GetByID retrieves an instance by ID, deleted or not.
func (s *SQLiteInstanceStore) GetByID(ctx context.Context, id string) (domain.Instance, error) {
	row := s.db.QueryRowContext(ctx, selectInstance+` WHERE id = ?`, id)
	return scanInstance(row)
}

// ListByParent returns a definition's instances in sort order.
// PRE: parentEventID is non-empty
// POST: soft-deleted instances are excluded unless includeDeleted is true
func (s *SQLiteInstanceStore) ListByParent(ctx context.Context, parentEventID string, includeDeleted bool) ([]domain.Instance, error) {
	q := selectInstance + ` WHERE parent_event_id = ?`
	if !includeDeleted {
		q += ` AND is_deleted = 0`
	}
	q += ` ORDER BY sort_order ASC, instance_number ASC`
	rows, err := s.db.QueryContext(ctx, q, parentEventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

// ListByDateRange returns a tenant's active instances whose start date falls
// within [from, to], sorted by date.
// PRE: from and to are valid date strings (YYYY-MM-DD)
func (s *SQLiteInstanceStore) ListByDateRange(ctx context.Context, tenantID, from, to string) ([]domain.Instance, error) {
	rows, err := s.db.QueryContext(ctx,
		selectInstance+` WHERE tenant_id = ? AND start_date >= ? AND start_date <= ? AND is_deleted = 0
		 ORDER BY start_date ASC, start_hour ASC`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

// DeleteForDefinition removes all instances of a definition. Used by
// cascade deletes; soft deletion of individual instances goes through Save.
func (s *SQLiteInstanceStore) DeleteForDefinition(ctx context.Context, definitionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM event_instance WHERE parent_event_id = ?`, definitionID)
	return err
}

func scanInstance(row rowScanner) (domain.Instance, error) {
	var i domain.Instance
	var startStr, endStr, deletedAt, restoredAt string
	var isDeleted, isRecurring int
	err := row.Scan(&i.ID, &i.ParentEventID, &i.TenantID, &i.Title, &startStr, &endStr,
		&i.StartHour, &i.EndHour, &i.InstanceNumber, &i.Order, &i.Status,
		&isDeleted, &deletedAt, &restoredAt, &isRecurring, &i.RecurrencePattern)
	if err != nil {
		return i, err
	}
	i.StartDate = parseDate(startStr)
	i.EndDate = parseDate(endStr)
	i.IsDeleted = isDeleted != 0
	i.DeletedAt = parseTime(deletedAt)
	i.RestoredAt = parseTime(restoredAt)
	i.IsRecurring = isRecurring != 0
	return i, nil
}

func scanInstances(rows *sql.Rows) ([]domain.Instance, error) {
	var instances []domain.Instance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, i)
	}
	return instances, rows.Err()
}

func encodeDates(entries []domain.DateEntry) (string, error) {
	rows := make([]dateEntryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, dateEntryRow{
			Date:      e.Date.Format("2006-01-02"),
			StartHour: e.StartHour,
			EndHour:   e.EndHour,
		})
	}
	b, err := json.Marshal(rows)
	return string(b), err
}

func decodeDates(s string) ([]domain.DateEntry, error) {
	var rows []dateEntryRow
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, err
	}
	entries := make([]domain.DateEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.DateEntry{
			Date:      parseDate(r.Date),
			StartHour: r.StartHour,
			EndHour:   r.EndHour,
		})
	}
	return entries, nil
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
