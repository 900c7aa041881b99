package registration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/registration"
)

const timeLayout = time.RFC3339

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new RegistrationStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const registrationColumns = "id, instance_id, member_id, status, registered_at, attended_at, cancelled_at"

// GetByID retrieves a Registration by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+registrationColumns+" FROM registration WHERE id = ?", id)
	entity, err := scanRegistration(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Registration{}, fmt.Errorf("registration not found: %w", err)
	}
	return entity, err
}

// GetByInstanceAndMember retrieves a member's registration for an instance.
// PRE: instanceID and memberID are non-empty
// POST: Returns the entity or sql.ErrNoRows-wrapped error if not found
func (s *SQLiteStore) GetByInstanceAndMember(ctx context.Context, instanceID, memberID string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registration WHERE instance_id = ? AND member_id = ?",
		instanceID, memberID)
	entity, err := scanRegistration(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Registration{}, fmt.Errorf("registration not found: %w", err)
	}
	return entity, err
}

// Save persists a Registration to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, r domain.Registration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registration (`+registrationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attended_at=excluded.attended_at,
		   cancelled_at=excluded.cancelled_at`,
		r.ID, r.InstanceID, r.MemberID, r.Status,
		r.RegisteredAt.UTC().Format(timeLayout),
		nullTime(r.AttendedAt), nullTime(r.CancelledAt),
	)
	return err
}

// Delete removes a Registration.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM registration WHERE id = ?", id)
	return err
}

// ListByInstance returns all registrations for an event instance.
func (s *SQLiteStore) ListByInstance(ctx context.Context, instanceID string) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+registrationColumns+" FROM registration WHERE instance_id = ? ORDER BY registered_at ASC", instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

// ListByMember returns a member's registrations, newest first.
func (s *SQLiteStore) ListByMember(ctx context.Context, memberID string) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+registrationColumns+" FROM registration WHERE member_id = ? ORDER BY registered_at DESC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

// CountByStatus counts an instance's registrations with the given status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, instanceID, status string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registration WHERE instance_id = ? AND status = ?",
		instanceID, status).Scan(&count)
	return count, err
}

func scanRegistration(scan func(dest ...interface{}) error) (domain.Registration, error) {
	var r domain.Registration
	var registeredAt string
	var attendedAt, cancelledAt sql.NullString
	err := scan(&r.ID, &r.InstanceID, &r.MemberID, &r.Status, &registeredAt, &attendedAt, &cancelledAt)
	if err != nil {
		return domain.Registration{}, err
	}
	r.RegisteredAt, _ = time.Parse(timeLayout, registeredAt)
	if attendedAt.Valid && attendedAt.String != "" {
		r.AttendedAt, _ = time.Parse(timeLayout, attendedAt.String)
	}
	if cancelledAt.Valid && cancelledAt.String != "" {
		r.CancelledAt, _ = time.Parse(timeLayout, cancelledAt.String)
	}
	return r, nil
}

func scanRegistrations(rows *sql.Rows) ([]domain.Registration, error) {
	var results []domain.Registration
	for rows.Next() {
		r, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
