package post

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"parish/internal/adapters/storage"
	domain "parish/internal/domain/post"
)

const timeLayout = time.RFC3339

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new PostStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const postColumns = "id, tenant_id, platform, content, image_url, status, scheduled_at, published_at, fail_reason, created_by, created_at, updated_at"

// GetByID retrieves a Post by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM post WHERE id = ?", id)
	entity, err := scanPost(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Post{}, fmt.Errorf("post not found: %w", err)
	}
	return entity, err
}

// Save persists a Post to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, p domain.Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post (`+postColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   platform=excluded.platform, content=excluded.content, image_url=excluded.image_url,
		   status=excluded.status, scheduled_at=excluded.scheduled_at,
		   published_at=excluded.published_at, fail_reason=excluded.fail_reason,
		   updated_at=excluded.updated_at`,
		p.ID, p.TenantID, p.Platform, p.Content, p.ImageURL, p.Status,
		nullTime(p.ScheduledAt), nullTime(p.PublishedAt), p.FailReason,
		p.CreatedBy, p.CreatedAt.UTC().Format(timeLayout), nullTime(p.UpdatedAt),
	)
	return err
}

// Delete removes a Post.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM post WHERE id = ?", id)
	return err
}

// List retrieves Posts based on the filter, newest first.
// PRE: filter has valid parameters
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Post, error) {
	var queryBuilder strings.Builder
	var args []interface{}
	var conds []string

	queryBuilder.WriteString("SELECT " + postColumns + " FROM post")

	if filter.TenantID != "" {
		conds = append(conds, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}
	if filter.Platform != "" {
		conds = append(conds, "platform = ?")
		args = append(args, filter.Platform)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListDue returns scheduled posts whose scheduled_at is at or before now,
// oldest first.
// PRE: now is an RFC3339 timestamp, limit > 0
func (s *SQLiteStore) ListDue(ctx context.Context, now string, limit int) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM post WHERE status = ? AND scheduled_at <= ? ORDER BY scheduled_at ASC LIMIT ?",
		domain.StatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPost(scan func(dest ...interface{}) error) (domain.Post, error) {
	var p domain.Post
	var createdAt string
	var scheduledAt, publishedAt, updatedAt sql.NullString
	err := scan(&p.ID, &p.TenantID, &p.Platform, &p.Content, &p.ImageURL, &p.Status,
		&scheduledAt, &publishedAt, &p.FailReason, &p.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if scheduledAt.Valid && scheduledAt.String != "" {
		p.ScheduledAt, _ = time.Parse(timeLayout, scheduledAt.String)
	}
	if publishedAt.Valid && publishedAt.String != "" {
		p.PublishedAt, _ = time.Parse(timeLayout, publishedAt.String)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		p.UpdatedAt, _ = time.Parse(timeLayout, updatedAt.String)
	}
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	var results []domain.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
