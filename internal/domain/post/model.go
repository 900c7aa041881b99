package post

import (
	"errors"
	"time"
)

// Target platforms for a scheduled post.
const (
	PlatformFacebook   = "facebook"
	PlatformInstagram  = "instagram"
	PlatformX          = "x"
	PlatformNewsletter = "newsletter"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// MaxContentLength bounds the markdown body of a post.
const MaxContentLength = 5000

// ValidPlatforms contains all valid platform values.
var ValidPlatforms = []string{PlatformFacebook, PlatformInstagram, PlatformX, PlatformNewsletter}

// ValidStatuses contains all valid post statuses.
var ValidStatuses = []string{StatusDraft, StatusScheduled, StatusPublished, StatusFailed}

// Domain errors
var (
	ErrEmptyContent      = errors.New("post content cannot be empty")
	ErrInvalidPlatform   = errors.New("platform must be one of: facebook, instagram, x, newsletter")
	ErrInvalidStatus     = errors.New("status must be one of: draft, scheduled, published, failed")
	ErrMissingTenant     = errors.New("post must belong to a tenant")
	ErrNotDraft          = errors.New("only draft posts can be scheduled")
	ErrNotScheduled      = errors.New("only scheduled posts can be published")
	ErrMissingSchedule   = errors.New("scheduled posts need a publish time")
	ErrAlreadyPublished  = errors.New("post is already published")
	ErrScheduleInThePast = errors.New("publish time cannot be in the past")
)

// Post is a social media / newsletter post authored by staff and published
// at a scheduled time. Content is markdown.
type Post struct {
	ID          string
	TenantID    string
	Platform    string
	Content     string
	ImageURL    string
	Status      string
	ScheduledAt time.Time // when the post should go out (zero for drafts)
	PublishedAt time.Time
	FailReason  string
	CreatedBy   string // account ID of the author
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Post has valid data.
// PRE: Post struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Post) Validate() error {
	if p.TenantID == "" {
		return ErrMissingTenant
	}
	if p.Content == "" {
		return ErrEmptyContent
	}
	if len(p.Content) > MaxContentLength {
		return errors.New("post content cannot exceed 5000 characters")
	}
	if !isValidPlatform(p.Platform) {
		return ErrInvalidPlatform
	}
	if !isValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	if p.Status == StatusScheduled && p.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	return nil
}

// Schedule moves a draft to the scheduled state.
// PRE: Post is a draft; at is in the future relative to now
// POST: Status is scheduled, ScheduledAt set
func (p *Post) Schedule(at, now time.Time) error {
	if p.Status != StatusDraft {
		return ErrNotDraft
	}
	if at.IsZero() {
		return ErrMissingSchedule
	}
	if at.Before(now) {
		return ErrScheduleInThePast
	}
	p.Status = StatusScheduled
	p.ScheduledAt = at
	return nil
}

// IsDue returns true if a scheduled post should be published.
// INVARIANT: Post fields are not mutated
func (p *Post) IsDue(now time.Time) bool {
	return p.Status == StatusScheduled && !p.ScheduledAt.After(now)
}

// MarkPublished records successful delivery.
// PRE: Post is scheduled
// POST: Status is published, PublishedAt stamped, FailReason cleared
func (p *Post) MarkPublished(now time.Time) error {
	if p.Status == StatusPublished {
		return ErrAlreadyPublished
	}
	if p.Status != StatusScheduled {
		return ErrNotScheduled
	}
	p.Status = StatusPublished
	p.PublishedAt = now
	p.FailReason = ""
	return nil
}

// MarkFailed records a delivery failure. The post stays addressable so an
// admin can reschedule it.
// PRE: Post is scheduled
// POST: Status is failed, FailReason set
func (p *Post) MarkFailed(reason string) error {
	if p.Status != StatusScheduled {
		return ErrNotScheduled
	}
	p.Status = StatusFailed
	p.FailReason = reason
	return nil
}

func isValidPlatform(v string) bool {
	for _, p := range ValidPlatforms {
		if p == v {
			return true
		}
	}
	return false
}

func isValidStatus(v string) bool {
	for _, s := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}
