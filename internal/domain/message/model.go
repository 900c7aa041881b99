package message

import (
	"errors"
	"time"
)

// MaxContentLength bounds the markdown body of a message.
const MaxContentLength = 10000

// Domain errors
var (
	ErrEmptySenderID   = errors.New("sender ID is required")
	ErrEmptyReceiverID = errors.New("receiver ID (member) is required")
	ErrEmptyContent    = errors.New("message content cannot be empty")
	ErrMissingTenant   = errors.New("message must belong to a tenant")
)

// Message represents a direct in-app message between members of one
// organization. Content is markdown, rendered with HTML escaped.
type Message struct {
	ID         string
	TenantID   string
	SenderID   string // sending member ID
	ReceiverID string // receiving member ID
	Subject    string
	Content    string
	ReadAt     time.Time
	CreatedAt  time.Time
}

// Validate checks if the Message has valid data.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.TenantID == "" {
		return ErrMissingTenant
	}
	if m.SenderID == "" {
		return ErrEmptySenderID
	}
	if m.ReceiverID == "" {
		return ErrEmptyReceiverID
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if len(m.Content) > MaxContentLength {
		return errors.New("message content cannot exceed 10000 characters")
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the message has been read.
// INVARIANT: ReadAt field is not mutated
func (m *Message) IsRead() bool {
	return !m.ReadAt.IsZero()
}

// MarkRead records when the message was read.
// PRE: Message exists
// POST: ReadAt is set if previously zero
func (m *Message) MarkRead(now time.Time) {
	if m.ReadAt.IsZero() {
		m.ReadAt = now
	}
}
