package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parish/internal/domain/member"
	"parish/internal/domain/message"
)

// MessageStoreForOrchestrator defines the store interface needed by message
// orchestrators.
type MessageStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (message.Message, error)
	Save(ctx context.Context, m message.Message) error
}

// MemberLookup resolves member IDs for message addressing.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// --- Send Message ---

// SendMessageInput carries input for the send message orchestrator.
type SendMessageInput struct {
	TenantID   string
	SenderID   string
	ReceiverID string
	Subject    string
	Content    string
}

// SendMessageDeps holds dependencies for SendMessage.
type SendMessageDeps struct {
	MessageStore MessageStoreForOrchestrator
	MemberStore  MemberLookup
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSendMessage delivers an internal message between two members of
// the same tenant.
// PRE: Sender and receiver exist and belong to TenantID
// POST: Message persisted unread
func ExecuteSendMessage(ctx context.Context, input SendMessageInput, deps SendMessageDeps) (message.Message, error) {
	sender, err := deps.MemberStore.GetByID(ctx, input.SenderID)
	if err != nil {
		return message.Message{}, err
	}
	receiver, err := deps.MemberStore.GetByID(ctx, input.ReceiverID)
	if err != nil {
		return message.Message{}, err
	}
	if sender.TenantID != input.TenantID || receiver.TenantID != input.TenantID {
		return message.Message{}, errors.New("sender and receiver must belong to the same organization")
	}

	m := message.Message{
		ID:         deps.GenerateID(),
		TenantID:   input.TenantID,
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Subject:    input.Subject,
		Content:    input.Content,
		CreatedAt:  deps.Now(),
	}
	if err := m.Validate(); err != nil {
		return message.Message{}, err
	}
	if err := deps.MessageStore.Save(ctx, m); err != nil {
		return message.Message{}, err
	}

	slog.Info("message_event", "event", "message_sent", "message_id", m.ID,
		"sender_id", m.SenderID, "receiver_id", m.ReceiverID)
	return m, nil
}

// --- Mark Read ---

// MarkReadDeps holds dependencies for MarkMessageRead.
type MarkReadDeps struct {
	MessageStore MessageStoreForOrchestrator
	Now          func() time.Time
}

// ExecuteMarkMessageRead marks a message read. Marking twice keeps the
// first read timestamp.
// PRE: messageID refers to an existing message; readerID is its receiver
// POST: Message carries a read timestamp
func ExecuteMarkMessageRead(ctx context.Context, messageID, readerID string, deps MarkReadDeps) (message.Message, error) {
	m, err := deps.MessageStore.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if m.ReceiverID != readerID {
		return message.Message{}, errors.New("only the receiver can mark a message read")
	}
	if m.IsRead() {
		return m, nil
	}
	m.MarkRead(deps.Now())
	if err := deps.MessageStore.Save(ctx, m); err != nil {
		return message.Message{}, err
	}
	slog.Info("message_event", "event", "message_read", "message_id", m.ID, "reader_id", readerID)
	return m, nil
}
