package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	memberDomain "parish/internal/domain/member"
	"parish/internal/domain/message"
)

// mockMessageStore is a map-backed MessageStoreForOrchestrator.
type mockMessageStore struct {
	messages map[string]message.Message
	saveErr  error
}

func newMockMessageStore() *mockMessageStore {
	return &mockMessageStore{messages: make(map[string]message.Message)}
}

func (m *mockMessageStore) GetByID(_ context.Context, id string) (message.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return message.Message{}, errors.New("message not found")
	}
	return msg, nil
}

func (m *mockMessageStore) Save(_ context.Context, msg message.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.messages[msg.ID] = msg
	return nil
}

// mockMemberLookup resolves members by ID for addressing checks.
type mockMemberLookup struct {
	members map[string]memberDomain.Member
}

func (m *mockMemberLookup) GetByID(_ context.Context, id string) (memberDomain.Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return memberDomain.Member{}, errors.New("member not found")
	}
	return mem, nil
}

func messageFixtures() (*mockMessageStore, *mockMemberLookup, SendMessageDeps) {
	msgStore := newMockMessageStore()
	members := &mockMemberLookup{members: map[string]memberDomain.Member{
		"mem-1": {ID: "mem-1", TenantID: "tenant-1", Name: "Alice"},
		"mem-2": {ID: "mem-2", TenantID: "tenant-1", Name: "Bob"},
		"mem-x": {ID: "mem-x", TenantID: "tenant-other", Name: "Eve"},
	}}
	deps := SendMessageDeps{
		MessageStore: msgStore,
		MemberStore:  members,
		GenerateID:   func() string { return "msg-001" },
		Now:          func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
	return msgStore, members, deps
}

// TestExecuteSendMessage_DeliversUnread verifies a message is stored unread.
// PRE: both members in the same tenant.
// POST: message saved with zero ReadAt.
func TestExecuteSendMessage_DeliversUnread(t *testing.T) {
	msgStore, _, deps := messageFixtures()

	m, err := ExecuteSendMessage(context.Background(), SendMessageInput{
		TenantID:   "tenant-1",
		SenderID:   "mem-1",
		ReceiverID: "mem-2",
		Subject:    "Potluck",
		Content:    "Bring a plate on Sunday",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "msg-001" {
		t.Errorf("id=%q want msg-001", m.ID)
	}
	if m.IsRead() {
		t.Error("new message must be unread")
	}
	stored, ok := msgStore.messages["msg-001"]
	if !ok {
		t.Fatal("message not persisted")
	}
	if stored.Content != "Bring a plate on Sunday" {
		t.Errorf("content=%q", stored.Content)
	}
}

// TestExecuteSendMessage_RejectsCrossTenant verifies cross-tenant delivery fails.
// PRE: receiver belongs to a different tenant.
// POST: error, nothing saved.
func TestExecuteSendMessage_RejectsCrossTenant(t *testing.T) {
	msgStore, _, deps := messageFixtures()

	_, err := ExecuteSendMessage(context.Background(), SendMessageInput{
		TenantID:   "tenant-1",
		SenderID:   "mem-1",
		ReceiverID: "mem-x",
		Content:    "hello",
	}, deps)
	if err == nil {
		t.Fatal("expected error for cross-tenant message")
	}
	if len(msgStore.messages) != 0 {
		t.Error("no message should be saved")
	}
}

// TestExecuteSendMessage_EmptyContentRejected verifies validation runs.
// PRE: empty content.
// POST: message.ErrEmptyContent.
func TestExecuteSendMessage_EmptyContentRejected(t *testing.T) {
	_, _, deps := messageFixtures()

	_, err := ExecuteSendMessage(context.Background(), SendMessageInput{
		TenantID:   "tenant-1",
		SenderID:   "mem-1",
		ReceiverID: "mem-2",
	}, deps)
	if !errors.Is(err, message.ErrEmptyContent) {
		t.Errorf("err=%v want ErrEmptyContent", err)
	}
}

// TestExecuteMarkMessageRead_SetsTimestampOnce verifies first-read-wins.
// PRE: unread message exists.
// POST: ReadAt set; second call keeps the original timestamp.
func TestExecuteMarkMessageRead_SetsTimestampOnce(t *testing.T) {
	msgStore := newMockMessageStore()
	msgStore.messages["msg-1"] = message.Message{
		ID: "msg-1", TenantID: "tenant-1", SenderID: "mem-1", ReceiverID: "mem-2",
		Content: "hi", CreatedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deps := MarkReadDeps{MessageStore: msgStore, Now: func() time.Time { return first }}

	m, err := ExecuteMarkMessageRead(context.Background(), "msg-1", "mem-2", deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsRead() || !m.ReadAt.Equal(first) {
		t.Errorf("read_at=%v want %v", m.ReadAt, first)
	}

	later := first.Add(2 * time.Hour)
	deps.Now = func() time.Time { return later }
	m2, err := ExecuteMarkMessageRead(context.Background(), "msg-1", "mem-2", deps)
	if err != nil {
		t.Fatalf("unexpected error on second read: %v", err)
	}
	if !m2.ReadAt.Equal(first) {
		t.Errorf("read_at=%v must keep first read time %v", m2.ReadAt, first)
	}
}

// TestExecuteMarkMessageRead_ReceiverOnly verifies sender cannot mark read.
// PRE: message addressed to mem-2.
// POST: error when mem-1 marks it read.
func TestExecuteMarkMessageRead_ReceiverOnly(t *testing.T) {
	msgStore := newMockMessageStore()
	msgStore.messages["msg-1"] = message.Message{
		ID: "msg-1", TenantID: "tenant-1", SenderID: "mem-1", ReceiverID: "mem-2", Content: "hi",
	}
	deps := MarkReadDeps{MessageStore: msgStore, Now: time.Now}

	if _, err := ExecuteMarkMessageRead(context.Background(), "msg-1", "mem-1", deps); err == nil {
		t.Fatal("expected error when non-receiver marks message read")
	}
}
