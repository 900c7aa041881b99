package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	outboxDomain "parish/internal/domain/outbox"
	"parish/internal/domain/post"
)

// mockPostStore is a map-backed PostStoreForOrchestrator.
type mockPostStore struct {
	posts map[string]post.Post
}

func newMockPostStore() *mockPostStore {
	return &mockPostStore{posts: make(map[string]post.Post)}
}

func (m *mockPostStore) GetByID(_ context.Context, id string) (post.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return post.Post{}, errors.New("post not found")
	}
	return p, nil
}

func (m *mockPostStore) Save(_ context.Context, p post.Post) error {
	m.posts[p.ID] = p
	return nil
}

func (m *mockPostStore) ListDue(_ context.Context, now string, limit int) ([]post.Post, error) {
	cutoff, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, err
	}
	var due []post.Post
	for _, p := range m.posts {
		if p.IsDue(cutoff) {
			due = append(due, p)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

// mockOutboxStore is a map-backed outbox store for publish tests.
type mockOutboxStore struct {
	entries map[string]outboxDomain.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outboxDomain.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outboxDomain.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outboxDomain.Entry{}, errors.New("entry not found")
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outboxDomain.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outboxDomain.Entry, error) {
	var out []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusPending || e.Status == outboxDomain.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, _ int) ([]outboxDomain.Entry, error) {
	return nil, nil
}

func (m *mockOutboxStore) ListByActionType(_ context.Context, _ string, _ string, _ int) ([]outboxDomain.Entry, error) {
	return nil, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func postFixtures() (*mockPostStore, CreatePostDeps) {
	store := newMockPostStore()
	n := 0
	deps := CreatePostDeps{
		PostStore: store,
		GenerateID: func() string {
			n++
			return fmt.Sprintf("post-%03d", n)
		},
		Now: func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) },
	}
	return store, deps
}

// TestExecuteCreatePost_CreatesDraft verifies new posts start in draft.
// PRE: valid input.
// POST: draft persisted with author.
func TestExecuteCreatePost_CreatesDraft(t *testing.T) {
	store, deps := postFixtures()

	p, err := ExecuteCreatePost(context.Background(), CreatePostInput{
		TenantID:  "tenant-1",
		Platform:  post.PlatformFacebook,
		Content:   "Sunday service at 10am",
		CreatedBy: "acct-1",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != post.StatusDraft {
		t.Errorf("status=%q want draft", p.Status)
	}
	if store.posts[p.ID].CreatedBy != "acct-1" {
		t.Error("author not persisted")
	}
}

// TestExecuteCreatePost_InvalidPlatformRejected verifies platform validation.
// PRE: unknown platform.
// POST: post.ErrInvalidPlatform.
func TestExecuteCreatePost_InvalidPlatformRejected(t *testing.T) {
	_, deps := postFixtures()

	_, err := ExecuteCreatePost(context.Background(), CreatePostInput{
		TenantID:  "tenant-1",
		Platform:  "myspace",
		Content:   "hello",
		CreatedBy: "acct-1",
	}, deps)
	if !errors.Is(err, post.ErrInvalidPlatform) {
		t.Errorf("err=%v want ErrInvalidPlatform", err)
	}
}

// TestExecuteSchedulePost_FutureOnly verifies scheduling moves draft forward
// and rejects past times.
// PRE: draft exists; now is fixed.
// POST: scheduled status with ScheduledAt; past time errors.
func TestExecuteSchedulePost_FutureOnly(t *testing.T) {
	store, deps := postFixtures()
	created, err := ExecuteCreatePost(context.Background(), CreatePostInput{
		TenantID: "tenant-1", Platform: post.PlatformInstagram, Content: "hi", CreatedBy: "acct-1",
	}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := deps.Now()
	schedDeps := SchedulePostDeps{PostStore: store, Now: deps.Now}

	if _, err := ExecuteSchedulePost(context.Background(), created.ID, now.Add(-time.Hour), schedDeps); !errors.Is(err, post.ErrScheduleInThePast) {
		t.Errorf("past schedule err=%v want ErrScheduleInThePast", err)
	}

	at := now.Add(24 * time.Hour)
	p, err := ExecuteSchedulePost(context.Background(), created.ID, at, schedDeps)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if p.Status != post.StatusScheduled || !p.ScheduledAt.Equal(at) {
		t.Errorf("status=%q scheduled_at=%v", p.Status, p.ScheduledAt)
	}
}

// TestExecutePublishDuePosts_EnqueuesOutbox verifies due posts are published
// with one outbox entry each while future posts stay scheduled.
// PRE: one due scheduled post, one future scheduled post.
// POST: published=1, outbox entry carries the post payload.
func TestExecutePublishDuePosts_EnqueuesOutbox(t *testing.T) {
	store := newMockPostStore()
	outboxStore := newMockOutboxStore()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	store.posts["post-due"] = post.Post{
		ID: "post-due", TenantID: "tenant-1", Platform: post.PlatformFacebook,
		Content: "go out now", Status: post.StatusScheduled,
		ScheduledAt: now.Add(-time.Minute), CreatedBy: "acct-1",
	}
	store.posts["post-later"] = post.Post{
		ID: "post-later", TenantID: "tenant-1", Platform: post.PlatformFacebook,
		Content: "not yet", Status: post.StatusScheduled,
		ScheduledAt: now.Add(time.Hour), CreatedBy: "acct-1",
	}

	published, err := ExecutePublishDuePosts(context.Background(), PublishDuePostsDeps{
		PostStore:   store,
		OutboxStore: outboxStore,
		GenerateID:  func() string { return "out-1" },
		Now:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published != 1 {
		t.Errorf("published=%d want 1", published)
	}
	if store.posts["post-due"].Status != post.StatusPublished {
		t.Errorf("due post status=%q want published", store.posts["post-due"].Status)
	}
	if store.posts["post-later"].Status != post.StatusScheduled {
		t.Errorf("future post status=%q want scheduled", store.posts["post-later"].Status)
	}

	entry, ok := outboxStore.entries["out-1"]
	if !ok {
		t.Fatal("outbox entry not enqueued")
	}
	if entry.ActionType != outboxDomain.ActionTypeSocialPost {
		t.Errorf("action_type=%q", entry.ActionType)
	}
	var payload SocialPostPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.PostID != "post-due" || payload.Content != "go out now" {
		t.Errorf("payload=%+v", payload)
	}
}

// TestExecuteFailPost_RollsBackPublished verifies terminal delivery failure
// marks a published post failed with the reason.
// PRE: post already published at dispatch time.
// POST: status failed with reason recorded.
func TestExecuteFailPost_RollsBackPublished(t *testing.T) {
	store := newMockPostStore()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	store.posts["post-1"] = post.Post{
		ID: "post-1", TenantID: "tenant-1", Platform: post.PlatformFacebook,
		Content: "c", Status: post.StatusPublished,
		ScheduledAt: now.Add(-time.Hour), CreatedBy: "acct-1",
	}

	deps := SchedulePostDeps{PostStore: store, Now: func() time.Time { return now }}
	if err := ExecuteFailPost(context.Background(), "post-1", "provider rejected", deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.posts["post-1"]
	if got.Status != post.StatusFailed {
		t.Errorf("status=%q want failed", got.Status)
	}
	if got.FailReason != "provider rejected" {
		t.Errorf("fail_reason=%q", got.FailReason)
	}
}
