package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	outboxStore "parish/internal/adapters/storage/outbox"
	"parish/internal/domain/outbox"
	"parish/internal/domain/post"
)

// PostStoreForOrchestrator defines the store interface needed by post
// orchestrators.
type PostStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (post.Post, error)
	Save(ctx context.Context, p post.Post) error
	ListDue(ctx context.Context, now string, limit int) ([]post.Post, error)
}

// --- Create Post ---

// CreatePostInput carries input for the create post orchestrator.
type CreatePostInput struct {
	TenantID  string
	Platform  string
	Content   string
	ImageURL  string
	CreatedBy string // AccountID of the author
}

// CreatePostDeps holds dependencies for CreatePost.
type CreatePostDeps struct {
	PostStore  PostStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreatePost creates a new social post in draft status.
// PRE: input validates; CreatedBy is non-empty
// POST: Post created as a draft
func ExecuteCreatePost(ctx context.Context, input CreatePostInput, deps CreatePostDeps) (post.Post, error) {
	p := post.Post{
		ID:        deps.GenerateID(),
		TenantID:  input.TenantID,
		Platform:  input.Platform,
		Content:   input.Content,
		ImageURL:  input.ImageURL,
		Status:    post.StatusDraft,
		CreatedBy: input.CreatedBy,
		CreatedAt: deps.Now(),
	}
	if err := p.Validate(); err != nil {
		return post.Post{}, err
	}
	if err := deps.PostStore.Save(ctx, p); err != nil {
		return post.Post{}, err
	}
	slog.Info("post_event", "event", "post_created", "post_id", p.ID, "platform", p.Platform, "created_by", p.CreatedBy)
	return p, nil
}

// --- Schedule Post ---

// SchedulePostDeps holds dependencies for SchedulePost.
type SchedulePostDeps struct {
	PostStore PostStoreForOrchestrator
	Now       func() time.Time
}

// ExecuteSchedulePost moves a draft post to scheduled status.
// PRE: postID refers to a draft; at is in the future
// POST: Post is scheduled for publishing at the given time
func ExecuteSchedulePost(ctx context.Context, postID string, at time.Time, deps SchedulePostDeps) (post.Post, error) {
	p, err := deps.PostStore.GetByID(ctx, postID)
	if err != nil {
		return post.Post{}, err
	}
	now := deps.Now()
	if err := p.Schedule(at, now); err != nil {
		return post.Post{}, err
	}
	p.UpdatedAt = now
	if err := deps.PostStore.Save(ctx, p); err != nil {
		return post.Post{}, err
	}
	slog.Info("post_event", "event", "post_scheduled", "post_id", p.ID, "scheduled_at", at.Format(time.RFC3339))
	return p, nil
}

// --- Publish Due Posts ---

// SocialPostPayload is the outbox JSON structure for social post delivery.
type SocialPostPayload struct {
	PostID   string `json:"post_id"`
	Platform string `json:"platform"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// PublishDuePostsDeps holds dependencies for the publish job.
type PublishDuePostsDeps struct {
	PostStore   PostStoreForOrchestrator
	OutboxStore outboxStore.Store
	GenerateID  func() string
	Now         func() time.Time
	BatchSize   int
}

// ExecutePublishDuePosts finds scheduled posts whose time has come, marks
// them published, and enqueues an outbox entry per post for the external
// delivery. Delivery failures are retried by the outbox processor without
// flipping the post back.
// PRE: none
// POST: Each due post is published and has one queued outbox entry
func ExecutePublishDuePosts(ctx context.Context, deps PublishDuePostsDeps) (int, error) {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 20
	}
	now := deps.Now()
	due, err := deps.PostStore.ListDue(ctx, now.UTC().Format(time.RFC3339), batch)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, p := range due {
		if err := p.MarkPublished(now); err != nil {
			slog.Warn("post_event", "event", "publish_skipped", "post_id", p.ID, "error", err.Error())
			continue
		}
		p.UpdatedAt = now

		payload, err := json.Marshal(SocialPostPayload{
			PostID:   p.ID,
			Platform: p.Platform,
			Content:  p.Content,
			ImageURL: p.ImageURL,
		})
		if err != nil {
			return published, err
		}
		entry := outbox.Entry{
			ID:          deps.GenerateID(),
			TenantID:    p.TenantID,
			ActionType:  outbox.ActionTypeSocialPost,
			Payload:     string(payload),
			Status:      outbox.StatusPending,
			MaxAttempts: 5,
			CreatedAt:   now,
		}
		if err := deps.OutboxStore.Save(ctx, entry); err != nil {
			return published, err
		}
		if err := deps.PostStore.Save(ctx, p); err != nil {
			return published, err
		}
		published++
		slog.Info("post_event", "event", "post_published", "post_id", p.ID, "platform", p.Platform, "outbox_id", entry.ID)
	}
	return published, nil
}

// --- Fail Post ---

// ExecuteFailPost records a permanent delivery failure against a post. The
// outbox processor calls this after exhausting retries.
// PRE: postID refers to a scheduled or published post
// POST: Post marked failed with the reason
func ExecuteFailPost(ctx context.Context, postID, reason string, deps SchedulePostDeps) error {
	p, err := deps.PostStore.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	// Published posts roll back to failed when delivery ultimately fails
	if p.Status == post.StatusPublished {
		p.Status = post.StatusScheduled
	}
	if err := p.MarkFailed(reason); err != nil {
		return err
	}
	p.UpdatedAt = deps.Now()
	if err := deps.PostStore.Save(ctx, p); err != nil {
		return err
	}
	slog.Warn("post_event", "event", "post_failed", "post_id", p.ID, "reason", reason)
	return nil
}
