package web

import (
	"net/http"
	"time"

	"parish/internal/application/orchestrators"
	auditDomain "parish/internal/domain/audit"
	postStore "parish/internal/adapters/storage/post"
)

// handlePosts handles GET (list) and POST (create draft) for /api/posts
func handlePosts(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "social_posts") {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		posts, err := stores.PostStore.List(ctx, postStore.ListFilter{
			TenantID: sess.TenantID,
			Platform: r.URL.Query().Get("platform"),
			Status:   r.URL.Query().Get("status"),
			Limit:    100,
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)

	case "POST":
		var body struct {
			Platform string `json:"platform"`
			Content  string `json:"content"`
			ImageURL string `json:"image_url"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		p, err := orchestrators.ExecuteCreatePost(ctx, orchestrators.CreatePostInput{
			TenantID:  sess.TenantID,
			Platform:  body.Platform,
			Content:   body.Content,
			ImageURL:  body.ImageURL,
			CreatedBy: sess.AccountID,
		}, orchestrators.CreatePostDeps{
			PostStore:  stores.PostStore,
			GenerateID: generateID,
			Now:        timeNow,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryPost, auditDomain.ActionCreate, "post", p.ID, "post drafted")
		writeJSON(w, http.StatusCreated, p)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSchedulePost handles POST /api/posts/{id}/schedule
func handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "social_posts") {
		return
	}
	postID := r.PathValue("id")
	if _, ok := postInTenant(r.Context(), w, postID, sess.TenantID); !ok {
		return
	}

	var body struct {
		At string `json:"at"` // RFC3339
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	at, err := time.Parse(time.RFC3339, body.At)
	if err != nil {
		http.Error(w, "invalid timestamp, expected RFC3339", http.StatusBadRequest)
		return
	}

	p, err := orchestrators.ExecuteSchedulePost(r.Context(), postID, at, orchestrators.SchedulePostDeps{
		PostStore: stores.PostStore,
		Now:       timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryPost, auditDomain.ActionUpdate, "post", postID, "post scheduled")
	writeJSON(w, http.StatusOK, p)
}

// handlePublishDuePosts handles POST /api/admin/posts/publish-due — manual
// trigger for the publishing job, useful when the cron cadence is too slow.
func handlePublishDuePosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	count, err := orchestrators.ExecutePublishDuePosts(r.Context(), orchestrators.PublishDuePostsDeps{
		PostStore:   stores.PostStore,
		OutboxStore: stores.OutboxStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryPost, auditDomain.ActionUpdate, "post", "", "publish job triggered")
	writeJSON(w, http.StatusOK, map[string]int{"published": count})
}
