package web

import (
	"net/http"
	"strconv"

	"parish/internal/domain/outbox"
)

// handleAdminOutbox handles admin endpoints for managing outbox entries.
// Routes: GET /api/admin/outbox (list failed entries),
// POST /api/admin/outbox/{id}/retry, POST /api/admin/outbox/{id}/abandon
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = outbox.StatusFailed
	}

	var entries []outbox.Entry
	var err error
	if status == "all" {
		entries, err = stores.OutboxStore.ListPending(ctx, limit)
	} else {
		entries, err = stores.OutboxStore.ListFailed(ctx, limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	// Admin sessions see only their own tenant's entries.
	scoped := make([]outbox.Entry, 0, len(entries))
	for _, e := range entries {
		if e.TenantID == sess.TenantID {
			scoped = append(scoped, e)
		}
	}
	writeJSON(w, http.StatusOK, scoped)
}

// handleOutboxRetry handles POST /api/admin/outbox/{id}/retry — forces an
// immediate delivery attempt through the configured executors.
func handleOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if outboxProcessor == nil {
		http.Error(w, "outbox processing is not configured", http.StatusServiceUnavailable)
		return
	}
	if _, ok := outboxEntryInTenant(r.Context(), w, r.PathValue("id"), sess.TenantID); !ok {
		return
	}
	if err := outboxProcessor.ProcessSingle(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "retry triggered"})
}

// handleOutboxAbandon handles POST /api/admin/outbox/{id}/abandon
func handleOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if outboxProcessor == nil {
		http.Error(w, "outbox processing is not configured", http.StatusServiceUnavailable)
		return
	}
	if _, ok := outboxEntryInTenant(r.Context(), w, r.PathValue("id"), sess.TenantID); !ok {
		return
	}
	if err := outboxProcessor.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}
