package web

import (
	"net/http"
	"time"
)

// registerRoutes wires every handler into the mux. Path parameters use
// the net/http pattern syntax.
func registerRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/session", handleSession)
	mux.HandleFunc("/api/change-password", handleChangePassword)

	// Dashboard
	mux.HandleFunc("/api/dashboard", handleDashboard)

	// Members
	mux.HandleFunc("/api/members", handleMembers)
	mux.HandleFunc("/api/members/search", handleMemberSearch)
	mux.HandleFunc("/api/members/import", handleImportMembers)
	mux.HandleFunc("/api/members/export", handleExportMembers)
	mux.HandleFunc("/api/members/{id}/archive", handleArchiveMember)
	mux.HandleFunc("/api/members/{id}/restore", handleRestoreMember)
	mux.HandleFunc("/api/members/{id}/registrations", handleMemberRegistrations)

	// Catalog
	mux.HandleFunc("/api/catalog/categories", handleCategories)
	mux.HandleFunc("/api/catalog/categories/{id}", handleDeleteCategory)
	mux.HandleFunc("/api/catalog/subcategories", handleSubcategories)
	mux.HandleFunc("/api/catalog/subcategories/{id}", handleDeleteSubcategory)
	mux.HandleFunc("/api/catalog/images", handleUploadImage)

	// Events and instances
	mux.HandleFunc("/api/events", handleEvents)
	mux.HandleFunc("/api/events/upcoming", handleUpcomingEvents)
	mux.HandleFunc("/api/events/{id}", handleEventByID)
	mux.HandleFunc("/api/events/{id}/continue", handleContinueSeries)
	mux.HandleFunc("/api/events/{id}/analytics", handleEventAnalytics)
	mux.HandleFunc("/api/instances/{id}", handleInstanceByID)
	mux.HandleFunc("/api/instances/{id}/delete", handleDeleteInstance)
	mux.HandleFunc("/api/instances/{id}/restore", handleRestoreInstance)
	mux.HandleFunc("/api/instances/{id}/registrations", handleInstanceRegistrations)

	// Registrations
	mux.HandleFunc("/api/registrations", handleRegistrations)
	mux.HandleFunc("/api/registrations/{id}/attend", handleMarkAttended)
	mux.HandleFunc("/api/registrations/{id}/cancel", handleCancelRegistration)

	// Messages
	mux.HandleFunc("/api/messages", handleMessages)
	mux.HandleFunc("/api/messages/unread-count", handleUnreadCount)
	mux.HandleFunc("/api/messages/{id}/read", handleMarkMessageRead)

	// Social posts
	mux.HandleFunc("/api/posts", handlePosts)
	mux.HandleFunc("/api/posts/{id}/schedule", handleSchedulePost)

	// Tenant settings
	mux.HandleFunc("/api/tenant", handleTenantSettings)

	// Public calendar feeds. Wildcards must span a whole path segment, so
	// the ".ics" suffix on the tenant feed is handled inside the handler.
	mux.HandleFunc("/calendar/{feed}", handleCalendarFeed)
	mux.HandleFunc("/calendar/{slug}/series.ics", handleCalendarSeries)

	// Admin
	mux.HandleFunc("/api/admin/accounts", handleAccounts)
	mux.HandleFunc("/api/admin/audit", handleAdminAuditTrail)
	mux.HandleFunc("/api/admin/feature-flags", handleAdminFlags)
	mux.HandleFunc("/api/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("/api/admin/outbox/{id}/retry", handleOutboxRetry)
	mux.HandleFunc("/api/admin/outbox/{id}/abandon", handleOutboxAbandon)
	mux.HandleFunc("/api/admin/posts/publish-due", handlePublishDuePosts)
	mux.HandleFunc("/api/admin/perf", handleAdminPerf)

	// Health check for load balancers and uptime monitors.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// handleAdminPerf exposes the in-process request timing snapshot
// (GET /api/admin/perf?minutes=15).
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if perfCollector == nil {
		http.Error(w, "perf collection is not configured", http.StatusServiceUnavailable)
		return
	}
	since := timeNow().Add(-15 * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
