package web

import (
	"net/http"

	auditDomain "parish/internal/domain/audit"
)

// handleTenantSettings handles GET and PUT for /api/tenant — the current
// tenant's profile. The slug is fixed at creation; renaming a slug would
// break calendar subscriptions.
func handleTenantSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireSession(w, r)
		if !ok {
			return
		}
		t, err := stores.TenantStore.GetByID(ctx, sess.TenantID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	case "PUT":
		sess, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var body struct {
			Name         string `json:"name"`
			ContactEmail string `json:"contact_email"`
			Timezone     string `json:"timezone"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		t, err := stores.TenantStore.GetByID(ctx, sess.TenantID)
		if err != nil {
			internalError(w, err)
			return
		}
		t.Name = body.Name
		t.ContactEmail = body.ContactEmail
		t.Timezone = body.Timezone
		if err := t.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.TenantStore.Save(ctx, t); err != nil {
			internalError(w, err)
			return
		}
		recordAudit(r, sess, auditDomain.CategorySystem, auditDomain.ActionUpdate, "tenant", t.ID, "tenant settings updated")
		writeJSON(w, http.StatusOK, t)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
