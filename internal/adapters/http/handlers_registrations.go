package web

import (
	"context"
	"net/http"

	"parish/internal/application/orchestrators"
	accountDomain "parish/internal/domain/account"
	auditDomain "parish/internal/domain/audit"
)

// instanceActive reports whether an instance exists and is not soft-deleted.
func instanceActive(ctx context.Context, instanceID string) (bool, error) {
	inst, err := stores.InstanceStore.GetByID(ctx, instanceID)
	if err != nil {
		return false, err
	}
	return !inst.IsDeleted, nil
}

// handleRegistrations handles POST /api/registrations (register for an
// event instance).
func handleRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		InstanceID string `json:"instance_id"`
		MemberID   string `json:"member_id"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if _, ok := instanceInTenant(r.Context(), w, body.InstanceID, sess.TenantID); !ok {
		return
	}
	memberID := body.MemberID
	if memberID == "" {
		// Members register themselves through their linked member record.
		m, err := stores.MemberStore.GetByEmail(r.Context(), sess.TenantID, sess.Email)
		if err != nil {
			http.Error(w, "no member record for this account", http.StatusBadRequest)
			return
		}
		memberID = m.ID
	} else if _, ok := memberInTenant(r.Context(), w, memberID, sess.TenantID); !ok {
		return
	}

	reg, err := orchestrators.ExecuteRegisterForEvent(r.Context(), orchestrators.RegisterForEventInput{
		InstanceID: body.InstanceID,
		MemberID:   memberID,
	}, orchestrators.RegisterForEventDeps{
		RegistrationStore: stores.RegistrationStore,
		InstanceActive:    instanceActive,
		GenerateID:        generateID,
		Now:               timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionCreate, "registration", reg.ID, "event registration")
	writeJSON(w, http.StatusCreated, reg)
}

// handleInstanceRegistrations handles GET /api/instances/{id}/registrations
func handleInstanceRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	instanceID := r.PathValue("id")
	if _, ok := instanceInTenant(r.Context(), w, instanceID, sess.TenantID); !ok {
		return
	}

	regs, err := stores.RegistrationStore.ListByInstance(r.Context(), instanceID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// handleMemberRegistrations handles GET /api/members/{id}/registrations
func handleMemberRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	memberID := r.PathValue("id")
	if _, ok := memberInTenant(r.Context(), w, memberID, sess.TenantID); !ok {
		return
	}

	// Members may only see their own registrations.
	if sess.Role != accountDomain.RoleAdmin && sess.Role != accountDomain.RoleStaff {
		m, err := stores.MemberStore.GetByEmail(r.Context(), sess.TenantID, sess.Email)
		if err != nil || m.ID != memberID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	regs, err := stores.RegistrationStore.ListByMember(r.Context(), memberID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// handleMarkAttended handles POST /api/registrations/{id}/attend
func handleMarkAttended(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	registrationID := r.PathValue("id")
	if _, ok := registrationInTenant(r.Context(), w, registrationID, sess.TenantID); !ok {
		return
	}

	reg, err := orchestrators.ExecuteMarkAttended(r.Context(), registrationID, orchestrators.RegistrationLifecycleDeps{
		RegistrationStore: stores.RegistrationStore,
		Now:               timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionUpdate, "registration", registrationID, "attendance recorded")
	writeJSON(w, http.StatusOK, reg)
}

// handleCancelRegistration handles POST /api/registrations/{id}/cancel
func handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	registrationID := r.PathValue("id")
	reg, ok := registrationInTenant(r.Context(), w, registrationID, sess.TenantID)
	if !ok {
		return
	}

	// Members may only cancel their own registration.
	if sess.Role != accountDomain.RoleAdmin && sess.Role != accountDomain.RoleStaff {
		m, err := stores.MemberStore.GetByEmail(r.Context(), sess.TenantID, sess.Email)
		if err != nil || m.ID != reg.MemberID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	reg, err := orchestrators.ExecuteCancelRegistration(r.Context(), registrationID, orchestrators.RegistrationLifecycleDeps{
		RegistrationStore: stores.RegistrationStore,
		Now:               timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryEvent, auditDomain.ActionUpdate, "registration", registrationID, "registration cancelled")
	writeJSON(w, http.StatusOK, reg)
}
