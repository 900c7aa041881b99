package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"parish/internal/adapters/http/middleware"
	accountStore "parish/internal/adapters/storage/account"
	"parish/internal/application/listutil"
	"parish/internal/application/orchestrators"
	"parish/internal/application/projections"
	accountDomain "parish/internal/domain/account"
	auditDomain "parish/internal/domain/audit"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts markdown to HTML, falling back to the raw text
// when conversion fails.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireSession extracts the session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireAdmin extracts the session and enforces the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if sess.Role != accountDomain.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireStaff extracts the session and enforces staff or admin.
func requireStaff(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return middleware.Session{}, false
	}
	if sess.Role != accountDomain.RoleAdmin && sess.Role != accountDomain.RoleStaff {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return middleware.Session{}, false
	}
	return sess, true
}

// requireFeatureAPI enforces a feature flag for the session's role. Unknown
// flags default to enabled so new code paths don't lock everyone out.
func requireFeatureAPI(w http.ResponseWriter, r *http.Request, sess middleware.Session, key string) bool {
	flag, err := stores.FeatureFlagStore.GetByKey(r.Context(), key)
	if err != nil {
		return true
	}
	if !flag.EnabledForRole(sess.Role, false) {
		http.Error(w, "feature disabled", http.StatusForbidden)
		return false
	}
	return true
}

// recordAudit persists an audit event, logging rather than failing the
// request when the write does not succeed.
func recordAudit(r *http.Request, sess middleware.Session, category auditDomain.Category, action auditDomain.Action, resourceType, resourceID, description string) {
	event := auditDomain.NewEvent(sess.AccountID, sess.Email, sess.Role, category, action).
		WithTenant(sess.TenantID).
		WithResource(resourceType, resourceID).
		WithDescription(description).
		WithRequest(r.RemoteAddr, r.UserAgent())
	if err := stores.AuditStore.Save(r.Context(), event); err != nil {
		slog.Error("audit_save_failed", "error", err.Error(), "action", string(action))
	}
}

// --- Auth ---

// handleLogin handles POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input orchestrators.LoginInput
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
	})
	if err != nil {
		if errors.Is(err, orchestrators.ErrAccountLocked) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := sessions.Create(result.AccountID, result.TenantID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":               result.AccountID,
		"tenant_id":                result.TenantID,
		"email":                    result.Email,
		"role":                     result.Role,
		"password_change_required": result.PasswordChangeRequired,
	})
}

// handleLogout handles POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie("parish_session")
	if err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSession handles GET /api/session — who am I.
func handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account_id": sess.AccountID,
		"tenant_id":  sess.TenantID,
		"email":      sess.Email,
		"role":       sess.Role,
	})
}

// handleChangePassword handles POST /api/change-password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordAudit(r, sess, auditDomain.CategoryAccount, auditDomain.ActionUpdate, "account", sess.AccountID, "password changed")
	w.WriteHeader(http.StatusNoContent)
}

// --- Accounts (admin) ---

// handleAccounts handles GET (list) and POST (create) for /api/admin/accounts
func handleAccounts(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		lp := listutil.ParsePageParams(r.URL.Query())
		accounts, err := stores.AccountStore.List(ctx, accountStore.ListFilter{
			TenantID: sess.TenantID,
			Limit:    lp.PerPage,
			Offset:   (lp.Page - 1) * lp.PerPage,
			Role:     r.URL.Query().Get("role"),
		})
		if err != nil {
			internalError(w, err)
			return
		}
		type accountView struct {
			ID        string    `json:"id"`
			Email     string    `json:"email"`
			Role      string    `json:"role"`
			CreatedAt time.Time `json:"created_at"`
		}
		views := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, accountView{ID: a.ID, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt})
		}
		writeJSON(w, http.StatusOK, views)

	case "POST":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		id, err := orchestrators.ExecuteCreateAccount(ctx, orchestrators.CreateAccountInput{
			TenantID:               sess.TenantID,
			Email:                  body.Email,
			Password:               body.Password,
			Role:                   body.Role,
			PasswordChangeRequired: true,
		}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryAccount, auditDomain.ActionCreate, "account", id, "account created")
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- Members ---

// handleMembers handles GET (list) and POST (register) for /api/members
func handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		lp := listutil.ParsePageParams(r.URL.Query())
		result, err := projections.QueryGetMemberList(ctx, projections.GetMemberListQuery{
			TenantID: sess.TenantID,
			Role:     r.URL.Query().Get("role"),
			Status:   r.URL.Query().Get("status"),
			Limit:    lp.PerPage,
			Offset:   (lp.Page - 1) * lp.PerPage,
		}, projections.GetMemberListDeps{
			MemberStore:       stores.MemberStore,
			RegistrationStore: stores.RegistrationStore,
		})
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case "POST":
		sess, ok := requireStaff(w, r)
		if !ok {
			return
		}
		var body struct {
			Email string `json:"email"`
			Name  string `json:"name"`
			Phone string `json:"phone"`
			Role  string `json:"role"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		id, err := orchestrators.ExecuteRegisterMember(ctx, orchestrators.RegisterMemberInput{
			TenantID: sess.TenantID,
			Email:    body.Email,
			Name:     body.Name,
			Phone:    body.Phone,
			Role:     body.Role,
		}, orchestrators.RegisterMemberDeps{MemberStore: stores.MemberStore, Now: timeNow})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionCreate, "member", id, "member registered")
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMemberSearch handles GET /api/members/search?q=
func handleMemberSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	members, err := stores.MemberStore.SearchByName(r.Context(), sess.TenantID, q, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// handleArchiveMember handles POST /api/members/{id}/archive
func handleArchiveMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	memberID := r.PathValue("id")
	if _, ok := memberInTenant(r.Context(), w, memberID, sess.TenantID); !ok {
		return
	}

	err := orchestrators.ExecuteArchiveMember(r.Context(), orchestrators.ArchiveMemberInput{
		MemberID: memberID,
	}, orchestrators.ArchiveMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionDelete, "member", memberID, "member archived")
	w.WriteHeader(http.StatusNoContent)
}

// handleRestoreMember handles POST /api/members/{id}/restore
func handleRestoreMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	memberID := r.PathValue("id")
	if _, ok := memberInTenant(r.Context(), w, memberID, sess.TenantID); !ok {
		return
	}

	err := orchestrators.ExecuteRestoreMember(r.Context(), orchestrators.RestoreMemberInput{
		MemberID: memberID,
	}, orchestrators.RestoreMemberDeps{MemberStore: stores.MemberStore})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionRestore, "member", memberID, "member restored")
	w.WriteHeader(http.StatusNoContent)
}

// handleImportMembers handles POST /api/members/import (CSV upload)
func handleImportMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "csv_import") {
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing CSV file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Reader:         file,
		TenantID:       sess.TenantID,
		AdminAccountID: sess.AccountID,
		DryRun:         r.FormValue("dry_run") == "true",
		UpdateMode:     r.FormValue("update_mode") == "true",
	}, orchestrators.ImportMembersDeps{
		MemberStore: stores.MemberStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		var ve *orchestrators.ImportMembersValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Message, http.StatusBadRequest)
			return
		}
		internalError(w, err)
		return
	}
	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionCreate, "member", "", "CSV import run")
	writeJSON(w, http.StatusOK, result)
}

// --- Dashboard ---

// handleDashboard handles GET /api/dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		TenantID:     sess.TenantID,
		Role:         sess.Role,
		AccountEmail: sess.Email,
	}, projections.GetDashboardDeps{
		UpcomingDeps: projections.GetUpcomingEventsDeps{
			InstanceStore:     stores.InstanceStore,
			RegistrationStore: stores.RegistrationStore,
		},
		MemberStore:  stores.MemberStore,
		MessageStore: stores.MessageStore,
		MemberLookup: stores.MemberStore,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
