package web

import (
	"net/http"

	"parish/internal/application/orchestrators"
	auditDomain "parish/internal/domain/audit"
)

// sessionMemberID resolves the member record linked to the session account.
func sessionMemberID(r *http.Request, w http.ResponseWriter) (string, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return "", false
	}
	m, err := stores.MemberStore.GetByEmail(r.Context(), sess.TenantID, sess.Email)
	if err != nil {
		http.Error(w, "no member record for this account", http.StatusBadRequest)
		return "", false
	}
	return m.ID, true
}

// handleMessages handles GET (inbox) and POST (send) for /api/messages
func handleMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "messaging") {
		return
	}
	ctx := r.Context()

	memberID, ok := sessionMemberID(r, w)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		if r.URL.Query().Get("box") == "sent" {
			msgs, err := stores.MessageStore.ListBySenderID(ctx, memberID)
			if err != nil {
				internalError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, msgs)
			return
		}
		msgs, err := stores.MessageStore.ListByReceiverID(ctx, memberID)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)

	case "POST":
		var body struct {
			ReceiverID string `json:"receiver_id"`
			Subject    string `json:"subject"`
			Content    string `json:"content"`
		}
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		m, err := orchestrators.ExecuteSendMessage(ctx, orchestrators.SendMessageInput{
			TenantID:   sess.TenantID,
			SenderID:   memberID,
			ReceiverID: body.ReceiverID,
			Subject:    body.Subject,
			Content:    body.Content,
		}, orchestrators.SendMessageDeps{
			MessageStore: stores.MessageStore,
			MemberStore:  stores.MemberStore,
			GenerateID:   generateID,
			Now:          timeNow,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recordAudit(r, sess, auditDomain.CategoryMessage, auditDomain.ActionCreate, "message", m.ID, "message sent")
		writeJSON(w, http.StatusCreated, m)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMarkMessageRead handles POST /api/messages/{id}/read
func handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if !requireFeatureAPI(w, r, sess, "messaging") {
		return
	}
	memberID, ok := sessionMemberID(r, w)
	if !ok {
		return
	}
	messageID := r.PathValue("id")

	m, err := orchestrators.ExecuteMarkMessageRead(r.Context(), messageID, memberID, orchestrators.MarkReadDeps{
		MessageStore: stores.MessageStore,
		Now:          timeNow,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleUnreadCount handles GET /api/messages/unread-count
func handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	memberID, ok := sessionMemberID(r, w)
	if !ok {
		return
	}
	count, err := stores.MessageStore.CountUnread(r.Context(), memberID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}
