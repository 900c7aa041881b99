package web

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	memberStore "parish/internal/adapters/storage/member"
	auditDomain "parish/internal/domain/audit"
)

// exportBatchSize bounds each page fetched while streaming the export.
const exportBatchSize = 500

// handleExportMembers streams the tenant's member directory as CSV.
// GET /api/members/export?status=active
func handleExportMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireStaff(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "email", "phone", "role", "status", "joined_at"}); err != nil {
		return
	}

	total := 0
	offset := 0
	for {
		members, err := stores.MemberStore.List(ctx, memberStore.ListFilter{
			TenantID: sess.TenantID,
			Status:   r.URL.Query().Get("status"),
			Limit:    exportBatchSize,
			Offset:   offset,
		})
		if err != nil {
			// Headers are already sent; abort the stream.
			slog.Error("member_export_failed", "error", err.Error(), "tenant_id", sess.TenantID)
			return
		}
		for _, m := range members {
			row := []string{m.Name, m.Email, m.Phone, m.Role, m.Status, m.JoinedAt.Format("2006-01-02")}
			if err := cw.Write(row); err != nil {
				return
			}
		}
		total += len(members)
		if len(members) < exportBatchSize {
			break
		}
		offset += exportBatchSize
	}
	cw.Flush()

	recordAudit(r, sess, auditDomain.CategoryMember, auditDomain.ActionExport, "member", "",
		fmt.Sprintf("exported %d member rows", total))
}
