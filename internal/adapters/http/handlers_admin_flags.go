package web

import (
	"net/http"

	"parish/internal/domain/featureflag"
)

// handleAdminFlags handles GET (list) and PUT (update) for
// /api/admin/feature-flags
func handleAdminFlags(w http.ResponseWriter, r *http.Request) {
	_, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case "GET":
		flags, err := stores.FeatureFlagStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, flags)

	case "PUT":
		var body featureflag.FeatureFlag
		if err := strictDecode(r, &body); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if err := body.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.FeatureFlagStore.Save(ctx, body); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, body)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
