package handlers

import (
	"net/http"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/pkg/response"
)

// KDSStream upgrades a kitchen display connection scoped to the acting
// tenant and branch.
func (h *Handler) KDSStream(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}
	h.KDS.Handle(w, r, tc.TenantID, tc.BranchID)
}
