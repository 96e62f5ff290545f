package handlers

import (
	"net/http"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"
)

// OrderDetail returns the current order snapshot with lines and payments.
func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	order, err := store.GetOrder(ctx, h.DB, tc.TenantID, tc.BranchID, orderID)
	if err != nil {
		h.writeMutationError(w, "order detail", err)
		return
	}
	lines, err := store.GetLines(ctx, h.DB, orderID)
	if err != nil {
		h.writeMutationError(w, "order detail", err)
		return
	}
	payments, err := store.ListPayments(ctx, h.DB, orderID)
	if err != nil {
		h.writeMutationError(w, "order detail", err)
		return
	}

	data := orderSnapshot(order, lines)
	paymentList := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		paymentList = append(paymentList, map[string]any{
			"id":        p.ID,
			"method":    p.Method,
			"amount":    p.Amount,
			"reference": p.Reference,
			"status":    p.Status,
			"paidAt":    p.PaidAt,
		})
	}
	data["payments"] = paymentList

	response.Success(w, data)
}
