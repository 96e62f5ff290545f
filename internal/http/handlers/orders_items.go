package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type updateItemsRequest struct {
	OrderID       any               `json:"orderId"`
	Add           []createOrderItem `json:"add"`
	RemoveLineIDs []int64           `json:"removeLineIds"`
}

// OrderItemsUpdate adds and removes lines on an open order. Lines already
// fired to the kitchen cannot be removed, only voided.
func (h *Handler) OrderItemsUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body updateItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	if len(body.Add) == 0 && len(body.RemoveLineIDs) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to add or remove")
		return
	}

	added, errMsg := buildCreateLines(body.Add)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order items update", err)
		return
	}

	var (
		order *store.Order
		lines []store.Line
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanModify(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		existing, err := store.GetLinesForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		for _, lineID := range body.RemoveLineIDs {
			line, found := findLine(existing, lineID)
			if !found {
				return store.ErrNotFound
			}
			if line.KitchenStatus != state.KitchenPending {
				return &state.Violation{Code: "INVALID_ORDER_STATUS", Message: "Fired items cannot be removed, void them instead"}
			}
			if err := store.DeleteLine(ctx, tx, orderID, lineID); err != nil {
				return err
			}
		}

		for i := range added {
			added[i].OrderID = orderID
			if err := store.InsertLine(ctx, tx, &added[i]); err != nil {
				return err
			}
		}

		lines, err = store.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}
		_, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "order items update", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "items_updated", map[string]any{
		"added":   len(added),
		"removed": len(body.RemoveLineIDs),
	}))

	response.Success(w, orderSnapshot(order, lines))
}

func findLine(lines []store.Line, lineID int64) (store.Line, bool) {
	for _, l := range lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return store.Line{}, false
}
