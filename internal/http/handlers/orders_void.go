package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type voidItemRequest struct {
	OrderID any    `json:"orderId"`
	LineID  any    `json:"lineId"`
	Reason  string `json:"reason"`
}

// OrderItemVoid marks one line voided (kept for audit, excluded from
// totals) and recomputes the order.
func (h *Handler) OrderItemVoid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body voidItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	lineID, ok := parseNumericID(body.LineID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Line ID is required")
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "item void", err)
		return
	}

	var (
		order *store.Order
		lines []store.Line
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}

		locked, err := store.GetLinesForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		line, found := findLine(locked, lineID)
		if !found {
			return store.ErrNotFound
		}
		if violation := state.CanVoidLine(order.Status, order.PaymentStatus, line.IsVoided); violation != nil {
			return violation
		}

		if err := store.VoidLine(ctx, tx, lineID); err != nil {
			return err
		}

		lines, err = store.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}
		_, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "item void", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "item_voided", map[string]any{
		"lineId": lineID,
		"reason": strings.TrimSpace(body.Reason),
	}))

	response.Success(w, orderSnapshot(order, lines))
}

type voidOrderRequest struct {
	OrderID any    `json:"orderId"`
	Reason  string `json:"reason"`
}

// OrderVoid voids the whole order. Paid orders are rejected here and must
// take the refund path.
func (h *Handler) OrderVoid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body voidOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var order *store.Order
	err := store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanVoidOrder(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}
		return store.MarkVoided(ctx, tx, orderID)
	})
	if err != nil {
		h.writeMutationError(w, "order void", err)
		return
	}

	freedTable := order.TableID
	order.Status = state.StatusVoided
	order.TableID = nil
	clearParkState(order)

	h.Audit.Record(auditEntry(tc, orderID, "voided", map[string]any{
		"reason": strings.TrimSpace(body.Reason),
	}))
	h.Tables.Release(tc.TenantID, tc.BranchID, freedTable)

	response.Success(w, orderSnapshot(order, nil))
}
