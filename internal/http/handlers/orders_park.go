package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type parkRequest struct {
	OrderID  any    `json:"orderId"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Priority int32  `json:"priority"`
}

// OrderPark suspends an order without discarding it: the table is freed,
// lines and totals stay intact, and the order waits under a label until
// resumed or expired.
func (h *Handler) OrderPark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body parkRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order park", err)
		return
	}

	expiresAt := time.Now().Add(settings.ParkExpiry)
	label := strings.TrimSpace(body.Label)
	category := strings.TrimSpace(body.Category)

	var (
		order      *store.Order
		freedTable *int64
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanPark(order.Status, order.PaymentStatus, order.Parked); violation != nil {
			return violation
		}

		parked, err := store.CountParked(ctx, tx, tc.TenantID, tc.BranchID)
		if err != nil {
			return err
		}
		if parked >= settings.MaxParkedOrders {
			return &state.Violation{Code: "MAX_PARKED_ORDERS", Message: "The branch has reached its parked order limit"}
		}

		freedTable = order.TableID
		return store.ParkOrder(ctx, tx, orderID, label, category, body.Priority, expiresAt)
	})
	if err != nil {
		h.writeMutationError(w, "order park", err)
		return
	}

	order.Status = state.StatusHeld
	order.Parked = true
	order.TableID = nil
	if label != "" {
		order.ParkLabel = &label
	}
	if category != "" {
		order.ParkCategory = &category
	}
	order.ParkPriority = &body.Priority
	order.ParkExpiresAt = &expiresAt

	h.Audit.Record(auditEntry(tc, orderID, "parked", map[string]any{
		"label":     label,
		"category":  category,
		"priority":  body.Priority,
		"expiresAt": expiresAt,
	}))
	h.Tables.Release(tc.TenantID, tc.BranchID, freedTable)

	response.Success(w, orderSnapshot(order, nil))
}

type resumeRequest struct {
	OrderID any `json:"orderId"`
	TableID any `json:"tableId"`
}

// OrderResume reactivates a parked order and reassigns a table for
// dine-in.
func (h *Handler) OrderResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var tableID *int64
	if id, ok := parseNumericID(body.TableID); ok {
		tableID = &id
	}

	var order *store.Order
	err := store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanResume(order.Status, order.Parked); violation != nil {
			return violation
		}
		if order.OrderType == "DINE_IN" && tableID == nil {
			return &state.Violation{Code: "VALIDATION_ERROR", Message: "A table is required to resume a dine-in order"}
		}
		return store.ResumeOrder(ctx, tx, orderID, tableID)
	})
	if err != nil {
		h.writeMutationError(w, "order resume", err)
		return
	}

	now := time.Now()
	order.Status = state.StatusOpen
	clearParkState(order)
	order.TableID = tableID
	order.ResumedAt = &now

	h.Audit.Record(auditEntry(tc, orderID, "resumed", map[string]any{
		"tableId": tableID,
	}))
	if tableID != nil {
		h.Tables.Occupy(tc.TenantID, tc.BranchID, *tableID)
	}

	response.Success(w, orderSnapshot(order, nil))
}
