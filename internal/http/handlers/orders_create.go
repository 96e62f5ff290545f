package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"servepoint-pos-service/internal/audit"
	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/money"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type createOrderItem struct {
	ProductID any     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int32   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	CourseNo  *int32  `json:"courseNo"`
	Notes     string  `json:"notes"`
}

type createOrderRequest struct {
	OrderType string            `json:"orderType"`
	TableID   any               `json:"tableId"`
	Items     []createOrderItem `json:"items"`
}

const maxLineQuantity = 9999

var validOrderTypes = map[string]struct{}{
	"DINE_IN":  {},
	"TAKEAWAY": {},
	"DELIVERY": {},
}

func (h *Handler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderType := strings.ToUpper(strings.TrimSpace(body.OrderType))
	if _, ok := validOrderTypes[orderType]; !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order type")
		return
	}

	var tableID *int64
	if orderType == "DINE_IN" {
		id, ok := parseNumericID(body.TableID)
		if !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table is required for dine-in orders")
			return
		}
		tableID = &id
	}

	lines, errMsg := buildCreateLines(body.Items)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order create", err)
		return
	}

	order := &store.Order{
		TenantID:        tc.TenantID,
		BranchID:        tc.BranchID,
		OrderType:       orderType,
		TableID:         tableID,
		Status:          state.StatusOpen,
		PaymentStatus:   state.PaymentUnpaid,
		CreatedByUserID: tc.UserID,
	}

	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		number, err := store.NextOrderNumber(ctx, tx, tc.TenantID, tc.BranchID)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := store.InsertOrder(ctx, tx, order); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if err := store.InsertLine(ctx, tx, &lines[i]); err != nil {
				return err
			}
		}
		_, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "order create", err)
		return
	}

	h.Audit.Record(auditEntry(tc, order.ID, "created", map[string]any{
		"orderNumber": order.OrderNumber,
		"orderType":   orderType,
		"itemCount":   len(lines),
	}))
	if tableID != nil {
		h.Tables.Occupy(tc.TenantID, tc.BranchID, *tableID)
	}

	response.Success(w, orderSnapshot(order, lines))
}

func buildCreateLines(items []createOrderItem) ([]store.Line, string) {
	lines := make([]store.Line, 0, len(items))
	for _, item := range items {
		productID, ok := parseNumericID(item.ProductID)
		if !ok {
			return nil, "Each item needs a valid product"
		}
		if item.Quantity <= 0 || item.Quantity > maxLineQuantity {
			return nil, "Item quantity must be between 1 and 9999"
		}
		if item.UnitPrice < 0 {
			return nil, "Item price cannot be negative"
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, "Each item needs a name"
		}

		line := store.Line{
			ProductID:     productID,
			Name:          name,
			Quantity:      item.Quantity,
			UnitPrice:     money.Round2(item.UnitPrice),
			LineTotal:     money.Round2(float64(item.Quantity) * item.UnitPrice),
			KitchenStatus: state.KitchenPending,
			CourseNo:      item.CourseNo,
		}
		if notes := strings.TrimSpace(item.Notes); notes != "" {
			line.Notes = &notes
		}
		lines = append(lines, line)
	}
	return lines, ""
}

func auditEntry(tc *middleware.TenantContext, orderID int64, action string, details map[string]any) audit.Entry {
	return audit.Entry{
		TenantID: tc.TenantID,
		BranchID: tc.BranchID,
		OrderID:  orderID,
		UserID:   tc.UserID,
		Action:   action,
		Details:  details,
	}
}
