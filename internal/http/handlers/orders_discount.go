package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"servepoint-pos-service/internal/approval"
	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/money"
	"servepoint-pos-service/internal/pricing"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type orderDiscountRequest struct {
	OrderID       any     `json:"orderId"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
	Reason        string  `json:"reason"`
	ManagerPIN    string  `json:"managerPin"`
}

// OrderDiscount applies an order-level discount, escalating through the
// approval gate when the effective percent exceeds the tenant ceiling. The
// approval check runs before any lock so a requires-approval answer leaves
// no trace.
func (h *Handler) OrderDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body orderDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	discountType, errMsg := normalizeDiscountType(body.DiscountType, body.DiscountValue)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order discount", err)
		return
	}

	// Lock-free preview for the approval decision.
	preview, err := store.GetOrder(ctx, h.DB, tc.TenantID, tc.BranchID, orderID)
	if err != nil {
		h.writeMutationError(w, "order discount", err)
		return
	}
	if preview.Subtotal <= 0 {
		response.Error(w, http.StatusBadRequest, "ZERO_VALUE_ORDER", "Order has no positive base amount")
		return
	}

	effectivePercent := body.DiscountValue
	if discountType == pricing.DiscountFixed {
		effectivePercent = money.EffectivePercent(body.DiscountValue, preview.Subtotal)
	}

	decision, err := approval.CheckDiscount(ctx, h.DB, tc.TenantID, effectivePercent, settings.MaxDiscountPercent, tc.Role, body.ManagerPIN)
	if err != nil {
		h.writeMutationError(w, "order discount", err)
		return
	}
	if decision.RequiresApproval {
		response.Success(w, map[string]any{
			"requiresApproval":   true,
			"maxDiscountPercent": decision.MaxPercent,
			"requestedPercent":   effectivePercent,
		})
		return
	}

	var (
		order  *store.Order
		lines  []store.Line
		totals pricing.Totals
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanModify(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		lines, err = store.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}

		order.DiscountType = string(discountType)
		order.DiscountValue = money.Round2(body.DiscountValue)
		if discountType == pricing.DiscountPercentage {
			order.DiscountValue = money.ClampPercent(body.DiscountValue)
		}

		// A discount may drive the base to exactly zero; that is a valid
		// fully-comped order, not a ZERO_VALUE_ORDER.
		totals, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "order discount", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "discount_applied", map[string]any{
		"discountType":   string(discountType),
		"discountValue":  order.DiscountValue,
		"discountAmount": totals.DiscountAmount,
		"reason":         strings.TrimSpace(body.Reason),
		"approvedByPin":  strings.TrimSpace(body.ManagerPIN) != "",
	}))

	warning := ""
	if totals.DiscountCapped {
		warning = "Discount was capped at the configured maximum"
	}
	response.SuccessWithWarning(w, orderSnapshot(order, lines), warning)
}

type itemDiscountRequest struct {
	OrderID       any     `json:"orderId"`
	LineID        any     `json:"lineId"`
	DiscountType  string  `json:"discountType"`
	DiscountValue float64 `json:"discountValue"`
	Reason        string  `json:"reason"`
	ManagerPIN    string  `json:"managerPin"`
}

func (h *Handler) OrderItemDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body itemDiscountRequest
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

	discountType, errMsg := normalizeDiscountType(body.DiscountType, body.DiscountValue)
	if errMsg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", errMsg)
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "item discount", err)
		return
	}

	// Lock-free preview of the target line for the approval decision.
	previewLines, err := store.GetLines(ctx, h.DB, orderID)
	if err != nil {
		h.writeMutationError(w, "item discount", err)
		return
	}
	previewLine, found := findLine(previewLines, lineID)
	if !found {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found on this order")
		return
	}
	lineGross := money.Round2(float64(previewLine.Quantity) * previewLine.UnitPrice)
	if lineGross <= 0 {
		response.Error(w, http.StatusBadRequest, "ZERO_VALUE_ORDER", "Item has no positive amount")
		return
	}

	effectivePercent := body.DiscountValue
	if discountType == pricing.DiscountFixed {
		effectivePercent = money.EffectivePercent(body.DiscountValue, lineGross)
	}

	decision, err := approval.CheckDiscount(ctx, h.DB, tc.TenantID, effectivePercent, settings.MaxItemDiscountPercent, tc.Role, body.ManagerPIN)
	if err != nil {
		h.writeMutationError(w, "item discount", err)
		return
	}
	if decision.RequiresApproval {
		response.Success(w, map[string]any{
			"requiresApproval":   true,
			"maxDiscountPercent": decision.MaxPercent,
			"requestedPercent":   effectivePercent,
		})
		return
	}

	var (
		order  *store.Order
		lines  []store.Line
		totals pricing.Totals
		capped bool
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanModify(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		locked, err := store.GetLinesForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		line, found := findLine(locked, lineID)
		if !found {
			return store.ErrNotFound
		}
		if line.IsVoided {
			return &state.Violation{Code: "INVALID_ORDER_STATUS", Message: "Item is voided"}
		}

		value := money.Round2(body.DiscountValue)
		if discountType == pricing.DiscountPercentage {
			value = money.ClampPercent(body.DiscountValue)
		}
		gross, discountAmount, wasCapped := pricing.LineAmounts(pricing.Line{
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			DiscountType:  discountType,
			DiscountValue: value,
		}, settings.MaxItemDiscountPercent)
		capped = wasCapped

		lineTotal := money.Round2(gross - discountAmount)
		if err := store.UpdateLineDiscount(ctx, tx, lineID, string(discountType), value, discountAmount, lineTotal); err != nil {
			return err
		}

		lines, err = store.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}
		totals, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "item discount", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "item_discount_applied", map[string]any{
		"lineId":         lineID,
		"discountType":   string(discountType),
		"discountValue":  body.DiscountValue,
		"discountAmount": totals.ItemDiscount,
		"reason":         strings.TrimSpace(body.Reason),
	}))

	warning := ""
	if capped || totals.DiscountCapped {
		warning = "Item discount was capped at the configured maximum"
	}
	response.SuccessWithWarning(w, orderSnapshot(order, lines), warning)
}

func normalizeDiscountType(raw string, value float64) (pricing.DiscountType, string) {
	if value <= 0 {
		return "", "Discount value must be positive"
	}
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PERCENTAGE", "PERCENT":
		if value > 100 {
			return "", "Discount percent cannot exceed 100"
		}
		return pricing.DiscountPercentage, ""
	case "FIXED_AMOUNT", "FIXED":
		return pricing.DiscountFixed, ""
	default:
		return "", "Invalid discount type"
	}
}
