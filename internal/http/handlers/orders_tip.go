package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/money"
	"servepoint-pos-service/internal/pricing"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type tipRequest struct {
	OrderID  any     `json:"orderId"`
	TipType  string  `json:"tipType"` // PERCENTAGE | FIXED_AMOUNT
	TipValue float64 `json:"tipValue"`
}

// OrderTip sets the tip. Percentage tips are computed against the base
// amount (subtotal minus discount) and silently capped at the tenant
// maximum; the cap is reported, never an error.
func (h *Handler) OrderTip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body tipRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	if body.TipValue < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Tip value cannot be negative")
		return
	}
	tipType := strings.ToUpper(strings.TrimSpace(body.TipType))
	if tipType != "PERCENTAGE" && tipType != "FIXED_AMOUNT" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid tip type")
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order tip", err)
		return
	}
	if !settings.TipEnabled {
		response.Error(w, http.StatusBadRequest, "TIPS_DISABLED", "Tips are disabled for this tenant")
		return
	}

	var (
		order          *store.Order
		lines          []store.Line
		previous       float64
		appliedPercent float64
		capped         bool
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

		// Base amount from the same snapshot the recompute will use.
		snapshot := pricing.Compute(computeInput(order, lines, settings))
		base := pricing.BaseAmount(snapshot)

		previous = order.TipAmount

		var tip float64
		if tipType == "PERCENTAGE" {
			tip, appliedPercent, capped, err = pricing.TipFromPercent(base, body.TipValue, settings.MaxTipPercent)
		} else {
			tip, appliedPercent, capped, err = pricing.CapTipAmount(body.TipValue, base, settings.MaxTipPercent)
		}
		if err != nil {
			return err
		}

		order.TipAmount = tip
		_, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "order tip", err)
		return
	}

	delta := money.Round2(order.TipAmount - previous)

	h.Audit.Record(auditEntry(tc, orderID, "tip_set", map[string]any{
		"tipType":  tipType,
		"tipValue": body.TipValue,
		"applied":  order.TipAmount,
		"previous": previous,
		"delta":    delta,
	}))

	data := orderSnapshot(order, lines)
	data["tip"] = map[string]any{
		"amount":   order.TipAmount,
		"percent":  appliedPercent,
		"previous": previous,
		"delta":    delta,
		"capped":   capped,
	}

	warning := ""
	if capped {
		warning = fmt.Sprintf("Tip was capped at %.2f%%", settings.MaxTipPercent)
	}
	response.SuccessWithWarning(w, data, warning)
}
