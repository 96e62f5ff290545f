package handlers

import (
	"context"
	"encoding/json"
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

type serviceChargeRequest struct {
	OrderID     any     `json:"orderId"`
	ChargeType  string  `json:"chargeType"` // PERCENTAGE | FIXED_AMOUNT
	ChargeValue float64 `json:"chargeValue"`
}

// OrderServiceCharge sets the service charge. A percentage charge is taken
// from the discounted subtotal; the result feeds the taxable base.
func (h *Handler) OrderServiceCharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body serviceChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	if body.ChargeValue < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Service charge cannot be negative")
		return
	}
	chargeType := strings.ToUpper(strings.TrimSpace(body.ChargeType))
	if chargeType == "" {
		chargeType = "FIXED_AMOUNT"
	}
	if chargeType != "PERCENTAGE" && chargeType != "FIXED_AMOUNT" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid charge type")
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "service charge", err)
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
		if violation := state.CanModify(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		lines, err = store.GetLines(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if chargeType == "PERCENTAGE" {
			snapshot := pricing.Compute(computeInput(order, lines, settings))
			base := pricing.BaseAmount(snapshot)
			if base <= 0 {
				return pricing.ErrZeroValueOrder
			}
			order.ServiceCharge = money.PercentOf(base, body.ChargeValue)
		} else {
			order.ServiceCharge = money.Round2(body.ChargeValue)
		}

		_, err = recompute(ctx, tx, order, lines, settings)
		return err
	})
	if err != nil {
		h.writeMutationError(w, "service charge", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "service_charge_set", map[string]any{
		"chargeType":  chargeType,
		"chargeValue": body.ChargeValue,
		"applied":     order.ServiceCharge,
	}))

	response.Success(w, orderSnapshot(order, lines))
}
