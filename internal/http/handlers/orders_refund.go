package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"servepoint-pos-service/internal/approval"
	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/money"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type refundRequest struct {
	OrderID    any     `json:"orderId"`
	Scope      string  `json:"scope"` // FULL | PARTIAL | ITEMS
	Amount     float64 `json:"amount"`
	LineIDs    []int64 `json:"lineIds"`
	Reason     string  `json:"reason"`
	ManagerPIN string  `json:"managerPin"`
}

// OrderRefund reverses settled money. Refunds above the tenant's approval
// ceiling need an elevated role or a manager PIN; a full refund is terminal
// for the order, an item refund only for its lines.
func (h *Handler) OrderRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body refundRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	scope := strings.ToUpper(strings.TrimSpace(body.Scope))
	switch scope {
	case "", "FULL":
		scope = "FULL"
	case "PARTIAL":
		if body.Amount <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "A positive amount is required for a partial refund")
			return
		}
	case "ITEMS":
		if len(body.LineIDs) == 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Line IDs are required for an item refund")
			return
		}
	default:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid refund scope")
		return
	}

	settings, err := h.tenantSettings(ctx, tc.TenantID)
	if err != nil {
		h.writeMutationError(w, "order refund", err)
		return
	}

	// Lock-free preview for the approval decision.
	preview, err := store.GetOrder(ctx, h.DB, tc.TenantID, tc.BranchID, orderID)
	if err != nil {
		h.writeMutationError(w, "order refund", err)
		return
	}

	previewAmount := preview.PaidAmount
	switch scope {
	case "PARTIAL":
		previewAmount = body.Amount
	case "ITEMS":
		previewLines, err := store.GetLines(ctx, h.DB, orderID)
		if err != nil {
			h.writeMutationError(w, "order refund", err)
			return
		}
		previewAmount = sumLineTotals(previewLines, body.LineIDs)
	}
	effectivePercent := money.EffectivePercent(previewAmount, preview.TotalAmount)
	if scope == "FULL" {
		effectivePercent = 100
	}

	decision, err := approval.CheckDiscount(ctx, h.DB, tc.TenantID, effectivePercent, settings.RefundApprovalPercent, tc.Role, body.ManagerPIN)
	if err != nil {
		h.writeMutationError(w, "order refund", err)
		return
	}
	if decision.RequiresApproval {
		response.Success(w, map[string]any{
			"requiresApproval": true,
			"maxPercent":       decision.MaxPercent,
			"requestedPercent": effectivePercent,
		})
		return
	}

	var (
		order        *store.Order
		refundAmount float64
		terminal     bool
		freedTable   *int64
	)
	err = store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanRefund(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		switch scope {
		case "FULL":
			refundAmount = order.PaidAmount
		case "PARTIAL":
			refundAmount = money.Round2(body.Amount)
			if refundAmount > order.PaidAmount {
				refundAmount = order.PaidAmount
			}
		case "ITEMS":
			locked, err := store.GetLinesForUpdate(ctx, tx, orderID)
			if err != nil {
				return err
			}
			for _, lineID := range body.LineIDs {
				line, found := findLine(locked, lineID)
				if !found {
					return store.ErrNotFound
				}
				if line.IsVoided {
					return &state.Violation{Code: "INVALID_ORDER_STATUS", Message: "Item is already voided"}
				}
				if err := store.VoidLine(ctx, tx, lineID); err != nil {
					return err
				}
			}
			refundAmount = sumLineTotals(locked, body.LineIDs)
			if refundAmount > order.PaidAmount {
				refundAmount = order.PaidAmount
			}
		}
		if refundAmount <= 0 {
			return &state.Violation{Code: "INVALID_ORDER_STATUS", Message: "Nothing to refund"}
		}

		newPaid := money.Round2(order.PaidAmount - refundAmount)
		terminal = scope == "FULL" || newPaid <= paymentEpsilon
		if terminal {
			newPaid = 0
		}

		paymentStatus := state.PaymentPartial
		if terminal {
			paymentStatus = state.PaymentRefunded
			if err := store.MarkPaymentsRefunded(ctx, tx, orderID); err != nil {
				return err
			}
			freedTable = order.TableID
		}

		if err := store.MarkRefunded(ctx, tx, orderID, newPaid, paymentStatus, terminal); err != nil {
			return err
		}

		order.PaidAmount = newPaid
		order.PaymentStatus = paymentStatus
		if terminal {
			order.Status = state.StatusRefunded
			order.TableID = nil
			clearParkState(order)
		}
		return nil
	})
	if err != nil {
		h.writeMutationError(w, "order refund", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "refunded", map[string]any{
		"scope":        scope,
		"refundAmount": refundAmount,
		"reason":       strings.TrimSpace(body.Reason),
		"terminal":     terminal,
	}))
	if terminal {
		h.Tables.Release(tc.TenantID, tc.BranchID, freedTable)
	}

	data := orderSnapshot(order, nil)
	data["refundAmount"] = refundAmount
	response.Success(w, data)
}

func sumLineTotals(lines []store.Line, lineIDs []int64) float64 {
	wanted := make(map[int64]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = struct{}{}
	}
	total := 0.0
	for _, l := range lines {
		if _, ok := wanted[l.ID]; ok && !l.IsVoided {
			total = money.Round2(total + l.LineTotal)
		}
	}
	return total
}
