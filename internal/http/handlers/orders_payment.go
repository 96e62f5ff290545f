package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/money"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/jackc/pgx/v5"
)

type paymentEntry struct {
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
}

type payRequest struct {
	OrderID  any            `json:"orderId"`
	Payments []paymentEntry `json:"payments"`
	Partial  bool           `json:"partial"`
}

// paymentEpsilon absorbs rounding drift in the paid-in-full comparison.
const paymentEpsilon = 0.01

var validPaymentMethods = map[string]struct{}{
	"CASH":    {},
	"CARD":    {},
	"QR":      {},
	"VOUCHER": {},
}

var errInsufficientPayment = errors.New("insufficient payment")

// OrderPay settles an order with one or more payment entries. Overpayment
// becomes change and the last entry's recorded amount is trimmed so stored
// payments sum to exactly what was applied; change itself is never applied.
// With the partial flag an under-payment is accepted as-is and accumulates
// on paid_amount, leaving the order PARTIAL; without it a shortage is
// rejected.
func (h *Handler) OrderPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, ok := middleware.GetTenantContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff context not found")
		return
	}

	var body payRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	orderID, ok := parseNumericID(body.OrderID)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}
	if len(body.Payments) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "At least one payment entry is required")
		return
	}
	for i := range body.Payments {
		body.Payments[i].Method = strings.ToUpper(strings.TrimSpace(body.Payments[i].Method))
		if _, ok := validPaymentMethods[body.Payments[i].Method]; !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment method")
			return
		}
		if body.Payments[i].Amount <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment amounts must be positive")
			return
		}
	}

	var (
		order      *store.Order
		recorded   []store.Payment
		change     float64
		shortage   float64
		paidInFull bool
		freedTable *int64
	)
	paidAt := time.Now()

	err := store.WithTx(ctx, h.DB, h.Config.LockTimeout, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		order, err = store.GetOrderForUpdate(ctx, tx, tc.TenantID, tc.BranchID, orderID)
		if err != nil {
			return err
		}
		if violation := state.CanPay(order.Status, order.PaymentStatus); violation != nil {
			return violation
		}

		due := money.Round2(order.TotalAmount - order.PaidAmount)
		applied, appliedTotal, changeOut, err := settlePayments(body.Payments, due, body.Partial)
		if err != nil {
			shortage = money.Round2(due - sumPayments(body.Payments))
			return err
		}
		change = changeOut

		recorded = make([]store.Payment, 0, len(applied))
		for _, entry := range applied {
			p := store.Payment{
				OrderID:      orderID,
				Method:       entry.Method,
				Amount:       entry.Amount,
				Status:       store.PaymentCompleted,
				PaidByUserID: &tc.UserID,
				PaidAt:       &paidAt,
			}
			if ref := strings.TrimSpace(entry.Reference); ref != "" {
				p.Reference = &ref
			}
			if err := store.InsertPayment(ctx, tx, &p); err != nil {
				return err
			}
			recorded = append(recorded, p)
		}

		newPaid := money.Round2(order.PaidAmount + appliedTotal)
		paidInFull = newPaid >= order.TotalAmount-paymentEpsilon

		status := state.PaymentPartial
		if paidInFull {
			status = state.PaymentPaid
			freedTable = order.TableID
		}
		if err := store.SettleOrder(ctx, tx, orderID, newPaid, status, paidInFull); err != nil {
			return err
		}

		order.PaidAmount = newPaid
		order.PaymentStatus = status
		if paidInFull {
			order.Status = state.StatusCompleted
			order.TableID = nil
			order.PaidAt = &paidAt
			clearParkState(order)
		}
		return nil
	})
	if errors.Is(err, errInsufficientPayment) {
		response.JSON(w, http.StatusBadRequest, map[string]any{
			"success":  false,
			"error":    "INSUFFICIENT_PAYMENT",
			"message":  fmt.Sprintf("Payment is short by %.2f", shortage),
			"shortage": shortage,
		})
		return
	}
	if err != nil {
		h.writeMutationError(w, "order pay", err)
		return
	}

	h.Audit.Record(auditEntry(tc, orderID, "paid", map[string]any{
		"applied":       order.PaidAmount,
		"change":        change,
		"paymentStatus": order.PaymentStatus,
		"entries":       len(recorded),
	}))
	if paidInFull {
		h.Tables.Release(tc.TenantID, tc.BranchID, freedTable)
	}

	payments := make([]map[string]any, 0, len(recorded))
	for _, p := range recorded {
		payments = append(payments, map[string]any{
			"id":        p.ID,
			"method":    p.Method,
			"amount":    p.Amount,
			"reference": p.Reference,
			"status":    p.Status,
		})
	}

	data := orderSnapshot(order, nil)
	data["payments"] = payments
	data["changeAmount"] = change
	response.Success(w, data)
}

// settlePayments validates a batch of payment entries against the amount
// due. On overpayment the last entry is trimmed so the recorded entries sum
// to exactly the due amount; the remainder is returned as change. An
// under-payment is applied as-is when allowPartial is set, otherwise it is
// rejected whole.
func settlePayments(entries []paymentEntry, due float64, allowPartial bool) (applied []paymentEntry, appliedTotal float64, change float64, err error) {
	total := sumPayments(entries)
	if total < due-paymentEpsilon {
		if !allowPartial {
			return nil, 0, 0, errInsufficientPayment
		}
		applied = make([]paymentEntry, len(entries))
		copy(applied, entries)
		for i := range applied {
			applied[i].Amount = money.Round2(applied[i].Amount)
		}
		return applied, total, 0, nil
	}

	change = money.Round2(total - due)
	if change < 0 {
		change = 0
	}

	applied = make([]paymentEntry, len(entries))
	copy(applied, entries)
	for i := range applied {
		applied[i].Amount = money.Round2(applied[i].Amount)
	}

	remaining := change
	for i := len(applied) - 1; i >= 0 && remaining > 0; i-- {
		cut := remaining
		if cut > applied[i].Amount {
			cut = applied[i].Amount
		}
		applied[i].Amount = money.Round2(applied[i].Amount - cut)
		remaining = money.Round2(remaining - cut)
	}

	kept := applied[:0]
	for _, entry := range applied {
		if entry.Amount > 0 {
			kept = append(kept, entry)
		}
	}
	applied = kept

	appliedTotal = money.Round2(total - change)
	return applied, appliedTotal, change, nil
}

func sumPayments(entries []paymentEntry) float64 {
	total := 0.0
	for _, entry := range entries {
		total = money.Round2(total + entry.Amount)
	}
	return total
}
