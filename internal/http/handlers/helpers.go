package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"servepoint-pos-service/internal/approval"
	"servepoint-pos-service/internal/pricing"
	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

var errMissingParam = errors.New("missing param")

func parseNumericID(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if v <= 0 || math.IsNaN(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		if v <= 0 {
			return 0, false
		}
		return int64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return v, true
	case string:
		var out int64
		if _, err := fmt.Sscan(v, &out); err != nil || out <= 0 {
			return 0, false
		}
		return out, true
	default:
		return 0, false
	}
}

// writeMutationError maps domain failures onto the stable wire taxonomy.
// Lock timeouts surface as a retryable DATABASE_ERROR; guard violations keep
// their own code; nothing internal leaks through.
func (h *Handler) writeMutationError(w http.ResponseWriter, op string, err error) {
	var violation *state.Violation
	if errors.As(err, &violation) {
		response.Error(w, http.StatusConflict, violation.Code, violation.Message)
		return
	}

	var approvalErr *approval.Error
	if errors.As(err, &approvalErr) {
		response.Error(w, http.StatusUnauthorized, approvalErr.Code, approvalErr.Message)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found or does not belong to this branch")
	case errors.Is(err, store.ErrLockTimeout):
		response.Error(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "Order is busy, please retry")
	case errors.Is(err, pricing.ErrZeroValueOrder):
		response.Error(w, http.StatusBadRequest, "ZERO_VALUE_ORDER", "Order has no positive base amount")
	default:
		h.Logger.Error(op+" failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "DATABASE_ERROR", "Operation failed, please retry")
	}
}

func pricingLines(lines []store.Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountType:   pricing.DiscountType(l.DiscountType),
			DiscountValue:  l.DiscountValue,
			DiscountAmount: l.DiscountAmount,
			Voided:         l.IsVoided,
		})
	}
	return out
}

func orderSnapshot(o *store.Order, lines []store.Line) map[string]any {
	out := map[string]any{
		"id":             o.ID,
		"orderNumber":    o.OrderNumber,
		"orderType":      o.OrderType,
		"tableId":        o.TableID,
		"status":         o.Status,
		"paymentStatus":  o.PaymentStatus,
		"subtotal":       o.Subtotal,
		"discountType":   o.DiscountType,
		"discountValue":  o.DiscountValue,
		"discountAmount": o.DiscountAmount,
		"taxAmount":      o.TaxAmount,
		"serviceCharge":  o.ServiceCharge,
		"tipAmount":      o.TipAmount,
		"totalAmount":    o.TotalAmount,
		"paidAmount":     o.PaidAmount,
		"parked":         o.Parked,
		"createdAt":      o.CreatedAt,
		"updatedAt":      o.UpdatedAt,
	}
	if o.Parked {
		out["parkLabel"] = o.ParkLabel
		out["parkCategory"] = o.ParkCategory
		out["parkPriority"] = o.ParkPriority
		out["parkExpiresAt"] = o.ParkExpiresAt
	}
	if lines != nil {
		out["items"] = lineSnapshots(lines)
	}
	return out
}

func lineSnapshots(lines []store.Line) []map[string]any {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		items = append(items, map[string]any{
			"id":             l.ID,
			"productId":      l.ProductID,
			"name":           l.Name,
			"quantity":       l.Quantity,
			"unitPrice":      l.UnitPrice,
			"discountType":   l.DiscountType,
			"discountValue":  l.DiscountValue,
			"discountAmount": l.DiscountAmount,
			"lineTotal":      l.LineTotal,
			"isVoided":       l.IsVoided,
			"kitchenStatus":  l.KitchenStatus,
			"firedAt":        l.FiredAt,
			"courseNo":       l.CourseNo,
			"rush":           l.Rush,
		})
	}
	return items
}

// clearParkState mirrors the terminal writers: an order leaving HELD sheds
// its park flag and metadata so it stops counting against the branch's
// parked budget.
func clearParkState(o *store.Order) {
	o.Parked = false
	o.ParkLabel = nil
	o.ParkCategory = nil
	o.ParkPriority = nil
	o.ParkExpiresAt = nil
}

// applyTotals copies a recomputation result onto the in-memory order so the
// response snapshot matches what was just written.
func applyTotals(o *store.Order, t pricing.Totals) {
	o.Subtotal = t.Subtotal
	o.DiscountAmount = t.DiscountAmount
	o.TaxAmount = t.TaxAmount
	o.ServiceCharge = t.ServiceCharge
	o.TipAmount = t.TipAmount
	o.TotalAmount = t.Total
}
