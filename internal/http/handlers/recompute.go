package handlers

import (
	"context"

	"servepoint-pos-service/internal/pricing"
	"servepoint-pos-service/internal/store"
	"servepoint-pos-service/internal/tenant"
)

// computeInput assembles the recalculation input from one snapshot of the
// order and its lines, so order- and item-level discounts are never derived
// from different reads.
func computeInput(o *store.Order, lines []store.Line, s tenant.Settings) pricing.Input {
	return pricing.Input{
		Lines:                  pricingLines(lines),
		DiscountType:           pricing.DiscountType(o.DiscountType),
		DiscountValue:          o.DiscountValue,
		MaxDiscountPercent:     s.MaxDiscountPercent,
		MaxItemDiscountPercent: s.MaxItemDiscountPercent,
		TaxRate:                s.TaxRate,
		ServiceCharge:          o.ServiceCharge,
		TipAmount:              o.TipAmount,
	}
}

// recompute runs the pricing pipeline over the locked snapshot and writes
// the result back, keeping the in-memory order in sync for the response.
func recompute(ctx context.Context, q store.Querier, o *store.Order, lines []store.Line, s tenant.Settings) (pricing.Totals, error) {
	totals := pricing.Compute(computeInput(o, lines, s))
	if err := store.UpdateTotals(ctx, q, o.ID, totals, o.DiscountType, o.DiscountValue); err != nil {
		return pricing.Totals{}, err
	}
	applyTotals(o, totals)
	return totals, nil
}

func (h *Handler) tenantSettings(ctx context.Context, tenantID int64) (tenant.Settings, error) {
	return tenant.Load(ctx, h.DB, h.Config, tenantID)
}
