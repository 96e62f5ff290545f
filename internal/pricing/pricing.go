package pricing

import (
	"errors"

	"servepoint-pos-service/internal/money"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

// ErrZeroValueOrder is returned when a percentage base would be zero or negative.
var ErrZeroValueOrder = errors.New("order has no positive base amount")

type Line struct {
	Quantity       int32
	UnitPrice      float64
	DiscountType   DiscountType
	DiscountValue  float64
	DiscountAmount float64
	Voided         bool
}

type Input struct {
	Lines []Line

	DiscountType  DiscountType
	DiscountValue float64

	// Ceilings from tenant settings, in percent.
	MaxDiscountPercent     float64
	MaxItemDiscountPercent float64

	TaxRate       float64 // percent
	ServiceCharge float64
	TipAmount     float64
}

type Totals struct {
	Subtotal       float64
	OrderDiscount  float64
	ItemDiscount   float64
	DiscountAmount float64
	TaxableBase    float64
	TaxAmount      float64
	ServiceCharge  float64
	TipAmount      float64
	Total          float64

	DiscountCapped bool
}

// LineAmounts resolves one line's gross amount and its capped discount.
// Voided lines contribute nothing.
func LineAmounts(line Line, maxItemDiscountPercent float64) (gross float64, discount float64, capped bool) {
	if line.Voided || line.Quantity <= 0 {
		return 0, 0, false
	}
	gross = money.Round2(float64(line.Quantity) * line.UnitPrice)

	switch line.DiscountType {
	case DiscountPercentage:
		discount = money.PercentOf(gross, line.DiscountValue)
	case DiscountFixed:
		discount = money.Round2(line.DiscountValue)
	default:
		discount = money.Round2(line.DiscountAmount)
	}
	if discount <= 0 {
		return gross, 0, false
	}
	discount, capped = money.CapPercentAmount(discount, gross, maxItemDiscountPercent)
	if discount > gross {
		discount = gross
		capped = true
	}
	return gross, discount, capped
}

// Compute runs the full recalculation pipeline over one snapshot of lines:
// subtotal -> discount -> taxable base -> tax -> total. All steps round to 2dp.
func Compute(in Input) Totals {
	var t Totals

	for _, line := range in.Lines {
		gross, lineDiscount, capped := LineAmounts(line, in.MaxItemDiscountPercent)
		t.Subtotal = money.Round2(t.Subtotal + gross)
		t.ItemDiscount = money.Round2(t.ItemDiscount + lineDiscount)
		if capped {
			t.DiscountCapped = true
		}
	}

	switch in.DiscountType {
	case DiscountPercentage:
		pct := money.ClampPercent(in.DiscountValue)
		t.OrderDiscount = money.PercentOf(t.Subtotal, pct)
		applied, capped := money.CapPercentAmount(t.OrderDiscount, t.Subtotal, in.MaxDiscountPercent)
		t.OrderDiscount = applied
		if capped {
			t.DiscountCapped = true
		}
	case DiscountFixed:
		t.OrderDiscount = money.Round2(in.DiscountValue)
		if t.OrderDiscount > t.Subtotal {
			t.OrderDiscount = t.Subtotal
			t.DiscountCapped = true
		}
	}

	t.DiscountAmount = money.Round2(t.OrderDiscount + t.ItemDiscount)
	if t.DiscountAmount > t.Subtotal {
		t.DiscountAmount = t.Subtotal
		t.DiscountCapped = true
	}

	t.ServiceCharge = money.Round2(in.ServiceCharge)
	t.TaxableBase = money.Round2(t.Subtotal - t.DiscountAmount + t.ServiceCharge)
	t.TaxAmount = money.PercentOf(t.TaxableBase, in.TaxRate)
	t.TipAmount = money.Round2(in.TipAmount)
	t.Total = money.Round2(t.TaxableBase + t.TaxAmount + t.TipAmount)
	return t
}

// BaseAmount is the denominator for tip-percent math: subtotal minus discount.
func BaseAmount(t Totals) float64 {
	return money.Round2(t.Subtotal - t.DiscountAmount)
}

// TipFromPercent computes a tip as a percentage of base, bounded by maxPercent.
func TipFromPercent(base float64, pct float64, maxPercent float64) (amount float64, appliedPercent float64, capped bool, err error) {
	if base <= 0 {
		return 0, 0, false, ErrZeroValueOrder
	}
	appliedPercent = money.ClampPercent(pct)
	if appliedPercent > maxPercent {
		appliedPercent = maxPercent
		capped = true
	}
	return money.PercentOf(base, appliedPercent), appliedPercent, capped, nil
}

// CapTipAmount bounds a fixed tip so its effective percent of base never
// exceeds maxPercent.
func CapTipAmount(amount float64, base float64, maxPercent float64) (applied float64, effectivePercent float64, capped bool, err error) {
	if base <= 0 {
		return 0, 0, false, ErrZeroValueOrder
	}
	applied, capped = money.CapPercentAmount(amount, base, maxPercent)
	return applied, money.EffectivePercent(applied, base), capped, nil
}
