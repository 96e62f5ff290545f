package money

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(value float64) float64 {
	out, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return out
}

// ClampPercent forces a percentage into [0, 100].
func ClampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// PercentOf returns pct% of base, rounded.
func PercentOf(base float64, pct float64) float64 {
	b := decimal.NewFromFloat(base)
	p := decimal.NewFromFloat(ClampPercent(pct)).Div(decimal.NewFromInt(100))
	out, _ := b.Mul(p).Round(2).Float64()
	return out
}

// CapPercentAmount bounds amount so it never exceeds maxPercent of base.
// The excess is cut, not rejected; capped reports whether a cut happened.
func CapPercentAmount(amount float64, base float64, maxPercent float64) (float64, bool) {
	if base <= 0 {
		return 0, amount > 0
	}
	ceiling := PercentOf(base, maxPercent)
	if amount > ceiling {
		return ceiling, true
	}
	return Round2(amount), false
}

// EffectivePercent returns amount as a percentage of base (0 when base is 0).
func EffectivePercent(amount float64, base float64) float64 {
	if base <= 0 {
		return 0
	}
	b := decimal.NewFromFloat(base)
	a := decimal.NewFromFloat(amount)
	out, _ := a.Div(b).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return out
}
