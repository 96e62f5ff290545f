package tenant

import (
	"context"
	"errors"
	"time"

	"servepoint-pos-service/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Settings is the read-only per-tenant policy block consumed by the order
// mutations. Missing rows fall back to the service defaults.
type Settings struct {
	TaxRate                float64
	Currency               string
	TipEnabled             bool
	MaxTipPercent          float64
	MaxDiscountPercent     float64
	MaxItemDiscountPercent float64
	RefundApprovalPercent  float64
	MaxParkedOrders        int
	ParkExpiry             time.Duration
}

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func Defaults(cfg config.Config) Settings {
	return Settings{
		TaxRate:                cfg.DefaultTaxRatePercent,
		Currency:               cfg.DefaultCurrency,
		TipEnabled:             true,
		MaxTipPercent:          cfg.DefaultMaxTipPercent,
		MaxDiscountPercent:     cfg.DefaultMaxDiscount,
		MaxItemDiscountPercent: cfg.DefaultMaxItemDiscount,
		RefundApprovalPercent:  cfg.DefaultRefundApproval,
		MaxParkedOrders:        cfg.DefaultMaxParkedOrders,
		ParkExpiry:             cfg.DefaultParkExpiry,
	}
}

func Load(ctx context.Context, db Querier, cfg config.Config, tenantID int64) (Settings, error) {
	s := Defaults(cfg)

	var (
		taxRate         pgtype.Numeric
		currency        pgtype.Text
		tipEnabled      pgtype.Bool
		maxTip          pgtype.Numeric
		maxDiscount     pgtype.Numeric
		maxItemDiscount pgtype.Numeric
		refundApproval  pgtype.Numeric
		maxParked       pgtype.Int4
		parkExpiryMins  pgtype.Int4
	)
	err := db.QueryRow(ctx, `
		select tax_rate, currency, tip_enabled, max_tip_percent, max_discount_percent,
		       max_item_discount_percent, refund_approval_percent, max_parked_orders, park_expiry_minutes
		from tenant_settings
		where tenant_id = $1
	`, tenantID).Scan(&taxRate, &currency, &tipEnabled, &maxTip, &maxDiscount, &maxItemDiscount, &refundApproval, &maxParked, &parkExpiryMins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, nil
		}
		return Settings{}, err
	}

	if taxRate.Valid {
		s.TaxRate = numericToFloat64(taxRate)
	}
	if currency.Valid && currency.String != "" {
		s.Currency = currency.String
	}
	if tipEnabled.Valid {
		s.TipEnabled = tipEnabled.Bool
	}
	if maxTip.Valid {
		s.MaxTipPercent = numericToFloat64(maxTip)
	}
	if maxDiscount.Valid {
		s.MaxDiscountPercent = numericToFloat64(maxDiscount)
	}
	if maxItemDiscount.Valid {
		s.MaxItemDiscountPercent = numericToFloat64(maxItemDiscount)
	}
	if refundApproval.Valid {
		s.RefundApprovalPercent = numericToFloat64(refundApproval)
	}
	if maxParked.Valid && maxParked.Int32 > 0 {
		s.MaxParkedOrders = int(maxParked.Int32)
	}
	if parkExpiryMins.Valid && parkExpiryMins.Int32 > 0 {
		s.ParkExpiry = time.Duration(parkExpiryMins.Int32) * time.Minute
	}
	return s, nil
}

func numericToFloat64(value pgtype.Numeric) float64 {
	f, err := value.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}
