package store

import (
	"context"
	"errors"
	"time"

	"servepoint-pos-service/internal/pricing"
	"servepoint-pos-service/internal/state"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID       int64
	TenantID int64
	BranchID int64

	OrderNumber string
	OrderType   string
	TableID     *int64

	Status        state.Status
	PaymentStatus state.PaymentStatus

	Subtotal       float64
	DiscountType   string
	DiscountValue  float64
	DiscountAmount float64
	TaxAmount      float64
	ServiceCharge  float64
	TipAmount      float64
	TotalAmount    float64
	PaidAmount     float64

	Parked        bool
	ParkLabel     *string
	ParkCategory  *string
	ParkPriority  *int32
	ParkExpiresAt *time.Time

	CreatedByUserID int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PaidAt          *time.Time
	VoidedAt        *time.Time
	ResumedAt       *time.Time
}

type Line struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Name      string

	Quantity       int32
	UnitPrice      float64
	DiscountType   string
	DiscountValue  float64
	DiscountAmount float64
	LineTotal      float64

	IsVoided      bool
	KitchenStatus state.KitchenStatus
	FiredAt       *time.Time
	CourseNo      *int32
	Notes         *string
	Rush          bool
}

const orderColumns = `
	id, tenant_id, branch_id, order_number, order_type, table_id,
	status, payment_status,
	subtotal, discount_type, discount_value, discount_amount,
	tax_amount, service_charge, tip_amount, total_amount, paid_amount,
	parked, park_label, park_category, park_priority, park_expires_at,
	created_by_user_id, created_at, updated_at, paid_at, voided_at, resumed_at
`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o             Order
		tableID       pgtype.Int8
		status        string
		paymentStatus string

		subtotal, discountValue, discountAmount pgtype.Numeric
		taxAmount, serviceCharge, tipAmount     pgtype.Numeric
		totalAmount, paidAmount                 pgtype.Numeric

		discountType pgtype.Text
		parkLabel    pgtype.Text
		parkCategory pgtype.Text
		parkPriority pgtype.Int4
		parkExpires  pgtype.Timestamptz
		paidAt       pgtype.Timestamptz
		voidedAt     pgtype.Timestamptz
		resumedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&o.ID, &o.TenantID, &o.BranchID, &o.OrderNumber, &o.OrderType, &tableID,
		&status, &paymentStatus,
		&subtotal, &discountType, &discountValue, &discountAmount,
		&taxAmount, &serviceCharge, &tipAmount, &totalAmount, &paidAmount,
		&o.Parked, &parkLabel, &parkCategory, &parkPriority, &parkExpires,
		&o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt, &paidAt, &voidedAt, &resumedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	o.Status = state.Status(status)
	o.PaymentStatus = state.PaymentStatus(paymentStatus)
	o.Subtotal = numericToFloat64(subtotal)
	o.DiscountValue = numericToFloat64(discountValue)
	o.DiscountAmount = numericToFloat64(discountAmount)
	o.TaxAmount = numericToFloat64(taxAmount)
	o.ServiceCharge = numericToFloat64(serviceCharge)
	o.TipAmount = numericToFloat64(tipAmount)
	o.TotalAmount = numericToFloat64(totalAmount)
	o.PaidAmount = numericToFloat64(paidAmount)

	if tableID.Valid {
		o.TableID = &tableID.Int64
	}
	if discountType.Valid {
		o.DiscountType = discountType.String
	}
	if parkLabel.Valid {
		o.ParkLabel = &parkLabel.String
	}
	if parkCategory.Valid {
		o.ParkCategory = &parkCategory.String
	}
	if parkPriority.Valid {
		o.ParkPriority = &parkPriority.Int32
	}
	if parkExpires.Valid {
		o.ParkExpiresAt = &parkExpires.Time
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if voidedAt.Valid {
		o.VoidedAt = &voidedAt.Time
	}
	if resumedAt.Valid {
		o.ResumedAt = &resumedAt.Time
	}
	return &o, nil
}

// GetOrderForUpdate locks exactly one order row. Tenant and branch are part
// of the predicate on every access, never optional.
func GetOrderForUpdate(ctx context.Context, q Querier, tenantID, branchID, orderID int64) (*Order, error) {
	row := q.QueryRow(ctx, `
		select `+orderColumns+`
		from orders
		where id = $1 and tenant_id = $2 and branch_id = $3
		for update
	`, orderID, tenantID, branchID)
	return scanOrder(row)
}

func GetOrder(ctx context.Context, q Querier, tenantID, branchID, orderID int64) (*Order, error) {
	row := q.QueryRow(ctx, `
		select `+orderColumns+`
		from orders
		where id = $1 and tenant_id = $2 and branch_id = $3
	`, orderID, tenantID, branchID)
	return scanOrder(row)
}

const lineColumns = `
	id, order_id, product_id, name, quantity, unit_price,
	discount_type, discount_value, discount_amount, line_total,
	is_voided, kitchen_status, fired_at, course_no, notes, rush
`

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	lines := make([]Line, 0)
	for rows.Next() {
		var (
			l              Line
			unitPrice      pgtype.Numeric
			discountType   pgtype.Text
			discountValue  pgtype.Numeric
			discountAmount pgtype.Numeric
			lineTotal      pgtype.Numeric
			kitchenStatus  string
			firedAt        pgtype.Timestamptz
			courseNo       pgtype.Int4
			notes          pgtype.Text
		)
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Quantity, &unitPrice,
			&discountType, &discountValue, &discountAmount, &lineTotal,
			&l.IsVoided, &kitchenStatus, &firedAt, &courseNo, &notes, &l.Rush,
		); err != nil {
			return nil, err
		}
		l.UnitPrice = numericToFloat64(unitPrice)
		l.DiscountValue = numericToFloat64(discountValue)
		l.DiscountAmount = numericToFloat64(discountAmount)
		l.LineTotal = numericToFloat64(lineTotal)
		l.KitchenStatus = state.KitchenStatus(kitchenStatus)
		if discountType.Valid {
			l.DiscountType = discountType.String
		}
		if firedAt.Valid {
			l.FiredAt = &firedAt.Time
		}
		if courseNo.Valid {
			l.CourseNo = &courseNo.Int32
		}
		if notes.Valid {
			l.Notes = &notes.String
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func GetLines(ctx context.Context, q Querier, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		select `+lineColumns+`
		from order_lines
		where order_id = $1
		order by id
	`, orderID)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

// GetLinesForUpdate locks the order's line rows alongside the order row for
// item-scoped mutations.
func GetLinesForUpdate(ctx context.Context, q Querier, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		select `+lineColumns+`
		from order_lines
		where order_id = $1
		order by id
		for update
	`, orderID)
	if err != nil {
		return nil, err
	}
	return scanLines(rows)
}

func InsertOrder(ctx context.Context, q Querier, o *Order) error {
	return q.QueryRow(ctx, `
		insert into orders (
			tenant_id, branch_id, order_number, order_type, table_id,
			status, payment_status, subtotal, discount_amount, tax_amount,
			service_charge, tip_amount, total_amount, paid_amount,
			parked, created_by_user_id, created_at, updated_at
		)
		values ($1,$2,$3,$4,$5,$6,$7,0,0,0,0,0,0,0,false,$8,now(),now())
		returning id, created_at, updated_at
	`, o.TenantID, o.BranchID, o.OrderNumber, o.OrderType, o.TableID,
		string(o.Status), string(o.PaymentStatus), o.CreatedByUserID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func InsertLine(ctx context.Context, q Querier, l *Line) error {
	return q.QueryRow(ctx, `
		insert into order_lines (
			order_id, product_id, name, quantity, unit_price,
			discount_type, discount_value, discount_amount, line_total,
			is_voided, kitchen_status, course_no, notes, rush
		)
		values ($1,$2,$3,$4,$5,nullif($6,''),$7,$8,$9,false,$10,$11,$12,$13)
		returning id
	`, l.OrderID, l.ProductID, l.Name, l.Quantity, l.UnitPrice,
		l.DiscountType, l.DiscountValue, l.DiscountAmount, l.LineTotal,
		string(l.KitchenStatus), l.CourseNo, l.Notes, l.Rush,
	).Scan(&l.ID)
}

func DeleteLine(ctx context.Context, q Querier, orderID, lineID int64) error {
	tag, err := q.Exec(ctx, `delete from order_lines where id = $1 and order_id = $2`, lineID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTotals writes one recomputation result back to the order row.
func UpdateTotals(ctx context.Context, q Querier, orderID int64, t pricing.Totals, discountType string, discountValue float64) error {
	_, err := q.Exec(ctx, `
		update orders
		set subtotal = $1, discount_type = nullif($2,''), discount_value = $3, discount_amount = $4,
		    tax_amount = $5, service_charge = $6, tip_amount = $7, total_amount = $8, updated_at = now()
		where id = $9
	`, t.Subtotal, discountType, discountValue, t.DiscountAmount,
		t.TaxAmount, t.ServiceCharge, t.TipAmount, t.Total, orderID)
	return err
}

func UpdateLineDiscount(ctx context.Context, q Querier, lineID int64, discountType string, discountValue, discountAmount, lineTotal float64) error {
	_, err := q.Exec(ctx, `
		update order_lines
		set discount_type = nullif($1,''), discount_value = $2, discount_amount = $3, line_total = $4
		where id = $5
	`, discountType, discountValue, discountAmount, lineTotal, lineID)
	return err
}

func VoidLine(ctx context.Context, q Querier, lineID int64) error {
	_, err := q.Exec(ctx, `update order_lines set is_voided = true where id = $1`, lineID)
	return err
}

// FireLines flips the selected lines to PREPARING and stamps fired_at. Only
// PENDING lines are eligible, which is what makes a retried fire a no-op.
func FireLines(ctx context.Context, q Querier, orderID int64, lineIDs []int64, firedAt time.Time) error {
	if len(lineIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		update order_lines
		set kitchen_status = 'PREPARING', fired_at = $1
		where order_id = $2 and id = any($3) and kitchen_status = 'PENDING'
	`, firedAt, orderID, lineIDs)
	return err
}

func UpdateLineFireNotes(ctx context.Context, q Querier, lineID int64, notes *string, rush bool) error {
	_, err := q.Exec(ctx, `update order_lines set notes = coalesce($1, notes), rush = $2 where id = $3`, notes, rush, lineID)
	return err
}

func ParkOrder(ctx context.Context, q Querier, orderID int64, label, category string, priority int32, expiresAt time.Time) error {
	_, err := q.Exec(ctx, `
		update orders
		set status = 'HELD', parked = true, park_label = nullif($1,''), park_category = nullif($2,''),
		    park_priority = $3, park_expires_at = $4, table_id = null, updated_at = now()
		where id = $5
	`, label, category, priority, expiresAt, orderID)
	return err
}

func ResumeOrder(ctx context.Context, q Querier, orderID int64, tableID *int64) error {
	_, err := q.Exec(ctx, `
		update orders
		set status = 'OPEN', parked = false, park_label = null, park_category = null,
		    park_priority = null, park_expires_at = null, table_id = $1, resumed_at = now(), updated_at = now()
		where id = $2
	`, tableID, orderID)
	return err
}

func MarkVoided(ctx context.Context, q Querier, orderID int64) error {
	_, err := q.Exec(ctx, `
		update orders
		set status = 'VOIDED', table_id = null, voided_at = now(), updated_at = now(),
		    parked = false, park_label = null, park_category = null, park_priority = null, park_expires_at = null
		where id = $1
	`, orderID)
	return err
}

func MarkRefunded(ctx context.Context, q Querier, orderID int64, paidAmount float64, paymentStatus state.PaymentStatus, terminal bool) error {
	if terminal {
		_, err := q.Exec(ctx, `
			update orders
			set status = 'REFUNDED', payment_status = $1, paid_amount = $2, table_id = null, updated_at = now(),
			    parked = false, park_label = null, park_category = null, park_priority = null, park_expires_at = null
			where id = $3
		`, string(paymentStatus), paidAmount, orderID)
		return err
	}
	_, err := q.Exec(ctx, `
		update orders
		set payment_status = $1, paid_amount = $2, updated_at = now()
		where id = $3
	`, string(paymentStatus), paidAmount, orderID)
	return err
}

// SettleOrder writes the accumulated paid amount. Paying in full completes
// the order; terminal writers also drop park state so a settled, voided or
// refunded row never stays parked past HELD.
func SettleOrder(ctx context.Context, q Querier, orderID int64, paidAmount float64, paymentStatus state.PaymentStatus, paidInFull bool) error {
	if paidInFull {
		_, err := q.Exec(ctx, `
			update orders
			set payment_status = $1, paid_amount = $2, status = 'COMPLETED', table_id = null,
			    paid_at = now(), updated_at = now(),
			    parked = false, park_label = null, park_category = null, park_priority = null, park_expires_at = null
			where id = $3
		`, string(paymentStatus), paidAmount, orderID)
		return err
	}
	_, err := q.Exec(ctx, `
		update orders
		set payment_status = $1, paid_amount = $2, updated_at = now()
		where id = $3
	`, string(paymentStatus), paidAmount, orderID)
	return err
}

func CountParked(ctx context.Context, q Querier, tenantID, branchID int64) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
		select count(*) from orders
		where tenant_id = $1 and branch_id = $2 and parked = true
	`, tenantID, branchID).Scan(&count)
	return count, err
}

// NextOrderNumber allocates a branch-scoped sequential order number.
func NextOrderNumber(ctx context.Context, q Querier, tenantID, branchID int64) (string, error) {
	var seq int64
	err := q.QueryRow(ctx, `
		insert into order_counters (tenant_id, branch_id, counter)
		values ($1, $2, 1)
		on conflict (tenant_id, branch_id)
		do update set counter = order_counters.counter + 1
		returning counter
	`, tenantID, branchID).Scan(&seq)
	if err != nil {
		return "", err
	}
	return formatOrderNumber(branchID, seq), nil
}
