package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Payment struct {
	ID           int64
	OrderID      int64
	Method       string
	Amount       float64
	Reference    *string
	Status       string
	PaidByUserID *int64
	PaidAt       *time.Time
}

const (
	PaymentCompleted = "COMPLETED"
	PaymentRefunded  = "REFUNDED"
)

// InsertPayment records one immutable settlement entry.
func InsertPayment(ctx context.Context, q Querier, p *Payment) error {
	return q.QueryRow(ctx, `
		insert into payments (order_id, payment_method, amount, reference, status, paid_by_user_id, paid_at)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning id
	`, p.OrderID, p.Method, p.Amount, p.Reference, p.Status, p.PaidByUserID, p.PaidAt).Scan(&p.ID)
}

func ListPayments(ctx context.Context, q Querier, orderID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `
		select id, order_id, payment_method, amount, reference, status, paid_by_user_id, paid_at
		from payments
		where order_id = $1
		order by id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		var (
			p         Payment
			amount    pgtype.Numeric
			reference pgtype.Text
			paidBy    pgtype.Int8
			paidAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &amount, &reference, &p.Status, &paidBy, &paidAt); err != nil {
			return nil, err
		}
		p.Amount = numericToFloat64(amount)
		if reference.Valid {
			p.Reference = &reference.String
		}
		if paidBy.Valid {
			p.PaidByUserID = &paidBy.Int64
		}
		if paidAt.Valid {
			p.PaidAt = &paidAt.Time
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkPaymentsRefunded flips every completed payment row of the order.
func MarkPaymentsRefunded(ctx context.Context, q Querier, orderID int64) error {
	_, err := q.Exec(ctx, `
		update payments set status = 'REFUNDED' where order_id = $1 and status = 'COMPLETED'
	`, orderID)
	return err
}

func formatOrderNumber(branchID int64, seq int64) string {
	return fmt.Sprintf("POS-%d-%06d", branchID, seq)
}
