package audit

import (
	"context"
	"time"

	"servepoint-pos-service/internal/queue"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Entry is one append-only audit record describing a committed mutation.
type Entry struct {
	TenantID int64          `json:"tenantId"`
	BranchID int64          `json:"branchId"`
	OrderID  int64          `json:"orderId"`
	UserID   int64          `json:"userId"`
	Action   string         `json:"action"`
	Details  map[string]any `json:"details,omitempty"`
}

// Sink writes audit records after the business transaction has committed.
// Every write here is fire-and-forget: a failed audit row or publish is
// logged and dropped, it can never undo the mutation it describes.
type Sink struct {
	DB     *pgxpool.Pool
	Queue  *queue.Client
	Logger *zap.Logger
}

func NewSink(db *pgxpool.Pool, q *queue.Client, logger *zap.Logger) *Sink {
	return &Sink{DB: db, Queue: q, Logger: logger}
}

const eventsExchange = "pos.events"

func (s *Sink) Record(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if s.DB != nil {
			_, err := s.DB.Exec(ctx, `
				insert into audit_log (tenant_id, branch_id, order_id, user_id, action, details, created_at)
				values ($1,$2,$3,$4,$5,$6,now())
			`, entry.TenantID, entry.BranchID, entry.OrderID, entry.UserID, entry.Action, entry.Details)
			if err != nil {
				s.Logger.Warn("audit log write failed",
					zap.Int64("orderId", entry.OrderID),
					zap.String("action", entry.Action),
					zap.Error(err))
			}
		}

		if s.Queue != nil {
			if err := s.Queue.PublishJSON(ctx, eventsExchange, "order."+entry.Action, entry); err != nil {
				s.Logger.Warn("audit event publish failed",
					zap.Int64("orderId", entry.OrderID),
					zap.String("action", entry.Action),
					zap.Error(err))
			}
		}
	}()
}
