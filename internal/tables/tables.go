package tables

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Service flips dining-table occupancy as a side effect of park, resume,
// pay and void. Table state is a convenience view, not the source of truth
// for money, so failures are logged and swallowed.
type Service struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
}

func NewService(db *pgxpool.Pool, logger *zap.Logger) *Service {
	return &Service{DB: db, Logger: logger}
}

func (s *Service) Release(tenantID, branchID int64, tableID *int64) {
	if tableID == nil {
		return
	}
	s.update(tenantID, branchID, *tableID, "AVAILABLE")
}

func (s *Service) Occupy(tenantID, branchID, tableID int64) {
	s.update(tenantID, branchID, tableID, "OCCUPIED")
}

func (s *Service) update(tenantID, branchID, tableID int64, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := s.DB.Exec(ctx, `
			update dining_tables
			set status = $1, updated_at = now()
			where id = $2 and tenant_id = $3 and branch_id = $4
		`, status, tableID, tenantID, branchID)
		if err != nil {
			s.Logger.Warn("table status sync failed",
				zap.Int64("tableId", tableID),
				zap.String("status", status),
				zap.Error(err))
		}
	}()
}
