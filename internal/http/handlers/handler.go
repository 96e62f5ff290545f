package handlers

import (
	"servepoint-pos-service/internal/audit"
	"servepoint-pos-service/internal/config"
	"servepoint-pos-service/internal/kds"
	"servepoint-pos-service/internal/tables"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
	Audit  *audit.Sink
	Tables *tables.Service
	KDS    *kds.Hub
}
