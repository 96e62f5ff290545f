package httpapi

import (
	"net/http"
	"time"

	"servepoint-pos-service/internal/audit"
	"servepoint-pos-service/internal/config"
	"servepoint-pos-service/internal/http/handlers"
	"servepoint-pos-service/internal/kds"
	"servepoint-pos-service/internal/middleware"
	"servepoint-pos-service/internal/tables"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, auditSink *audit.Sink, tableService *tables.Service, kdsHub *kds.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}
		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}
		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:     db,
		Logger: logger,
		Config: cfg,
		Audit:  auditSink,
		Tables: tableService,
		KDS:    kdsHub,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/pos", func(r chi.Router) {
		r.Use(middleware.POSAuth(db, cfg.JWTSecret))

		r.Get("/orders/{id}", h.OrderDetail)
		r.Get("/kds/stream", h.KDSStream)

		mutation := func(r chi.Router, op string, pattern string, handlerFn http.HandlerFunc) {
			r.With(limiter.Limit(op)).Post(pattern, handlerFn)
		}

		mutation(r, "create", "/orders", h.OrderCreate)
		r.With(limiter.Limit("items")).Put("/orders/items", h.OrderItemsUpdate)
		mutation(r, "fire", "/orders/fire", h.OrderFire)
		mutation(r, "discount", "/orders/discount", h.OrderDiscount)
		mutation(r, "item-discount", "/orders/items/discount", h.OrderItemDiscount)
		mutation(r, "tip", "/orders/tip", h.OrderTip)
		mutation(r, "service-charge", "/orders/service-charge", h.OrderServiceCharge)
		mutation(r, "item-void", "/orders/items/void", h.OrderItemVoid)
		mutation(r, "void", "/orders/void", h.OrderVoid)
		mutation(r, "park", "/orders/park", h.OrderPark)
		mutation(r, "resume", "/orders/resume", h.OrderResume)
		mutation(r, "pay", "/orders/pay", h.OrderPay)
		mutation(r, "refund", "/orders/refund", h.OrderRefund)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", r.Header.Get("X-Request-Id")),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
