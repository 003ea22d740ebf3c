package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lab-inventory-backend/config"
	"lab-inventory-backend/internal/mw"
	"lab-inventory-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg config.ServerConfig, logger *zap.Logger) (*gin.Engine, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	r := gin.New()
	r.Use(mw.Logger(logger), gin.Recovery())

	reports := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	caching := reports.Serve()
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	handler := NewHandler(s, loc, cfg.HistoryMaxLimit, logger)

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter, reports.FlushOnWrite())
	{
		api.GET("/reservations", handler.ListReservations)
		api.POST("/reservations", handler.CreateReservation)
		api.DELETE("/reservations/:id", handler.DeleteReservation)

		api.GET("/history", handler.ListHistory)
		api.POST("/history", handler.RecordHistory)

		api.GET("/loans", handler.ListLoans)
		api.POST("/loans", handler.CreateLoan)
		api.POST("/loans/:id/return", handler.ReturnLoan)

		api.GET("/reports", caching, handler.GetReport)
		api.GET("/reports/export", caching, handler.ExportReport)
	}

	return r, nil
}
