package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/devrihan/xeno-shopify/internal/config"
	"github.com/devrihan/xeno-shopify/internal/http/middleware"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/repository"
)

type Server struct{ e *echo.Echo }

// NewServer wires the ops API: tenant onboarding, manual sync trigger, and
// the checkout recovery action. The reporting/query API lives elsewhere and
// only shares the storage schema.
func NewServer(cfg config.Config, mysqlDB *sqlx.DB, rds *redis.Client, sync Syncer, sender RecoverySender) *Server {
	tenantsRepo := repository.NewTenantsRepository(mysqlDB)
	checkoutsRepo := repository.NewCheckoutsRepository(mysqlDB)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	authMW := middleware.APIKeyMiddleware(cfg.HTTP.APIKey)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:     rds,
		RPS:       10,
		KeyPrefix: "rl:ops:",
		Window:    time.Second,
	})

	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/tenants", onboardTenantHandler(tenantsRepo, sync))
	v1.POST("/sync", triggerSyncHandler(sync))
	v1.POST("/checkouts/recover", recoverCheckoutHandler(checkoutsRepo, sender))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
