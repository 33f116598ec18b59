package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/producer"
	"github.com/devrihan/xeno-shopify/internal/repository"
)

// Syncer is the producer surface the ops API needs.
type Syncer interface {
	SyncTenant(ctx context.Context, t model.Tenant) (int64, error)
	SyncAll(ctx context.Context) (producer.RunStats, error)
}

type onboardReq struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
}

// onboardTenantHandler registers a tenant and fires its first sync in the
// background; the response does not wait for the sync.
func onboardTenantHandler(tenants repository.TenantsRepository, sync Syncer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req onboardReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.ShopDomain = strings.ToLower(strings.TrimSpace(req.ShopDomain))
		req.AccessToken = strings.TrimSpace(req.AccessToken)
		if req.ShopDomain == "" || req.AccessToken == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "shop_domain and access_token are required"})
		}

		if err := tenants.Upsert(c.Request().Context(), req.ShopDomain, req.AccessToken); err != nil {
			log.Errorf("tenant upsert failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		t := model.Tenant{ShopDomain: req.ShopDomain, AccessToken: req.AccessToken}
		go func() {
			// detached from the request lifetime
			if _, err := sync.SyncTenant(context.Background(), t); err != nil {
				logger.Log.Warn("onboarding sync failed",
					zap.String("shop_domain", t.ShopDomain), zap.Error(err))
			}
		}()

		return c.JSON(http.StatusCreated, map[string]any{
			"shop_domain": req.ShopDomain,
			"sync":        "started",
		})
	}
}

// triggerSyncHandler kicks a full background run across all tenants.
func triggerSyncHandler(sync Syncer) echo.HandlerFunc {
	return func(c echo.Context) error {
		go func() {
			if _, err := sync.SyncAll(context.Background()); err != nil {
				logger.Log.Error("manual sync failed", zap.Error(err))
			}
		}()

		return c.JSON(http.StatusAccepted, map[string]string{"sync": "started"})
	}
}
