package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/notify"
)

type checkoutGetter interface {
	Get(ctx context.Context, shopDomain string, externalID int64) (*model.Checkout, error)
}

// RecoverySender delivers recovery notifications (see internal/notify).
type RecoverySender interface {
	Send(ctx context.Context, r notify.Recovery) error
}

type recoverReq struct {
	ShopDomain string `json:"shop_domain"`
	CheckoutID int64  `json:"checkout_id"`
	Email      string `json:"email"` // optional override of the stored email
}

// recoverCheckoutHandler triggers a recovery notification for one abandoned
// checkout. The email resolves from the request body first, then the stored
// customer_email; with neither, the action is rejected.
func recoverCheckoutHandler(checkouts checkoutGetter, sender RecoverySender) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req recoverReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.ShopDomain = strings.ToLower(strings.TrimSpace(req.ShopDomain))
		req.Email = strings.TrimSpace(req.Email)
		if req.ShopDomain == "" || req.CheckoutID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "shop_domain and checkout_id are required"})
		}

		chk, err := checkouts.Get(c.Request().Context(), req.ShopDomain, req.CheckoutID)
		if err != nil {
			log.Errorf("checkout lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if chk == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "checkout not found"})
		}

		email := req.Email
		if email == "" && chk.CustomerEmail != nil {
			email = *chk.CustomerEmail
		}
		if email == "" {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"error": "checkout has no resolvable email",
			})
		}

		err = sender.Send(c.Request().Context(), notify.Recovery{
			ShopDomain:  req.ShopDomain,
			CheckoutID:  req.CheckoutID,
			Email:       email,
			RecoveryURL: chk.RecoveryURL,
		})
		if err != nil {
			log.Errorf("recovery send failed: %v", err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "delivery failed"})
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"checkout_id": req.CheckoutID,
			"email":       email,
			"recovery":    "sent",
		})
	}
}
