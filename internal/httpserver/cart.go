package httpserver

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/pharmacy_storefront/internal/cart"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type cartReader interface {
	Items(ctx context.Context) ([]cart.Item, error)
}

type CartHTTP struct {
	Cart cartReader
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	items, err := h.Cart.Items(ctx)
	if err != nil {
		l.Error("get_cart_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read cart")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items": items,
		"total": cart.Total(items, nil),
	})
}
