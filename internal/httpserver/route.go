package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	PaymentHandler *PaymentHTTP
	CartHandler    *CartHTTP
	// Ready reports whether local storage answers; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/payment/vnpay-return", d.PaymentHandler.VNPayReturn)
	e.GET("/cart", d.CartHandler.GetCart)
}
