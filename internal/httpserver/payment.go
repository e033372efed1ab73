package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/payment"
	"github.com/Skotchmaster/pharmacy_storefront/internal/session"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type verifier interface {
	Verify(ctx context.Context, returnURL string) (*payment.Confirmation, error)
}

type PaymentHTTP struct {
	Verifier verifier
}

type paymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   string `json:"order,omitempty"`
}

// VNPayReturn is where the gateway redirects the browser after payment.
func (h *PaymentHTTP) VNPayReturn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.vnpay_return")

	returnURL := c.Request().URL.String()
	if !payment.IsCallback(returnURL) {
		l.Warn("vnpay_return_failed", "status", 400, "reason", "no vnp_ params")
		return c.JSON(http.StatusBadRequest, paymentResponse{Message: messages.PaymentVerifyFailed})
	}

	conf, err := h.Verifier.Verify(ctx, returnURL)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, payment.ErrNoParams):
			status = http.StatusBadRequest
		case errors.Is(err, payment.ErrPaymentNotConfirmed):
			status = http.StatusPaymentRequired
		case errors.Is(err, session.ErrLoginRequired):
			status = http.StatusUnauthorized
		}
		l.Warn("vnpay_return_failed", "status", status, "error", err)
		return c.JSON(status, paymentResponse{Message: messages.Text(err, messages.PaymentVerifyFailed)})
	}

	l.Info("vnpay_return", "status", "ok", "order", conf.OrderRef)
	return c.JSON(http.StatusOK, paymentResponse{Success: true, Message: messages.OrderPlaced, Order: conf.OrderRef})
}
