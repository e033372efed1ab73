// Package payment handles the VNPay return: it picks the gateway parameters
// out of the return URL and asks the backend to confirm the payment.
package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/Skotchmaster/pharmacy_storefront/internal/apiclient"
	"github.com/Skotchmaster/pharmacy_storefront/internal/events"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

const paramPrefix = "vnp_"

var (
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrNoParams            = errors.New("no gateway parameters")
)

// IsCallback reports whether u looks like a gateway return.
func IsCallback(u string) bool {
	return strings.Contains(u, paramPrefix)
}

// ParseReturnURL returns the vnp_ parameters of a return URL. Values are
// percent-decoded; '+' is kept as is.
func ParseReturnURL(u string) map[string]string {
	query := u
	if _, after, ok := strings.Cut(u, "?"); ok {
		query = after
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, paramPrefix) {
			continue
		}
		if dec, err := url.PathUnescape(value); err == nil {
			value = dec
		}
		params[key] = value
	}
	return params
}

type verifyAPI interface {
	VerifyPayment(ctx context.Context, token string, params map[string]string) (*apiclient.Verification, error)
}

type tokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// cartSettler drops the cart lines of a paid order.
type cartSettler interface {
	Settle(ctx context.Context, ref string, hints ...string) error
}

type Confirmation struct {
	OrderRef string
	Amount   string
	Message  string
}

type Verifier struct {
	API     verifyAPI
	Session tokenSource
	Cart    cartSettler
	Pub     events.Publisher

	mu   sync.Mutex
	done map[string]*Confirmation
}

// Verify confirms a gateway return with the backend. On success the lines
// of the paid order leave the cart. A return that was already confirmed is not sent again.
func (v *Verifier) Verify(ctx context.Context, returnURL string) (*Confirmation, error) {
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	params := ParseReturnURL(returnURL)
	if len(params) == 0 {
		l.Warn("verify_payment_failed", "reason", "no gateway params")
		return nil, messages.New(ErrNoParams, messages.PaymentVerifyFailed)
	}
	ref := params["vnp_TxnRef"]

	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.done[ref]; ok && ref != "" {
		l.Info("verify_payment_skipped", "reason", "already confirmed", "ref", ref)
		return c, nil
	}

	token, err := v.Session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	res, err := v.API.VerifyPayment(ctx, token, params)
	if err != nil {
		l.Error("verify_payment_failed", "reason", "transport", "ref", ref, "error", err)
		return nil, messages.New(err, messages.PaymentVerifyFailed)
	}
	if !res.Confirmed {
		l.Warn("verify_payment_failed", "status", res.Status, "reason", res.Message, "ref", ref)
		text := messages.PaymentNotConfirmed
		if res.Message != "" && res.Message != text {
			text += "\n" + res.Message
		}
		return nil, messages.New(ErrPaymentNotConfirmed, text)
	}

	if err := v.Cart.Settle(ctx, ref, params["vnp_OrderInfo"]); err != nil {
		l.Error("clear_cart_failed", "ref", ref, "error", err)
	}

	c := &Confirmation{OrderRef: ref, Amount: params["vnp_Amount"], Message: res.Message}
	if v.done == nil {
		v.done = make(map[string]*Confirmation)
	}
	if ref != "" {
		v.done[ref] = c
	}

	events.Emit(ctx, v.Pub, events.TopicOrder, events.New(events.TypePaymentVerified, "", map[string]any{
		"ref":    ref,
		"amount": c.Amount,
	}))
	l.Info("verify_payment", "status", "ok", "ref", ref)
	return c, nil
}
