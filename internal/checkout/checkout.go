// Package checkout turns the cart into a purchase order and starts payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/pharmacy_storefront/internal/apiclient"
	"github.com/Skotchmaster/pharmacy_storefront/internal/cart"
	"github.com/Skotchmaster/pharmacy_storefront/internal/events"
	"github.com/Skotchmaster/pharmacy_storefront/internal/locations"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/session"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

var (
	ErrValidation = errors.New("validation error")
	ErrEmptyCart  = errors.New("empty cart")
)

type Recipient struct {
	Name  string
	Phone string
	Email string
}

type Address struct {
	Province string
	District string
	Ward     string
	Detail   string
}

func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Detail, a.Ward, a.District, a.Province} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Request struct {
	Payment   PaymentMethod
	Delivery  DeliveryMethod
	Recipient Recipient
	Address   Address
	Pharmacy  string
	Note      string
	// ItemIDs limits the order to these cart lines; nil orders the whole cart.
	ItemIDs []string
}

type Status string

const (
	StatusPlaced          Status = "placed"
	StatusAwaitingPayment Status = "awaiting_payment"
)

type Outcome struct {
	Status     Status
	OrderCode  string
	Amount     float64
	PaymentURL string
}

// BuildOrder validates the request and assembles the order body.
func BuildOrder(items []cart.Item, req Request) (apiclient.OrderRequest, error) {
	if len(items) == 0 {
		return apiclient.OrderRequest{}, messages.New(ErrEmptyCart, messages.CartEmpty)
	}

	switch req.Delivery {
	case DeliveryStore:
		if strings.TrimSpace(req.Pharmacy) == "" {
			return apiclient.OrderRequest{}, messages.New(ErrValidation, messages.PharmacyRequired)
		}
	default:
		r := req.Recipient
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Phone) == "" || strings.TrimSpace(req.Address.Detail) == "" {
			return apiclient.OrderRequest{}, messages.New(ErrValidation, messages.RecipientRequired)
		}
		if !session.ValidPhone(strings.TrimSpace(r.Phone)) {
			return apiclient.OrderRequest{}, messages.New(ErrValidation, messages.InvalidPhone)
		}
	}

	total := cart.Total(items, nil)
	out := apiclient.OrderRequest{
		PaymentMethod:  req.Payment.Label(),
		DeliveryMethod: req.Delivery.Label(),
		Subtotal:       total,
		Total:          total,
		RecipientName:  strings.TrimSpace(req.Recipient.Name),
		RecipientPhone: strings.TrimSpace(req.Recipient.Phone),
		RecipientEmail: strings.TrimSpace(req.Recipient.Email),
		Note:           strings.TrimSpace(req.Note),
		Details:        make([]apiclient.OrderLine, 0, len(items)),
	}
	if req.Delivery == DeliveryStore {
		out.Branch = strings.TrimSpace(req.Pharmacy)
	} else {
		out.Address = req.Address.String()
	}
	for _, it := range items {
		out.Details = append(out.Details, apiclient.OrderLine{
			ProductCode: it.ProductCode,
			Quantity:    it.Qty(),
			Price:       it.Price(),
			Unit:        it.UnitName(),
		})
	}
	return out, nil
}

type API interface {
	CreatePurchaseOrder(ctx context.Context, token string, req apiclient.OrderRequest) (*apiclient.CreatedOrder, error)
	CreatePaymentURL(ctx context.Context, token string, amount float64, code string) (string, error)
	FindPharmacies(ctx context.Context, province, district string) ([]models.Pharmacy, error)
}

type Session interface {
	RequireLogin(ctx context.Context) (*session.User, error)
	Profile(ctx context.Context) (*models.UserProfile, error)
}

type Cart interface {
	Items(ctx context.Context) ([]cart.Item, error)
	Clear(ctx context.Context) error
	RemoveMany(ctx context.Context, ids []string) error
	Reserve(ctx context.Context, code string, ids []string) error
}

type CheckoutService struct {
	API     API
	Session Session
	Cart    Cart
	Pub     events.Publisher
}

// Prefill proposes recipient details from the user's profile. When the
// profile cannot be loaded the session phone is still offered.
func (s *CheckoutService) Prefill(ctx context.Context) (Recipient, error) {
	u, err := s.Session.RequireLogin(ctx)
	if err != nil {
		return Recipient{}, err
	}
	r := Recipient{Name: u.Name, Phone: u.Phone}

	p, err := s.Session.Profile(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("prefill_failed", "reason", "profile", "error", err)
		return r, nil
	}
	if p.FullName != "" {
		r.Name = p.FullName
	}
	if p.Phone != "" {
		r.Phone = p.Phone
	}
	r.Email = p.Email
	return r, nil
}

// Pharmacies lists pickup branches of a district. Names may carry their
// administrative prefix.
func (s *CheckoutService) Pharmacies(ctx context.Context, province, district string) ([]models.Pharmacy, error) {
	if strings.TrimSpace(province) == "" || strings.TrimSpace(district) == "" {
		return []models.Pharmacy{}, nil
	}
	ps, err := s.API.FindPharmacies(ctx, locations.CleanName(province), locations.CleanName(district))
	if err != nil {
		logging.FromContext(ctx).Warn("find_pharmacies_failed", "province", province, "district", district, "error", err)
		return nil, err
	}
	return ps, nil
}

func (s *CheckoutService) PlaceOrder(ctx context.Context, req Request) (*Outcome, error) {
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")

	u, err := s.Session.RequireLogin(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.Cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	items := all
	if req.ItemIDs != nil {
		items = cart.NewSelection(req.ItemIDs...).Selected(all)
	}

	body, err := BuildOrder(items, req)
	if err != nil {
		l.Warn("place_order_failed", "status", 400, "reason", err.Error())
		return nil, err
	}

	created, err := s.API.CreatePurchaseOrder(ctx, u.Token, body)
	if err != nil {
		l.Error("place_order_failed", "reason", "create order", "error", err)
		return nil, orderFailed(err)
	}
	amount := created.Amount
	if amount == 0 {
		amount = body.Total
	}
	out := &Outcome{OrderCode: created.Code, Amount: amount}

	events.Emit(ctx, s.Pub, events.TopicOrder, events.New(events.TypeOrderPlaced, u.Phone, map[string]any{
		"order":    created.Code,
		"amount":   amount,
		"payment":  string(req.Payment),
		"delivery": string(req.Delivery),
		"lines":    len(body.Details),
	}))

	whole := req.ItemIDs == nil || len(items) == len(all)

	if req.Payment == PaymentVNPay {
		var ids []string
		if !whole {
			ids = make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
		}
		if err := s.Cart.Reserve(ctx, created.Code, ids); err != nil {
			l.Error("reserve_cart_failed", "order", created.Code, "error", err)
		}

		payURL, err := s.API.CreatePaymentURL(ctx, u.Token, amount, created.Code)
		if err != nil {
			l.Error("create_payment_url_failed", "order", created.Code, "error", err)
			return nil, paymentURLFailed(err)
		}
		out.Status = StatusAwaitingPayment
		out.PaymentURL = payURL
		l.Info("place_order", "status", "awaiting_payment", "order", created.Code)
		return out, nil
	}

	if whole {
		err = s.Cart.Clear(ctx)
	} else {
		err = s.Cart.RemoveMany(ctx, req.ItemIDs)
	}
	if err != nil {
		l.Error("clear_cart_failed", "order", created.Code, "error", err)
	}

	out.Status = StatusPlaced
	l.Info("place_order", "status", "ok", "order", created.Code)
	return out, nil
}

func orderFailed(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return messages.New(err, fmt.Sprintf(messages.OrderFailed, apiErr.Message))
	}
	return messages.New(err, messages.NetworkError)
}

func paymentURLFailed(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		text := messages.PaymentURLMissing
		if apiErr.Message != text {
			text += "\n" + apiErr.Message
		}
		return messages.New(err, text)
	}
	return messages.New(err, messages.PaymentURLFailed)
}
