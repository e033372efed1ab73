// Package orders lists the signed-in user's purchase orders.
package orders

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/session"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

var ErrNoSubject = errors.New("user id missing from session")

// Statuses are the filter choices; the first one matches every order.
var Statuses = []string{
	messages.AllStatuses,
	messages.StatusPending,
	messages.StatusShipping,
	messages.StatusConfirmed,
	messages.StatusCancelled,
}

type SortOrder string

const (
	Newest SortOrder = "newest"
	Oldest SortOrder = "oldest"
)

type API interface {
	GetOrdersByUser(ctx context.Context, token, userID string) ([]models.Order, error)
}

type Session interface {
	RequireLogin(ctx context.Context) (*session.User, error)
}

type OrdersService struct {
	API     API
	Session Session
	Now     func() time.Time
}

// List returns the user's orders, newest created first, with missing fields
// filled in.
func (s *OrdersService) List(ctx context.Context) ([]models.Order, error) {
	l := logging.FromContext(ctx).With("handler", "orders.list")

	u, err := s.Session.RequireLogin(ctx)
	if err != nil {
		return nil, err
	}
	if u.Subject == "" {
		l.Error("list_orders_failed", "reason", "no sub claim")
		return nil, messages.New(ErrNoSubject, messages.UserNotFound)
	}

	list, err := s.API.GetOrdersByUser(ctx, u.Token, u.Subject)
	if err != nil {
		l.Error("list_orders_failed", "error", err)
		return nil, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()
	for i := range list {
		applyDefaults(&list[i], t)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return ParseDate(list[i].CreatedAt).After(ParseDate(list[j].CreatedAt))
	})
	return list, nil
}

func applyDefaults(o *models.Order, now time.Time) {
	if o.Code == "" {
		o.Code = messages.UnknownOrderCode
	}
	if o.Status == "" {
		o.Status = messages.UnknownStatus
	}
	if o.PurchasedAt == "" {
		o.PurchasedAt = now.UTC().Format("2006-01-02")
	}
	if o.CreatedAt == "" {
		o.CreatedAt = now.UTC().Format(time.RFC3339Nano)
	}
	if o.Products == nil {
		o.Products = []models.OrderProduct{}
	}
}

// Filter keeps orders with the given status (or all) and orders them by
// purchase date.
func Filter(list []models.Order, status string, order SortOrder) []models.Order {
	out := make([]models.Order, 0, len(list))
	for _, o := range list {
		if status == "" || status == messages.AllStatuses || o.Status == status {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := ParseDate(out[i].PurchasedAt), ParseDate(out[j].PurchasedAt)
		if order == Oldest {
			return a.Before(b)
		}
		return a.After(b)
	})
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reads the backend's date strings; anything else is the epoch.
func ParseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// FormatDate renders a date as dd/mm/yyyy.
func FormatDate(s string) string {
	t := ParseDate(s)
	return t.Format("02/01/2006")
}
