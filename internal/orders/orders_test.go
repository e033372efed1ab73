package orders

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	orders []models.Order
	token  string
	userID string
}

func (f *fakeAPI) GetOrdersByUser(_ context.Context, token, userID string) ([]models.Order, error) {
	f.token, f.userID = token, userID
	return f.orders, nil
}

type fakeSession struct{ user *session.User }

func (f fakeSession) RequireLogin(context.Context) (*session.User, error) {
	if f.user == nil {
		return nil, messages.New(session.ErrLoginRequired, messages.LoginRequired)
	}
	return f.user, nil
}

func codes(list []models.Order) []string {
	out := make([]string, len(list))
	for i, o := range list {
		out[i] = o.Code
	}
	return out
}

func TestList_DefaultsAndSort(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	api := &fakeAPI{orders: []models.Order{
		{Code: "DH1", Status: messages.StatusPending, CreatedAt: "2025-05-01T10:00:00Z", PurchasedAt: "2025-05-01"},
		{CreatedAt: "2025-05-20T10:00:00Z"},
		{Code: "DH3", Status: messages.StatusCancelled, CreatedAt: "2025-04-01T10:00:00Z", PurchasedAt: "2025-04-01"},
	}}
	svc := &OrdersService{
		API:     api,
		Session: fakeSession{user: &session.User{Subject: "u-1", Token: "tok"}},
		Now:     func() time.Time { return now },
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", api.token)
	assert.Equal(t, "u-1", api.userID)
	assert.Equal(t, []string{messages.UnknownOrderCode, "DH1", "DH3"}, codes(list))

	unknown := list[0]
	assert.Equal(t, messages.UnknownStatus, unknown.Status)
	assert.Equal(t, "2025-06-01", unknown.PurchasedAt)
	assert.NotNil(t, unknown.Products)
}

func TestList_RequiresSubject(t *testing.T) {
	svc := &OrdersService{API: &fakeAPI{}, Session: fakeSession{user: &session.User{Token: "tok"}}}
	_, err := svc.List(context.Background())
	require.ErrorIs(t, err, ErrNoSubject)
	assert.Equal(t, messages.UserNotFound, err.Error())

	svc.Session = fakeSession{}
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, session.ErrLoginRequired)
}

func TestFilter(t *testing.T) {
	list := []models.Order{
		{Code: "A", Status: messages.StatusPending, PurchasedAt: "2025-05-02"},
		{Code: "B", Status: messages.StatusCancelled, PurchasedAt: "2025-05-03"},
		{Code: "C", Status: messages.StatusPending, PurchasedAt: "not a date"},
		{Code: "D", Status: messages.StatusPending, PurchasedAt: "2025-05-01T09:00:00Z"},
	}

	assert.Equal(t, []string{"B", "A", "D", "C"}, codes(Filter(list, messages.AllStatuses, Newest)))
	assert.Equal(t, []string{"C", "D", "A"}, codes(Filter(list, messages.StatusPending, Oldest)))
	assert.Empty(t, Filter(list, messages.StatusShipping, Newest))
	assert.Equal(t, "A", list[0].Code)
}

func TestDates(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), ParseDate(""))
	assert.Equal(t, "02/05/2025", FormatDate("2025-05-02"))
	assert.Equal(t, "15/03/2025", FormatDate("2025-03-15T23:10:00.123Z"))
	assert.Len(t, Statuses, 5)
}
