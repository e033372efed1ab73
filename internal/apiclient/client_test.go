package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "boom", messageOf([]byte(`{"message":"boom"}`), "fb"))
	assert.Equal(t, "inner", messageOf([]byte(`{"message":{"message":"inner"}}`), "fb"))
	assert.Equal(t, "fb", messageOf([]byte(`{"success":false}`), "fb"))
	assert.Equal(t, "plain text", messageOf([]byte("plain text"), "fb"))
	assert.Equal(t, "fb", messageOf(nil, "fb"))
}

func TestGetAllCategories_Fallbacks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/category/getAllCategories", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"data":[{"madanhmuc":"DM1","tendanhmuc":"Vitamin","soluong":7},{"madanhmuc":"DM2"}]}`)
	})

	cats, err := c.GetAllCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, models.Category{ID: "DM1", Name: "Vitamin", Count: 7}, cats[0])
	assert.Equal(t, "", cats[1].Name)
	assert.Equal(t, 0, cats[1].Count)
}

func TestSearchProducts_UnexpectedShapeIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paracetamol 500", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `{"data":{"items":[]}}`)
	})

	res, err := c.SearchProducts(context.Background(), "paracetamol 500")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchProducts_ReadsNestedData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"data":[{"masanpham":"SP1","tensanpham":"Panadol","chitietdonvi":[{"giaban":15000,"donvitinh":{"donvitinh":"Hộp"}}]}]}}`)
	})

	res, err := c.SearchProducts(context.Background(), "pan")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "SP1", res[0].Code)
	assert.Equal(t, "Hộp", res[0].Units[0].Unit.Name)
}

func TestFindProduct_NullIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/findProduct/SP9", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":null}`)
	})

	_, err := c.FindProduct(context.Background(), "SP9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignIn(t *testing.T) {
	t.Run("created with token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "0912345678", body["sodienthoai"])
			assert.Equal(t, "secret", body["matkhau"])
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"accessToken":"tok"}}`)
		})
		tok, err := c.SignIn(context.Background(), "0912345678", "secret")
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	})

	t.Run("200 is not success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data":{"accessToken":"tok"}}`)
		})
		_, err := c.SignIn(context.Background(), "0912345678", "secret")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusOK, apiErr.Status)
		assert.Equal(t, messages.LoginFailed, apiErr.Message)
	})

	t.Run("backend message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Sai mật khẩu"}`)
		})
		_, err := c.SignIn(context.Background(), "0912345678", "x")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Sai mật khẩu", apiErr.Message)
	})
}

func TestCreateAccount(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		ok     bool
	}{
		{"success flag", http.StatusOK, `{"success":true}`, true},
		{"request successfully", http.StatusCreated, `{"message":"Request Successfully"}`, true},
		{"2xx without marker", http.StatusOK, `{"message":"đã tồn tại"}`, false},
		{"error status", http.StatusBadRequest, `{"success":true}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			err := c.CreateAccount(context.Background(), "0912345678", "1234")
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCreatePaymentURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "DH1", body["madonhang"])
		assert.EqualValues(t, 30000, body["amount"])
		_, _ = io.WriteString(w, `{"data":{"data":{"url":"https://pay.example/?vnp_Amount=1"}}}`)
	})

	u, err := c.CreatePaymentURL(context.Background(), "tok", 30000, "DH1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/?vnp_Amount=1", u)
}

func TestCreatePaymentURL_Missing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	})

	_, err := c.CreatePaymentURL(context.Background(), "tok", 1, "DH1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, messages.PaymentURLMissing, apiErr.Message)
}

func TestVerifyPayment(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		confirmed bool
		message   string
	}{
		{"top level success", http.StatusOK, `{"success":true,"message":"ok"}`, true, "ok"},
		{"nested success", http.StatusOK, `{"data":{"success":true}}`, true, messages.PaymentNotConfirmed},
		{"rejected", http.StatusOK, `{"success":false,"message":"Giao dịch thất bại"}`, false, "Giao dịch thất bại"},
		{"non json body", http.StatusBadRequest, `Invalid signature`, false, "Invalid signature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "00", body["vnp_ResponseCode"])
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			v, err := c.VerifyPayment(context.Background(), "tok", map[string]string{"vnp_ResponseCode": "00"})
			require.NoError(t, err)
			assert.Equal(t, tc.confirmed, v.Confirmed)
			assert.Equal(t, tc.message, v.Message)
		})
	}
}

func TestCreatePurchaseOrder_OmitsBranchForDelivery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasBranch := body["machinhhanh"]
		assert.False(t, hasBranch)
		assert.Nil(t, body["mavoucher"])
		_, _ = io.WriteString(w, `{"data":{"madonhang":"DH7","thanhtien":45000}}`)
	})

	created, err := c.CreatePurchaseOrder(context.Background(), "tok", OrderRequest{Total: 45000})
	require.NoError(t, err)
	assert.Equal(t, &CreatedOrder{Code: "DH7", Amount: 45000}, created)
}

func TestGetOrdersByUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/purchase-order/getOderByUserId/u-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"madonhang":"DH1","trangthai":"Đã hủy","sanpham":[{"tensanpham":"A","soluong":2,"giaban":1000}]},{}]}`)
	})

	orders, err := c.GetOrdersByUser(context.Background(), "tok", "u-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "DH1", orders[0].Code)
	require.Len(t, orders[0].Products, 1)
	assert.Equal(t, 2, orders[0].Products[0].Quantity)
	assert.Equal(t, "", orders[1].Code)
}

func TestRateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithRateLimit(1))
	_, err := c.GetProductTypes(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetProductTypes(ctx)
	assert.Error(t, err)
}
