package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/tidwall/gjson"
)

// OrderLine is one detail row of a purchase order.
type OrderLine struct {
	ProductCode string  `json:"masanpham"`
	Quantity    int     `json:"soluong"`
	Price       float64 `json:"giaban"`
	Unit        string  `json:"donvitinh"`
}

// OrderRequest is the purchase order body. Branch is only set for pickup;
// the wire name is the backend's.
type OrderRequest struct {
	PaymentMethod  string      `json:"phuongthucthanhtoan"`
	DeliveryMethod string      `json:"hinhthucnhanhang"`
	Voucher        *string     `json:"mavoucher"`
	Subtotal       float64     `json:"tongtien"`
	Discount       float64     `json:"giamgiatructiep"`
	Total          float64     `json:"thanhtien"`
	ShippingFee    float64     `json:"phivanchuyen"`
	Branch         string      `json:"machinhhanh,omitempty"`
	RecipientName  string      `json:"hoten,omitempty"`
	RecipientPhone string      `json:"sodienthoai,omitempty"`
	RecipientEmail string      `json:"email,omitempty"`
	Address        string      `json:"diachi,omitempty"`
	Note           string      `json:"ghichu,omitempty"`
	Details        []OrderLine `json:"details"`
}

type CreatedOrder struct {
	Code   string
	Amount float64
}

func (c *Client) CreatePurchaseOrder(ctx context.Context, token string, req OrderRequest) (*CreatedOrder, error) {
	r, err := c.do(ctx, http.MethodPost, "/purchase-order/createNewPurchaseOrder", token, req)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.OrderUnknownError)
	}
	data := gjson.GetBytes(r.Body, "data")
	return &CreatedOrder{
		Code:   data.Get("madonhang").String(),
		Amount: data.Get("thanhtien").Float(),
	}, nil
}

type paymentURLRequest struct {
	Amount float64 `json:"amount"`
	Code   string  `json:"madonhang"`
}

func (c *Client) CreatePaymentURL(ctx context.Context, token string, amount float64, code string) (string, error) {
	r, err := c.do(ctx, http.MethodPost, "/purchase-order/create-payment-url", token, paymentURLRequest{Amount: amount, Code: code})
	if err != nil {
		return "", err
	}
	u := gjson.GetBytes(r.Body, "data.data.url").String()
	if !r.OK() || u == "" {
		return "", apiError(r, messages.PaymentURLMissing)
	}
	return u, nil
}

// Verification is the backend's verdict on a gateway return.
type Verification struct {
	Status    int
	Confirmed bool
	Message   string
}

// VerifyPayment relays gateway parameters. A rejected payment is not an
// error, only transport failures are.
func (c *Client) VerifyPayment(ctx context.Context, token string, params map[string]string) (*Verification, error) {
	r, err := c.do(ctx, http.MethodPost, "/purchase-order/verify-payment", token, params)
	if err != nil {
		return nil, err
	}
	confirmed := r.OK() && gjson.ValidBytes(r.Body) &&
		(gjson.GetBytes(r.Body, "success").Bool() || gjson.GetBytes(r.Body, "data.success").Bool())
	return &Verification{
		Status:    r.Status,
		Confirmed: confirmed,
		Message:   messageOf(r.Body, messages.PaymentNotConfirmed),
	}, nil
}

func (c *Client) GetOrdersByUser(ctx context.Context, token, userID string) ([]models.Order, error) {
	r, err := c.do(ctx, http.MethodGet, "/purchase-order/getOderByUserId/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.OrdersLoadFailed)
	}
	if !gjson.ValidBytes(r.Body) {
		return nil, &APIError{Status: r.Status, Message: messages.InvalidData}
	}
	out := []models.Order{}
	gjson.GetBytes(r.Body, "data").ForEach(func(_, o gjson.Result) bool {
		order := models.Order{
			Code:         o.Get("madonhang").String(),
			CustomerName: o.Get("hoten").String(),
			Total:        o.Get("thanhtien").Float(),
			Status:       o.Get("trangthai").String(),
			CreatedAt:    o.Get("ngaytao").String(),
			PurchasedAt:  o.Get("ngaymuahang").String(),
			Products:     []models.OrderProduct{},
		}
		o.Get("sanpham").ForEach(func(_, p gjson.Result) bool {
			order.Products = append(order.Products, models.OrderProduct{
				Name:     p.Get("tensanpham").String(),
				Unit:     p.Get("donvitinh").String(),
				Quantity: int(p.Get("soluong").Int()),
				Price:    p.Get("giaban").Float(),
				ImageURL: p.Get("url").String(),
			})
			return true
		})
		out = append(out, order)
		return true
	})
	return out, nil
}
