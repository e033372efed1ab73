package checkout

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentVNPay PaymentMethod = "vnpay"
)

// Label is the value the backend expects in phuongthucthanhtoan.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentVNPay:
		return "Chuyển khoản ngân hàng"
	default:
		return "Thanh toán khi nhận hàng"
	}
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentCOD:
		return PaymentCOD, nil
	case PaymentVNPay:
		return PaymentVNPay, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, s)
}

type DeliveryMethod string

const (
	DeliveryHome  DeliveryMethod = "home"
	DeliveryStore DeliveryMethod = "store"
)

// Label is the value the backend expects in hinhthucnhanhang.
func (m DeliveryMethod) Label() string {
	switch m {
	case DeliveryStore:
		return "Nhận hàng tại nhà thuốc"
	default:
		return "Giao hàng tận nhà"
	}
}

func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch DeliveryMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeliveryHome:
		return DeliveryHome, nil
	case DeliveryStore:
		return DeliveryStore, nil
	}
	return "", fmt.Errorf("%w: unknown delivery method %q", ErrValidation, s)
}
