// Package messages holds the user-facing (Vietnamese) texts printed by the
// storefront commands.
package messages

import "errors"

const (
	NetworkError        = "Lỗi kết nối, vui lòng thử lại!"
	ServerUnreachable   = "Không thể kết nối máy chủ!"
	InvalidData         = "Dữ liệu không hợp lệ"
	UnknownError        = "Đã có lỗi xảy ra"
	InvalidPhone        = "Số điện thoại phải có 10 chữ số và bắt đầu bằng 0"
	MissingFields       = "Vui lòng nhập đầy đủ thông tin!"
	EmptyPassword       = "Mật khẩu không được để trống"
	PasswordMismatch    = "Mật khẩu nhập lại không khớp!"
	PasswordTooShort    = "Mật khẩu phải có ít nhất 4 ký tự!"
	LoginFailed         = "Sai tài khoản hoặc mật khẩu"
	LoginRequired       = "Bạn cần đăng nhập để thêm sản phẩm vào giỏ hàng"
	RegisterFailed      = "Đăng ký thất bại!"
	RegisterSucceeded   = "Đăng ký thành viên thành công!"
	ProfileLoadFailed   = "Không thể tải thông tin người dùng"
	ProfileUpdateFailed = "Cập nhật thất bại!"
	ProfileUpdated      = "Cập nhật thông tin thành công!"
	UserNotFound        = "Không tìm thấy thông tin người dùng"
	ProductNotFound     = "Không tìm thấy sản phẩm"
	CartAdded           = "Đã thêm vào giỏ hàng!"
	CartIncreased       = "Đã tăng số lượng sản phẩm trong giỏ hàng thành %d"
	CartAddFailed       = "Có lỗi khi thêm vào giỏ hàng!"
	CartEmpty           = "Chưa có sản phẩm nào trong giỏ hàng."
	OrderPlaced         = "Đặt hàng thành công!"
	OrderFailed         = "Đặt hàng thất bại: %s"
	OrderUnknownError   = "Lỗi không xác định"
	OrdersLoadFailed    = "Không thể tải danh sách đơn hàng"
	PaymentURLMissing   = "Không lấy được link thanh toán VnPay!"
	PaymentURLFailed    = "Lỗi khi tạo link thanh toán VnPay!"
	PaymentNotConfirmed = "Thanh toán chưa thành công!"
	PaymentVerifyFailed = "Lỗi khi kiểm tra trạng thái thanh toán!"
	PharmacyRequired    = "Vui lòng chọn nhà thuốc nhận hàng"
	RecipientRequired   = "Vui lòng nhập đầy đủ thông tin người nhận"
	UnknownStatus       = "Không xác định"
	UnknownOrderCode    = "Unknown"
	AllStatuses         = "Tất cả"
	StatusPending       = "Đang chờ xác nhận"
	StatusShipping      = "Đang giao hàng"
	StatusConfirmed     = "Đã xác nhận"
	StatusCancelled     = "Đã hủy"
	PriceUnknown        = "Không rõ"
)

// Error carries a text that can be shown to the user as is. Kind keeps the
// error matchable with errors.Is.
type Error struct {
	Kind error
	Text string
}

func (e *Error) Error() string {
	return e.Text
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, text string) error {
	return &Error{Kind: kind, Text: text}
}

// Text returns the user-facing text of err, or fallback when err carries none.
func Text(err error, fallback string) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Text
	}
	return fallback
}
