package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Skotchmaster/pharmacy_storefront/internal/cart"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/orders"
)

// formatPrice renders an amount the way the shop shows it: 15.000đ.
func formatPrice(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + "đ"
	}
	return b.String() + "đ"
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printProducts(w io.Writer, ps []models.Product) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "(không có sản phẩm)")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "MÃ\tTÊN\tGIÁ\tĐƠN VỊ")
	for _, p := range ps {
		price, unit := messages.PriceUnknown, ""
		if u, ok := p.Unit(0); ok {
			price = formatPrice(u.EffectivePrice())
			unit = u.Unit.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Code, p.Name, price, unit)
	}
	_ = tw.Flush()
}

func printProduct(w io.Writer, p *models.Product) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.Code)
	if p.Category != nil && p.Category.Name != "" {
		fmt.Fprintf(w, "Danh mục: %s\n", p.Category.Name)
	}
	if p.Brand != nil && p.Brand.Name != "" {
		fmt.Fprintf(w, "Thương hiệu: %s\n", p.Brand.Name)
	}
	if p.Prescription {
		fmt.Fprintln(w, "Thuốc kê đơn")
	}
	if p.Promotion != nil && p.Promotion.Name != "" {
		fmt.Fprintf(w, "Khuyến mãi: %s\n", p.Promotion.Name)
	}
	if img := p.MainImage(); img != "" {
		fmt.Fprintf(w, "Ảnh: %s\n", img)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "#\tĐƠN VỊ\tĐỊNH LƯỢNG\tGIÁ\tGIÁ KM")
	for i, u := range p.Units {
		promo := ""
		if u.DiscountedPrice > 0 {
			promo = formatPrice(u.DiscountedPrice)
		}
		fmt.Fprintf(tw, "%d\t%s\t%g\t%s\t%s\n", i, u.Unit.Name, u.Amount, formatPrice(u.Price), promo)
	}
	_ = tw.Flush()

	for _, section := range []struct{ title, body string }{
		{"Công dụng", p.Uses},
		{"Chỉ định", p.Indications},
		{"Chống chỉ định", p.Contraindicated},
		{"Đối tượng sử dụng", p.Audience},
		{"Lưu ý", p.Notes},
	} {
		if strings.TrimSpace(section.body) != "" {
			fmt.Fprintf(w, "\n%s:\n%s\n", section.title, section.body)
		}
	}
	if len(p.Ingredients) > 0 {
		fmt.Fprintln(w, "\nThành phần:")
		for _, ing := range p.Ingredients {
			fmt.Fprintf(w, "  - %s %s\n", ing.Ingredient.Name, ing.Content)
		}
	}
}

func printCart(w io.Writer, items []cart.Item, sel *cart.Selection) {
	if len(items) == 0 {
		fmt.Fprintln(w, messages.CartEmpty)
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, " \tID\tTÊN\tGIÁ\tSL\tĐƠN VỊ")
	for _, it := range items {
		mark := " "
		if sel == nil || sel.Has(it.ID) {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\tx%d\t%s\n", mark, it.ID, it.Name, formatPrice(it.Price()), it.Qty(), it.UnitName())
	}
	_ = tw.Flush()

	var ids []string
	if sel != nil {
		ids = sel.IDs()
	}
	fmt.Fprintf(w, "Thành tiền: %s\n", formatPrice(cart.Total(items, ids)))
}

func printOrders(w io.Writer, list []models.Order) {
	if len(list) == 0 {
		fmt.Fprintln(w, "(không có đơn hàng)")
		return
	}
	for _, o := range list {
		fmt.Fprintf(w, "#%s  %s  %s  %s\n", o.Code, orders.FormatDate(o.PurchasedAt), o.Status, formatPrice(o.Total))
		for _, p := range o.Products {
			fmt.Fprintf(w, "    %s x%d %s  %s\n", p.Name, p.Quantity, p.Unit, formatPrice(p.Price))
		}
	}
}
