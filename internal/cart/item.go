package cart

import (
	"encoding/json"
	"fmt"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
)

// Item is one cart line as stored in the cart blob. It keeps a trimmed copy
// of the product with only the selected unit.
type Item struct {
	ID           string            `json:"id"`
	ProductCode  string            `json:"masanpham"`
	Name         string            `json:"tensanpham"`
	Images       []models.Image    `json:"anhsanpham"`
	Units        []models.Unit     `json:"chitietdonvi"`
	Amount       float64           `json:"dinhluong"`
	Quantity     int               `json:"quantity"`
	Prescription bool              `json:"thuockedon"`
	ImportPrice  float64           `json:"gianhap"`
	Promotion    *models.Promotion `json:"khuyenmai,omitempty"`
}

// Key identifies a cart line: the same product in another unit is a
// separate line.
func Key(productCode, unit string) string {
	return productCode + "-" + unit
}

// Qty treats a missing quantity as one.
func (i Item) Qty() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

func (i Item) Price() float64 {
	if len(i.Units) == 0 {
		return 0
	}
	return i.Units[0].Price
}

func (i Item) UnitName() string {
	if len(i.Units) == 0 {
		return ""
	}
	return i.Units[0].Unit.Name
}

func (i Item) ImageURL() string {
	if len(i.Images) == 0 {
		return ""
	}
	return i.Images[0].URL
}

func (i Item) Subtotal() float64 {
	return i.Price() * float64(i.Qty())
}

func newItem(p models.Product, u models.Unit) Item {
	return Item{
		ID:          Key(p.Code, u.Unit.Name),
		ProductCode: p.Code,
		Name:        p.Name,
		Images:      []models.Image{{URL: p.MainImage()}},
		Units: []models.Unit{{
			Amount: u.Amount,
			Price:  u.EffectivePrice(),
			Unit:   models.UnitName{Name: u.Unit.Name},
		}},
		Amount:       u.Amount,
		Quantity:     1,
		Prescription: p.Prescription,
		ImportPrice:  p.ImportPrice,
		Promotion:    p.Promotion,
	}
}

func decode(raw string) ([]Item, error) {
	if raw == "" {
		return []Item{}, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func encode(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(b), nil
}
