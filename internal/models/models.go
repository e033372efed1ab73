package models

// Backend DTOs. JSON tags follow the backend's field names.

type UnitName struct {
	Name string `json:"donvitinh"`
}

type Unit struct {
	Amount          float64  `json:"dinhluong"`
	Price           float64  `json:"giaban"`
	DiscountedPrice float64  `json:"giabanSauKhuyenMai,omitempty"`
	Unit            UnitName `json:"donvitinh"`
}

// EffectivePrice is the price after promotion when the backend supplies one.
func (u Unit) EffectivePrice() float64 {
	if u.DiscountedPrice > 0 {
		return u.DiscountedPrice
	}
	return u.Price
}

type Image struct {
	URL    string `json:"url"`
	IsMain *bool  `json:"ismain,omitempty"`
}

type Promotion struct {
	Name  string  `json:"tenchuongtrinh"`
	Value float64 `json:"giatrikhuyenmai,omitempty"`
}

type Ingredient struct {
	Content    string `json:"hamluong"`
	Ingredient struct {
		Name string `json:"tenthanhphan"`
	} `json:"thanhphan"`
}

type Product struct {
	ID              string       `json:"id"`
	Code            string       `json:"masanpham"`
	Name            string       `json:"tensanpham"`
	Slug            string       `json:"slug,omitempty"`
	DosageForm      string       `json:"dangbaoche,omitempty"`
	Uses            string       `json:"congdung,omitempty"`
	Indications     string       `json:"chidinh,omitempty"`
	Contraindicated string       `json:"chongchidinh,omitempty"`
	Prescription    bool         `json:"thuockedon"`
	Summary         string       `json:"motangan,omitempty"`
	Audience        string       `json:"doituongsudung,omitempty"`
	Notes           string       `json:"luuy,omitempty"`
	ManufacturedAt  string       `json:"ngaysanxuat,omitempty"`
	ShelfLifeMonths int          `json:"hansudung,omitempty"`
	ImportPrice     float64      `json:"gianhap"`
	Category        *NamedRef    `json:"danhmuc,omitempty"`
	Brand           *BrandRef    `json:"thuonghieu,omitempty"`
	Promotion       *Promotion   `json:"khuyenmai,omitempty"`
	Images          []Image      `json:"anhsanpham"`
	Units           []Unit       `json:"chitietdonvi"`
	Ingredients     []Ingredient `json:"chitietthanhphan,omitempty"`
}

type NamedRef struct {
	Name string `json:"tendanhmuc"`
}

type BrandRef struct {
	Name string `json:"tenthuonghieu"`
}

// MainImage returns the image flagged as main, else the first one.
func (p Product) MainImage() string {
	for _, img := range p.Images {
		if img.IsMain != nil && *img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// Unit returns the unit at idx, falling back to the first unit.
func (p Product) Unit(idx int) (Unit, bool) {
	if len(p.Units) == 0 {
		return Unit{}, false
	}
	if idx < 0 || idx >= len(p.Units) {
		return p.Units[0], true
	}
	return p.Units[idx], true
}

// FirstPrice is the list price of the first unit, 0 when there is none.
func (p Product) FirstPrice() float64 {
	if len(p.Units) == 0 {
		return 0
	}
	return p.Units[0].Price
}

type Category struct {
	ID     string `json:"madanhmuc"`
	Name   string `json:"tendanhmuc"`
	Count  int    `json:"soluong"`
	TypeID string `json:"maloai,omitempty"`
}

type ProductType struct {
	ID   string `json:"maloai"`
	Name string `json:"tenloai"`
}

type Pharmacy struct {
	ID      string `json:"id"`
	Code    string `json:"machinhanh"`
	Address string `json:"diachi"`
}

type UserProfile struct {
	FullName  string `json:"hoten"`
	Phone     string `json:"sodienthoai"`
	Email     string `json:"email"`
	BirthDate string `json:"ngaysinh"`
	Gender    string `json:"gioitinh"`
}

// ProfileUpdate is the body accepted by the profile update endpoint.
type ProfileUpdate struct {
	FullName  string `json:"hoten"`
	Email     string `json:"email"`
	BirthDate string `json:"ngaysinh"`
	Gender    string `json:"gioitinh"`
}

type OrderProduct struct {
	Name     string  `json:"tensanpham"`
	Unit     string  `json:"donvitinh"`
	Quantity int     `json:"soluong"`
	Price    float64 `json:"giaban"`
	ImageURL string  `json:"url"`
}

type Order struct {
	Code         string         `json:"madonhang"`
	CustomerName string         `json:"hoten"`
	Total        float64        `json:"thanhtien"`
	Status       string         `json:"trangthai"`
	Products     []OrderProduct `json:"sanpham"`
	CreatedAt    string         `json:"ngaytao,omitempty"`
	PurchasedAt  string         `json:"ngaymuahang"`
}

type Location struct {
	Name string `json:"name"`
	Code int    `json:"code"`
}
