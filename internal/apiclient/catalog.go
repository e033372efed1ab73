package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/tidwall/gjson"
)

func (c *Client) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	r, err := c.do(ctx, http.MethodGet, "/category/getAllCategories", "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return categoriesFrom(gjson.GetBytes(r.Body, "data")), nil
}

// categoriesFrom maps loosely typed category rows, missing fields become
// zero values.
func categoriesFrom(res gjson.Result) []models.Category {
	out := []models.Category{}
	res.ForEach(func(_, item gjson.Result) bool {
		out = append(out, models.Category{
			ID:     item.Get("madanhmuc").String(),
			Name:   item.Get("tendanhmuc").String(),
			Count:  int(item.Get("soluong").Int()),
			TypeID: item.Get("maloai").String(),
		})
		return true
	})
	return out
}

func (c *Client) GetProductTypes(ctx context.Context) ([]models.ProductType, error) {
	r, err := c.do(ctx, http.MethodGet, "/loai/getLoai", "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return decodeList[models.ProductType](r.Body, "data")
}

func (c *Client) GetCategoriesByType(ctx context.Context, typeID string) ([]models.Category, error) {
	r, err := c.do(ctx, http.MethodGet, "/category/getDanhMucByLoai/"+url.PathEscape(typeID), "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return categoriesFrom(gjson.GetBytes(r.Body, "data")), nil
}

func (c *Client) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	r, err := c.do(ctx, http.MethodGet, "/product/getAllProducts", "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return decodeList[models.Product](r.Body, "data")
}

func (c *Client) FindProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	r, err := c.do(ctx, http.MethodGet, "/product/findProductsByCategory/"+url.PathEscape(categoryID), "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return decodeList[models.Product](r.Body, "data")
}

// FindProduct returns ErrNotFound when the backend answers with a null data.
func (c *Client) FindProduct(ctx context.Context, code string) (*models.Product, error) {
	r, err := c.do(ctx, http.MethodGet, "/product/findProduct/"+url.PathEscape(code), "", nil)
	if err != nil {
		return nil, err
	}
	if r.Status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if !r.OK() {
		return nil, apiError(r, messages.ProductNotFound)
	}
	return decodeObject[models.Product](r.Body, "data")
}

// SearchProducts reads results from data.data; any other shape is no results.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	r, err := c.do(ctx, http.MethodGet, "/product/search?query="+url.QueryEscape(query), "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return decodeList[models.Product](r.Body, "data.data")
}

func (c *Client) FindPharmacies(ctx context.Context, province, district string) ([]models.Pharmacy, error) {
	path := "/pharmacy/findPharmacyByProvinces/" + url.PathEscape(province) + "/" + url.PathEscape(district)
	r, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	if !r.OK() {
		return nil, apiError(r, messages.UnknownError)
	}
	return decodeList[models.Pharmacy](r.Body, "data")
}
