package catalog

import (
	"context"
	"sort"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

const (
	TopCategoryCount = 12
	FeaturedCount    = 4
)

type PriceOrder string

const (
	PriceAsc  PriceOrder = "asc"
	PriceDesc PriceOrder = "desc"
)

type API interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetProductTypes(ctx context.Context) ([]models.ProductType, error)
	GetCategoriesByType(ctx context.Context, typeID string) ([]models.Category, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	FindProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	FindProduct(ctx context.Context, code string) (*models.Product, error)
}

type CatalogService struct {
	API API
}

// TopCategories returns the categories with the most products first.
func (s *CatalogService) TopCategories(ctx context.Context) ([]models.Category, error) {
	l := logging.FromContext(ctx).With("handler", "catalog.top_categories")

	cats, err := s.API.GetAllCategories(ctx)
	if err != nil {
		l.Error("get_categories_failed", "error", err)
		return nil, err
	}
	return topCategories(cats, TopCategoryCount), nil
}

func topCategories(cats []models.Category, n int) []models.Category {
	out := make([]models.Category, len(cats))
	copy(out, cats)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("handler", "catalog.featured")

	ps, err := s.API.GetAllProducts(ctx)
	if err != nil {
		l.Error("get_products_failed", "error", err)
		return nil, err
	}
	if len(ps) > FeaturedCount {
		ps = ps[:FeaturedCount]
	}
	return ps, nil
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string, order PriceOrder) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("handler", "catalog.products_by_category")

	ps, err := s.API.FindProductsByCategory(ctx, categoryID)
	if err != nil {
		l.Error("get_products_failed", "category", categoryID, "error", err)
		return nil, err
	}
	SortByPrice(ps, order)
	return ps, nil
}

// SortByPrice orders products by the list price of their first unit; a
// product without units counts as free.
func SortByPrice(ps []models.Product, order PriceOrder) {
	sort.SliceStable(ps, func(i, j int) bool {
		if order == PriceDesc {
			return ps[i].FirstPrice() > ps[j].FirstPrice()
		}
		return ps[i].FirstPrice() < ps[j].FirstPrice()
	})
}

func (s *CatalogService) ProductTypes(ctx context.Context) ([]models.ProductType, error) {
	ts, err := s.API.GetProductTypes(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("get_types_failed", "error", err)
		return nil, err
	}
	return ts, nil
}

func (s *CatalogService) SubCategories(ctx context.Context, typeID string) ([]models.Category, error) {
	cats, err := s.API.GetCategoriesByType(ctx, typeID)
	if err != nil {
		logging.FromContext(ctx).Error("get_subcategories_failed", "type", typeID, "error", err)
		return nil, err
	}
	return cats, nil
}

func (s *CatalogService) Product(ctx context.Context, code string) (*models.Product, error) {
	p, err := s.API.FindProduct(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Warn("get_product_failed", "product", code, "error", err)
		return nil, err
	}
	return p, nil
}
