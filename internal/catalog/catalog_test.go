package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	categories []models.Category
	products   []models.Product
	err        error
}

func (f *fakeAPI) GetAllCategories(context.Context) ([]models.Category, error) {
	return f.categories, f.err
}

func (f *fakeAPI) GetProductTypes(context.Context) ([]models.ProductType, error) {
	return []models.ProductType{{ID: "L1", Name: "Thuốc"}}, f.err
}

func (f *fakeAPI) GetCategoriesByType(_ context.Context, typeID string) ([]models.Category, error) {
	return []models.Category{{ID: "DM1", TypeID: typeID}}, f.err
}

func (f *fakeAPI) GetAllProducts(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeAPI) FindProductsByCategory(context.Context, string) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeAPI) FindProduct(_ context.Context, code string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{Code: code}, nil
}

func priced(code string, price float64) models.Product {
	p := models.Product{Code: code}
	if price > 0 {
		p.Units = []models.Unit{{Price: price}}
	}
	return p
}

func TestTopCategories(t *testing.T) {
	var cats []models.Category
	for i := 0; i < 15; i++ {
		cats = append(cats, models.Category{ID: fmt.Sprintf("DM%d", i), Count: i})
	}
	svc := &CatalogService{API: &fakeAPI{categories: cats}}

	top, err := svc.TopCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, top, TopCategoryCount)
	assert.Equal(t, "DM14", top[0].ID)
	assert.Equal(t, "DM3", top[11].ID)
	assert.Equal(t, "DM0", cats[0].ID)
}

func TestFeatured(t *testing.T) {
	svc := &CatalogService{API: &fakeAPI{products: []models.Product{
		priced("a", 1), priced("b", 1), priced("c", 1), priced("d", 1), priced("e", 1),
	}}}
	ps, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, FeaturedCount)
	assert.Equal(t, "d", ps[3].Code)

	svc = &CatalogService{API: &fakeAPI{products: []models.Product{priced("a", 1)}}}
	ps, err = svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestProductsByCategory_SortsByFirstUnitPrice(t *testing.T) {
	products := func() []models.Product {
		return []models.Product{priced("mid", 20000), priced("none", 0), priced("high", 50000)}
	}
	codes := func(ps []models.Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Code
		}
		return out
	}

	asc, err := (&CatalogService{API: &fakeAPI{products: products()}}).ProductsByCategory(context.Background(), "DM1", PriceAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"none", "mid", "high"}, codes(asc))

	desc, err := (&CatalogService{API: &fakeAPI{products: products()}}).ProductsByCategory(context.Background(), "DM1", PriceDesc)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid", "none"}, codes(desc))
}

func TestReadFailuresPropagate(t *testing.T) {
	boom := errors.New("offline")
	svc := &CatalogService{API: &fakeAPI{err: boom}}
	ctx := context.Background()

	_, err := svc.TopCategories(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Featured(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.ProductTypes(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.SubCategories(ctx, "L1")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Product(ctx, "SP1")
	assert.ErrorIs(t, err, boom)
}

func TestPageBounds(t *testing.T) {
	off, lim := PageBounds(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, DefaultPageSize, lim)

	off, lim = PageBounds(3, 5)
	assert.Equal(t, 10, off)
	assert.Equal(t, 5, lim)

	_, lim = PageBounds(1, MaxPageSize+1)
	assert.Equal(t, DefaultPageSize, lim)
}

func TestPage(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Page(xs, 1, 2))
	assert.Equal(t, []int{5}, Page(xs, 3, 2))
	assert.Empty(t, Page(xs, 4, 2))
}

func TestPage_HugePageIsEmpty(t *testing.T) {
	xs := []int{1, 2, 3}
	assert.Empty(t, Page(xs, 6917529027641081857, 10))
	assert.Empty(t, Page(xs, math.MaxInt, MaxPageSize))

	off, _ := PageBounds(math.MaxInt, 10)
	assert.Equal(t, math.MaxInt, off)
}
