package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productTestNow = time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, repo *GormProductRepository, in catalog.ProductInput) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(in, productTestNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func seedCatalog(t *testing.T, repo *GormProductRepository) {
	t.Helper()
	seedProduct(t, repo, catalog.ProductInput{Code: "TAL-01", Name: "Taladro percutor", Category: "Herramientas", Brand: "Bosch",
		Supplier: "Ferrisur", UnitPrice: decimal.NewFromInt(100), StockQuantity: 10, MinStock: 2})
	seedProduct(t, repo, catalog.ProductInput{Code: "SIE-01", Name: "Sierra circular", Category: "Herramientas", Brand: "Makita",
		Description: "Disco de 7 pulgadas", UnitPrice: decimal.NewFromInt(200), StockQuantity: 1, MinStock: 3})
	seedProduct(t, repo, catalog.ProductInput{Code: "TOR-01", Name: "Tornillo drywall", Category: "Ferretería", Brand: "Bosch",
		UnitPrice: decimal.RequireFromString("0.50"), StockQuantity: 0, MinStock: 100})
	seedProduct(t, repo, catalog.ProductInput{Code: "CAS-01", Name: "Casco", UnitPrice: decimal.NewFromInt(30),
		StockQuantity: 5, Status: catalog.ProductStatusDiscontinued})
}

func TestGormProductRepository_CRUD(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()

	p := seedProduct(t, repo, catalog.ProductInput{Code: "tal-01", Name: "Taladro", UnitPrice: decimal.RequireFromString("120.50"), StockQuantity: 3})

	found, err := repo.FindByCode(ctx, "Tal-01")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, "TAL-01", found.Code)
	assert.True(t, found.UnitPrice.Equal(decimal.RequireFromString("120.50")))
	require.NotNil(t, found.LastStockUpdate)

	exists, err := repo.ExistsByCode(ctx, "tal-01")
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := catalog.NewProduct(catalog.ProductInput{Code: "TAL-01", Name: "Otro", UnitPrice: decimal.NewFromInt(1)}, productTestNow)
	require.NoError(t, err)
	assert.True(t, errors.Is(repo.Create(ctx, dup), catalog.ErrDuplicateCode))

	require.NoError(t, found.RemoveStock(2, productTestNow.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, found))
	assert.Equal(t, 2, found.Version)

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.StockQuantity)

	stale := p
	require.NoError(t, stale.AddStock(1, productTestNow))
	assert.True(t, errors.Is(repo.Save(ctx, stale), shared.ErrConcurrencyConflict))

	byCodes, err := repo.FindByCodes(ctx, []string{"tal-01", "missing", ""})
	require.NoError(t, err)
	assert.Len(t, byCodes, 1)
	assert.Contains(t, byCodes, "TAL-01")

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.FindByID(ctx, p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, uuid.New()), shared.ErrNotFound))
}

func TestGormProductRepository_List(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()
	seedCatalog(t, repo)

	minPrice := decimal.NewFromInt(50)
	tests := []struct {
		name   string
		filter catalog.ProductFilter
		want   []string
	}{
		{"search by name", catalog.ProductFilter{Filter: shared.Filter{Search: "tornillo"}}, []string{"TOR-01"}},
		{"search by description", catalog.ProductFilter{Filter: shared.Filter{Search: "pulgadas"}}, []string{"SIE-01"}},
		{"search by code", catalog.ProductFilter{Filter: shared.Filter{Search: "cas-"}}, []string{"CAS-01"}},
		{"category ignores case", catalog.ProductFilter{Category: "herramientas", Filter: shared.Filter{OrderBy: "code", OrderDir: "asc"}}, []string{"SIE-01", "TAL-01"}},
		{"brand", catalog.ProductFilter{Brand: "Bosch", Filter: shared.Filter{OrderBy: "unit_price", OrderDir: "desc"}}, []string{"TAL-01", "TOR-01"}},
		{"status", catalog.ProductFilter{Status: catalog.ProductStatusDiscontinued}, []string{"CAS-01"}},
		{"min price", catalog.ProductFilter{PriceMin: &minPrice, Filter: shared.Filter{OrderBy: "unit_price", OrderDir: "asc"}}, []string{"TAL-01", "SIE-01"}},
		{"unknown sort falls back", catalog.ProductFilter{Supplier: "ferrisur", Filter: shared.Filter{OrderBy: "password"}}, []string{"TAL-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(page.Items))
			for _, p := range page.Items {
				got = append(got, p.Code)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(tt.want)), page.TotalCount)
			assert.Equal(t, int64(4), page.TotalUnfiltered)
		})
	}
}

func TestGormProductRepository_Stats(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	ctx := context.Background()
	seedCatalog(t, repo)

	stats, err := repo.Stats(ctx, catalog.ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalProducts)
	assert.Equal(t, int64(4), stats.FilteredProducts)
	assert.Equal(t, int64(2), stats.AvailableCount, "active with stock")
	assert.Equal(t, int64(1), stats.LowStockCount, "sierra has 1 of min 3")
	assert.Equal(t, int64(1), stats.OutOfStockCount)
	assert.Equal(t, "82.63", stats.AveragePrice.StringFixed(2))
	assert.Equal(t, "1350.00", stats.TotalInventoryValue.StringFixed(2))
	assert.Equal(t, map[string]int64{"Herramientas": 2, "Ferretería": 1}, stats.CategoriesBreakdown)
	assert.Equal(t, map[string]int64{"Bosch": 2, "Makita": 1}, stats.BrandsBreakdown)

	filtered, err := repo.Stats(ctx, catalog.ProductFilter{Brand: "bosch"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), filtered.TotalProducts)
	assert.Equal(t, int64(2), filtered.FilteredProducts)
	assert.Equal(t, "50.25", filtered.AveragePrice.StringFixed(2))
}

func TestGormProductRepository_Facets(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteTestDB(t))
	seedCatalog(t, repo)

	facets, err := repo.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ferretería", "Herramientas"}, facets.Categories)
	assert.Equal(t, []string{"Bosch", "Makita"}, facets.Brands)
	assert.Equal(t, []string{"Ferrisur"}, facets.Suppliers)
}
