// Package catalog implements product management: CRUD, stock movements,
// filtered listing with cached statistics, and CSV imports.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/cotiza/backend/internal/infrastructure/cache"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"github.com/cotiza/backend/internal/infrastructure/storage"
	"github.com/cotiza/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds the search for an unused generated product code
const maxCodeAttempts = 5

// ProductService handles product-related business operations
type ProductService struct {
	repo    catalog.ProductRepository
	cache   cache.ProductStatsCache
	archive storage.ObjectStorage
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a ProductService
type Option func(*ProductService)

// WithStatsCache sets the cache used for stats and facets
func WithStatsCache(c cache.ProductStatsCache) Option {
	return func(s *ProductService) { s.cache = c }
}

// WithArchive stores every imported CSV file in object storage
func WithArchive(store storage.ObjectStorage) Option {
	return func(s *ProductService) { s.archive = store }
}

// WithMetrics records import metrics
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(s *ProductService) { s.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

// NewProductService creates a new ProductService. Without WithStatsCache an
// in-memory cache with the default TTL is used.
func NewProductService(repo catalog.ProductRepository, logger *zap.Logger, opts ...Option) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProductService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewInMemoryProductStatsCache(cache.DefaultProductStatsTTL)
	}
	return s
}

// Create creates a new product. A new product must start with stock on hand.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_product")
	defer span.End()

	if req.StockQuantity < 1 {
		return nil, shared.NewValidationError("stock_quantity", "Stock quantity must be at least 1")
	}

	code, err := s.resolveCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(catalog.ProductInput{
		Code:              code,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Brand:             req.Brand,
		Supplier:          req.Supplier,
		UnitPrice:         req.UnitPrice,
		ProfitMargin:      req.ProfitMargin,
		StockQuantity:     req.StockQuantity,
		MinStock:          req.MinStock,
		WarehouseLocation: req.WarehouseLocation,
		Weight:            req.Weight,
		Dimensions:        req.Dimensions,
		Status:            catalog.ProductStatus(req.Status),
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrProductCode, product.Code)
	s.invalidate(ctx)

	logger.L(ctx).Info("product created", zap.String("product_code", product.Code))
	response := ToProductResponse(product)
	return &response, nil
}

// resolveCode returns the requested code when it is free, or a generated unused one
func (s *ProductService) resolveCode(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		code := normalizeCode(requested)
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			return "", catalog.ErrDuplicateCode
		}
		return code, nil
	}

	for range maxCodeAttempts {
		code := catalog.GenerateProductCode()
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", shared.NewConflictError(catalog.ErrDuplicateCode.Code, "Could not generate an unused product code")
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetByCode retrieves a product by its code, case-insensitively
func (s *ProductService) GetByCode(ctx context.Context, code string) (*ProductResponse, error) {
	product, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List returns a filtered page of products
func (s *ProductService) List(ctx context.Context, f ProductListFilter) (*ProductListResponse, error) {
	filter, err := s.domainFilter(f)
	if err != nil {
		return nil, err
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ProductListResponse{
		Items:           ToProductResponses(page.Items),
		PageInfo:        page.PageInfo,
		TotalUnfiltered: page.TotalUnfiltered,
	}, nil
}

// Update patches a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Apply(req.patch(), s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	logger.L(ctx).Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// AddStock increases the stock of a product
func (s *ProductService) AddStock(ctx context.Context, id uuid.UUID, req StockRequest) (*ProductResponse, error) {
	return s.moveStock(ctx, id, func(p *catalog.Product, now time.Time) error {
		return p.AddStock(req.Quantity, now)
	})
}

// RemoveStock decreases the stock of a product, failing with INSUFFICIENT_STOCK
// when not enough units are on hand
func (s *ProductService) RemoveStock(ctx context.Context, id uuid.UUID, req StockRequest) (*ProductResponse, error) {
	return s.moveStock(ctx, id, func(p *catalog.Product, now time.Time) error {
		return p.RemoveStock(req.Quantity, now)
	})
}

func (s *ProductService) moveStock(ctx context.Context, id uuid.UUID, move func(*catalog.Product, time.Time) error) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := move(product, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	response := ToProductResponse(product)
	return &response, nil
}

// Stats computes product statistics for a filter, served from cache when possible
func (s *ProductService) Stats(ctx context.Context, f ProductListFilter) (*catalog.ProductStats, error) {
	filter, err := s.domainFilter(f)
	if err != nil {
		return nil, err
	}

	if stats, hit, err := s.cache.GetStats(ctx, filter); err != nil {
		logger.L(ctx).Warn("product stats cache read failed", zap.Error(err))
	} else if hit {
		return stats, nil
	}

	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetStats(ctx, filter, stats); err != nil {
		logger.L(ctx).Warn("product stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// Facets returns the distinct categories, brands and suppliers
func (s *ProductService) Facets(ctx context.Context) (*catalog.Facets, error) {
	if facets, hit, err := s.cache.GetFacets(ctx); err != nil {
		logger.L(ctx).Warn("product facets cache read failed", zap.Error(err))
	} else if hit {
		return facets, nil
	}

	facets, err := s.repo.Facets(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetFacets(ctx, facets); err != nil {
		logger.L(ctx).Warn("product facets cache write failed", zap.Error(err))
	}
	return facets, nil
}

func (s *ProductService) domainFilter(f ProductListFilter) (catalog.ProductFilter, error) {
	filter := f.domain()
	if filter.PriceMin != nil && filter.PriceMax != nil && filter.PriceMin.GreaterThan(*filter.PriceMax) {
		return filter, shared.NewValidationError("price_min", "price_min cannot be greater than price_max")
	}
	return filter, nil
}

// invalidate drops cached stats after a write; a failure only leaves them stale until the TTL
func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.L(ctx).Warn("product stats cache invalidation failed", zap.Error(err))
	}
}
