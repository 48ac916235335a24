package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	catalogapp "github.com/cotiza/backend/internal/application/catalog"
	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxImportFileSize caps an uploaded CSV file
const maxImportFileSize = 10 << 20

// ProductService is the catalog API used by ProductHandler
type ProductService interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	GetByCode(ctx context.Context, code string) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, filter catalogapp.ProductListFilter) (*catalogapp.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddStock(ctx context.Context, id uuid.UUID, req catalogapp.StockRequest) (*catalogapp.ProductResponse, error)
	RemoveStock(ctx context.Context, id uuid.UUID, req catalogapp.StockRequest) (*catalogapp.ProductResponse, error)
	Stats(ctx context.Context, filter catalogapp.ProductListFilter) (*catalog.ProductStats, error)
	Facets(ctx context.Context) (*catalog.Facets, error)
	ImportProducts(ctx context.Context, filename string, data []byte) (*catalogapp.ImportResult, error)
	ImportStock(ctx context.Context, filename string, data []byte) (*catalogapp.ImportResult, error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	BaseHandler
	productService ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create adds a product; an empty code is generated.
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	if req, ok := bindJSON[catalogapp.CreateProductRequest](c); ok {
		product, err := h.productService.Create(c.Request.Context(), req)
		h.respond(c, http.StatusCreated, product, err)
	}
}

// List returns a filtered page of products.
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	if filter, ok := bindQuery[catalogapp.ProductListFilter](c); ok {
		page, err := h.productService.List(c.Request.Context(), filter)
		h.respond(c, http.StatusOK, page, err)
	}
}

// Stats aggregates the catalog under the same filters as List.
// GET /products/stats
func (h *ProductHandler) Stats(c *gin.Context) {
	if filter, ok := bindQuery[catalogapp.ProductListFilter](c); ok {
		stats, err := h.productService.Stats(c.Request.Context(), filter)
		h.respond(c, http.StatusOK, stats, err)
	}
}

// GET /products/facets
func (h *ProductHandler) Facets(c *gin.Context) {
	facets, err := h.productService.Facets(c.Request.Context())
	h.respond(c, http.StatusOK, facets, err)
}

// GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	if id, ok := h.parseID(c, "id"); ok {
		product, err := h.productService.GetByID(c.Request.Context(), id)
		h.respond(c, http.StatusOK, product, err)
	}
}

// GET /products/code/:code
func (h *ProductHandler) GetByCode(c *gin.Context) {
	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("code"))
	h.respond(c, http.StatusOK, product, err)
}

// Update changes the fields present in the body.
// PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if req, ok := bindJSON[catalogapp.UpdateProductRequest](c); ok {
		product, err := h.productService.Update(c.Request.Context(), id, req)
		h.respond(c, http.StatusOK, product, err)
	}
}

// DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// POST /products/:id/stock/add
func (h *ProductHandler) AddStock(c *gin.Context) {
	h.moveStock(c, h.productService.AddStock)
}

// RemoveStock never takes stock below zero.
// POST /products/:id/stock/remove
func (h *ProductHandler) RemoveStock(c *gin.Context) {
	h.moveStock(c, h.productService.RemoveStock)
}

type stockMove func(context.Context, uuid.UUID, catalogapp.StockRequest) (*catalogapp.ProductResponse, error)

func (h *ProductHandler) moveStock(c *gin.Context, move stockMove) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if req, ok := bindJSON[catalogapp.StockRequest](c); ok {
		product, err := move(c.Request.Context(), id, req)
		h.respond(c, http.StatusOK, product, err)
	}
}

// Import creates or updates products from an uploaded CSV file.
// POST /products/import
func (h *ProductHandler) Import(c *gin.Context) {
	h.importCSV(c, h.productService.ImportProducts)
}

// ImportStock sets stock quantities by product code from an uploaded CSV file.
// POST /products/import/stock
func (h *ProductHandler) ImportStock(c *gin.Context) {
	h.importCSV(c, h.productService.ImportStock)
}

type csvImport func(ctx context.Context, filename string, data []byte) (*catalogapp.ImportResult, error)

func (h *ProductHandler) importCSV(c *gin.Context, run csvImport) {
	if filename, data, ok := h.readCSV(c); ok {
		result, err := run(c.Request.Context(), filename, data)
		h.respond(c, http.StatusOK, result, err)
	}
}

// readCSV reads the "file" part of a multipart upload
func (h *ProductHandler) readCSV(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.fileError(c, "A CSV file is required")
		return "", nil, false
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		h.fileError(c, "The file must have a .csv extension")
		return "", nil, false
	}

	var data []byte
	if header.Size <= maxImportFileSize {
		data, err = io.ReadAll(io.LimitReader(file, maxImportFileSize+1))
		if err != nil {
			h.HandleError(c, err)
			return "", nil, false
		}
	}
	if header.Size > maxImportFileSize || len(data) > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "The file exceeds the maximum size of 10MB")
		return "", nil, false
	}
	return header.Filename, data, true
}

func (h *ProductHandler) fileError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(message, getRequestID(c), map[string]string{"file": message}))
}
