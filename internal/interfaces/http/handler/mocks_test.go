package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/cotiza/backend/internal/application/catalog"
	identityapp "github.com/cotiza/backend/internal/application/identity"
	partnerapp "github.com/cotiza/backend/internal/application/partner"
	quotationapp "github.com/cotiza/backend/internal/application/quotation"
	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/cotiza/backend/internal/domain/quotation"
	"github.com/cotiza/backend/internal/infrastructure/auth"
	"github.com/cotiza/backend/internal/infrastructure/printing"
	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/cotiza/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// withUser simulates a request that passed the JWT middleware
func withUser(id uuid.UUID, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			UserID:    id.String(),
			Name:      name,
			Email:     "vendedor@cotiza.co",
			TokenType: auth.TokenTypeAccess,
		})
		c.Set(middleware.JWTUserIDKey, id.String())
		c.Set(middleware.JWTUserNameKey, name)
		c.Next()
	}
}

// newTestEngine returns an engine with request IDs and, when userID is not
// nil, an authenticated user
func newTestEngine(userID uuid.UUID) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	if userID != uuid.Nil {
		engine.Use(withUser(userID, "Laura Gómez"))
	}
	return engine
}

func doJSON(engine *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope, decoding data into out when given
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req identityapp.RegisterRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req identityapp.LoginRequest) (*identityapp.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.LoginResponse), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, req identityapp.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req identityapp.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req identityapp.UpdateProfileRequest) (*identityapp.UserResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.UserResponse), args.Error(1)
}

func (m *MockUserService) ProfileCompletion(ctx context.Context, userID uuid.UUID) (*identityapp.ProfileCompletionResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.ProfileCompletionResponse), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) Create(ctx context.Context, req partnerapp.CreateClientRequest) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) GetByID(ctx context.Context, id uuid.UUID) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) List(ctx context.Context, filter partnerapp.ClientListFilter) (*partnerapp.ClientListResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientListResponse), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, id uuid.UUID, req partnerapp.UpdateClientRequest) (*partnerapp.ClientResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.ClientResponse), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) product(args mock.Arguments) (*catalogapp.ProductResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, req))
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, id))
}

func (m *MockProductService) GetByCode(ctx context.Context, code string) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, code))
}

func (m *MockProductService) List(ctx context.Context, filter catalogapp.ProductListFilter) (*catalogapp.ProductListResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductListResponse), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, id, req))
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductService) AddStock(ctx context.Context, id uuid.UUID, req catalogapp.StockRequest) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, id, req))
}

func (m *MockProductService) RemoveStock(ctx context.Context, id uuid.UUID, req catalogapp.StockRequest) (*catalogapp.ProductResponse, error) {
	return m.product(m.Called(ctx, id, req))
}

func (m *MockProductService) Stats(ctx context.Context, filter catalogapp.ProductListFilter) (*catalog.ProductStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductStats), args.Error(1)
}

func (m *MockProductService) Facets(ctx context.Context) (*catalog.Facets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Facets), args.Error(1)
}

func (m *MockProductService) ImportProducts(ctx context.Context, filename string, data []byte) (*catalogapp.ImportResult, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ImportResult), args.Error(1)
}

func (m *MockProductService) ImportStock(ctx context.Context, filename string, data []byte) (*catalogapp.ImportResult, error) {
	args := m.Called(ctx, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ImportResult), args.Error(1)
}

type MockQuotationService struct {
	mock.Mock
}

func (m *MockQuotationService) quotation(args mock.Arguments) (*quotationapp.QuotationResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotationapp.QuotationResponse), args.Error(1)
}

func (m *MockQuotationService) Create(ctx context.Context, actor quotationapp.Actor, req quotationapp.CreateQuotationRequest) (*quotationapp.QuotationResponse, error) {
	return m.quotation(m.Called(ctx, actor, req))
}

func (m *MockQuotationService) GetByID(ctx context.Context, id uuid.UUID) (*quotationapp.QuotationResponse, error) {
	return m.quotation(m.Called(ctx, id))
}

func (m *MockQuotationService) List(ctx context.Context, actor quotationapp.Actor, filter quotationapp.ListQuotationsFilter) (*quotationapp.ListResponse, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotationapp.ListResponse), args.Error(1)
}

func (m *MockQuotationService) Update(ctx context.Context, actor quotationapp.Actor, id uuid.UUID, req quotationapp.UpdateQuotationRequest) (*quotationapp.QuotationResponse, error) {
	return m.quotation(m.Called(ctx, actor, id, req))
}

func (m *MockQuotationService) Delete(ctx context.Context, actor quotationapp.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockQuotationService) ChangeStatus(ctx context.Context, actor quotationapp.Actor, id uuid.UUID, req quotationapp.ChangeStatusRequest) (*quotationapp.QuotationResponse, error) {
	return m.quotation(m.Called(ctx, actor, id, req))
}

func (m *MockQuotationService) Duplicate(ctx context.Context, actor quotationapp.Actor, id uuid.UUID) (*quotationapp.QuotationResponse, error) {
	return m.quotation(m.Called(ctx, actor, id))
}

func (m *MockQuotationService) NextNumberPreview(ctx context.Context) (*quotationapp.NextNumberResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotationapp.NextNumberResponse), args.Error(1)
}

func (m *MockQuotationService) PeriodSummary(ctx context.Context, actorID uuid.UUID, period string) (*quotationapp.PeriodSummaryResponse, error) {
	args := m.Called(ctx, actorID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotationapp.PeriodSummaryResponse), args.Error(1)
}

func (m *MockQuotationService) Stats(ctx context.Context, ownerID *uuid.UUID) (quotation.Stats, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(quotation.Stats), args.Error(1)
}

func (m *MockQuotationService) PDF(ctx context.Context, id uuid.UUID) (*printing.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.Document), args.Error(1)
}

var (
	_ AuthService      = (*MockAuthService)(nil)
	_ UserService      = (*MockUserService)(nil)
	_ ClientService    = (*MockClientService)(nil)
	_ ProductService   = (*MockProductService)(nil)
	_ QuotationService = (*MockQuotationService)(nil)
)
