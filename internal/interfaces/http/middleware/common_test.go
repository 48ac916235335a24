package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORSWithConfig(t *testing.T) {
	spa := DefaultCORSConfig()
	spa.AllowOrigins = []string{"http://localhost:5173", "https://app.cotiza.co"}

	tests := []struct {
		name        string
		cfg         CORSConfig
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		credentials bool
	}{
		{"no origins configured", DefaultCORSConfig(), http.MethodGet, "https://app.cotiza.co", http.StatusOK, "", false},
		{"dev frontend", spa, http.MethodGet, "http://localhost:5173", http.StatusOK, "http://localhost:5173", true},
		{"production frontend", spa, http.MethodGet, "https://app.cotiza.co", http.StatusOK, "https://app.cotiza.co", true},
		{"unknown origin", spa, http.MethodGet, "https://evil.example", http.StatusOK, "", false},
		{"wildcard drops credentials", CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}, http.MethodGet, "https://any.example", http.StatusOK, "*", false},
		{"preflight from allowed origin", spa, http.MethodOptions, "https://app.cotiza.co", http.StatusNoContent, "https://app.cotiza.co", true},
		{"preflight from unknown origin", spa, http.MethodOptions, "https://evil.example", http.StatusNoContent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSWithConfig(tt.cfg))
			router.GET("/api/v1/quotations/:id/pdf", func(c *gin.Context) {
				c.Header("Content-Disposition", `attachment; filename="COT-2025-001.pdf"`)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/quotations/42/pdf", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials") == "true")
			if tt.wantOrigin == "" || tt.wantOrigin == "*" {
				return
			}
			assert.Equal(t, "Origin", w.Header().Get("Vary"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
			// the PDF filename is only readable by the frontend when exposed
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
			assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
		})
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
		assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "test-request-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "test-request-id", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "test-request-id", w.Body.String())
	})

	t.Run("replaces oversized request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, w.Body.String(), 36)
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureWithConfig_HSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true

	router := gin.New()
	router.Use(SecureWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Empty(t, cfg.AllowOrigins)
	assert.Subset(t, cfg.AllowHeaders, []string{"Authorization", RequestIDHeader})
	assert.Equal(t, []string{RequestIDHeader, "Content-Disposition"}, cfg.ExposeHeaders)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}
