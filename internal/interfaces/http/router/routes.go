package router

import (
	"github.com/cotiza/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by RegisterAPI
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Client    *handler.ClientHandler
	Product   *handler.ProductHandler
	Quotation *handler.QuotationHandler
	System    *handler.SystemHandler
}

// Guards are the middleware placed in front of route groups.
// RequireAuth protects everything except the public auth routes and the
// system group; PublicAuth (usually a rate limiter) fronts the public auth routes.
type Guards struct {
	RequireAuth gin.HandlerFunc
	PublicAuth  []gin.HandlerFunc
}

// RegisterAPI declares the cotiza API on r and the /health check on engine
func RegisterAPI(engine *gin.Engine, r *Router, h Handlers, g Guards) {
	engine.GET("/health", h.System.Health)

	public := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, g.PublicAuth...), fn)
	}
	protected := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{g.RequireAuth, fn}
	}

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", public(h.Auth.Register)...)
	authRoutes.POST("/login", public(h.Auth.Login)...)
	authRoutes.GET("/verify-email", public(h.Auth.VerifyEmail)...)
	authRoutes.POST("/forgot-password", public(h.Auth.ForgotPassword)...)
	authRoutes.POST("/reset-password", public(h.Auth.ResetPassword)...)
	authRoutes.POST("/logout", protected(h.Auth.Logout)...)

	userRoutes := NewDomainGroup("users", "/users").Use(g.RequireAuth)
	userRoutes.GET("/me", h.User.Me)
	userRoutes.PUT("/me", h.User.UpdateMe)
	userRoutes.DELETE("/me", h.User.DeleteMe)
	userRoutes.GET("/me/profile-completion", h.User.ProfileCompletion)

	clientRoutes := NewDomainGroup("clients", "/clients").Use(g.RequireAuth)
	clientRoutes.POST("", h.Client.Create)
	clientRoutes.GET("", h.Client.List)
	clientRoutes.GET("/:id", h.Client.GetByID)
	clientRoutes.PUT("/:id", h.Client.Update)
	clientRoutes.DELETE("/:id", h.Client.Delete)

	productRoutes := NewDomainGroup("products", "/products").Use(g.RequireAuth)
	productRoutes.POST("", h.Product.Create)
	productRoutes.GET("", h.Product.List)
	productRoutes.GET("/stats", h.Product.Stats)
	productRoutes.GET("/facets", h.Product.Facets)
	productRoutes.GET("/code/:code", h.Product.GetByCode)
	productRoutes.GET("/:id", h.Product.GetByID)
	productRoutes.PUT("/:id", h.Product.Update)
	productRoutes.DELETE("/:id", h.Product.Delete)
	productRoutes.POST("/:id/stock/add", h.Product.AddStock)
	productRoutes.POST("/:id/stock/remove", h.Product.RemoveStock)
	importRoutes := productRoutes.Group("product-import", "/import")
	importRoutes.POST("", h.Product.Import)
	importRoutes.POST("/stock", h.Product.ImportStock)

	quotationRoutes := NewDomainGroup("quotations", "/quotations").Use(g.RequireAuth)
	quotationRoutes.POST("", h.Quotation.Create)
	quotationRoutes.GET("", h.Quotation.List)
	quotationRoutes.GET("/next-number", h.Quotation.NextNumber)
	quotationRoutes.GET("/stats", h.Quotation.Stats)
	quotationRoutes.GET("/stats/summary", h.Quotation.Summary)
	quotationRoutes.GET("/:id", h.Quotation.GetByID)
	quotationRoutes.PUT("/:id", h.Quotation.Update)
	quotationRoutes.DELETE("/:id", h.Quotation.Delete)
	quotationRoutes.PATCH("/:id/status", h.Quotation.ChangeStatus)
	quotationRoutes.POST("/:id/duplicate", h.Quotation.Duplicate)
	quotationRoutes.GET("/:id/pdf", h.Quotation.PDF)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", h.System.Ping)
	systemRoutes.GET("/info", h.System.Info)

	r.Register(authRoutes).
		Register(userRoutes).
		Register(clientRoutes).
		Register(productRoutes).
		Register(quotationRoutes).
		Register(systemRoutes)
	r.Setup()
}
