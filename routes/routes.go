package routes

import (
	"book-a-meal-api/auth"
	"book-a-meal-api/handlers"
	"book-a-meal-api/metrics"
	"book-a-meal-api/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the router
type Options struct {
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter builds the engine with the middleware chain and every route
func NewRouter(h *handlers.Handler, authSvc *auth.Service, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(opts.Logger),
		middleware.Recovery(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		metrics.Middleware(),
	)
	r.NoRoute(middleware.NoRoute)
	SetupRoutes(r, h, authSvc)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, authSvc *auth.Service) {
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api/v1")
	{
		public.GET("/policies", h.Policies)

		public.POST("/auth/signup", h.Signup)
		public.POST("/auth/login", h.Login)
		public.GET("/auth/verify/:token", h.VerifyEmail)
		public.POST("/auth/password_reset", h.RequestPasswordReset)
		public.POST("/auth/password_reset/:token", h.ResetPassword)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthRequired(authSvc))
	{
		authed.DELETE("/auth/logout", h.Logout)
		authed.GET("/auth/get", h.CurrentUser)
		authed.PUT("/auth/profile", h.UpdateProfile)

		resource(authed.Group("/meals"), h.Meals)
		resource(authed.Group("/menus"), h.Menus)
		resource(authed.Group("/menu_items"), h.MenuItems)
		resource(authed.Group("/orders"), h.Orders)
		resource(authed.Group("/notifications"), h.Notifications)
	}
}

func resource[T any](g *gin.RouterGroup, res *handlers.Resource[T]) {
	g.GET("", res.List)
	g.POST("", res.Create)
	g.GET("/:id", res.Get)
	g.PUT("/:id", res.Update)
	g.PATCH("/:id", res.Update)
	g.DELETE("/:id", res.Delete)
}
