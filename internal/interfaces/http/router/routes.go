package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/interfaces/http/handler"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers of the shop API
type Handlers struct {
	Account   *handler.AccountHandler
	Cart      *handler.CartHandler
	Favourite *handler.FavouriteHandler
	Order     *handler.OrderHandler
	System    *handler.SystemHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	Logger         *zap.Logger
	Verifier       middleware.TokenVerifier
	Tracing        middleware.TracingConfig
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	// AuthLimiter throttles signup and signin per client IP. Nil disables it.
	AuthLimiter *middleware.RateLimiter
	BasePath    string
	// Swagger guards /swagger/*any; the zero value answers 404
	Swagger middleware.SwaggerConfig
}

// NewEngine builds the gin engine with the middleware chain and every route
func NewEngine(h Handlers, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(opts.Tracing),
		middleware.SpanEnricher(),
		middleware.CORSWithConfig(opts.CORS),
		middleware.Secure(),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)

	gate := middleware.JWTAuthMiddleware(opts.Verifier, log)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(opts.Swagger, gate),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	var routerOpts []RouterOption
	if opts.BasePath != "" {
		routerOpts = append(routerOpts, WithBasePath(opts.BasePath))
	}
	r := NewRouter(engine, routerOpts...)
	r.Register(authRoutes(h.Account, opts.AuthLimiter))
	r.Register(gatedRoutes(h, gate))
	r.Setup()

	return engine, nil
}

func authRoutes(h *handler.AccountHandler, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("account", "")
	if limiter != nil {
		g.Use(middleware.RateLimit(limiter))
	}
	return g.POST("/signup", h.Signup).
		POST("/signin", h.Signin)
}

func gatedRoutes(h Handlers, gate gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("shop", "").Use(gate)

	g.Group("cart", "/cart").
		GET("", h.Cart.List).
		POST("", h.Cart.Add).
		PATCH("", h.Cart.Remove)

	g.Group("order", "/order").
		GET("", h.Order.List).
		POST("", h.Order.Place)

	g.Group("favourite", "/favourite").
		GET("", h.Favourite.List).
		POST("", h.Favourite.Add).
		PATCH("", h.Favourite.Remove).
		DELETE("/:productId", h.Favourite.RemoveByPath)

	return g
}
