package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/api/handler"
	"github.com/simplify/marketplace-api/internal/api/middleware"
	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Auth     ports.AuthService
	Catalog  ports.CatalogService
	Requests ports.RequestService
	Messages ports.MessageService
	Ratings  ports.RatingService

	// Redis backs the auth rate limiter. Nil disables it.
	Redis     redis.Scripter
	RateLimit middleware.RateLimitConfig

	// Registerer receives the HTTP request metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all API routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "marketplace",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	offeringHandler := handler.NewOfferingHandler(deps.Catalog)
	requestHandler := handler.NewRequestHandler(deps.Requests)
	messageHandler := handler.NewMessageHandler(deps.Messages)
	ratingHandler := handler.NewRatingHandler(deps.Ratings)

	// --- Auth routes (public, rate limited) ---
	authGroup := e.Group("/auth")
	if deps.Redis != nil {
		authGroup.Use(middleware.RateLimit(deps.RateLimit, deps.Redis, deps.Log))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// --- Authenticated API ---
	client := middleware.RBAC(domain.RoleClient)
	provider := middleware.RBAC(domain.RoleProvider)

	v1 := e.Group("/v1", middleware.Auth(deps.Auth))

	v1.GET("/offerings", offeringHandler.List)
	v1.GET("/offerings/:id", offeringHandler.Get)
	v1.POST("/offerings", offeringHandler.Create, provider)
	v1.PUT("/offerings/:id", offeringHandler.Update, provider)
	v1.DELETE("/offerings/:id", offeringHandler.Delete, middleware.RBAC(domain.RoleProvider, domain.RoleAdmin))
	v1.GET("/providers/:id/offerings", offeringHandler.ListByProvider)

	v1.POST("/requests", requestHandler.Create, client)
	v1.GET("/requests/:id", requestHandler.Get)
	v1.PUT("/requests/:id/state", requestHandler.SetState, provider)
	v1.PUT("/requests/:id/finalize", requestHandler.Finalize, provider)
	v1.DELETE("/requests/:id", requestHandler.Delete)
	v1.GET("/clients/:id/requests", requestHandler.ListForClient, middleware.RBAC(domain.RoleClient, domain.RoleAdmin))
	v1.GET("/providers/:id/requests", requestHandler.ListForProvider, middleware.RBAC(domain.RoleProvider, domain.RoleAdmin))

	v1.POST("/requests/:id/messages", messageHandler.Send)
	v1.GET("/requests/:id/messages", messageHandler.List)

	v1.POST("/requests/:id/rating", ratingHandler.Rate, client)
	v1.GET("/providers/:id/ratings", ratingHandler.ListForProvider)

	v1.PUT("/admin/accounts/:id/role", authHandler.ChangeRole, middleware.RBAC(domain.RoleAdmin))
	v1.DELETE("/admin/accounts/:id", authHandler.DeleteAccount, middleware.RBAC(domain.RoleAdmin))

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			var ev *zerolog.Event
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Status >= 400:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("http request")
			return nil
		},
	})
}
