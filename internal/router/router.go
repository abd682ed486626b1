package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/config"
	"github.com/iliyamo/smartstay/internal/handler"
	"github.com/iliyamo/smartstay/internal/middleware"
	"github.com/iliyamo/smartstay/internal/model"
)

// Deps is everything the route table needs.  Redis may be nil, in which
// case rate limiting and response caching are disabled.
type Deps struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger

	Health     *handler.HealthHandler
	Visitors   *handler.VisitorHandler
	Rooms      *handler.RoomHandler
	Finance    *handler.FinanceHandler
	Facilities *handler.FacilityHandler
	Search     *handler.SearchHandler
}

// Purger returns the cache purge hook handed to write handlers.
func Purger(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) handler.Purger {
	return func(ctx context.Context, namespace string) {
		middleware.PurgeCache(ctx, cfg, rdb, namespace, log)
	}
}

// RegisterRoutes mounts /healthz and the authenticated /api tree.  Every
// /api route requires a valid bearer token; the per-route role guards are
// applied in the register* helpers.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.Health != nil {
		e.GET("/healthz", d.Health.Health)
	}

	api := e.Group("/api",
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
	)
	student := middleware.RequireRole(model.RoleStudent)
	admin := middleware.RequireRole(model.RoleAdmin)
	anyone := middleware.RequireRole(model.RoleStudent, model.RoleAdmin)
	cache := func(namespace string) echo.MiddlewareFunc {
		return middleware.NewRedisCache(d.Cache, d.Redis, namespace)
	}

	if d.Visitors != nil {
		registerVisitors(api, d.Visitors, student, admin, anyone)
	}
	if d.Finance != nil {
		registerFinance(api, d.Finance, student, admin, anyone)
	}
	if d.Facilities != nil {
		registerHostel(api, d.Facilities, admin, anyone, cache)
	}
	if d.Rooms != nil {
		registerRooms(api, d.Rooms, admin)
	}
	if d.Search != nil {
		api.GET("/search", d.Search.Global, admin, cache(handler.NamespaceSearch))
	}
}
