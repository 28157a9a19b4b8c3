package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/airport-service/internal/config"
	"github.com/iliyamo/airport-service/internal/handler"
	"github.com/iliyamo/airport-service/internal/middleware"
	"github.com/iliyamo/airport-service/internal/model"
)

// Handlers are the resource handlers mounted under /v1.
type Handlers struct {
	Crew         *handler.CrewHandler
	Airport      *handler.AirportHandler
	Route        *handler.RouteHandler
	AirplaneType *handler.AirplaneTypeHandler
	Airplane     *handler.AirplaneHandler
	Flight       *handler.FlightHandler
	Order        *handler.OrderHandler
	Ticket       *handler.TicketHandler
}

// Options carries the shared middleware settings.  A nil Redis client
// turns caching and rate limiting off.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

type resource interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

var writeMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func mount(g *echo.Group, r resource) {
	g.GET("", r.List)
	g.POST("", r.Create)
	g.GET("/:id", r.Get)
	g.PUT("/:id", r.Update)
	g.PATCH("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

// RegisterAPI mounts every /v1 resource.  All of them require a valid
// access token.  Reference data (crews, airports, routes, airplane types,
// airplanes, flights) is readable by everyone and writable by ADMIN only;
// orders and tickets are scoped to the caller inside the handlers.
//
// Reference data reads are served from the Redis cache and a successful
// write drops the cached pages of every resource that embeds it.  Flights,
// orders and tickets carry live availability or private data and are
// never cached.  Order and ticket writes also draw from the tighter
// per-user booking budget.
func RegisterAPI(e *echo.Echo, h Handlers, o Options) {
	v1 := e.Group("/v1",
		middleware.JWTAuth(o.JWTSecret),
		middleware.NewTokenBucket(o.RateLimit, o.Redis),
	)
	adminWrites := middleware.RequireRoleFor(writeMethods, model.RoleAdmin)
	cached := func(name string, invalidates ...string) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{
			adminWrites,
			middleware.NewRedisCache(o.Cache, o.Redis, name),
			middleware.InvalidateCache(o.Cache, o.Redis, append([]string{name}, invalidates...)...),
		}
	}

	mount(v1.Group("/crews", cached("crews")...), h.Crew)
	mount(v1.Group("/airports", cached("airports", "routes")...), h.Airport)
	mount(v1.Group("/routes", cached("routes")...), h.Route)
	mount(v1.Group("/airplane_types", cached("airplane_types", "airplanes")...), h.AirplaneType)

	planes := v1.Group("/airplanes", cached("airplanes")...)
	mount(planes, h.Airplane)
	planes.POST("/:id/upload-image", h.Airplane.UploadImage)

	mount(v1.Group("/flights", adminWrites), h.Flight)

	booking := middleware.NewBookingLimiter(o.RateLimit, o.Redis)
	orders := v1.Group("/orders", booking)
	orders.GET("", h.Order.List)
	orders.POST("", h.Order.Create)
	orders.GET("/:id", h.Order.Get)
	orders.DELETE("/:id", h.Order.Delete)

	tickets := v1.Group("/tickets", booking)
	mount(tickets, h.Ticket)
	tickets.GET("/:id/e-ticket", h.Ticket.ETicket)
}
