package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/appointment"
	appointmentHttp "github.com/itsc-helpdesk/helpdesk-backend/internal/appointment/http"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/auth"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
	availabilityHttp "github.com/itsc-helpdesk/helpdesk-backend/internal/availability/http"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"
	catalogHttp "github.com/itsc-helpdesk/helpdesk-backend/internal/catalog/http"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/mw"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/notify"
	notifyHttp "github.com/itsc-helpdesk/helpdesk-backend/internal/notify/http"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/user"
	userHttp "github.com/itsc-helpdesk/helpdesk-backend/internal/user/http"
)

// Config holds the dependencies and settings required to assemble the router.
type Config struct {
	IsProduction bool
	ProdOrigins  []string

	RateLimitRPS   float64
	RateLimitBurst int
	CacheTTL       time.Duration

	UserService         user.Service
	Catalog             catalog.Catalog
	AvailabilityService availability.Service
	AvailabilityChecker *availability.Checker
	AppointmentService  appointment.Service
	Hub                 *notify.Hub
	JWTManager          *auth.JWTManager
}

// NewRouter assembles the HTTP engine: global middleware (logging, recovery,
// CORS), module handlers and the /v1 route tree.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := auth.AdminRequired()
	rateLimitMiddleware := mw.RateLimit(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	cacheMiddleware := mw.Cache(cache.New(cfg.CacheTTL, 2*cfg.CacheTTL), cfg.CacheTTL)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	catalogHandler := catalogHttp.NewHandler(cfg.Catalog)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService, cfg.AvailabilityChecker)
	appointmentHandler := appointmentHttp.NewHandler(cfg.AppointmentService)
	notifyHandler := notifyHttp.NewHandler(cfg.Hub)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		catalogHttp.RegisterRoutes(v1, catalogHandler, cacheMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware)
		appointmentHttp.RegisterRoutes(v1, appointmentHandler, authMiddleware, rateLimitMiddleware, cacheMiddleware)
		notifyHttp.RegisterRoutes(v1, notifyHandler, authMiddleware, adminMiddleware)
	}

	return r
}
