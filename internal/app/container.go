package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/api"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/appointment"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/audit"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/auth"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/notify"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	RateLimitRPS   float64
	RateLimitBurst int
	CacheTTL       time.Duration
	SSEHeartbeat   time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Hub        *notify.Hub
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Service catalog
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	cat := catalog.NewCatalog(catalogRepo)

	// Audit trail
	auditRepo := audit.NewPgxRepository(cfg.DBPool)
	recorder := audit.NewRecorder(auditRepo)

	// Live notifications
	hub := notify.NewHub(cfg.SSEHeartbeat)

	// Appointment module; its repository doubles as the booked-slot source
	// for availability checks.
	appointmentRepo := appointment.NewPgxRepository(cfg.DBPool)

	// Availability module
	availabilityRepo := availability.NewPgxRepository(cfg.DBPool)
	checker := availability.NewChecker(availabilityRepo, appointmentRepo)
	availabilityService := availability.NewService(availabilityRepo, appointmentRepo)

	appointmentService := appointment.NewService(
		appointmentRepo,
		cat,
		userService,
		checker,
		recorder,
		hub,
	)

	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		CacheTTL:            cfg.CacheTTL,
		UserService:         userService,
		Catalog:             cat,
		AvailabilityService: availabilityService,
		AvailabilityChecker: checker,
		AppointmentService:  appointmentService,
		Hub:                 hub,
		JWTManager:          jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Hub:        hub,
	}
}
