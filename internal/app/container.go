package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/hotel-booking-backend/internal/api"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hotel-booking-backend/internal/role"
	"github.com/nekogravitycat/hotel-booking-backend/internal/room"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	StoragePath   string
	ThumbnailSize int

	// Redis enables the reservation rate limiter when non-nil.
	Redis                   *redis.Client
	RateLimitCapacity       int
	RateLimitRefillInterval time.Duration

	// Events receives booking lifecycle events. Nil drops them.
	Events booking.EventPublisher
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	localStorage, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init photo storage: %w", err)
	}
	photos := storage.NewPhotoStore(localStorage, storage.NewImageProcessor(cfg.ThumbnailSize, cfg.ThumbnailSize), "rooms")

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Role Module
	roleRepo := role.NewPgxRepository(cfg.DBPool)
	roleService := role.NewService(roleRepo, userService)

	// Room Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo, photos)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, roomService, nil, cfg.Events)

	// A nil *redis.Client must not reach the limiter as a non-nil interface.
	var scripter redis.Scripter
	if cfg.Redis != nil {
		scripter = cfg.Redis
	}
	reserveLimiter := ratelimit.Middleware(ratelimit.Config{
		Enabled:        true,
		Capacity:       cfg.RateLimitCapacity,
		RefillTokens:   1,
		RefillInterval: cfg.RateLimitRefillInterval,
		Prefix:         "rl:reserve",
	}, scripter)

	// API Router Config
	routerParams := api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		RoleService:    roleService,
		RoomService:    roomService,
		BookingService: bookingService,
		JWTManager:     jwtManager,
		ReserveLimiter: reserveLimiter,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
	}, nil
}
