package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shopie/internal/config"
	"shopie/internal/database"
	"shopie/internal/mail"
	custommiddleware "shopie/internal/middleware"
	"shopie/internal/repository"
	"shopie/internal/service"
	"shopie/internal/token"
	"shopie/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services bundles the business services the HTTP layer is built on
type Services struct {
	Auth     service.AuthService
	Users    service.UserService
	Products service.ProductService
	Carts    service.CartService
}

// RouterOptions configures NewRouter
type RouterOptions struct {
	Config    *config.Config
	Logger    *zap.Logger
	Tokens    *token.Manager
	Services  Services
	RateLimit func(http.Handler) http.Handler
	Health    func() map[string]string
}

// NewRouter builds the chi router with the middleware stack and every /api route
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(opts.Config.Server.AllowedOrigins, !opts.Config.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "up"}
		if opts.Health != nil {
			health = opts.Health()
		}
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	rateLimit := opts.RateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}
	authMiddleware := custommiddleware.AuthMiddleware(opts.Tokens, logger)

	router.Route("/api", func(r chi.Router) {
		transport.NewAuthHandler(opts.Services.Auth, logger).RegisterRoutes(r, authMiddleware, rateLimit)
		transport.NewProductHandler(opts.Services.Products, logger).RegisterRoutes(r, authMiddleware)
		transport.NewCartHandler(opts.Services.Carts, logger).RegisterRoutes(r, authMiddleware)
		transport.NewUserHandler(opts.Services.Users, logger).RegisterRoutes(r, authMiddleware)
		transport.NewAdminUserHandler(opts.Services.Users, logger).RegisterRoutes(r, authMiddleware)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// NewServices wires repositories over the database into the business services
func NewServices(cfg *config.Config, logger *zap.Logger, db database.Service, tokens *token.Manager, mailer mail.Mailer) Services {
	userRepo := repository.NewUserRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())

	return Services{
		Auth:     service.NewAuthService(userRepo, tokens, mailer, cfg.Auth.BcryptCost, logger),
		Users:    service.NewUserService(userRepo, mailer, cfg.Auth.BcryptCost, logger),
		Products: service.NewProductService(productRepo, logger),
		Carts:    service.NewCartService(cartRepo, productRepo, logger),
	}
}

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       database.Service
	redis    *redis.Client
	limiter  *custommiddleware.LocalRateLimiter
	services Services
	stop     chan struct{}
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, mailer mail.Mailer) *Server {
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.ResetTokenExpiry)
	services := NewServices(cfg, logger, db, tokens, mailer)

	s := &Server{
		config:   cfg,
		logger:   logger,
		db:       db,
		services: services,
		stop:     make(chan struct{}),
	}

	limitConfig := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "shopie:ratelimit:auth",
	}
	var rateLimit func(http.Handler) http.Handler
	if cfg.Redis.Enabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rateLimit = custommiddleware.RateLimitMiddleware(s.redis, limitConfig, logger)
		logger.Info("Using Redis rate limiter", zap.String("addr", cfg.Redis.Addr()))
	} else {
		s.limiter = custommiddleware.NewLocalRateLimiter(limitConfig, logger)
		rateLimit = s.limiter.Middleware
		go s.sweepLimiter()
	}

	router := NewRouter(RouterOptions{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Services:  services,
		RateLimit: rateLimit,
		Health:    s.health,
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) health() map[string]string {
	health := s.db.Health()
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			health["redis"] = "down"
			s.logger.Warn("Redis health check failed", zap.Error(err))
		} else {
			health["redis"] = "up"
		}
	}
	return health
}

func (s *Server) sweepLimiter() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Cleanup(3 * time.Minute)
		case <-s.stop:
			return
		}
	}
}

// EnsureAdmin creates the configured bootstrap admin. Failures are logged only.
func (s *Server) EnsureAdmin(ctx context.Context) {
	email := s.config.Auth.AdminEmail
	if email == "" || s.config.Auth.AdminPassword == "" {
		s.logger.Debug("No bootstrap admin configured")
		return
	}
	if err := s.services.Auth.EnsureAdmin(ctx, email, s.config.Auth.AdminPassword); err != nil {
		s.logger.Error("Failed to ensure admin user", zap.String("email", email), zap.Error(err))
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")
	close(s.stop)

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
