// Package server exposes the relationship engines over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/database"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/notifications"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
	"socialgraph/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	serviceName     = "socialgraph"
	shutdownTimeout = 10 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	requests       *service.FriendRequestService
	friends        *service.FriendService
	follows        *service.FollowService
}

// NewServer connects to the database and Redis described by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.Connect(context.Background(), cfg.RedisURL)
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, notifications and rate limits are then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...service.Option) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	friendRepo := repository.NewFriendRepository(db)
	followRepo := repository.NewFollowRepository(db)

	ttl := time.Duration(cfg.FriendsCacheTTLSeconds) * time.Second
	friends := service.NewFriendService(friendRepo, cache.NewStore(redisClient, "friends"), ttl)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: observability.HTTPMetrics(serviceName),
		notifier:       notifications.NewNotifier(redisClient),
		requests:       service.NewFriendRequestService(friendRepo, friends, opts...),
		friends:        friends,
		follows:        service.NewFollowService(followRepo, opts...),
	}, nil
}

// App builds a fiber app with the middleware chain and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Social Graph API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
			}
			return models.RespondWithAppError(c, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware installs the global middleware chain.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	app.Use(middleware.TracingMiddleware())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))
}

// SetupRoutes registers health, metrics and relationship routes.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", middleware.AuthRequired(s.config.JWTSecret))

	requests := api.Group("/friends/requests")
	requests.Post("/", middleware.RateLimit(
		s.redis, 20, 5*time.Minute, "friend_request"), s.AddFriend)
	requests.Get("/", s.GetRequests)
	requests.Get("/sent", s.GetSentRequests)
	requests.Get("/unread", s.GetUnreadRequests)
	requests.Get("/read", s.GetReadRequests)
	requests.Get("/rejected", s.GetRejectedRequests)
	requests.Get("/unrejected", s.GetUnrejectedRequests)
	requests.Get("/counts", s.GetRequestCounts)
	requests.Get("/:requestId", s.GetRequest)
	requests.Post("/:requestId/accept", s.AcceptRequest)
	requests.Post("/:requestId/reject", s.RejectRequest)
	requests.Delete("/:requestId", s.CancelRequest)

	friends := api.Group("/friends")
	friends.Get("/", s.GetMyFriends)
	friends.Get("/:userId/status", s.GetFriendshipStatus)
	friends.Delete("/:userId", s.RemoveFriend)

	follows := api.Group("/follows")
	follows.Get("/counts", s.GetFollowCounts)
	follows.Post("/:userId", middleware.RateLimit(
		s.redis, 30, time.Minute, "follow"), s.Follow)
	follows.Delete("/:userId", s.Unfollow)
	follows.Get("/:userId", s.GetFollowStatus)

	api.Get("/followers", s.GetMyFollowers)
	api.Get("/following", s.GetMyFollowing)

	users := api.Group("/users")
	users.Get("/:userId/friends", s.GetUserFriends)
	users.Get("/:userId/followers", s.GetUserFollowers)
	users.Get("/:userId/following", s.GetUserFollowing)
}

// LivenessCheck reports that the process is serving requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional here: the engines degrade to uncached reads without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown releases the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	middleware.Logger.InfoContext(ctx, "Server resources released", slog.Int("errors", len(errs)))
	return errors.Join(errs...)
}

// Serve runs app on ln until ctx is done or the listener fails. It then drains
// the app, releases the server's resources and runs cleanups in order, and
// returns only after all of them finished.
func (s *Server) Serve(ctx context.Context, app *fiber.App, ln net.Listener, cleanups ...func(context.Context) error) error {
	listenErr := make(chan error, 1)
	go func() { listenErr <- app.Listener(ln) }()

	var errs []error
	select {
	case err := <-listenErr:
		if err != nil {
			errs = append(errs, fmt.Errorf("listen: %w", err))
		}
	case <-ctx.Done():
		middleware.Logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, cleanup := range cleanups {
		if err := cleanup(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartNotificationLog subscribes to every user notification channel and logs
// each event at debug level until ctx is done. It is a no-op without Redis.
func (s *Server) StartNotificationLog(ctx context.Context) error {
	return s.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		middleware.Logger.DebugContext(ctx, "Notification published",
			slog.String("channel", channel),
			slog.String("payload", payload),
		)
	})
}
