// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lsablog/internal/cache"
	"lsablog/internal/config"
	"lsablog/internal/database"
	"lsablog/internal/featureflags"
	"lsablog/internal/identity"
	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/outbound"
	"lsablog/internal/repository"
	"lsablog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FormForwarder delivers public form submissions to the editors.
type FormForwarder interface {
	Subscribe(ctx context.Context, email string) error
	Contact(ctx context.Context, msg outbound.ContactMessage) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	auth           middleware.Authenticator
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	forwarder      FormForwarder
	postService    *service.PostService
	commentService *service.CommentService
	likeService    *service.LikeService
}

// NewServer connects the configured store and Redis and builds the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	var (
		db     *gorm.DB
		stores repository.Stores
	)
	if cfg.StoreBackend == config.StoreMemory {
		middleware.Logger.Warn("Using in-memory store; data is lost on restart")
		stores = repository.NewMemoryStore().Stores()
	} else {
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		stores = repository.NewStores(db)
	}

	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		// Redis only backs caching and events; serve without it.
		middleware.Logger.Warn("Redis unavailable, continuing without cache and events", slog.String("error", err.Error()))
		redisClient = nil
	}

	return NewServerWithDeps(cfg, db, stores, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies. db and
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, stores repository.Stores, redisClient *redis.Client) (*Server, error) {
	if stores.Posts == nil || stores.Comments == nil || stores.Likes == nil {
		return nil, errors.New("server: incomplete repository set")
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("lsablog-api"),
		auth:           identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		featureFlags:   flags,
		forwarder: outbound.NewForwarder(outbound.Config{
			APIURL:      cfg.NewsletterAPIURL,
			APIKey:      cfg.NewsletterAPIKey,
			TargetEmail: cfg.NewsletterTargetEmail,
			From:        cfg.NewsletterFrom,
		}),
	}

	opts := []service.Option{
		service.WithCache(cache.New(redisClient, time.Duration(cfg.CacheTTLSecs)*time.Second)),
	}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient, flags)
		opts = append(opts, service.WithEvents(server.notifier))
	}

	server.postService = service.NewPostService(stores.Posts, stores.Likes, opts...)
	server.commentService = service.NewCommentService(stores.Posts, stores.Comments, opts...)
	server.likeService = service.NewLikeService(stores.Posts, stores.Likes, opts...)
	return server, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "LSA Blog API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Span per request; stores the trace id for the context middleware
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:8080,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	optionalAuth := middleware.OptionalAuth(s.auth)
	authRequired := middleware.AuthRequired(s.auth)

	api := app.Group("/api")

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.ListPosts)
	posts.Post("/", authRequired, s.CreatePost)
	// Registered before /:id so "drafts" is not parsed as an id.
	posts.Get("/drafts", authRequired, s.ListDrafts)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)
	posts.Post("/:id/publish", authRequired, s.PublishPost)
	posts.Post("/:id/unpublish", authRequired, s.UnpublishPost)

	posts.Get("/:id/comments", optionalAuth, s.ListComments)
	posts.Post("/:id/comments", optionalAuth, s.AddComment)

	posts.Get("/:id/like", optionalAuth, s.LikeStatus)
	posts.Post("/:id/like", optionalAuth, s.Like)

	api.Post("/newsletter", s.Subscribe)
	api.Post("/contact", s.Contact)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "memory"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	// Redis is optional: without it reads skip the cache and events are dropped.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("close sql db: %w", cerr))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
