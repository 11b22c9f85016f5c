// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "collegeconnect/docs" // swagger docs
	"collegeconnect/internal/cache"
	"collegeconnect/internal/config"
	"collegeconnect/internal/database"
	"collegeconnect/internal/featureflags"
	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
	"collegeconnect/internal/notifications"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	wsTicketPrefix = "ws_ticket:"
	wsTicketTTL    = 30 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	engagementService   *service.EngagementService
	notificationService *service.NotificationService
	membershipService   *service.MembershipService
	teamService         *service.TeamService
	projectService      *service.ProjectService
	eventService        *service.EventService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	models.ExposeErrorDetails = !cfg.IsProduction()

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("collegeconnect-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
	}

	// The hub always exists so a single process can stream without Redis.
	// With Redis, events travel through pub/sub to every process.
	server.hub = notifications.NewHub(redisClient)
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}
	server.wireServices()
	server.wirePresence()

	return server, nil
}

func (s *Server) wireServices() {
	postRepo := repository.NewPostRepository(s.db)
	commentRepo := repository.NewCommentRepository(s.db)
	teamRepo := repository.NewTeamRepository(s.db)
	projectRepo := repository.NewProjectRepository(s.db)
	eventRepo := repository.NewEventRepository(s.db)
	membershipRepo := repository.NewMembershipRepository(s.db)
	publisher := newRealtimePublisher(s.hub, s.notifier)

	s.notificationService = service.NewNotificationService(repository.NewNotificationRepository(s.db), publisher)
	s.userService = service.NewUserService(s.userRepo, s.isAdminByUserID)
	s.postService = service.NewPostService(postRepo, s.featureFlags, publisher, s.isAdminByUserID)
	s.commentService = service.NewCommentService(commentRepo, postRepo, s.notificationService, publisher, s.isAdminByUserID)
	s.engagementService = service.NewEngagementService(repository.NewVoteRepository(s.db), s.notificationService, publisher)
	s.membershipService = service.NewMembershipService(membershipRepo, s.userRepo, s.notificationService, publisher, s.isAdminByUserID)
	s.teamService = service.NewTeamService(teamRepo, eventRepo, membershipRepo, s.isAdminByUserID)
	s.projectService = service.NewProjectService(projectRepo, s.isAdminByUserID)
	s.eventService = service.NewEventService(eventRepo, s.userRepo, teamRepo, membershipRepo, s.notificationService, publisher, s.isAdminByUserID)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    models.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.HealthCheck)
	api.Get("/health", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CollegeConnect API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authRequired := s.AuthRequired()

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", authRequired, s.Me)
	auth.Put("/profile", authRequired, s.UpdateMyProfile)
	auth.Put("/password", authRequired, s.ChangePassword)
	auth.Post("/logout", authRequired, s.Logout)

	// Specific /users paths are registered before /:id.
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/search/skills", s.SearchUsersBySkills)
	users.Get("/college/:college", s.GetUsersByCollege)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", authRequired, s.UpdateUser)
	users.Delete("/:id", authRequired, s.AdminRequired(), s.DeactivateUser)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", authRequired, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/upvote", authRequired, s.UpvotePost)
	posts.Post("/:id/downvote", authRequired, s.DownvotePost)
	posts.Delete("/:id/vote", authRequired, s.RemovePostVote)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id/replies", s.GetReplies)
	comments.Post("/:id/upvote", authRequired, s.UpvoteComment)
	comments.Post("/:id/downvote", authRequired, s.DownvoteComment)
	comments.Delete("/:id/vote", authRequired, s.RemoveCommentVote)
	comments.Put("/:id", authRequired, s.UpdateComment)
	comments.Delete("/:id", authRequired, s.DeleteComment)

	teams := api.Group("/teams")
	teams.Get("/", s.GetTeams)
	teams.Post("/", authRequired, s.CreateTeam)
	teams.Get("/:id", s.GetTeam)
	teams.Put("/:id", authRequired, s.UpdateTeam)
	teams.Delete("/:id", authRequired, s.DisbandTeam)
	s.registerMembershipRoutes(teams, models.KindTeam, authRequired)

	projects := api.Group("/projects")
	projects.Get("/", s.GetProjects)
	projects.Post("/", authRequired, s.CreateProject)
	projects.Post("/:id/milestones", authRequired, s.AddMilestone)
	projects.Post("/:id/milestones/:milestoneId/complete", authRequired, s.CompleteMilestone)
	projects.Get("/:id", s.GetProject)
	projects.Put("/:id", authRequired, s.UpdateProject)
	projects.Delete("/:id", authRequired, s.CancelProject)
	s.registerMembershipRoutes(projects, models.KindProject, authRequired)

	events := api.Group("/events")
	events.Get("/", s.GetEvents)
	events.Post("/", authRequired, s.CreateEvent)
	events.Get("/:id/participants", s.GetParticipants)
	events.Post("/:id/register", authRequired, middleware.RateLimit(s.redis, 20, time.Minute, "event_register"), s.RegisterForEvent)
	events.Delete("/:id/register", authRequired, s.UnregisterFromEvent)
	events.Get("/:id", s.GetEvent)
	events.Put("/:id", authRequired, s.UpdateEvent)
	events.Delete("/:id", authRequired, s.CancelEvent)

	notes := api.Group("/notifications", authRequired)
	notes.Get("/", s.GetNotifications)
	notes.Get("/count", s.GetUnreadCount)
	notes.Put("/read", s.MarkNotificationsRead)
	notes.Put("/:id/archive", s.ArchiveNotification)

	api.Post("/ws/ticket", authRequired, s.IssueWSTicket)
	api.Get("/ws", authRequired, s.WebsocketHandler())

	admin := api.Group("/admin", authRequired, s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// registerMembershipRoutes mounts the join request and roster endpoints
// shared by teams and projects.
func (s *Server) registerMembershipRoutes(group fiber.Router, kind models.EntityKind, authRequired fiber.Handler) {
	group.Post("/:id/join-requests", authRequired,
		middleware.RateLimit(s.redis, 10, 10*time.Minute, string(kind)+"_join_request"), s.SendJoinRequest(kind))
	group.Get("/:id/join-requests", authRequired, s.GetJoinRequests(kind))
	group.Post("/:id/join-requests/:requestId/respond", authRequired, s.RespondToJoinRequest(kind))
	group.Get("/:id/members", s.GetMembers(kind))
	group.Post("/:id/members", authRequired, s.AddMember(kind))
	group.Delete("/:id/members/:userId", authRequired, s.RemoveMember(kind))
}

// HealthCheck is an alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
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
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "CollegeConnect API",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return s.respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		// 1. WebSocket ticket (short-lived, single-use)
		if ticket := c.Query("ticket"); ticket != "" {
			if userID, ok := s.consumeWSTicket(c.Context(), ticket); ok {
				return s.authenticated(c, userID)
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Bearer token
		tokenString, ok := middleware.BearerToken(c.Get("Authorization"))
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.Context(), middleware.RevocationKey(claims.JTI)).Result()
			if err != nil {
				middleware.RedisErrors.WithLabelValues("blacklist").Inc()
			} else if revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("jti", claims.JTI)
		c.Locals("tokenExpiresAt", claims.ExpiresAt)
		return s.authenticated(c, claims.UserID)
	}
}

func (s *Server) authenticated(c *fiber.Ctx, userID uint) error {
	c.Locals("userID", userID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
	return c.Next()
}

// consumeWSTicket atomically reads and deletes a ticket.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(ctx, wsTicketPrefix+ticket).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("ws_ticket").Inc()
		}
		return 0, false
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return 0, false
	}
	return uint(userID), true
}

// optionalUserID extracts the caller from a Bearer token without enforcing
// authentication. Public endpoints use it to tailor visibility.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	tokenString, ok := middleware.BearerToken(c.Get("Authorization"))
	if !ok {
		return 0
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
	if err != nil {
		return 0
	}
	return claims.UserID
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "CollegeConnect API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			return s.respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.Any("error", err))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.Any("error", err))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("hub", s.hub.Name()), slog.Any("error", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.Any("error", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.Any("error", rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
