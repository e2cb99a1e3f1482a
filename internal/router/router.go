package router

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/auth"
	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/media"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// Repositories groups the stores shared by the handlers and the
// background workers.
type Repositories struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Categories    repositories.CategoryRepository
	Comments      repositories.CommentRepository
	Reactions     repositories.ReactionRepository
	Bookmarks     repositories.BookmarkRepository
	Follows       repositories.FollowRepository
	Notifications repositories.NotificationRepository
	Devices       repositories.DeviceRepository
	Stats         repositories.StatsRepository
	Activity      repositories.ActivityRepository
}

// NewRepositories builds the PostgreSQL repositories. activity may be nil,
// in which case activity logging is a no-op.
func NewRepositories(pgdb *gorm.DB, activity repositories.ActivityRepository) *Repositories {
	if activity == nil {
		activity = repositories.NopActivityRepository{}
	}
	return &Repositories{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Posts:         repositories.NewPostgresPostRepository(pgdb),
		Categories:    repositories.NewPostgresCategoryRepository(pgdb),
		Comments:      repositories.NewPostgresCommentRepository(pgdb),
		Reactions:     repositories.NewPostgresReactionRepository(pgdb),
		Bookmarks:     repositories.NewPostgresBookmarkRepository(pgdb),
		Follows:       repositories.NewPostgresFollowRepository(pgdb),
		Notifications: repositories.NewPostgresNotificationRepository(pgdb),
		Devices:       repositories.NewPostgresDeviceRepository(pgdb),
		Stats:         repositories.NewPostgresStatsRepository(pgdb),
		Activity:      activity,
	}
}

// Migrate creates or updates every PostgreSQL table.
func Migrate(pgdb *gorm.DB) error {
	if err := pgdb.AutoMigrate(models.Tables()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	logger.Info("PostgreSQL auto-migrations completed")
	return nil
}

// Deps is everything the routes need. FirebaseAuth, Mail, Media and the
// health checks are optional.
type Deps struct {
	Repos           *Repositories
	Tokens          *auth.TokenIssuer
	FirebaseAuth    middleware.IDTokenVerifier
	Notifier        handlers.Notifier
	Mail            handlers.MailQueue
	Hub             handlers.Subscriber
	Media           *media.DiskStore
	PublicBaseURL   string
	CommentMaxDepth int
	HealthChecks    map[string]handlers.Pinger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	r := d.Repos

	e.GET("/health", handlers.HealthCheck(d.HealthChecks))

	var mediaStore handlers.MediaStore
	if d.Media != nil {
		e.Static(media.URLPrefix, d.Media.Dir())
		mediaStore = d.Media
	}

	var resolver *middleware.FirebaseResolver
	if d.FirebaseAuth != nil {
		resolver = middleware.NewFirebaseResolver(d.FirebaseAuth, r.Users)
	}

	authHandler := handlers.NewAuthHandler(r.Users, d.FirebaseAuth, d.Tokens, d.Mail, d.PublicBaseURL)
	userHandler := handlers.NewUserHandler(r.Users, r.Devices)
	postHandler := handlers.NewPostHandler(r.Posts, r.Categories, r.Users, r.Reactions, r.Bookmarks, mediaStore)
	categoryHandler := handlers.NewCategoryHandler(r.Categories, r.Users)
	commentHandler := handlers.NewCommentHandler(r.Comments, r.Posts, r.Users, d.Notifier, d.CommentMaxDepth)
	reactionHandler := handlers.NewReactionHandler(r.Reactions, r.Bookmarks, r.Posts, r.Users, d.Notifier)
	followHandler := handlers.NewFollowHandler(r.Follows, r.Users, d.Notifier)
	feedHandler := handlers.NewFeedHandler(r.Posts, r.Follows, r.Reactions, r.Bookmarks)
	notificationHandler := handlers.NewNotificationHandler(r.Notifications, r.Users)
	activityHandler := handlers.NewActivityHandler(r.Activity)
	adminHandler := handlers.NewAdminHandler(r.Users, r.Posts, r.Stats, r.Activity, d.Notifier)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Public reads; a valid token personalises the response ---
	public := e.Group("/api/v1",
		middleware.OptionalJWTAuth(d.Tokens),
		middleware.ActivityLogger(r.Activity),
	)
	userHandler.RegisterPublicUserRoutes(public)
	postHandler.RegisterPublicPostRoutes(public)
	categoryHandler.RegisterPublicCategoryRoutes(public)
	commentHandler.RegisterPublicCommentRoutes(public)
	reactionHandler.RegisterPublicReactionRoutes(public)
	followHandler.RegisterPublicFollowRoutes(public)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1",
		middleware.JWTAuthMiddleware(d.Tokens, resolver),
		middleware.ActivityLogger(r.Activity),
	)
	authHandler.RegisterAccountRoutes(api)
	userHandler.RegisterProfileRoutes(api)
	postHandler.RegisterPostRoutes(api)
	categoryHandler.RegisterCategoryRoutes(api)
	commentHandler.RegisterCommentRoutes(api)
	reactionHandler.RegisterReactionRoutes(api)
	followHandler.RegisterFollowRoutes(api)
	feedHandler.RegisterFeedRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)
	activityHandler.RegisterActivityRoutes(api)
	if d.Hub != nil {
		handlers.NewRealtimeHandler(d.Hub).RegisterRealtimeRoutes(api)
	}

	adminHandler.RegisterAdminRoutes(api.Group("/admin"))

	logger.Info("routes configured")
}
