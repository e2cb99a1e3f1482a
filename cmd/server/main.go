package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/internal/auth"
	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/media"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/notify"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/router"
	"github.com/anonto42/inkwell/backend/internal/scheduler"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/anonto42/inkwell/backend/pkg/logger"
	"github.com/anonto42/inkwell/backend/pkg/mailer"
	"github.com/anonto42/inkwell/backend/pkg/validators"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return err
	}

	health := map[string]handlers.Pinger{
		"postgres": handlers.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	var activity repositories.ActivityRepository
	if db.Mongo != nil {
		mongoDB := db.Mongo.Database(cfg.MongoDatabase)
		if err := repositories.EnsureActivityIndexes(ctx, mongoDB); err != nil {
			logger.Warn("activity index not created", zap.Error(err))
		}
		activity = repositories.NewActivityRepository(mongoDB)
		health["mongo"] = handlers.PingFunc(func(ctx context.Context) error {
			return db.Mongo.Ping(ctx, nil)
		})
	}
	repos := router.NewRepositories(db.Postgres, activity)

	// Firebase is optional: without credentials only local accounts work.
	var (
		firebaseAuth middleware.IDTokenVerifier
		fbApp        *firebase.App
	)
	if cfg.FirebaseCredentialsPath != "" {
		fbApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return errors.Wrap(err, "initialize firebase")
		}
		firebaseAuth = fbApp.AuthClient
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set, Firebase login and web push disabled")
	}

	// Mail
	var sender mailer.Sender = mailer.NopSender{}
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn("SMTP_HOST not set, mail is logged instead of sent")
	}
	outbox := mailer.NewOutbox(sender, 256, 0)
	stopOutbox := outbox.Start(2)

	// Realtime: Redis fans out across instances, otherwise deliver locally.
	hub := realtime.NewHub()
	var publisher notify.Publisher = realtime.NewHubPublisher(hub)
	relayDone := make(chan struct{})
	if db.Redis != nil {
		publisher = realtime.NewRedisPublisher(db.Redis)
		relay := realtime.NewRelay(db.Redis, hub)
		go func() {
			defer close(relayDone)
			if err := relay.Run(ctx); err != nil {
				logger.Error("realtime relay stopped", zap.Error(err))
			}
		}()
		health["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return db.Redis.Ping(ctx).Err()
		})
	} else {
		close(relayDone)
	}

	opts := []notify.Option{
		notify.WithPublisher(publisher),
		notify.WithMailer(sender, repos.Users),
		notify.WithTimeout(cfg.NotifyTimeout),
	}
	if fbApp != nil && fbApp.Messaging != nil {
		opts = append(opts, notify.WithWebPush(firebase.NewWebPusher(fbApp.Messaging), repos.Devices))
	}
	dispatcher := notify.New(repos.Notifications, opts...)

	store, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaMaxBytes)
	if err != nil {
		return err
	}

	stopScheduler := scheduler.New(repos.Posts, cfg.SchedulerInterval).Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, cfg)

	router.SetupRoutes(e, router.Deps{
		Repos:           repos,
		Tokens:          auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		FirebaseAuth:    firebaseAuth,
		Notifier:        dispatcher,
		Mail:            outbox,
		Hub:             hub,
		Media:           store,
		PublicBaseURL:   cfg.PublicBaseURL,
		CommentMaxDepth: cfg.CommentMaxDepth,
		HealthChecks:    health,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			stopScheduler()
			dispatcher.Wait()
			_ = stopOutbox(context.Background())
			return errors.Wrap(err, "http server")
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Handlers stop first so nothing is enqueued after the outbox closes.
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	stopScheduler()
	dispatcher.Wait()
	if err := stopOutbox(shutdownCtx); err != nil {
		logger.Warn("mail outbox not drained", zap.Error(err))
	}
	stopSignals()
	<-relayDone
	return nil
}
