package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/auth"
	"github.com/anonto42/three-good-things/backend/internal/logging"
	"github.com/anonto42/three-good-things/backend/internal/metrics"
	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/router"
	"github.com/anonto42/three-good-things/backend/internal/services"
	"github.com/anonto42/three-good-things/backend/internal/storage"
	"github.com/anonto42/three-good-things/backend/pkg/config"
	"github.com/anonto42/three-good-things/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateServer(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.Env)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := config.InitDB(ctx, appConfig, logger)
	if err != nil {
		logger.Error("failed to initialize databases", zap.Error(err))
		return err
	}
	defer db.CloseDB()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	firebaseApp, err := firebase.InitFirebase(ctx, appConfig.FirebaseCredentialsPath, logger)
	if err != nil {
		logger.Error("failed to initialize firebase", zap.Error(err))
		return err
	}

	m := metrics.New()
	deps, err := buildDependencies(appConfig, db, firebaseApp, m, logger)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	config.SetupMiddleware(e, logger, m)
	router.SetupRoutes(e, deps)

	httpServer := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: e,
	}
	metricsServer := &http.Server{
		Addr:    ":" + appConfig.MetricsPort,
		Handler: m.Handler(),
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)
	for _, srv := range []*http.Server{httpServer, metricsServer} {
		group.Go(func() error {
			logger.Info("http server listening", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(httpServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func buildDependencies(cfg *config.Config, db *config.DB, app *firebase.App, m *metrics.Metrics, logger *zap.Logger) (router.Dependencies, error) {
	images, err := storage.NewFirebaseBucket(app.StorageClient, cfg.EntryImagesBucket, cfg.StoragePublicBaseURL)
	if err != nil {
		return router.Dependencies{}, err
	}
	avatars, err := storage.NewFirebaseBucket(app.StorageClient, cfg.AvatarsBucket, cfg.StoragePublicBaseURL)
	if err != nil {
		return router.Dependencies{}, err
	}
	tokens, err := auth.NewTokenManager(auth.TokenManagerConfig{SigningSecret: []byte(cfg.JWTSecret)})
	if err != nil {
		return router.Dependencies{}, err
	}

	profileRepo := repositories.NewPostgresProfileRepository(db.Relational)
	followRepo := repositories.NewPostgresFollowRepository(db.Relational)
	likeRepo := repositories.NewPostgresLikeRepository(db.Relational)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Relational)
	entryRepo := repositories.NewMongoEntryRepository(db.Journal)

	deps := router.Dependencies{Logger: logger}
	if deps.Auth, err = services.NewAuthService(services.AuthServiceConfig{
		Profiles:     profileRepo,
		Tokens:       tokens,
		Firebase:     auth.NewFirebaseVerifier(app.AuthClient),
		Logger:       logger.Named("auth"),
		StoreTimeout: cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Entries, err = services.NewEntryService(services.EntryServiceConfig{
		Entries:       entryRepo,
		Profiles:      profileRepo,
		Likes:         likeRepo,
		Notifications: notificationRepo,
		Images:        images,
		Logger:        logger.Named("entries"),
		Metrics:       m,
		StoreTimeout:  cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Follows, err = services.NewFollowService(services.FollowServiceConfig{
		Follows:       followRepo,
		Profiles:      profileRepo,
		Notifications: notificationRepo,
		Logger:        logger.Named("follows"),
		Metrics:       m,
		StoreTimeout:  cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Likes, err = services.NewLikeService(services.LikeServiceConfig{
		Likes:         likeRepo,
		Entries:       entryRepo,
		Notifications: notificationRepo,
		Logger:        logger.Named("likes"),
		Metrics:       m,
		StoreTimeout:  cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Notifications, err = services.NewNotificationService(services.NotificationServiceConfig{
		Notifications: notificationRepo,
		Profiles:      profileRepo,
		Entries:       entryRepo,
		Logger:        logger.Named("notifications"),
		StoreTimeout:  cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Profiles, err = services.NewProfileService(services.ProfileServiceConfig{
		Profiles:     profileRepo,
		Avatars:      avatars,
		Logger:       logger.Named("profiles"),
		Metrics:      m,
		StoreTimeout: cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	if deps.Users, err = services.NewUserService(services.UserServiceConfig{
		Profiles:     profileRepo,
		Follows:      followRepo,
		Entries:      entryRepo,
		Logger:       logger.Named("users"),
		StoreTimeout: cfg.StoreTimeout,
	}); err != nil {
		return router.Dependencies{}, err
	}
	return deps, nil
}
