package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"retreat/internal/config"
	"retreat/internal/handler"
	"retreat/internal/httpmiddleware"
	"retreat/internal/logger"
	"retreat/internal/metrics"
	"retreat/internal/notify"
	"retreat/internal/photostore"
	"retreat/internal/registration"
	"retreat/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("", "info")
		bootLog.Fatal().Err(err).Msg("config load failed")
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	r, cleanup, err := newRouter(context.Background(), cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer cleanup()

	// Graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// newRouter wires the registration pipeline from cfg. cleanup releases the
// database and redis connections it opened.
func newRouter(ctx context.Context, cfg config.App, log zerolog.Logger, reg prometheus.Registerer) (*gin.Engine, func(), error) {
	checks := map[string]handler.HealthCheck{}
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	var ledger *registration.Repository
	if cfg.DatabaseURL != "" {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("database not reachable, registration ledger disabled")
		} else {
			closers = append(closers, db.Close)
			repo := registration.NewRepository(db.Client, db.Driver)
			if err := repo.Migrate(ctx); err != nil {
				return nil, cleanup, err
			}
			ledger = repo
			checks["db"] = db.Healthy
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, registration ledger disabled")
	}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == config.LimitRedis {
		redisClient, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, redisClient.Close)
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, "retreat:ratelimit", cfg.RateLimitPerMin)
		checks["redis"] = redisClient.Healthy
	}

	opts := []registration.Option{
		registration.WithLogger(log.With().Str("component", "registration").Logger()),
		registration.WithObserver(metrics.New(reg)),
	}
	if photos := newPhotoStore(cfg, log); photos != nil {
		opts = append(opts, registration.WithPhotoStore(photos))
	}
	if ledger != nil {
		opts = append(opts, registration.WithLedger(ledger))
	}

	if cfg.ResendAPIKey == "" {
		log.Warn().Msg("RESEND_API_KEY not set, every registration will fail at dispatch")
	}
	sender, err := notify.NewResend(cfg.ResendBaseURL, cfg.ResendAPIKey)
	if err != nil {
		return nil, cleanup, err
	}
	mailer := notify.NewMailer(
		notify.NewRenderer(cfg.EventName, cfg.Location()),
		sender,
		notify.MailerConfig{From: cfg.MailFrom, To: cfg.MailTo, Subject: cfg.MailSubject},
		log,
	)
	svc := registration.NewService(mailer, opts...)

	var lister handler.Lister
	if ledger != nil {
		lister = ledger
	}
	h := handler.New(svc, lister, registration.NewSchema(cfg.MaxPhotoBytes), checks, log)
	r := handler.NewRouter(h, handler.RouterConfig{
		Limiter:       limiter,
		JWTSigningKey: cfg.JWTSigningKey,
		JWTIssuer:     cfg.JWTIssuer,
		MaxBodyBytes:  cfg.MaxPhotoBytes,
		Log:           log,
	})
	return r, cleanup, nil
}

func newPhotoStore(cfg config.App, log zerolog.Logger) registration.PhotoStore {
	if !cfg.PhotoStoreConfigured() {
		log.Warn().Str("backend", cfg.PhotoBackend).Msg("photo storage not configured, photos will be skipped")
		return nil
	}
	switch cfg.PhotoBackend {
	case config.PhotoCloudinary:
		log.Info().Str("cloud", cfg.CloudinaryCloudName).Msg("cloudinary photo storage configured")
		return photostore.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	default:
		log.Info().Str("bucket", cfg.PhotoBucket).Msg("supabase photo storage configured")
		return photostore.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.PhotoBucket)
	}
}
