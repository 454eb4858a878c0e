package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/attendance"
	"classhelper/internal/auth"
	"classhelper/internal/cloudinary"
	"classhelper/internal/config"
	"classhelper/internal/enrich"
	"classhelper/internal/httpmiddleware"
	"classhelper/internal/logging"
	"classhelper/internal/session"
	"classhelper/internal/store"
	"classhelper/internal/students"
	"classhelper/internal/vocab"
	"classhelper/internal/web"
)

const defaultSecret = "dev-session-secret-change"

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	if cfg.Production() && cfg.SessionSecret == defaultSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sessionStore, closeStore, err := openSessionStore(startCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("session store ready", zap.String("backend", cfg.SessionBackend))

	sessions := session.NewManager(sessionStore, session.Options{
		Secret:     cfg.SessionSecret,
		Issuer:     cfg.SessionIssuer,
		TTL:        cfg.SessionTTL,
		CookieName: cfg.SessionCookie,
		Secure:     cfg.Production(),
	})

	// Cloudinary client (nil when not configured)
	var uploader students.Uploader
	if cfg.CloudinaryConfigured() {
		uploader = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		logger.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloudName))
	} else {
		logger.Info("cloudinary not configured, profile photo uploads disabled")
	}

	fanout := enrich.Options{Limit: cfg.EnrichLimit, Dedup: cfg.EnrichDedup}
	pages, err := web.New(web.Deps{
		API:         api.New(cfg.APIBaseURL, cfg.DictionaryBaseURL, cfg.APITimeout),
		Sessions:    sessions,
		Auth:        auth.NewService(logger, sessions),
		Students:    students.NewService(logger, uploader),
		Attendance:  attendance.NewService(logger, fanout),
		Vocab:       vocab.NewService(logger, fanout),
		Log:         logger,
		PageTimeout: cfg.PageTimeout,
	})
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(httpmiddleware.Recovery(logger))
	r.Use(httpmiddleware.RequestLogger(logger, "/healthz", "/metrics"))
	r.Use(httpmiddleware.SecurityHeaders(cfg.Production()))
	r.Use(httpmiddleware.NewTokenBucket("global", cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		healthy := sessions.Healthy(c.Request.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "sessions": healthy, "backend": cfg.SessionBackend})
	})

	credentials := httpmiddleware.NewTokenBucket("login", cfg.LoginLimitPerMin, cfg.LoginLimitPerMin)
	pages.Register(r, credentials.Middleware())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PageTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

func openSessionStore(ctx context.Context, cfg config.App) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "redis":
		rdb, err := store.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb.Client, ""), func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return session.NewPostgresStore(db.Client), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q (want memory, redis or postgres)", cfg.SessionBackend)
	}
}
