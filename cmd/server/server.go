package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/axellelanca/shortlink/cmd"
	"github.com/axellelanca/shortlink/internal/api"
	"github.com/axellelanca/shortlink/internal/auth"
	"github.com/axellelanca/shortlink/internal/cache"
	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/monitor"
	"github.com/axellelanca/shortlink/internal/ratelimit"
	"github.com/axellelanca/shortlink/internal/repository"
	"github.com/axellelanca/shortlink/internal/services"
	"github.com/axellelanca/shortlink/internal/workers"
)

// RunServerCmd starts the HTTP API together with the click workers and the URL monitor.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the URL shortener API server and its background workers.",
	Long: `This command opens and migrates the database, connects to redis when configured,
starts the click workers and the URL monitor, then serves the HTTP API until
SIGINT or SIGTERM.`,
	RunE: runServer,
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg := cmd.Cfg
	log := cmd.Logger()
	started := time.Now()

	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer repository.Close(db)
	if err := repository.Migrate(db); err != nil {
		return err
	}

	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)
	clickRepo := repository.NewClickRepository(db)
	log.Info("Repositories initialized", "driver", cfg.Database.Driver)

	// Revocations and rate limit counters go to redis when one is configured.
	var blacklist auth.Blacklist = auth.NewMemoryBlacklist(10 * time.Minute)
	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		blacklist = auth.NewRedisBlacklist(client)
		if cfg.RateLimit.Requests > 0 {
			limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
		log.Info("Redis connected", "addr", cfg.Redis.Addr)
	} else if cfg.RateLimit.Requests > 0 {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, blacklist)
	linkService := services.NewLinkService(linkRepo, services.RandomCodeGenerator{}, cfg, log)
	authService := services.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, log)
	log.Info("Services initialized")

	clickPool := workers.StartClickWorkers(cfg.Analytics.WorkerCount, cfg.Analytics.BufferSize, clickRepo, log)

	urlMonitor := monitor.NewUrlMonitor(linkRepo, time.Duration(cfg.Monitor.IntervalMinutes)*time.Minute, log)
	go urlMonitor.Start(ctx)

	router := gin.New()
	router.Use(logging.RequestLogger(log), logging.Recovery(log))
	api.SetupRoutes(router, api.Dependencies{
		Config:  cfg,
		Links:   linkService,
		Auth:    authService,
		Tokens:  tokens,
		Limiter: limiter,
		Clicks:  clickPool,
		DBPing:  func(ctx context.Context) error { return repository.Ping(ctx, db) },
		Log:     log,
		Started: started,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", "addr", srv.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	// no handler can enqueue once Shutdown returned
	if err := clickPool.Stop(shutdownCtx); err != nil {
		log.Error("click workers did not stop cleanly", "error", err)
	}

	log.Info("Server stopped", "uptime", time.Since(started).Round(time.Second).String())
	return nil
}
