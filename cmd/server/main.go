package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"escrow_ledger/internal/config"
	"escrow_ledger/internal/handlers"
	"escrow_ledger/internal/logging"
	"escrow_ledger/internal/metrics"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
	"escrow_ledger/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger := logging.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	poolConfig, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		logger.Error("failed to parse db config", "err", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := repository.Migrate(connectCtx, pool); err != nil {
			logger.Error("failed to migrate database", "err", err)
			os.Exit(1)
		}
	}

	publisher, closePublisher := setupPublisher(connectCtx, cfg, logger)
	defer closePublisher()

	repo := repository.NewLedgerPGRepository(pool, logger)
	ledger := service.NewLedger(repo, logger, publisher, service.Options{
		MaxRetries:       cfg.TxMaxRetries,
		PlatformFeeBps:   cfg.PlatformFeeBps,
		PlatformWalletID: cfg.PlatformWalletID,
	})
	if _, err := ledger.EnsurePlatformWallet(connectCtx, cfg.PlatformWalletID); err != nil {
		logger.Error("failed to ensure platform wallet", "err", err)
		os.Exit(1)
	}
	handler := handlers.NewLedgerHTTPHandler(ledger, []byte(cfg.JWTSecret))

	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())
	r.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "err", err)
	}
	logger.Info("Server exiting")
}

// setupPublisher connects to Redis when REDIS_URL is set. Without it, ledger
// events are dropped.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.Publisher, func()) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, ledger notifications disabled")
		return notify.Nop{}, func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse REDIS_URL", "err", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", "err", err)
	}
	return notify.NewRedisPublisher(rdb, cfg.NotifyChannel), func() { _ = rdb.Close() }
}
