package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository/postgres"
	"github.com/janzenegnisaban/vision-board-sub000/internal/scheduler"
	schedulerjobs "github.com/janzenegnisaban/vision-board-sub000/internal/scheduler/jobs"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
	"github.com/janzenegnisaban/vision-board-sub000/internal/tracing"
	systemlog "github.com/janzenegnisaban/vision-board-sub000/pkg/logger"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// #nosec G705 -- CLI output only; control characters are stripped.
		fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "visionboard",
		Short:         "VisionBoard digital information board server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ./config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API, live feed and scheduler",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configFile)
			},
		},
		newMigrateCmd(&configFile),
		newCreateAdminCmd(&configFile),
		newHealthcheckCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (commit %s, built %s)\n", Version, Commit, BuildTime)
			},
		},
	)
	return root
}

func runServe(ctx context.Context, configFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logStore, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.isDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.OTLPEndpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flush traces failed", zap.Error(err))
		}
	}()

	dbPool, err := newDBPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbPool.Close()

	privateKey, ephemeral, err := loadRSAPrivateKey(cfg)
	if err != nil {
		return fmt.Errorf("load jwt private key: %w", err)
	}
	if ephemeral {
		logger.Warn("jwt private key not configured, using an ephemeral development key")
	}

	location, err := cfg.boardLocation()
	if err != nil {
		return err
	}

	store := newPostgresStore(dbPool)
	bus := event.NewBus()
	hub := sse.NewHub(logger.Named("live"))
	defer hub.Close()
	sse.Bridge(bus, hub, logger.Named("live"))

	services := newServices(cfg, store, bus, hub, logStore, logger, privateKey, location)
	opts := api.Options{
		CookieSecure:       cfg.Security.CookieSecure,
		AllowedOrigins:     cfg.CORS.AllowOrigins,
		AuthIPLimiter:      middleware.NewRateLimiter(cfg.RateLimit.AuthPerIP, cfg.RateLimit.Window),
		AuthAccountLimiter: middleware.NewRateLimiter(cfg.RateLimit.AuthPerAccount, cfg.RateLimit.Window),
		EngagementLimiter:  middleware.NewRateLimiter(cfg.RateLimit.EngagementPerUser, cfg.RateLimit.Window),
	}

	cronRunner := scheduler.NewScheduler(scheduler.Deps{
		SessionJob: schedulerjobs.NewSessionJob(services.Auth, logger),
		GaugeJob:   schedulerjobs.NewGaugeJob(services.Dashboard, logger),
		LimiterJob: schedulerjobs.NewLimiterJob(opts.AuthIPLimiter, opts.AuthAccountLimiter, opts.EngagementLimiter),
	}, logger.Named("scheduler"))
	cronRunner.Start()
	defer func() {
		stopCtx := cronRunner.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(2 * time.Second):
		}
	}()

	if err := services.Dashboard.RefreshGauges(ctx); err != nil {
		logger.Warn("initial gauge refresh failed", zap.Error(err))
	}

	router := newRouter(cfg, services, opts, dbPool)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	logger.Info("server started",
		zap.String("addr", srv.Addr),
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_time", BuildTime),
		zap.String("board_timezone", location.String()),
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("server exited unexpectedly: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server failed", zap.Error(err))
	}
	return nil
}

func newServices(
	cfg Config,
	store *repository.Store,
	bus *event.Bus,
	hub *sse.SSEHub,
	logStore *systemlog.SystemLogStore,
	logger *zap.Logger,
	privateKey *rsa.PrivateKey,
	location *time.Location,
) api.Services {
	authSvc := service.NewAuthService(store.Users, store.Sessions, store.Audit, privateKey,
		service.WithBcryptCost(cfg.Security.BcryptCost),
		service.WithAuthLogger(logger.Named("auth")),
	)

	return api.Services{
		Auth:          authSvc,
		Announcements: service.NewAnnouncementService(store.Announcements, store.Audit, bus, logger),
		Events:        service.NewEventService(store.Events, store.Audit, bus, logger, service.WithBoardLocation(location)),
		Comments:      service.NewCommentService(store, bus, logger),
		Reactions:     service.NewReactionService(store, bus, logger),
		Users:         service.NewUserService(store, authSvc, bus, logger),
		Analytics:     service.NewAnalyticsService(store.Analytics, logger),
		Dashboard: service.NewDashboardService(store, logger,
			service.WithDashboardLocation(location),
			service.WithDashboardLimits(cfg.Board.RecentLimit, cfg.Board.UpcomingLimit),
		),
		Audit:    service.NewAuditService(store.Audit),
		Hub:      hub,
		LogStore: logStore,
		Logger:   logger,
	}
}

func newPostgresStore(pool *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Users:         postgres.NewUserRepository(pool),
		Announcements: postgres.NewAnnouncementRepository(pool),
		Events:        postgres.NewEventRepository(pool),
		Comments:      postgres.NewCommentRepository(pool),
		Reactions:     postgres.NewReactionRepository(pool),
		Analytics:     postgres.NewAnalyticsRepository(pool),
		Sessions:      postgres.NewSessionRepository(pool),
		Audit:         postgres.NewAuditRepository(pool),
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(cfg Config, svc api.Services, opts api.Options, db pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(tracing.Config{ServiceName: cfg.Tracing.ServiceName}.Name()))
	router.Use(buildCORSMiddleware(cfg))
	router.Use(middleware.RequestMeta())
	router.Use(middleware.RequestLogger(svc.Logger))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	readyHandler := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Database.PingTimeout)
		defer cancel()

		if db == nil || db.Ping(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  "database unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}

	router.GET("/health", healthHandler)
	router.GET("/health/ready", readyHandler)
	router.GET("/api/v1/health", healthHandler)
	router.GET("/api/v1/health/ready", readyHandler)

	api.RegisterInternalRoutes(router, cfg.Security.InternalToken, promhttp.Handler(), svc)
	api.RegisterV1Routes(router.Group("/api/v1"), svc, opts)
	return router
}

func newLogger(cfg Config) (*zap.Logger, *systemlog.SystemLogStore, error) {
	var zapCfg zap.Config
	if cfg.isDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log.level: %w", err)
		}
	}
	if cfg.Log.Encoding != "" {
		zapCfg.Encoding = cfg.Log.Encoding
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build zap logger failed: %w", err)
	}

	logStore := systemlog.NewSystemLogStore(systemlog.DefaultSystemLogCapacity)
	return systemlog.WrapZapLogger(logger, logStore), logStore, nil
}

func newDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database.url failed: %w", err)
	}

	const maxInt32 = int(^uint32(0) >> 1)
	if cfg.Database.MaxConns > maxInt32 {
		return nil, fmt.Errorf("database.max_conns must be <= %d", maxInt32)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns) // #nosec G115 -- validated upper bound above.

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}
	return pool, nil
}

func buildCORSMiddleware(cfg Config) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.CORS.AllowOrigins))
	for _, origin := range cfg.CORS.AllowOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || trimmed == "*" {
			continue
		}
		origins = append(origins, trimmed)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Type", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
