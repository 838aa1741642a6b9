package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/ride-sharing/internal/bookings"
	"github.com/richxcame/ride-sharing/internal/reviews"
	"github.com/richxcame/ride-sharing/internal/rides"
	"github.com/richxcame/ride-sharing/internal/store/memory"
	"github.com/richxcame/ride-sharing/internal/users"
	"github.com/richxcame/ride-sharing/internal/vehicles"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/config"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/eventbus"
	"github.com/richxcame/ride-sharing/pkg/health"
	"github.com/richxcame/ride-sharing/pkg/locks"
	"github.com/richxcame/ride-sharing/pkg/logger"
	"github.com/richxcame/ride-sharing/pkg/middleware"
	"github.com/richxcame/ride-sharing/pkg/redis"
	"github.com/richxcame/ride-sharing/pkg/resilience"
	"github.com/richxcame/ride-sharing/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName    = "rideshare"
	serviceVersion = "1.0.0"
	maxBodyBytes   = 1 << 20
)

type rideStore interface {
	rides.RepositoryInterface
	bookings.RideRepository
}

type userStore interface {
	bookings.UserRepository
	reviews.UserRepository
}

// backend is the persistence layer selected by STORE_BACKEND
type backend struct {
	rides    rideStore
	bookings bookings.RepositoryInterface
	reviews  reviews.RepositoryInterface
	users    userStore
	vehicles rides.VehicleRegistry
	tx       database.Transactor
}

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName, serviceVersion, cfg.Tracing)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     serviceName + "@" + serviceVersion,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	checks := make(map[string]func(ctx context.Context) error)

	store, closeStore := openBackend(ctx, cfg, checks)
	defer closeStore()

	locker, closeLocker := openLocker(ctx, cfg, checks)
	defer closeLocker()

	var events eventbus.Publisher = eventbus.Noop{}
	if cfg.NATS.Enabled {
		bus, err := eventbus.Connect(cfg.NATS.URL, serviceName)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
		events = bus
		checks["nats"] = health.NATSChecker(bus.Conn())
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	router := newRouter(cfg, checks)
	registerRoutes(router, store, locker, events)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Rideshare service starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.String("locks", cfg.Locks.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}

// registerRoutes builds the engine services on top of store and mounts their
// handlers
func registerRoutes(router *gin.Engine, store *backend, locker locks.Locker, events eventbus.Publisher) {
	bookingService := bookings.NewService(store.bookings, store.rides, store.users, store.tx, locker, events)
	rideService := rides.NewService(store.rides, store.users, store.vehicles, bookingService, store.tx, locker, events)
	reviewService := reviews.NewService(store.reviews, store.rides, store.bookings, store.users, store.tx, events)
	userService := users.NewService(store.users)

	rides.NewHandler(rideService).RegisterRoutes(router)
	bookings.NewHandler(bookingService).RegisterRoutes(router)
	reviews.NewHandler(reviewService).RegisterRoutes(router)
	users.NewHandler(userService).RegisterRoutes(router)
}

func openBackend(ctx context.Context, cfg *config.Config, checks map[string]func(ctx context.Context) error) (*backend, func()) {
	if cfg.Store.Backend == "memory" {
		store := memory.New()
		logger.Warn("Using in-memory store; data is lost on restart")
		return &backend{
			rides:    store,
			bookings: store,
			reviews:  store,
			users:    store,
			vehicles: store,
			tx:       store,
		}, func() {}
	}

	if cfg.Database.RunMigrations {
		if err := database.Migrate(cfg.Database.MigrationURL()); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL database")
	checks["database"] = health.DatabaseChecker(pool)

	return &backend{
		rides:    rides.NewRepository(pool),
		bookings: bookings.NewRepository(pool),
		reviews:  reviews.NewRepository(pool),
		users:    users.NewRepository(pool),
		vehicles: vehicles.NewRepository(pool),
		tx:       database.NewTxManager(pool),
	}, func() { database.Close(pool) }
}

func openLocker(ctx context.Context, cfg *config.Config, checks map[string]func(ctx context.Context) error) (locks.Locker, func()) {
	if cfg.Locks.Backend == "local" {
		logger.Info("Using in-process person locks")
		return locks.NewKeyedMutex(), func() {}
	}

	client, err := redis.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.RedisAddr()))
	checks["redis"] = health.RedisChecker(client.Client)

	settings := resilience.BuildSettings("redis-locks", cfg.Breaker)
	settings.IsFailure = func(err error) bool { return !redis.IsLockContention(err) }
	breaker := resilience.NewCircuitBreaker(settings, resilience.GracefulDegradation("redis"))

	return redis.NewLocker(client.Client, cfg.Locks, breaker), func() { _ = client.Close() }
}

func newRouter(cfg *config.Config, checks map[string]func(ctx context.Context) error) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	if cfg.Sentry.DSN != "" {
		// puts the request hub on the context for Recovery to report through
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders(cfg.Server.Environment))
	router.Use(middleware.MaxBodySize(maxBodyBytes))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timed out")
		}),
	))

	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, serviceVersion, checks))
	router.GET("/livez", common.HealthCheck(serviceName, serviceVersion))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
