package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	checkouthttp "github.com/orderledger/server/internal/adapter/inbound/http/checkout"
	inventoryhttp "github.com/orderledger/server/internal/adapter/inbound/http/inventory"
	orderhttp "github.com/orderledger/server/internal/adapter/inbound/http/order"
	"github.com/orderledger/server/internal/domain/inventory"
	"github.com/orderledger/server/internal/infra/config"
	"github.com/orderledger/server/internal/infra/database"
	"github.com/orderledger/server/internal/utils/logger"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/middleware"
)

const healthCheckTimeout = 2 * time.Second

// App owns the wired dependencies and the HTTP router.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     goredis.UniversalClient
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	logger    *logger.Logger
	zapLogger *zap.Logger

	inventory *inventory.Domain

	orderHandler     *orderhttp.OrderHandler
	inventoryHandler *inventoryhttp.InventoryHandler
	checkoutHandler  *checkouthttp.CheckoutHandler
	guards           *Guards

	router  *gin.Engine
	cleanup func()
}

func newApp(
	cfg *config.Config,
	db *gorm.DB,
	redis goredis.UniversalClient,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	log *logger.Logger,
	zapLog *zap.Logger,
	inv *inventory.Domain,
	orderHandler *orderhttp.OrderHandler,
	inventoryHandler *inventoryhttp.InventoryHandler,
	checkoutHandler *checkouthttp.CheckoutHandler,
	guards *Guards,
) *App {
	a := &App{
		config:           cfg,
		db:               db,
		redis:            redis,
		registry:         registry,
		metrics:          m,
		logger:           log,
		zapLogger:        zapLog,
		inventory:        inv,
		orderHandler:     orderHandler,
		inventoryHandler: inventoryHandler,
		checkoutHandler:  checkoutHandler,
		guards:           guards,
	}
	a.router = a.setupRouter()
	return a
}

// New wires the application.
func New(cfg *config.Config) (*App, error) {
	a, cleanup, err := InitializeApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	a.cleanup = cleanup
	return a, nil
}

// Start prepares the database: it migrates when configured and makes sure a
// default warehouse exists so stock actions always have somewhere to land.
func (a *App) Start(ctx context.Context) error {
	if a.config.Database.AutoMigrate {
		if err := database.Migrate(a.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.zapLogger.Info("database migrated")
	}

	w, err := a.inventory.EnsureDefaultWarehouse(ctx)
	if err != nil {
		return fmt.Errorf("ensure default warehouse: %w", err)
	}
	a.zapLogger.Info("default warehouse ready", zap.String("code", w.Code), zap.String("id", w.ID.String()))
	return nil
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases the database, Redis and logger.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(a.logger))
	r.Use(otelgin.Middleware(a.config.Telemetry.ServiceName))
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))

	corsCfg := middleware.DefaultCORSConfig()
	if len(a.config.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = a.config.Server.AllowedOrigins
	}
	r.Use(middleware.CORS(corsCfg))

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	api.Use(a.guards.Auth)
	a.checkoutHandler.RegisterRoutes(api, a.guards.CheckoutLimit)
	a.orderHandler.RegisterRoutes(api, a.guards.Idempotent)
	a.inventoryHandler.RegisterRoutes(api, a.guards.Idempotent)

	return r
}

// health reports 503 when the database is unreachable. Redis is optional so
// its failure only degrades the status.
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{}
	status, code := "ok", http.StatusOK

	if err := pingDB(ctx, a.db); err != nil {
		checks["database"] = err.Error()
		status, code = "unavailable", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	switch {
	case a.redis == nil:
		checks["redis"] = "disabled"
	case a.redis.Ping(ctx).Err() != nil:
		checks["redis"] = "unreachable"
		if code == http.StatusOK {
			status = "degraded"
		}
	default:
		checks["redis"] = "ok"
	}

	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
