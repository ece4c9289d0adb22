package app

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/orderledger/server/internal/domain/audit"
	"github.com/orderledger/server/internal/domain/checkout"
	"github.com/orderledger/server/internal/domain/inventory"
	"github.com/orderledger/server/internal/domain/order"

	// Inbound adapters
	checkouthttp "github.com/orderledger/server/internal/adapter/inbound/http/checkout"
	inventoryhttp "github.com/orderledger/server/internal/adapter/inbound/http/inventory"
	orderhttp "github.com/orderledger/server/internal/adapter/inbound/http/order"

	// Ports
	"github.com/orderledger/server/internal/port/outbound"

	// Outbound adapters
	"github.com/orderledger/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/orderledger/server/internal/adapter/outbound/redis"
	"github.com/orderledger/server/internal/adapter/outbound/token"

	// Infrastructure
	"github.com/orderledger/server/internal/infra/cache"
	"github.com/orderledger/server/internal/infra/config"
	"github.com/orderledger/server/internal/infra/database"

	// Utils
	"github.com/orderledger/server/internal/utils/logger"
	"github.com/orderledger/server/internal/utils/metrics"
	"github.com/orderledger/server/internal/utils/middleware"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideLogger,
	ProvideZapLogger,
	ProvideMetricsRegistry,
	ProvideMetrics,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
)

// ProvideDatabase opens the database and closes it on cleanup.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient connects to Redis when configured. A failed connection
// is logged and the service runs without Redis.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		zapLog.Warn("redis connection failed, continuing without redis", zap.Error(err))
		return nil, func() {}
	}
	if client == nil {
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideLogger creates the request logger.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates the domain logger.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return zapLog, func() { _ = zapLog.Sync() }, nil
}

// ProvideMetricsRegistry creates the registry served on /metrics.
func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the service metrics.
func ProvideMetrics(reg prometheus.Registerer) *metrics.Metrics {
	return metrics.NewWithRegistry("orderledger", reg)
}

// ===== Outbound Adapter Providers =====

// AdapterSet provides the persistence, locking and token adapters.
var AdapterSet = wire.NewSet(
	postgres.NewTransactionAdapter,
	wire.Bind(new(outbound.TransactionPort), new(*postgres.TransactionAdapter)),
	postgres.NewCounterAdapter,
	wire.Bind(new(outbound.CounterPort), new(*postgres.CounterAdapter)),

	postgres.NewOrderAdapter,
	postgres.NewOrderHistoryAdapter,
	postgres.NewPaymentAdapter,
	postgres.NewProductCatalogAdapter,
	postgres.NewCustomerProfileAdapter,

	postgres.NewWarehouseAdapter,
	postgres.NewInventoryItemAdapter,
	postgres.NewStockDocumentAdapter,
	postgres.NewStockMovementAdapter,

	postgres.NewAuditLogAdapter,

	ProvideLocker,
	ProvideRateLimiter,
	ProvideTokenManager,
)

// ProvideLocker creates the distributed locker. Without Redis it is nil.
func ProvideLocker(redis goredis.UniversalClient) outbound.LockerPort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewLocker(redis)
}

// ProvideRateLimiter creates a rate limiter. Without Redis it is nil and
// rate limiting is off.
func ProvideRateLimiter(cfg *config.Config, redis goredis.UniversalClient) outbound.RateLimiterPort {
	if redis == nil || !cfg.RateLimit.Enabled {
		return nil
	}
	return redisadapter.NewRateLimiter(redis)
}

// ProvideTokenManager creates the bearer token validator.
func ProvideTokenManager(cfg *config.Config) *token.JWTManager {
	return token.NewJWTManager(&token.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		Expiry: cfg.Auth.AccessTokenExpiry,
	})
}

// ===== Domain Providers =====

// DomainSet provides the order, checkout, inventory and audit domains.
var DomainSet = wire.NewSet(
	ProvideAuditRecorder,
	wire.Bind(new(audit.Sink), new(*audit.Recorder)),
	ProvideInventoryDomain,
	wire.Bind(new(order.StockLedger), new(*inventory.Domain)),
	wire.Bind(new(inventoryhttp.InventoryService), new(*inventory.Domain)),
	ProvideOrderDomain,
	ProvideCheckoutDomain,
)

// ProvideAuditRecorder creates the audit recorder.
func ProvideAuditRecorder(db outbound.AuditLogDatabasePort, m *metrics.Metrics, zapLog *zap.Logger) *audit.Recorder {
	return audit.NewRecorder(db, m, zapLog)
}

// ProvideInventoryDomain creates the stock ledger.
func ProvideInventoryDomain(
	cfg *config.Config,
	warehouseDB outbound.WarehouseDatabasePort,
	itemDB outbound.InventoryItemDatabasePort,
	documentDB outbound.StockDocumentDatabasePort,
	movementDB outbound.StockMovementDatabasePort,
	counter outbound.CounterPort,
	txPort outbound.TransactionPort,
	auditSink audit.Sink,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) *inventory.Domain {
	return inventory.NewDomain(
		warehouseDB,
		itemDB,
		documentDB,
		movementDB,
		counter,
		txPort,
		auditSink,
		&inventory.Config{
			DefaultWarehouseCode: cfg.Inventory.DefaultWarehouseCode,
			DefaultWarehouseName: cfg.Inventory.DefaultWarehouseName,
			ExportMaxRows:        cfg.Inventory.ExportMaxRows,
		},
		m,
		zapLog,
	)
}

// ProvideOrderDomain creates the order domain.
func ProvideOrderDomain(
	cfg *config.Config,
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	paymentDB outbound.PaymentDatabasePort,
	txPort outbound.TransactionPort,
	stock order.StockLedger,
	auditSink audit.Sink,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) order.OrderDomain {
	return order.NewOrderDomain(
		orderDB,
		historyDB,
		paymentDB,
		txPort,
		stock,
		auditSink,
		&order.Config{
			StockBreakerMaxFailures: cfg.Order.StockBreakerMaxFailures,
			StockBreakerOpenTimeout: cfg.Order.StockBreakerOpenTimeout,
			StockBreakerInterval:    cfg.Order.StockBreakerInterval,
		},
		m,
		zapLog,
	)
}

// ProvideCheckoutDomain creates the checkout domain.
func ProvideCheckoutDomain(
	cfg *config.Config,
	orderDB outbound.OrderDatabasePort,
	historyDB outbound.OrderHistoryDatabasePort,
	catalog outbound.ProductCatalogPort,
	profiles outbound.CustomerProfilePort,
	counter outbound.CounterPort,
	txPort outbound.TransactionPort,
	locker outbound.LockerPort,
	auditSink audit.Sink,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) checkout.CheckoutDomain {
	return checkout.NewCheckoutDomain(
		orderDB,
		historyDB,
		catalog,
		profiles,
		counter,
		txPort,
		locker,
		auditSink,
		&checkout.Config{
			CodePrefix: cfg.Order.CodePrefix,
			Currency:   cfg.Order.DefaultCurrency,
			LockTTL:    cfg.Order.CheckoutLockTTL,
		},
		m,
		zapLog,
	)
}

// ===== HTTP Handler Providers =====

// HandlerSet provides the HTTP handlers and route guards.
var HandlerSet = wire.NewSet(
	orderhttp.NewOrderHandler,
	inventoryhttp.NewInventoryHandler,
	checkouthttp.NewCheckoutHandler,
	ProvideGuards,
)

// Guards are the per-route middlewares built from configuration.
type Guards struct {
	Auth          gin.HandlerFunc
	Idempotent    gin.HandlerFunc
	CheckoutLimit gin.HandlerFunc
}

// ProvideGuards builds the auth, idempotency and checkout rate limit middlewares.
func ProvideGuards(
	cfg *config.Config,
	tokens *token.JWTManager,
	redis goredis.UniversalClient,
	locker outbound.LockerPort,
	limiter outbound.RateLimiterPort,
	log *logger.Logger,
) *Guards {
	return &Guards{
		Auth: middleware.Auth(tokens, cfg.Auth.RequireToken),
		Idempotent: middleware.Idempotency(redis, locker, middleware.IdempotencyConfig{
			TTL: cfg.RateLimit.IdempotencyTTL,
		}),
		CheckoutLimit: middleware.RateLimit(limiter, middleware.RateLimitConfig{
			Name:   "checkout",
			Limit:  cfg.RateLimit.CheckoutLimit,
			Window: cfg.RateLimit.CheckoutWindow,
			Logger: log,
		}),
	}
}

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	AdapterSet,
	DomainSet,
	HandlerSet,
)
