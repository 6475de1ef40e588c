package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/feegateway/api"
	"github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/auth"
	"github.com/frahmantamala/feegateway/internal/core/events"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/payment"
	"github.com/frahmantamala/feegateway/internal/payment/cache"
	paymentpostgres "github.com/frahmantamala/feegateway/internal/payment/postgres"
	"github.com/frahmantamala/feegateway/internal/reconciliation"
	"github.com/frahmantamala/feegateway/internal/tenant"
	tenantpostgres "github.com/frahmantamala/feegateway/internal/tenant/postgres"
	"github.com/frahmantamala/feegateway/internal/transport"
	"github.com/frahmantamala/feegateway/internal/transport/rest"
	"github.com/frahmantamala/feegateway/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server for checkouts, bank callbacks and tenant settings`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	EventBus *events.EventBus
	Notifier *reconciliation.Notifier
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.EventBus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.EventBus.Drain(ctx); err != nil {
			d.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		cancel()
	}
	if d.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		d.Notifier.Shutdown(ctx)
		cancel()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithLevel(loggerEnv(config), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps := &Dependencies{Config: config, DB: db, Logger: lg}

	gormDB, err := initGorm(db)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	tenantService, err := newTenantService(config, db, lg)
	if err != nil {
		deps.close()
		return nil, err
	}

	var deduper payment.CallbackDeduper
	if config.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = client
		deduper = cache.NewCallbackDeduper(client, config.Redis.CallbackTTL)
	} else {
		lg.Warn("redis not configured, callback dedupe relies on the ledger index")
	}

	eventBus := events.NewEventBus(lg)
	deps.EventBus = eventBus

	var sink payment.VerifiedPaymentSink
	if config.Notifier.Enabled() {
		deps.Notifier = reconciliation.NewNotifier(reconciliation.Config{
			URL:                config.Notifier.URL,
			APIKey:             config.Notifier.APIKey,
			Timeout:            config.Notifier.Timeout,
			MaxWorkers:         config.Notifier.MaxWorkers,
			QueueSize:          config.Notifier.QueueSize,
			BreakerMaxFailures: config.Notifier.BreakerMaxFailures,
			BreakerOpenTimeout: config.Notifier.BreakerOpenTimeout,
		}, nil, lg)
		sink = deps.Notifier
	}
	payment.NewEventHandler(sink, lg).RegisterEventHandlers(eventBus)

	paymentService := payment.NewService(
		tenantService,
		paymentpostgres.NewVerificationRepository(gormDB),
		deduper,
		eventBus,
		paymentServiceConfig(config),
		lg,
	)

	tokens, err := auth.NewJWTTokenService(config.Security.JWTSecret)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	doc, err := api.Load(ctx)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to load api description: %w", err)
	}
	baseHandler := transport.NewBaseHandler(lg)
	validator, err := api.NewValidator(doc, baseHandler)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	routes := rest.Routes{
		Auth:           auth.NewMiddleware(tokens, lg),
		Validator:      validator,
		Payment:        payment.NewHandler(paymentService, lg),
		Webhook:        payment.NewWebhookHandler(baseHandler, paymentService),
		Tenant:         tenant.NewHandler(tenantService, lg),
		AllowedOrigins: config.Server.AllowedOrigins,
	}
	var redisCmd redis.Cmdable
	if deps.Redis != nil {
		redisCmd = deps.Redis
	}
	var breaker rest.BreakerReporter
	if deps.Notifier != nil {
		breaker = deps.Notifier
	}
	routes.Health = rest.NewHealthHandler(db.DB, redisCmd, breaker)

	deps.Router = chi.NewRouter()
	rest.RegisterAllRoutes(deps.Router, routes, lg)

	return deps, nil
}

func newTenantService(config *internal.Config, db *sqlx.DB, lg *slog.Logger) (*tenant.Service, error) {
	sealer, err := tenant.NewSealer(config.Payment.SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings sealer: %w", err)
	}
	return tenant.NewService(tenantpostgres.NewSettingsRepository(db), sealer, lg), nil
}

func paymentServiceConfig(config *internal.Config) payment.Config {
	endpoints := make(map[paymentgatewaytypes.Provider]string)
	for provider, endpoint := range map[paymentgatewaytypes.Provider]string{
		paymentgatewaytypes.ProviderICICI: config.Payment.ICICIEndpoint,
		paymentgatewaytypes.ProviderHDFC:  config.Payment.HDFCEndpoint,
		paymentgatewaytypes.ProviderSBI:   config.Payment.SBIEndpoint,
		paymentgatewaytypes.ProviderAxis:  config.Payment.AxisEndpoint,
	} {
		if endpoint != "" {
			endpoints[provider] = endpoint
		}
	}

	return payment.Config{
		SimulatedBankURL: config.Server.BaseURL + "/api/v1/payments/simulated-bank",
		Endpoints:        endpoints,
	}
}

func loggerEnv(config *internal.Config) string {
	if config.Observability.Logging.Format == "json" {
		return "production"
	}
	return os.Getenv("APP_ENV")
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Open(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
}
