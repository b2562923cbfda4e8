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

	"github.com/cvpratico/cv-builder/internal"
	"github.com/cvpratico/cv-builder/internal/core/events"
	"github.com/cvpratico/cv-builder/internal/cv"
	cvpostgres "github.com/cvpratico/cv-builder/internal/cv/postgres"
	"github.com/cvpratico/cv-builder/internal/fulfillment"
	"github.com/cvpratico/cv-builder/internal/mercadopago"
	"github.com/cvpratico/cv-builder/internal/payment"
	paymentpostgres "github.com/cvpratico/cv-builder/internal/payment/postgres"
	"github.com/cvpratico/cv-builder/internal/pdf"
	"github.com/cvpratico/cv-builder/internal/textgen"
	"github.com/cvpratico/cv-builder/internal/transport"
	"github.com/cvpratico/cv-builder/internal/transport/middleware"
	"github.com/cvpratico/cv-builder/internal/transport/rest"
	"github.com/cvpratico/cv-builder/pkg/logger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Router      *chi.Mux
	Fulfillment *fulfillment.Service
	Logger      *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

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
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Fulfillment.Shutdown()
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	if err := validateAPISpec("api/openapi.yml"); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)

	// repositories
	cvRepo := cvpostgres.NewCvRepository(gormDB)
	paymentRepo := paymentpostgres.NewPaymentRepository(gormDB)

	// payment provider
	var provider payment.ProviderAPI
	if config.MercadoPago.Sandbox {
		appLogger.Warn("using sandbox payment provider; no real charges will happen")
		provider = mercadopago.NewSandboxClient(appLogger)
	} else {
		provider = mercadopago.NewClient(config.MercadoPago, appLogger)
	}

	// services
	cvService := cv.NewService(cvRepo, appLogger)
	paymentService := payment.NewService(provider, paymentRepo, cvRepo, eventBus, payment.Config{
		PriceCents:      config.Pricing.CvPriceCents,
		Currency:        config.Pricing.Currency,
		ItemTitle:       config.Pricing.ItemTitle,
		NotificationURL: config.MercadoPago.NotificationURL,
		BackURLBase:     config.MercadoPago.BackURLBase,
	}, appLogger)

	textGen := textgen.NewClient(config.TextGen, appLogger)
	renderer := pdf.NewRenderer(config.Pdf)
	fulfillmentService := fulfillment.NewService(fulfillment.Config{
		MaxWorkers:   config.Fulfillment.MaxWorkers,
		JobQueueSize: config.Fulfillment.JobQueueSize,
	}, cvRepo, textGen, renderer, eventBus, appLogger)

	fulfillmentEvents := fulfillment.NewEventHandler(fulfillmentService, appLogger)
	fulfillmentEvents.RegisterEventHandlers(eventBus)

	// handlers
	cvHandler := cv.NewHandler(cvService)
	paymentHandler := payment.NewHandler(paymentService)
	webhookHandler := payment.NewWebhookHandler(transport.NewBaseHandler(appLogger), paymentService, appLogger)
	documentsHandler := fulfillment.NewHandler(fulfillmentService)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(appLogger))
	rest.RegisterAllRoutes(router, db.DB, config.Server.AllowedOrigins, cvHandler, paymentHandler, webhookHandler, documentsHandler, appLogger)

	return &Dependencies{
		Config:      config,
		Logger:      appLogger,
		DB:          db,
		Router:      router,
		Fulfillment: fulfillmentService,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
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

// initGorm layers the ORM over the shared connection pool. TranslateError is
// required: the payment flow relies on gorm.ErrDuplicatedKey to detect
// concurrent duplicate notifications.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		TranslateError: true,
	})
}

// validateAPISpec fails startup when the served OpenAPI document is broken,
// instead of publishing an invalid contract on /openapi.yml.
func validateAPISpec(path string) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}
