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

	"github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/core/events"
	"github.com/licensepro/backend/internal/notification"
	"github.com/licensepro/backend/internal/payhere"
	"github.com/licensepro/backend/internal/payment"
	paymentpostgres "github.com/licensepro/backend/internal/payment/postgres"
	"github.com/licensepro/backend/internal/transport/rest"
	"github.com/licensepro/backend/pkg/logger"

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
	Long:  `Start the HTTP server to handle payment API requests and gateway callbacks`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	DB             *sqlx.DB
	Router         *chi.Mux
	PaymentHandler *payment.Handler
	WebhookHandler *payment.WebhookHandler
	Notifier       *notification.Client
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Config.Server.AllowedOrigins, deps.PaymentHandler, deps.WebhookHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
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
		deps.Notifier.Shutdown()
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

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	// A bad edit to the gateway status table must stop the server before
	// it can misclassify callbacks.
	if err := payhere.ValidateStatusTable(); err != nil {
		return nil, fmt.Errorf("gateway status table: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the pooled pgx connection sqlx already opened
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	signer := payhere.NewSigner(payhere.Config{
		MerchantID:     config.PayHere.MerchantID,
		MerchantSecret: config.PayHere.MerchantSecret,
		BaseURL:        config.PayHere.BaseURL,
		AppBaseURL:     config.Server.BaseURL,
		HashAlgorithm:  config.PayHere.HashAlgorithm,
		Debug:          config.PayHere.Debug,
	}, log)

	eventBus := events.NewEventBus(log)

	notifier := notification.NewClient(notification.Config{
		MailAPIURL:   config.Notification.MailAPIURL,
		APIKey:       config.Notification.APIKey,
		SenderEmail:  config.Notification.SenderEmail,
		SendTimeout:  config.Notification.SendTimeout,
		MaxWorkers:   config.Notification.MaxWorkers,
		JobQueueSize: config.Notification.JobQueueSize,
	}, log)

	repo := paymentpostgres.NewPaymentRepository(gormDB)
	paymentService := payment.NewService(repo, signer, eventBus, log)

	eventHandler := payment.NewEventHandler(notifier, log)
	eventHandler.RegisterEventHandlers(eventBus)

	return &Dependencies{
		Config:         config,
		Logger:         log,
		DB:             db,
		Router:         chi.NewRouter(),
		PaymentHandler: payment.NewHandler(paymentService, log),
		WebhookHandler: payment.NewWebhookHandler(paymentService, log),
		Notifier:       notifier,
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

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
