package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgparser/internal/config"
	"tgparser/internal/domain"
	"tgparser/internal/handler"
	appmiddleware "tgparser/internal/middleware"
	"tgparser/internal/pool"
	"tgparser/internal/repository/postgres"
	"tgparser/internal/service"
	"tgparser/internal/telegram"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Telegram Group Parser")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Build the credential set and the pool coordinating access to it
	creds := credentialsFromTokens(cfg.BotTokens)
	credPool := pool.New(
		creds,
		cfg.Pool.ErrorThreshold,
		cfg.Pool.CooldownWindow,
		cfg.Pool.RateLimitBackoff,
		logger,
	)

	// One Telegram client per credential
	client, err := telegram.NewBotClient(creds, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram clients", zap.Error(err))
	}

	logger.Info("Telegram clients initialized", zap.Int("credentials", len(creds)))

	// Initialize repositories and services
	groupRepo := postgres.NewGroupRepo(db)
	parserService := service.NewParserService(credPool, client, groupRepo, cfg.Parser, logger)
	statusReporter := service.NewPoolStatusReporter(credPool)

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(appmiddleware.RequestLogger(logger))

	h := handler.NewHandler(parserService, statusReporter, logger)
	h.Register(e)

	logger.Info("Handlers registered")

	// Start server in background
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("HTTP server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// credentialsFromTokens derives pool credentials from raw bot tokens.
// A credential id is the token's first 8 characters, enough to identify it
// in logs and status output without leaking the secret.
func credentialsFromTokens(tokens []string) []domain.Credential {
	creds := make([]domain.Credential, 0, len(tokens))
	for _, token := range tokens {
		id := token
		if len(id) > 8 {
			id = id[:8]
		}
		creds = append(creds, domain.Credential{ID: id, Secret: token})
	}
	return creds
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		// Connection successful
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations applied")

	return nil
}
