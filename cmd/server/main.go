package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mxxikr/transfer-system/internal/handler"
	"github.com/mxxikr/transfer-system/internal/policy"
	"github.com/mxxikr/transfer-system/internal/repository"
	"github.com/mxxikr/transfer-system/internal/service"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	ServerPort string

	StorageDriver string

	FeeRate            string
	WithdrawDailyLimit string
	TransferDailyLimit string
	BankTimezone       string

	PagingDefaultPage string
	PagingDefaultSize string
	PagingMaxSize     string
}

func main() {
	// Initialise logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	config := loadConfig()

	// Policy values are validated once; bad configuration is a startup
	// failure, never a per-request error.
	transferPolicy, pagingPolicy, err := buildPolicies(config)
	if err != nil {
		logger.Error("invalid policy configuration", "error", err.Error())
		os.Exit(1)
	}

	loc, err := time.LoadLocation(config.BankTimezone)
	if err != nil {
		logger.Error("invalid bank timezone", "timezone", config.BankTimezone, "error", err.Error())
		os.Exit(1)
	}

	store, cleanup, err := buildStore(config, logger)
	if err != nil {
		logger.Error("failed to initialise storage", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	// Initialise services
	numberGen := service.NewAccountNumberGenerator(loc)
	accountService := service.NewAccountService(store, transferPolicy, numberGen, loc, logger)
	transactionService := service.NewTransactionService(store, transferPolicy, pagingPolicy, loc, logger)

	// Initialise handlers
	accountHandler := handler.NewAccountHandler(accountService, logger)
	transactionHandler := handler.NewTransactionHandler(transactionService, logger)

	// Setup router
	router := mux.NewRouter()
	accountHandler.RegisterRoutes(router)
	transactionHandler.RegisterRoutes(router)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.Use(loggingMiddleware(logger))

	server := &http.Server{
		Addr:         ":" + config.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a go routine
	go func() {
		logger.Info("starting server on port " + config.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
	}

	logger.Info("server exited gracefully")
}

// loads config from environment variables
func loadConfig() Config {
	return Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "transfers"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),

		FeeRate:            getEnv("TRANSFER_FEE_RATE", "0.01"),
		WithdrawDailyLimit: getEnv("WITHDRAW_DAILY_LIMIT", "1000000"),
		TransferDailyLimit: getEnv("TRANSFER_DAILY_LIMIT", "3000000"),
		BankTimezone:       getEnv("BANK_TIMEZONE", "Asia/Seoul"),

		PagingDefaultPage: getEnv("PAGING_DEFAULT_PAGE", "0"),
		PagingDefaultSize: getEnv("PAGING_DEFAULT_SIZE", "10"),
		PagingMaxSize:     getEnv("PAGING_MAX_SIZE", "100"),
	}
}

// getEnv fetches environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func buildPolicies(cfg Config) (*policy.TransferPolicy, *policy.PagingPolicy, error) {
	feeRate, err := decimal.NewFromString(cfg.FeeRate)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid fee rate %q: %w", cfg.FeeRate, err)
	}
	withdrawLimit, err := decimal.NewFromString(cfg.WithdrawDailyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid withdraw daily limit %q: %w", cfg.WithdrawDailyLimit, err)
	}
	transferLimit, err := decimal.NewFromString(cfg.TransferDailyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid transfer daily limit %q: %w", cfg.TransferDailyLimit, err)
	}

	transferPolicy, err := policy.NewTransferPolicy(feeRate, withdrawLimit, transferLimit)
	if err != nil {
		return nil, nil, err
	}

	defaultPage, err := strconv.Atoi(cfg.PagingDefaultPage)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid default page %q: %w", cfg.PagingDefaultPage, err)
	}
	defaultSize, err := strconv.Atoi(cfg.PagingDefaultSize)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid default size %q: %w", cfg.PagingDefaultSize, err)
	}
	maxSize, err := strconv.Atoi(cfg.PagingMaxSize)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid max size %q: %w", cfg.PagingMaxSize, err)
	}

	pagingPolicy, err := policy.NewPagingPolicy(defaultPage, defaultSize, maxSize)
	if err != nil {
		return nil, nil, err
	}

	return transferPolicy, pagingPolicy, nil
}

func buildStore(cfg Config, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("using in-memory storage, data will not survive a restart")
		return repository.NewMemoryStore(), func() {}, nil
	case "postgres":
		db, err := connectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to database successfully")
		return repository.NewPostgresStore(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// connectDB establishes a connection to the Postgres database
func connectDB(cfg Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// loggingMiddleware logs incoming HTTP requests
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
