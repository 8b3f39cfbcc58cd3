package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/analytics"
	analyticspg "github.com/frahmantamala/people-analytics/internal/analytics/postgres"
	"github.com/frahmantamala/people-analytics/internal/core/events"
	"github.com/frahmantamala/people-analytics/internal/department"
	departmentpg "github.com/frahmantamala/people-analytics/internal/department/postgres"
	"github.com/frahmantamala/people-analytics/internal/employee"
	employeepg "github.com/frahmantamala/people-analytics/internal/employee/postgres"
	"github.com/frahmantamala/people-analytics/internal/importer"
	importerpg "github.com/frahmantamala/people-analytics/internal/importer/postgres"
	"github.com/frahmantamala/people-analytics/internal/notification"
	"github.com/frahmantamala/people-analytics/internal/search"
	"github.com/frahmantamala/people-analytics/internal/timeentry"
	timeentrypg "github.com/frahmantamala/people-analytics/internal/timeentry/postgres"
	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/frahmantamala/people-analytics/internal/transport/rest"
	"github.com/frahmantamala/people-analytics/pkg/logger"

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
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Dispatcher *importer.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.Importer.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// repositories share the pgx connection pool through gorm
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over db connection: %w", err)
	}

	bus := events.NewEventBus(log)
	notification.Register(bus, notification.NewLogNotifier(log))

	indexer := search.NewMemoryIndexer()

	departmentService := department.NewService(departmentpg.NewDepartmentRepository(gormDB), log)
	employeeService := employee.NewService(employeepg.NewEmployeeRepository(gormDB), departmentService, indexer, log)
	timeEntryService := timeentry.NewService(timeentrypg.NewTimeEntryRepository(gormDB), employeeService, log)
	analyticsService := analytics.NewService(analyticspg.NewAnalyticsRepository(gormDB), config.Analytics.IncludeInactive, log)

	dispatcher := importer.NewDispatcher(config.Importer.MaxWorkers, config.Importer.JobQueueSize, log)
	importService := importer.NewService(
		importerpg.NewJobRepository(gormDB),
		employeeService,
		departmentService,
		timeEntryService,
		dispatcher,
		bus,
		config.Importer.SyncRowThreshold,
		log,
	)
	dispatcher.Start(importService)

	baseHandler := transport.NewBaseHandler(log)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(
		router,
		db.DB,
		config.Server.AllowedOrigins,
		department.NewHandler(baseHandler, departmentService),
		employee.NewHandler(baseHandler, employeeService),
		timeentry.NewHandler(baseHandler, timeEntryService),
		analytics.NewHandler(baseHandler, analyticsService),
		importer.NewHandler(baseHandler, importService, config.Importer.MaxFileSizeBytes),
		log,
	)

	return &Dependencies{
		Config:     config,
		DB:         db,
		Router:     router,
		Dispatcher: dispatcher,
		Logger:     log,
	}, nil
}

// initDB opens the pgx-backed connection pool used for health checks and
// handed to gorm for the repositories.
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
