package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/frahmantamala/people-analytics/pkg/logger"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for background processing",
	Long:  `Start and manage worker pools, currently the CSV import processor.`,
}

var importWorkerCmd = &cobra.Command{
	Use:   "import",
	Short: "Start the import worker",
	Long:  `Poll the job store for queued import jobs and process them on a local worker pool. Picks up jobs the submitting server never ran, for example after a crash.`,
	Run: func(cmd *cobra.Command, args []string) {
		startImportWorker()
	},
}

var (
	maxWorkers   int
	pollInterval time.Duration
	claimAge     time.Duration
)

func startImportWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm over db connection: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(log)
	notification.Register(bus, notification.NewLogNotifier(log))

	departmentService := department.NewService(departmentpg.NewDepartmentRepository(gormDB), log)
	employeeService := employee.NewService(employeepg.NewEmployeeRepository(gormDB), departmentService, search.NewMemoryIndexer(), log)
	timeEntryService := timeentry.NewService(timeentrypg.NewTimeEntryRepository(gormDB), employeeService, log)

	workers := getIntFlag(maxWorkers, config.Importer.MaxWorkers)
	dispatcher := importer.NewDispatcher(workers, config.Importer.JobQueueSize, log)
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

	log.Info("import worker started",
		"max_workers", workers,
		"poll_interval", pollInterval,
		"claim_age", claimAge)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := importService.ProcessQueued(ctx, time.Now().Add(-claimAge), 10); n > 0 {
				log.Info("processed queued import jobs", "count", n)
			}
		case sig := <-sigChan:
			log.Info("received signal, shutting down import worker", "signal", sig)
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Importer.ShutdownTimeout)
			defer shutdownCancel()

			shutdownDone := make(chan struct{})
			go func() {
				dispatcher.Shutdown()
				close(shutdownDone)
			}()

			select {
			case <-shutdownDone:
				log.Info("import worker shutdown complete")
			case <-shutdownCtx.Done():
				log.Warn("shutdown timeout reached, forcing exit")
			}
			return
		}
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	importWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	importWorkerCmd.Flags().DurationVar(&pollInterval, "poll-interval", 5*time.Second, "How often to poll for queued jobs")
	importWorkerCmd.Flags().DurationVar(&claimAge, "claim-age", 30*time.Second, "Only claim queued jobs older than this")

	workerCmd.AddCommand(importWorkerCmd)
}
