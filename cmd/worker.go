package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	"github.com/cvpratico/cv-builder/internal/core/events"
	cvpostgres "github.com/cvpratico/cv-builder/internal/cv/postgres"
	"github.com/cvpratico/cv-builder/internal/fulfillment"
	"github.com/cvpratico/cv-builder/internal/pdf"
	"github.com/cvpratico/cv-builder/internal/textgen"
	"github.com/cvpratico/cv-builder/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the fulfillment worker pool",
	Long:  `Start the fulfillment worker pool. On startup it re-enqueues approved CVs whose documents were never generated, then keeps processing until stopped.`,
	Run: func(cmd *cobra.Command, args []string) {
		startFulfillmentWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
)

func startFulfillmentWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	fulfillmentConfig := fulfillment.Config{
		MaxWorkers:   getIntFlag(maxWorkers, config.Fulfillment.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, config.Fulfillment.JobQueueSize),
	}

	appLogger.Info("starting fulfillment worker",
		"max_workers", fulfillmentConfig.MaxWorkers,
		"job_queue_size", fulfillmentConfig.JobQueueSize)

	cvRepo := cvpostgres.NewCvRepository(gormDB)
	textGen := textgen.NewClient(config.TextGen, appLogger)
	renderer := pdf.NewRenderer(config.Pdf)
	eventBus := events.NewEventBus(appLogger)

	service := fulfillment.NewService(fulfillmentConfig, cvRepo, textGen, renderer, eventBus, appLogger)

	// recover approved CVs that never got their documents
	var stale []cvmodel.Cv
	err = gormDB.
		Where("payment_status = ? AND (linkedin_summary IS NULL OR pdf_url IS NULL)", cvmodel.PaymentStatusApproved).
		Find(&stale).Error
	if err != nil {
		appLogger.Error("failed to list unfulfilled cvs", "error", err)
	}
	for _, record := range stale {
		if err := service.Enqueue(record.ID); err != nil {
			appLogger.Warn("failed to enqueue unfulfilled cv", "cv_id", record.ID, "error", err)
		}
	}
	if len(stale) > 0 {
		appLogger.Info("re-enqueued unfulfilled cvs", "count", len(stale))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	appLogger.Info("fulfillment worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	appLogger.Info("received signal, shutting down fulfillment worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		service.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		appLogger.Info("fulfillment worker pool shutdown complete")
	case <-ctx.Done():
		appLogger.Warn("shutdown timeout reached, forcing exit")
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	workerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	workerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
}
