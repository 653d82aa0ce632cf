package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/licensepro/backend/internal/core/events"
	"github.com/licensepro/backend/internal/notification"
	"github.com/licensepro/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background services like email notifications.`,
}

// Notification worker command
var notificationWorkerCmd = &cobra.Command{
	Use:   "notification",
	Short: "Start notification worker pool",
	Long:  `Start the notification worker pool for delivering payment emails`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus `,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	mailAPIURL   string
	mailAPIKey   string
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.L()

	// Use command line flags if provided, otherwise use config values
	notificationConfig := notification.Config{
		MailAPIURL:   getStringFlag(mailAPIURL, config.Notification.MailAPIURL),
		APIKey:       getStringFlag(mailAPIKey, config.Notification.APIKey),
		SenderEmail:  config.Notification.SenderEmail,
		SendTimeout:  config.Notification.SendTimeout,
		MaxWorkers:   getIntFlag(maxWorkers, config.Notification.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, config.Notification.JobQueueSize),
	}

	log.Info("starting notification worker",
		"max_workers", notificationConfig.MaxWorkers,
		"job_queue_size", notificationConfig.JobQueueSize,
		"mail_api_url", notificationConfig.MailAPIURL)

	client := notification.NewClient(notificationConfig, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("notification worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.L()

	eventBus := events.NewEventBus(log)

	eventBus.Subscribe("test.event", func(ctx context.Context, event events.Event) error {
		log.Info("received test event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	log.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("event bus is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	log.Info("received signal, shutting down event bus", "signal", sig)
	log.Info("event bus shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&mailAPIURL, "mail-api-url", "", "Mail provider API URL (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&mailAPIKey, "mail-api-key", "", "Mail provider API key (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
