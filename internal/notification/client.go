package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type NotificationJob struct {
	Kind          string
	TransactionID string
	ApplicationID int64
	DriverID      string
	DriverName    string
	Amount        string
	Currency      string
	LicenseType   string
	FailureReason string
}

const (
	KindPaymentConfirmation = "payment_confirmation"
	KindPaymentFailure      = "payment_failure"
)

type Worker struct {
	ID         int
	WorkerPool chan chan NotificationJob
	JobChannel chan NotificationJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan NotificationJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan NotificationJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(NotificationJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "transaction_id", job.TransactionID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client delivers payment emails through the mail provider's HTTP API.
// Deliveries run on a background worker pool so a slow provider never
// blocks callback acknowledgment.
type Client struct {
	mailAPIURL  string
	apiKey      string
	senderEmail string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan NotificationJob
	workerPool chan chan NotificationJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	MailAPIURL   string
	APIKey       string
	SenderEmail  string
	SendTimeout  time.Duration
	MaxWorkers   int
	JobQueueSize int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	senderEmail := config.SenderEmail
	if senderEmail == "" {
		senderEmail = "noreply@licensepro.lk"
	}

	client := &Client{
		mailAPIURL:  config.MailAPIURL,
		apiKey:      config.APIKey,
		senderEmail: senderEmail,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan NotificationJob, jobQueueSize),
		workerPool: make(chan chan NotificationJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()
	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processNotificationJob)
		}

		go c.dispatch()

		c.logger.Info("notification worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down notification client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("notification client shutdown complete")
}

// SendPaymentConfirmation queues a confirmation email for a completed
// payment. A full queue drops the notification rather than blocking the
// caller; the payment record itself is already durable.
func (c *Client) SendPaymentConfirmation(ctx context.Context, job NotificationJob) error {
	job.Kind = KindPaymentConfirmation
	return c.enqueue(job)
}

// SendPaymentFailure queues a failure email so the driver knows to retry.
func (c *Client) SendPaymentFailure(ctx context.Context, job NotificationJob) error {
	job.Kind = KindPaymentFailure
	return c.enqueue(job)
}

func (c *Client) enqueue(job NotificationJob) error {
	select {
	case c.jobQueue <- job:
		c.logger.Info("notification queued",
			"kind", job.Kind,
			"transaction_id", job.TransactionID,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("notification queue full, dropping notification",
			"kind", job.Kind,
			"transaction_id", job.TransactionID,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("notification queue full")
	}
}

func (c *Client) processNotificationJob(job NotificationJob) {
	if err := c.deliver(job); err != nil {
		c.logger.Error("notification delivery failed",
			"kind", job.Kind,
			"transaction_id", job.TransactionID,
			"error", err)
		return
	}

	c.logger.Info("notification delivered",
		"kind", job.Kind,
		"transaction_id", job.TransactionID,
		"driver_id", job.DriverID)
}

func (c *Client) deliver(job NotificationJob) error {
	payload := map[string]interface{}{
		"from":     c.senderEmail,
		"to":       job.DriverID + "@licensepro.lk",
		"subject":  c.subject(job),
		"template": job.Kind,
		"variables": map[string]interface{}{
			"driver_name":    job.DriverName,
			"transaction_id": job.TransactionID,
			"application_id": job.ApplicationID,
			"amount":         job.Amount,
			"currency":       job.Currency,
			"license_type":   job.LicenseType,
			"failure_reason": job.FailureReason,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.mailAPIURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpClient := &http.Client{Timeout: c.sendTimeout}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) subject(job NotificationJob) string {
	switch job.Kind {
	case KindPaymentFailure:
		return "LicensePro: Payment Failed"
	default:
		return "LicensePro: Payment Confirmation"
	}
}
