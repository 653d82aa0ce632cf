package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/licensepro/backend/internal/core/events"
	"github.com/licensepro/backend/internal/notification"
)

// NotifierAPI is the outbound email surface the event handlers use.
type NotifierAPI interface {
	SendPaymentConfirmation(ctx context.Context, job notification.NotificationJob) error
	SendPaymentFailure(ctx context.Context, job notification.NotificationJob) error
}

type EventHandler struct {
	notifier NotifierAPI
	logger   *slog.Logger
}

func NewEventHandler(notifier NotifierAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completedEvent, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	h.logger.Info("handling payment completed event",
		"payment_id", completedEvent.PaymentID,
		"transaction_id", completedEvent.TransactionID,
		"application_id", completedEvent.ApplicationID,
		"event_id", completedEvent.EventID())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.notifier.SendPaymentConfirmation(ctx, notification.NotificationJob{
		TransactionID: completedEvent.TransactionID,
		ApplicationID: completedEvent.ApplicationID,
		DriverID:      completedEvent.DriverID,
		DriverName:    completedEvent.DriverName,
		Amount:        completedEvent.Amount,
		Currency:      completedEvent.Currency,
		LicenseType:   completedEvent.LicenseType,
	})
	if err != nil {
		h.logger.Error("failed to queue payment confirmation",
			"error", err,
			"transaction_id", completedEvent.TransactionID,
			"event_id", completedEvent.EventID())
		return fmt.Errorf("confirmation notification failed for payment %d: %w", completedEvent.PaymentID, err)
	}

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failedEvent, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.logger.Info("handling payment failed event",
		"payment_id", failedEvent.PaymentID,
		"transaction_id", failedEvent.TransactionID,
		"failure_reason", failedEvent.FailureReason,
		"event_id", failedEvent.EventID())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.notifier.SendPaymentFailure(ctx, notification.NotificationJob{
		TransactionID: failedEvent.TransactionID,
		ApplicationID: failedEvent.ApplicationID,
		DriverID:      failedEvent.DriverID,
		FailureReason: failedEvent.FailureReason,
	})
	if err != nil {
		h.logger.Error("failed to queue payment failure notification",
			"error", err,
			"transaction_id", failedEvent.TransactionID,
			"event_id", failedEvent.EventID())
		return fmt.Errorf("failure notification failed for payment %d: %w", failedEvent.PaymentID, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypePaymentCompleted, events.EventTypePaymentFailed})
}
