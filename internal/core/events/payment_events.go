package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	ApplicationID int64  `json:"application_id"`
	DriverID      string `json:"driver_id"`
	DriverName    string `json:"driver_name"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	LicenseType   string `json:"license_type"`
}

func NewPaymentCompletedEvent(paymentID int64, transactionID string, applicationID int64, driverID, driverName, amount, currency, licenseType string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"application_id": applicationID,
				"driver_id":      driverID,
				"amount":         amount,
				"currency":       currency,
			},
		},
		PaymentID:     paymentID,
		TransactionID: transactionID,
		ApplicationID: applicationID,
		DriverID:      driverID,
		DriverName:    driverName,
		Amount:        amount,
		Currency:      currency,
		LicenseType:   licenseType,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	ApplicationID int64  `json:"application_id"`
	DriverID      string `json:"driver_id"`
	FailureReason string `json:"failure_reason"`
}

func NewPaymentFailedEvent(paymentID int64, transactionID string, applicationID int64, driverID, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"application_id": applicationID,
				"driver_id":      driverID,
				"failure_reason": failureReason,
			},
		},
		PaymentID:     paymentID,
		TransactionID: transactionID,
		ApplicationID: applicationID,
		DriverID:      driverID,
		FailureReason: failureReason,
	}
}
