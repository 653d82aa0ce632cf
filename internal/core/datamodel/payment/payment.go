package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusFailed     = "FAILED"
)

const (
	MethodCard   = "CARD"
	MethodBank   = "BANK"
	MethodMobile = "MOBILE"
)

// Payment is the durable record behind every checkout session. Records are
// never deleted; terminal failures stay on file for the audit trail.
type Payment struct {
	ID               int64           `gorm:"primaryKey"`
	TransactionID    string          `gorm:"column:transaction_id;not null;uniqueIndex"`
	GatewayOrderID   string          `gorm:"column:gateway_order_id;not null;uniqueIndex"`
	GatewayPaymentID *string         `gorm:"column:gateway_payment_id"`
	ApplicationID    int64           `gorm:"column:application_id;not null"`
	WrittenExamID    *int64          `gorm:"column:written_exam_id"`
	DriverID         string          `gorm:"column:driver_id;not null"`
	DriverName       string          `gorm:"column:driver_name;not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	Currency         string          `gorm:"column:currency;not null;default:LKR"`
	PaymentMethod    string          `gorm:"column:payment_method;not null"`
	Status           string          `gorm:"column:status;not null;default:PENDING"`
	LicenseType      string          `gorm:"column:license_type"`
	PaymentDate      *time.Time      `gorm:"column:payment_date"`
	FailureReason    *string         `gorm:"column:failure_reason"`
	GatewayResponse  json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt        time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether no further gateway callback may change the
// record. PROCESSING is deliberately excluded: the gateway can still
// resolve it to COMPLETED or FAILED.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// MethodDisplayName renders the payment method for receipts and status views.
func MethodDisplayName(method string) string {
	switch method {
	case MethodCard:
		return "Credit/Debit Card"
	case MethodBank:
		return "Bank Transfer"
	case MethodMobile:
		return "Mobile Payment"
	}
	return method
}

// StatusDescription renders the machine status as receipt text.
func StatusDescription(status string) string {
	switch status {
	case StatusPending:
		return "Payment Pending"
	case StatusProcessing:
		return "Payment Processing"
	case StatusCompleted:
		return "Payment Completed"
	case StatusCancelled:
		return "Payment Cancelled"
	case StatusFailed:
		return "Payment Failed"
	}
	return status
}
