package payment

import (
	"time"

	errors "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/core/common/validation"
	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
	"github.com/licensepro/backend/internal/payhere"
)

// PaymentRequest initiates a checkout session for an approved application.
type PaymentRequest struct {
	ApplicationID int64  `json:"application_id"`
	WrittenExamID *int64 `json:"written_exam_id,omitempty"`
	DriverID      string `json:"driver_id"`
	DriverName    string `json:"driver_name"`
	LicenseType   string `json:"license_type"`
	VehicleClass  string `json:"vehicle_class"`
	PaymentMethod string `json:"payment_method"`
}

// Validate reports every field violation at once so the caller can fix a
// bad request in a single round trip.
func (r *PaymentRequest) Validate() *errors.AppError {
	validator := validation.NewValidator()

	validator.Field("application_id", r.ApplicationID).Required().MinInt(1, errors.ErrCodeValidationFailed)
	validator.Field("driver_id", r.DriverID).Required().MaxLength(50)
	validator.Field("driver_name", r.DriverName).Required().MaxLength(255)
	validator.Field("license_type", r.LicenseType).MaxLength(50)
	validator.Field("payment_method", r.PaymentMethod).Required().
		OneOf(errors.ErrCodeInvalidPaymentMethod,
			paymentmodel.MethodCard, paymentmodel.MethodBank, paymentmodel.MethodMobile)

	return validator.Validate()
}

// PaymentResponse carries everything the frontend needs to render and
// submit the hosted checkout form.
type PaymentResponse struct {
	PaymentID      int64                  `json:"payment_id"`
	TransactionID  string                 `json:"transaction_id"`
	GatewayOrderID string                 `json:"gateway_order_id"`
	Amount         string                 `json:"amount"`
	Currency       string                 `json:"currency"`
	Status         string                 `json:"status"`
	CreatedDate    time.Time              `json:"created_date"`
	CheckoutURL    string                 `json:"checkout_url"`
	CheckoutParams payhere.CheckoutParams `json:"checkout_params"`
}

// PaymentStatusView is the read model returned to status polls.
type PaymentStatusView struct {
	TransactionID string     `json:"transaction_id"`
	ApplicationID int64      `json:"application_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	StatusText    string     `json:"status_text"`
	PaymentMethod string     `json:"payment_method"`
	LicenseType   string     `json:"license_type"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	ReceiptURL    string     `json:"receipt_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewPaymentStatusView projects a record into the polling read model.
// The receipt link only appears once the payment is completed.
func NewPaymentStatusView(p *paymentmodel.Payment) *PaymentStatusView {
	view := &PaymentStatusView{
		TransactionID: p.TransactionID,
		ApplicationID: p.ApplicationID,
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		Status:        p.Status,
		StatusText:    paymentmodel.StatusDescription(p.Status),
		PaymentMethod: p.PaymentMethod,
		LicenseType:   p.LicenseType,
		PaymentDate:   p.PaymentDate,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
	}
	if p.Status == paymentmodel.StatusCompleted {
		view.ReceiptURL = "/api/v1/payment/receipt/" + p.TransactionID
	}
	return view
}

// FeeResponse answers fee quotations before a payment is initiated.
type FeeResponse struct {
	LicenseType  string `json:"license_type"`
	VehicleClass string `json:"vehicle_class,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

// PaidCheckResponse answers whether an application already holds a
// completed payment.
type PaidCheckResponse struct {
	ApplicationID int64  `json:"application_id"`
	Paid          bool   `json:"paid"`
	TransactionID string `json:"transaction_id,omitempty"`
}
