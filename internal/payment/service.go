package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	errors "github.com/licensepro/backend/internal"
	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
	"github.com/licensepro/backend/internal/core/events"
	"github.com/licensepro/backend/internal/payhere"
)

// RepositoryAPI is the persistence surface the service depends on.
type RepositoryAPI interface {
	Create(ctx context.Context, p *paymentmodel.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*paymentmodel.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*paymentmodel.Payment, error)
	ListByDriverID(ctx context.Context, driverID string) ([]paymentmodel.Payment, error)
	FindCompletedByApplicationID(ctx context.Context, applicationID int64) (*paymentmodel.Payment, error)
	UpdateStatusGuarded(ctx context.Context, update StatusUpdate) (int64, error)
}

// StatusUpdate is the guarded transition applied when a gateway callback
// arrives. The repository must refuse it once the record is COMPLETED.
type StatusUpdate struct {
	PaymentID        int64
	Status           string
	GatewayPaymentID *string
	PaymentDate      *time.Time
	FailureReason    *string
	GatewayResponse  json.RawMessage
}

type Service struct {
	repo     RepositoryAPI
	signer   *payhere.Signer
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, signer *payhere.Signer, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		signer:   signer,
		eventBus: eventBus,
		logger:   logger,
	}
}

// InitializePayment creates a PENDING record and returns the signed
// checkout parameters. An application that already holds a completed
// payment is refused so it can never be charged twice.
func (s *Service) InitializePayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.FindCompletedByApplicationID(ctx, req.ApplicationID)
	if err != nil {
		s.logger.Error("failed to check existing payments",
			"application_id", req.ApplicationID,
			"error", err)
		return nil, errors.NewInternalError("failed to check existing payments", err)
	}
	if existing != nil {
		s.logger.Warn("payment refused, application already paid",
			"application_id", req.ApplicationID,
			"transaction_id", existing.TransactionID)
		return nil, errors.ErrApplicationPaid
	}

	amount := CalculateExamFee(req.LicenseType, req.VehicleClass)

	record := &paymentmodel.Payment{
		TransactionID:  GenerateTransactionID(),
		GatewayOrderID: GenerateGatewayOrderID(),
		ApplicationID:  req.ApplicationID,
		WrittenExamID:  req.WrittenExamID,
		DriverID:       req.DriverID,
		DriverName:     req.DriverName,
		Amount:         amount,
		Currency:       "LKR",
		PaymentMethod:  strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
		Status:         paymentmodel.StatusPending,
		LicenseType:    req.LicenseType,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to create payment record",
			"application_id", req.ApplicationID,
			"error", err)
		return nil, errors.NewInternalError("failed to create payment record", err)
	}

	s.logger.Info("payment initialized",
		"payment_id", record.ID,
		"transaction_id", record.TransactionID,
		"application_id", record.ApplicationID,
		"amount", amount.StringFixed(2))

	return &PaymentResponse{
		PaymentID:      record.ID,
		TransactionID:  record.TransactionID,
		GatewayOrderID: record.GatewayOrderID,
		Amount:         amount.StringFixed(2),
		Currency:       record.Currency,
		Status:         record.Status,
		CreatedDate:    record.CreatedAt,
		CheckoutURL:    s.signer.CheckoutURL(),
		CheckoutParams: s.signer.BuildCheckoutParams(record),
	}, nil
}

// HandleCallback processes one gateway notification: verify the
// signature, locate the record, map the status code, apply the guarded
// transition, and publish side effects only when the transition actually
// happened. Redelivered notifications therefore collapse to no-ops.
func (s *Service) HandleCallback(ctx context.Context, cb *payhere.Callback) error {
	if !s.signer.VerifyCallback(cb) {
		s.logger.Warn("callback signature mismatch",
			"order_id", cb.OrderID,
			"status_code", cb.StatusCode,
			"merchant_id", cb.MerchantID)
		return errors.ErrSignatureMismatch
	}

	record, err := s.repo.GetByGatewayOrderID(ctx, cb.OrderID)
	if err != nil {
		s.logger.Error("failed to load payment for callback",
			"order_id", cb.OrderID,
			"error", err)
		return errors.NewInternalError("failed to load payment for callback", err)
	}
	if record == nil {
		s.logger.Warn("callback for unknown order", "order_id", cb.OrderID)
		return errors.ErrPaymentNotFound
	}

	status, failureReason := payhere.StatusFromCode(cb.StatusCode, cb.StatusMessage)

	// A redelivery of a terminal status the record already holds carries
	// no new information. Anything else still goes through the guarded
	// update, which settles races at the database.
	if record.Status == status && paymentmodel.IsTerminal(status) {
		s.logger.Info("callback ignored, terminal status redelivered",
			"payment_id", record.ID,
			"transaction_id", record.TransactionID,
			"status", status)
		return errors.ErrTransitionIgnored
	}

	update := StatusUpdate{
		PaymentID: record.ID,
		Status:    status,
	}
	if cb.PaymentID != "" {
		update.GatewayPaymentID = &cb.PaymentID
	}
	if status == paymentmodel.StatusCompleted {
		now := time.Now()
		update.PaymentDate = &now
	}
	if failureReason != "" {
		update.FailureReason = &failureReason
	}
	if raw, err := json.Marshal(cb); err == nil {
		update.GatewayResponse = raw
	}

	affected, err := s.repo.UpdateStatusGuarded(ctx, update)
	if err != nil {
		s.logger.Error("failed to apply payment status",
			"payment_id", record.ID,
			"status", status,
			"error", err)
		return errors.NewInternalError("failed to apply payment status", err)
	}
	if affected == 0 {
		s.logger.Info("callback ignored, no transition applied",
			"payment_id", record.ID,
			"transaction_id", record.TransactionID,
			"incoming_status", status)
		return errors.ErrTransitionIgnored
	}

	s.logger.Info("payment status updated",
		"payment_id", record.ID,
		"transaction_id", record.TransactionID,
		"status", status)

	switch status {
	case paymentmodel.StatusCompleted:
		event := events.NewPaymentCompletedEvent(
			record.ID,
			record.TransactionID,
			record.ApplicationID,
			record.DriverID,
			record.DriverName,
			record.Amount.StringFixed(2),
			record.Currency,
			record.LicenseType,
		)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish payment completed event",
				"payment_id", record.ID,
				"error", err)
		}
	case paymentmodel.StatusFailed:
		event := events.NewPaymentFailedEvent(
			record.ID,
			record.TransactionID,
			record.ApplicationID,
			record.DriverID,
			failureReason,
		)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish payment failed event",
				"payment_id", record.ID,
				"error", err)
		}
	}

	return nil
}

// GetPaymentStatus returns the read model for one transaction.
func (s *Service) GetPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusView, error) {
	record, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load payment", err)
	}
	if record == nil {
		return nil, errors.ErrPaymentNotFound
	}
	return NewPaymentStatusView(record), nil
}

// GetDriverPaymentHistory lists a driver's payments, newest first.
func (s *Service) GetDriverPaymentHistory(ctx context.Context, driverID string) ([]*PaymentStatusView, error) {
	records, err := s.repo.ListByDriverID(ctx, driverID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load payment history", err)
	}

	views := make([]*PaymentStatusView, 0, len(records))
	for i := range records {
		views = append(views, NewPaymentStatusView(&records[i]))
	}
	return views, nil
}

// IsApplicationPaid reports whether a completed payment exists for the
// application, and which transaction completed it.
func (s *Service) IsApplicationPaid(ctx context.Context, applicationID int64) (*PaidCheckResponse, error) {
	record, err := s.repo.FindCompletedByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, errors.NewInternalError("failed to check application payments", err)
	}

	resp := &PaidCheckResponse{ApplicationID: applicationID}
	if record != nil {
		resp.Paid = true
		resp.TransactionID = record.TransactionID
	}
	return resp, nil
}

// GenerateTransactionID mints the internal payment reference. The uuid
// suffix keeps ids unique under concurrent initiation in the same
// millisecond.
func GenerateTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("TXN%d_%s", time.Now().UnixMilli(), suffix)
}

// GenerateGatewayOrderID mints the order reference sent to the gateway.
func GenerateGatewayOrderID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("LP_%d_%s", time.Now().UnixMilli(), suffix)
}
