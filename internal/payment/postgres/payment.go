package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/licensepro/backend/internal/core/datamodel/payment"
	paymentpkg "github.com/licensepro/backend/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByDriverID(ctx context.Context, driverID string) ([]payment.Payment, error) {
	var payments []payment.Payment
	err := r.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) FindCompletedByApplicationID(ctx context.Context, applicationID int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND status = ?", applicationID, payment.StatusCompleted).
		Order("created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatusGuarded applies a callback transition unless the record has
// already reached COMPLETED or already holds the incoming status. The
// predicate rides in the UPDATE's WHERE clause, so concurrent deliveries
// race at the database and exactly one of them observes a nonzero row
// count.
func (r *PaymentRepository) UpdateStatusGuarded(ctx context.Context, update paymentpkg.StatusUpdate) (int64, error) {
	updates := map[string]interface{}{
		"status":     update.Status,
		"updated_at": time.Now(),
	}

	if update.GatewayPaymentID != nil {
		updates["gateway_payment_id"] = *update.GatewayPaymentID
	}

	if update.PaymentDate != nil {
		updates["payment_date"] = *update.PaymentDate
	}

	if update.FailureReason != nil {
		updates["failure_reason"] = *update.FailureReason
	}

	if update.GatewayResponse != nil {
		updates["gateway_response"] = update.GatewayResponse
	}

	result := r.db.WithContext(ctx).
		Model(&payment.Payment{}).
		Where("id = ? AND status <> ? AND status <> ?", update.PaymentID, payment.StatusCompleted, update.Status).
		Updates(updates)

	return result.RowsAffected, result.Error
}
