package payment

import (
	"context"
	"fmt"
	"strings"

	errors "github.com/licensepro/backend/internal"
	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
)

const receiptTemplate = `LICENSEPRO - PAYMENT RECEIPT
====================================

Transaction Details:
- Transaction ID: %s
- Date & Time: %s
- Status: %s

Application Details:
- Application ID: #%d
- License Type: %s
- Driver Name: %s
- Driver ID: %s

Payment Details:
- Amount Paid: Rs. %s
- Payment Method: %s
- Currency: %s

Important Notes:
- Keep this receipt for your records
- Present this receipt during your exam
- Contact support if you have any questions

Thank you for using LicensePro!
Support: support@licensepro.lk`

// GenerateReceipt renders the plain-text receipt for a completed payment.
// Any other status yields a not-found error: a receipt must never exist
// for money that has not arrived.
func (s *Service) GenerateReceipt(ctx context.Context, transactionID string) (string, error) {
	record, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return "", errors.NewInternalError("failed to load payment", err)
	}
	if record == nil || record.Status != paymentmodel.StatusCompleted {
		return "", errors.ErrReceiptNotReady
	}

	paymentDate := "N/A"
	if record.PaymentDate != nil {
		paymentDate = record.PaymentDate.Format("2006-01-02 15:04:05")
	}

	licenseType := "N/A"
	if record.LicenseType != "" {
		licenseType = strings.ToUpper(record.LicenseType)
	}

	return fmt.Sprintf(receiptTemplate,
		record.TransactionID,
		paymentDate,
		paymentmodel.StatusDescription(record.Status),
		record.ApplicationID,
		licenseType,
		record.DriverName,
		record.DriverID,
		record.Amount.StringFixed(2),
		paymentmodel.MethodDisplayName(record.PaymentMethod),
		record.Currency,
	), nil
}
