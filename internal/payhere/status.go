package payhere

import (
	"fmt"

	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
)

// Gateway status codes as documented by PayHere. These small integers are
// a wire-format contract shared with the gateway; they must not change
// independently of the upstream documentation.
const (
	CodeSuccess    = "2"
	CodePending    = "0"
	CodeCancelled  = "-1"
	CodeFailed     = "-2"
	CodeChargeback = "-3"
)

var statusByCode = map[string]string{
	CodeSuccess:    paymentmodel.StatusCompleted,
	CodePending:    paymentmodel.StatusPending,
	CodeCancelled:  paymentmodel.StatusCancelled,
	CodeFailed:     paymentmodel.StatusFailed,
	CodeChargeback: paymentmodel.StatusProcessing,
}

// StatusFromCode maps a gateway status code to the internal record status.
// Unrecognized codes map to FAILED with a synthesized reason so nothing
// unknown can ever pass through as success.
func StatusFromCode(code, statusMessage string) (status string, failureReason string) {
	status, ok := statusByCode[code]
	if !ok {
		return paymentmodel.StatusFailed, fmt.Sprintf("Unknown status code: %s", code)
	}
	if status == paymentmodel.StatusFailed {
		return status, statusMessage
	}
	return status, ""
}

// ValidateStatusTable checks the code mapping exhaustively. Run at server
// startup so a bad edit to the table fails fast instead of misclassifying
// live callbacks.
func ValidateStatusTable() error {
	known := map[string]string{
		CodeSuccess:    paymentmodel.StatusCompleted,
		CodePending:    paymentmodel.StatusPending,
		CodeCancelled:  paymentmodel.StatusCancelled,
		CodeFailed:     paymentmodel.StatusFailed,
		CodeChargeback: paymentmodel.StatusProcessing,
	}

	if len(statusByCode) != len(known) {
		return fmt.Errorf("status table has %d entries, expected %d", len(statusByCode), len(known))
	}
	for code, want := range known {
		got, ok := statusByCode[code]
		if !ok {
			return fmt.Errorf("status table missing gateway code %q", code)
		}
		if got != want {
			return fmt.Errorf("status table maps code %q to %q, expected %q", code, got, want)
		}
	}
	return nil
}

// Callback is the form-encoded notification the gateway posts to our
// notify URL after the payer completes or abandons checkout.
type Callback struct {
	MerchantID     string `json:"merchant_id"`
	OrderID        string `json:"order_id"`
	PaymentID      string `json:"payment_id"`
	Amount         string `json:"payhere_amount"`
	Currency       string `json:"payhere_currency"`
	StatusCode     string `json:"status_code"`
	Signature      string `json:"md5sig"`
	Custom1        string `json:"custom_1"` // echoes our transaction id
	Custom2        string `json:"custom_2"` // echoes the application id
	Method         string `json:"method"`
	StatusMessage  string `json:"status_message"`
	CardHolderName string `json:"card_holder_name,omitempty"`
	CardNo         string `json:"card_no,omitempty"`
	CardExpiry     string `json:"card_expiry,omitempty"`
}
