package payhere

import (
	"strconv"
	"strings"

	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
)

// CheckoutParams are the hidden form fields the browser posts to the
// gateway's hosted checkout page. Field names follow the gateway's
// documentation exactly.
type CheckoutParams map[string]string

func (s *Signer) CheckoutURL() string {
	return s.cfg.BaseURL + "/pay/checkout"
}

func (s *Signer) ReturnURL() string {
	return s.cfg.AppBaseURL + "/payment/success"
}

func (s *Signer) CancelURL() string {
	return s.cfg.AppBaseURL + "/payment/cancel"
}

func (s *Signer) NotifyURL() string {
	return s.cfg.AppBaseURL + "/api/v1/payment/callback"
}

func (s *Signer) MerchantID() string {
	return s.cfg.MerchantID
}

// BuildCheckoutParams renders the signed parameter set for one payment
// record. The amount is formatted to two decimals before signing so the
// hash input matches what the gateway will echo back.
func (s *Signer) BuildCheckoutParams(p *paymentmodel.Payment) CheckoutParams {
	amount := p.Amount.StringFixed(2)
	firstName, lastName := splitName(p.DriverName)

	params := CheckoutParams{
		"merchant_id": s.cfg.MerchantID,
		"return_url":  s.ReturnURL(),
		"cancel_url":  s.CancelURL(),
		"notify_url":  s.NotifyURL(),
		"order_id":    p.GatewayOrderID,
		"items":       "Driving License Exam Fee - " + p.LicenseType,
		"currency":    p.Currency,
		"amount":      amount,

		// Contact fields the gateway requires on the checkout form.
		"first_name": firstName,
		"last_name":  lastName,
		"email":      "customer@licensepro.lk",
		"phone":      "0771234567",
		"address":    "Colombo",
		"city":       "Colombo",
		"country":    "Sri Lanka",

		"custom_1": p.TransactionID,
		"custom_2": strconv.FormatInt(p.ApplicationID, 10),
	}

	params["hash"] = s.SignCheckout(p.GatewayOrderID, amount, p.Currency)
	return params
}

func splitName(full string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
