package payment

import (
	"log/slog"
	"net/http"

	errors "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/payhere"
	"github.com/licensepro/backend/internal/transport"
)

// WebhookHandler terminates the gateway's server-to-server notifications.
// It is mounted without authentication: the signature inside the payload
// is the only trust anchor.
type WebhookHandler struct {
	transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewWebhookHandler(paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    transport.BaseHandler{Logger: logger},
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// HandleCallback handles POST /api/v1/payment/callback. The gateway
// retries deliveries that do not get a 200, so every accepted delivery is
// acknowledged with a literal OK, including signature mismatches and
// redeliveries. Only a malformed body is refused.
func (wh *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		wh.Logger.Error("HandleCallback: failed to parse form body", "error", err)
		wh.WriteError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	cb := &payhere.Callback{
		MerchantID:     r.PostFormValue("merchant_id"),
		OrderID:        r.PostFormValue("order_id"),
		PaymentID:      r.PostFormValue("payment_id"),
		Amount:         r.PostFormValue("payhere_amount"),
		Currency:       r.PostFormValue("payhere_currency"),
		StatusCode:     r.PostFormValue("status_code"),
		Signature:      r.PostFormValue("md5sig"),
		Custom1:        r.PostFormValue("custom_1"),
		Custom2:        r.PostFormValue("custom_2"),
		Method:         r.PostFormValue("method"),
		StatusMessage:  r.PostFormValue("status_message"),
		CardHolderName: r.PostFormValue("card_holder_name"),
		CardNo:         r.PostFormValue("card_no"),
		CardExpiry:     r.PostFormValue("card_expiry"),
	}

	wh.Logger.Info("HandleCallback: notification received",
		"order_id", cb.OrderID,
		"status_code", cb.StatusCode,
		"gateway_payment_id", cb.PaymentID)

	if err := wh.PaymentService.HandleCallback(r.Context(), cb); err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			switch appErr.Code {
			case errors.ErrCodeSignatureMismatch:
				wh.Logger.Warn("HandleCallback: signature mismatch, notification discarded",
					"order_id", cb.OrderID)
			case errors.ErrCodePaymentNotFound:
				wh.Logger.Warn("HandleCallback: unknown order, notification discarded",
					"order_id", cb.OrderID)
			case errors.ErrCodeTransitionIgnored:
				wh.Logger.Info("HandleCallback: redelivered notification, no transition applied",
					"order_id", cb.OrderID)
			default:
				wh.Logger.Error("HandleCallback: processing failed",
					"order_id", cb.OrderID,
					"error", err)
			}
		} else {
			wh.Logger.Error("HandleCallback: processing failed",
				"order_id", cb.OrderID,
				"error", err)
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		wh.Logger.Error("HandleCallback: failed to write acknowledgment", "error", err)
	}
}
