package payment_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errorsPkg "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/payhere"
	paymentPkg "github.com/licensepro/backend/internal/payment"
)

// stubService records the callback the handler hands over and answers
// with a preconfigured error.
type stubService struct {
	paymentPkg.ServiceAPI
	received    *payhere.Callback
	callbackErr error
}

func (s *stubService) HandleCallback(_ context.Context, cb *payhere.Callback) error {
	s.received = cb
	return s.callbackErr
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler *paymentPkg.WebhookHandler
		stub    *stubService
	)

	BeforeEach(func() {
		stub = &stubService{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentPkg.NewWebhookHandler(stub, logger)
	})

	postForm := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.HandleCallback(rec, req)
		return rec
	}

	notificationForm := func() url.Values {
		form := url.Values{}
		form.Set("merchant_id", "1221149")
		form.Set("order_id", "LP_1700000000000_ABC123")
		form.Set("payment_id", "320025471")
		form.Set("payhere_amount", "4000.00")
		form.Set("payhere_currency", "LKR")
		form.Set("status_code", "2")
		form.Set("md5sig", "AABBCCDDEEFF00112233445566778899")
		form.Set("custom_1", "TXN1700000000000_AAAA1111")
		form.Set("custom_2", "42")
		form.Set("method", "VISA")
		form.Set("status_message", "Successfully received")
		return form
	}

	It("should decode the form fields into a callback", func() {
		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.received).ToNot(BeNil())
		Expect(stub.received.MerchantID).To(Equal("1221149"))
		Expect(stub.received.OrderID).To(Equal("LP_1700000000000_ABC123"))
		Expect(stub.received.PaymentID).To(Equal("320025471"))
		Expect(stub.received.Amount).To(Equal("4000.00"))
		Expect(stub.received.Currency).To(Equal("LKR"))
		Expect(stub.received.StatusCode).To(Equal("2"))
		Expect(stub.received.Signature).To(Equal("AABBCCDDEEFF00112233445566778899"))
		Expect(stub.received.Custom1).To(Equal("TXN1700000000000_AAAA1111"))
		Expect(stub.received.Custom2).To(Equal("42"))
	})

	It("should acknowledge a processed notification with a literal OK", func() {
		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should still acknowledge a signature mismatch", func() {
		stub.callbackErr = errorsPkg.ErrSignatureMismatch

		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should still acknowledge an unknown order", func() {
		stub.callbackErr = errorsPkg.ErrPaymentNotFound

		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should still acknowledge internal processing failures", func() {
		stub.callbackErr = errorsPkg.NewInternalError("db down", nil)

		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should still acknowledge a redelivered notification", func() {
		stub.callbackErr = errorsPkg.ErrTransitionIgnored

		rec := postForm(notificationForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should answer a body with broken URL encoding with 400, not a panic", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader("%zz=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		Expect(func() { handler.HandleCallback(rec, req) }).ToNot(Panic())
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(stub.received).To(BeNil())
	})
})
