package payment_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errorsPkg "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/payhere"
	paymentPkg "github.com/licensepro/backend/internal/payment"
)

// fakeService answers handler calls with canned values.
type fakeService struct {
	initializeResp *paymentPkg.PaymentResponse
	initializeErr  error
	statusView     *paymentPkg.PaymentStatusView
	statusErr      error
	receipt        string
	receiptErr     error
	paidResp       *paymentPkg.PaidCheckResponse
}

func (f *fakeService) InitializePayment(_ context.Context, req *paymentPkg.PaymentRequest) (*paymentPkg.PaymentResponse, error) {
	if f.initializeErr != nil {
		return nil, f.initializeErr
	}
	return f.initializeResp, nil
}

func (f *fakeService) HandleCallback(_ context.Context, _ *payhere.Callback) error {
	return nil
}

func (f *fakeService) GetPaymentStatus(_ context.Context, _ string) (*paymentPkg.PaymentStatusView, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.statusView, nil
}

func (f *fakeService) GetDriverPaymentHistory(_ context.Context, _ string) ([]*paymentPkg.PaymentStatusView, error) {
	return []*paymentPkg.PaymentStatusView{f.statusView}, nil
}

func (f *fakeService) IsApplicationPaid(_ context.Context, _ int64) (*paymentPkg.PaidCheckResponse, error) {
	return f.paidResp, nil
}

func (f *fakeService) GenerateReceipt(_ context.Context, _ string) (string, error) {
	if f.receiptErr != nil {
		return "", f.receiptErr
	}
	return f.receipt, nil
}

var _ = Describe("Handler", func() {
	var (
		handler *paymentPkg.Handler
		fake    *fakeService
		router  *chi.Mux
	)

	BeforeEach(func() {
		fake = &fakeService{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentPkg.NewHandler(fake, logger)

		router = chi.NewRouter()
		router.Post("/api/v1/payment/initialize", handler.InitializePayment)
		router.Get("/api/v1/payment/status/{transactionId}", handler.GetPaymentStatus)
		router.Get("/api/v1/payment/receipt/{transactionId}", handler.DownloadReceipt)
		router.Get("/api/v1/payment/calculate-fee", handler.CalculateFee)
		router.Get("/api/v1/payment/check-payment/{applicationId}", handler.CheckApplicationPaid)
	})

	Describe("InitializePayment", func() {
		It("should return the checkout session", func() {
			fake.initializeResp = &paymentPkg.PaymentResponse{
				TransactionID:  "TXN1_A",
				GatewayOrderID: "LP_1_A",
				Amount:         "4000.00",
				Currency:       "LKR",
				Status:         "PENDING",
				CheckoutURL:    "https://sandbox.payhere.lk/pay/checkout",
				CheckoutParams: payhere.CheckoutParams{"order_id": "LP_1_A"},
			}

			body := `{"application_id":42,"driver_id":"D123456","driver_name":"Nimal Perera","license_type":"full","payment_method":"CARD"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/initialize", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp paymentPkg.PaymentResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.TransactionID).To(Equal("TXN1_A"))
			Expect(resp.CheckoutParams["order_id"]).To(Equal("LP_1_A"))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/initialize", strings.NewReader("{"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should map an already-paid conflict to 409", func() {
			fake.initializeErr = errorsPkg.ErrApplicationPaid

			body := `{"application_id":42,"driver_id":"D123456","driver_name":"Nimal Perera","payment_method":"CARD"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/initialize", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("GetPaymentStatus", func() {
		It("should map a missing payment to 404", func() {
			fake.statusErr = errorsPkg.ErrPaymentNotFound

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/status/TXN_MISSING", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should map an untyped service error to 500, not a panic", func() {
			fake.statusErr = fmt.Errorf("connection reset")

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/status/TXN1_A", nil)
			rec := httptest.NewRecorder()

			Expect(func() { router.ServeHTTP(rec, req) }).ToNot(Panic())
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("DownloadReceipt", func() {
		It("should serve the receipt as a plain-text attachment", func() {
			fake.receipt = "LICENSEPRO - PAYMENT RECEIPT"

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/receipt/TXN1_A", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/plain"))
			Expect(rec.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="LicensePro_Receipt_TXN1_A.txt"`))
			Expect(rec.Body.String()).To(Equal("LICENSEPRO - PAYMENT RECEIPT"))
		})

		It("should map a not-ready receipt to 404", func() {
			fake.receiptErr = errorsPkg.ErrReceiptNotReady

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/receipt/TXN1_A", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("CalculateFee", func() {
		It("should quote the fee for a license type and class list", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/calculate-fee?licenseType=full&vehicleClass=B,C", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp paymentPkg.FeeResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Amount).To(Equal("4500.00"))
			Expect(resp.Currency).To(Equal("LKR"))
		})
	})

	Describe("CheckApplicationPaid", func() {
		It("should answer the paid check", func() {
			fake.paidResp = &paymentPkg.PaidCheckResponse{ApplicationID: 42, Paid: true, TransactionID: "TXN1_A"}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/check-payment/42", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp paymentPkg.PaidCheckResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Paid).To(BeTrue())
		})

		It("should reject a non-numeric application id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/check-payment/notanumber", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
