package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/licensepro/backend/internal"
	"github.com/licensepro/backend/internal/payhere"
	"github.com/licensepro/backend/internal/transport"
)

// ServiceAPI is the payment surface the HTTP layer depends on.
type ServiceAPI interface {
	InitializePayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error)
	HandleCallback(ctx context.Context, cb *payhere.Callback) error
	GetPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusView, error)
	GetDriverPaymentHistory(ctx context.Context, driverID string) ([]*PaymentStatusView, error)
	IsApplicationPaid(ctx context.Context, applicationID int64) (*PaidCheckResponse, error)
	GenerateReceipt(ctx context.Context, transactionID string) (string, error)
}

type Handler struct {
	transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    transport.BaseHandler{Logger: logger},
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// InitializePayment handles POST /api/v1/payment/initialize
func (h *Handler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitializePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.PaymentService.InitializePayment(r.Context(), &req)
	if err != nil {
		h.Logger.Error("InitializePayment: service error",
			"error", err,
			"application_id", req.ApplicationID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitializePayment: checkout session created",
		"transaction_id", resp.TransactionID,
		"application_id", req.ApplicationID)

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetPaymentStatus handles GET /api/v1/payment/status/{transactionId}
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		h.HandleError(w, errors.NewValidationError("transaction id is required", errors.ErrCodeValidationFailed))
		return
	}

	view, err := h.PaymentService.GetPaymentStatus(r.Context(), transactionID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// GetPaymentHistory handles GET /api/v1/payment/history/{driverId}
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverId")
	if driverID == "" {
		h.HandleError(w, errors.NewValidationError("driver id is required", errors.ErrCodeValidationFailed))
		return
	}

	views, err := h.PaymentService.GetDriverPaymentHistory(r.Context(), driverID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, views)
}

// DownloadReceipt handles GET /api/v1/payment/receipt/{transactionId}
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		h.HandleError(w, errors.NewValidationError("transaction id is required", errors.ErrCodeValidationFailed))
		return
	}

	receipt, err := h.PaymentService.GenerateReceipt(r.Context(), transactionID)
	if err != nil {
		h.Logger.Error("DownloadReceipt: service error",
			"error", err,
			"transaction_id", transactionID)
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="LicensePro_Receipt_`+transactionID+`.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(receipt)); err != nil {
		h.Logger.Error("DownloadReceipt: failed to write receipt", "error", err)
	}
}

// CalculateFee handles GET /api/v1/payment/calculate-fee
func (h *Handler) CalculateFee(w http.ResponseWriter, r *http.Request) {
	licenseType := r.URL.Query().Get("licenseType")
	vehicleClass := r.URL.Query().Get("vehicleClass")

	amount := CalculateExamFee(licenseType, vehicleClass)

	h.WriteJSON(w, http.StatusOK, FeeResponse{
		LicenseType:  licenseType,
		VehicleClass: vehicleClass,
		Amount:       amount.StringFixed(2),
		Currency:     "LKR",
	})
}

// CheckApplicationPaid handles GET /api/v1/payment/check-payment/{applicationId}
func (h *Handler) CheckApplicationPaid(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "applicationId")
	applicationID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || applicationID < 1 {
		h.HandleError(w, errors.NewValidationError("invalid application id", errors.ErrCodeValidationFailed))
		return
	}

	resp, svcErr := h.PaymentService.IsApplicationPaid(r.Context(), applicationID)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
