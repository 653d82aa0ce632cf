package payhere_test

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	paymentmodel "github.com/licensepro/backend/internal/core/datamodel/payment"
	"github.com/licensepro/backend/internal/payhere"
)

func TestPayHere(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PayHere Gateway Suite")
}

const (
	testMerchantID = "1221149"
	testSecret     = "MzYwNDM2MzE3MzI5MDg2NTQ0NTk2NzQ0NjE5NTQw"
)

// md5Upper mirrors the gateway's documented digest construction so the
// tests compute expected signatures independently of the signer.
func md5Upper(input string) string {
	sum := md5.Sum([]byte(input))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func newTestSigner() *payhere.Signer {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return payhere.NewSigner(payhere.Config{
		MerchantID:     testMerchantID,
		MerchantSecret: testSecret,
		BaseURL:        "https://sandbox.payhere.lk",
		AppBaseURL:     "http://localhost:8080",
	}, logger)
}

var _ = Describe("Signer", func() {
	var signer *payhere.Signer

	BeforeEach(func() {
		signer = newTestSigner()
	})

	Describe("SignCheckout", func() {
		It("should produce the documented uppercase digest", func() {
			expected := md5Upper(testMerchantID + "LP_1700000000000_ABC123" + "4000.00" + "LKR" + testSecret)

			sig := signer.SignCheckout("LP_1700000000000_ABC123", "4000.00", "LKR")
			Expect(sig).To(Equal(expected))
		})

		It("should change when the amount changes", func() {
			a := signer.SignCheckout("LP_1", "4000.00", "LKR")
			b := signer.SignCheckout("LP_1", "4000.01", "LKR")
			Expect(a).ToNot(Equal(b))
		})
	})

	Describe("VerifyCallback", func() {
		var cb *payhere.Callback

		BeforeEach(func() {
			cb = &payhere.Callback{
				MerchantID: testMerchantID,
				OrderID:    "LP_1700000000000_ABC123",
				Amount:     "4000.00",
				Currency:   "LKR",
				StatusCode: "2",
			}
			cb.Signature = md5Upper(testMerchantID + cb.OrderID + cb.Amount + cb.Currency + cb.StatusCode + testSecret)
		})

		It("should accept a correctly signed callback", func() {
			Expect(signer.VerifyCallback(cb)).To(BeTrue())
		})

		It("should accept a lowercase signature", func() {
			cb.Signature = strings.ToLower(cb.Signature)
			Expect(signer.VerifyCallback(cb)).To(BeTrue())
		})

		It("should reject a tampered amount", func() {
			cb.Amount = "1.00"
			Expect(signer.VerifyCallback(cb)).To(BeFalse())
		})

		It("should reject a tampered status code", func() {
			cb.StatusCode = "-2"
			Expect(signer.VerifyCallback(cb)).To(BeFalse())
		})

		It("should reject a corrupted signature", func() {
			sig := []byte(cb.Signature)
			if sig[0] == 'A' {
				sig[0] = 'B'
			} else {
				sig[0] = 'A'
			}
			cb.Signature = string(sig)
			Expect(signer.VerifyCallback(cb)).To(BeFalse())
		})

		It("should reject an empty signature", func() {
			cb.Signature = ""
			Expect(signer.VerifyCallback(cb)).To(BeFalse())
		})
	})

	Describe("BuildCheckoutParams", func() {
		It("should render a signed parameter set with two-decimal amount", func() {
			record := &paymentmodel.Payment{
				TransactionID:  "TXN1700000000000_AAAA1111",
				GatewayOrderID: "LP_1700000000000_ABC123",
				ApplicationID:  42,
				DriverName:     "Nimal Perera",
				Amount:         decimal.NewFromFloat(4000),
				Currency:       "LKR",
				LicenseType:    "full",
			}

			params := signer.BuildCheckoutParams(record)

			Expect(params["merchant_id"]).To(Equal(testMerchantID))
			Expect(params["order_id"]).To(Equal("LP_1700000000000_ABC123"))
			Expect(params["amount"]).To(Equal("4000.00"))
			Expect(params["currency"]).To(Equal("LKR"))
			Expect(params["first_name"]).To(Equal("Nimal"))
			Expect(params["last_name"]).To(Equal("Perera"))
			Expect(params["custom_1"]).To(Equal("TXN1700000000000_AAAA1111"))
			Expect(params["custom_2"]).To(Equal("42"))
			Expect(params["notify_url"]).To(Equal("http://localhost:8080/api/v1/payment/callback"))

			expectedHash := md5Upper(testMerchantID + record.GatewayOrderID + "4000.00" + "LKR" + testSecret)
			Expect(params["hash"]).To(Equal(expectedHash))
		})
	})
})

var _ = Describe("StatusFromCode", func() {
	It("should map success to COMPLETED", func() {
		status, reason := payhere.StatusFromCode("2", "")
		Expect(status).To(Equal(paymentmodel.StatusCompleted))
		Expect(reason).To(BeEmpty())
	})

	It("should map pending to PENDING", func() {
		status, _ := payhere.StatusFromCode("0", "")
		Expect(status).To(Equal(paymentmodel.StatusPending))
	})

	It("should map cancelled to CANCELLED", func() {
		status, _ := payhere.StatusFromCode("-1", "")
		Expect(status).To(Equal(paymentmodel.StatusCancelled))
	})

	It("should map failed to FAILED and keep the gateway message", func() {
		status, reason := payhere.StatusFromCode("-2", "Card declined")
		Expect(status).To(Equal(paymentmodel.StatusFailed))
		Expect(reason).To(Equal("Card declined"))
	})

	It("should map chargeback to PROCESSING", func() {
		status, _ := payhere.StatusFromCode("-3", "")
		Expect(status).To(Equal(paymentmodel.StatusProcessing))
	})

	It("should map unknown codes to FAILED with a synthesized reason", func() {
		status, reason := payhere.StatusFromCode("7", "")
		Expect(status).To(Equal(paymentmodel.StatusFailed))
		Expect(reason).To(Equal("Unknown status code: 7"))
	})

	It("should validate the full status table", func() {
		Expect(payhere.ValidateStatusTable()).To(Succeed())
	})
})

var _ = Describe("Config Validate", func() {
	valid := func() payhere.Config {
		return payhere.Config{
			MerchantID:     testMerchantID,
			MerchantSecret: testSecret,
			BaseURL:        "https://sandbox.payhere.lk",
			AppBaseURL:     "http://localhost:8080",
		}
	}

	It("should accept a valid sandbox configuration", func() {
		Expect(valid().Validate()).To(Succeed())
	})

	It("should reject a non-numeric merchant id", func() {
		cfg := valid()
		cfg.MerchantID = "merchant-abc"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should reject a short merchant secret", func() {
		cfg := valid()
		cfg.MerchantSecret = "short"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should reject a plain http gateway URL", func() {
		cfg := valid()
		cfg.BaseURL = "http://sandbox.payhere.lk"
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("should reject an unsupported hash algorithm", func() {
		cfg := valid()
		cfg.HashAlgorithm = "sha1"
		Expect(cfg.Validate()).To(HaveOccurred())
	})
})
