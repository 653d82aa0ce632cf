package notification_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/licensepro/backend/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

var _ = Describe("Client", func() {
	var (
		client     *notification.Client
		mailServer *httptest.Server
		mu         sync.Mutex
		deliveries []map[string]interface{}
	)

	BeforeEach(func() {
		deliveries = nil
		mailServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]interface{}
			Expect(json.NewDecoder(r.Body).Decode(&payload)).To(Succeed())

			mu.Lock()
			deliveries = append(deliveries, payload)
			mu.Unlock()

			w.WriteHeader(http.StatusAccepted)
		}))

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = notification.NewClient(notification.Config{
			MailAPIURL: mailServer.URL,
			APIKey:     "test-key",
			MaxWorkers: 2,
		}, logger)
	})

	AfterEach(func() {
		client.Shutdown()
		mailServer.Close()
	})

	delivered := func() []map[string]interface{} {
		mu.Lock()
		defer mu.Unlock()
		out := make([]map[string]interface{}, len(deliveries))
		copy(out, deliveries)
		return out
	}

	It("should deliver a payment confirmation through the mail API", func() {
		err := client.SendPaymentConfirmation(context.Background(), notification.NotificationJob{
			TransactionID: "TXN1_A",
			ApplicationID: 42,
			DriverID:      "D123456",
			DriverName:    "Nimal Perera",
			Amount:        "4000.00",
			Currency:      "LKR",
			LicenseType:   "full",
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(delivered).Should(HaveLen(1))

		payload := delivered()[0]
		Expect(payload["template"]).To(Equal("payment_confirmation"))
		Expect(payload["subject"]).To(Equal("LicensePro: Payment Confirmation"))

		variables := payload["variables"].(map[string]interface{})
		Expect(variables["transaction_id"]).To(Equal("TXN1_A"))
		Expect(variables["amount"]).To(Equal("4000.00"))
	})

	It("should deliver a failure notification with the reason", func() {
		err := client.SendPaymentFailure(context.Background(), notification.NotificationJob{
			TransactionID: "TXN1_B",
			ApplicationID: 42,
			DriverID:      "D123456",
			FailureReason: "Card declined",
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(delivered).Should(HaveLen(1))

		payload := delivered()[0]
		Expect(payload["template"]).To(Equal("payment_failure"))
		Expect(payload["subject"]).To(Equal("LicensePro: Payment Failed"))

		variables := payload["variables"].(map[string]interface{})
		Expect(variables["failure_reason"]).To(Equal("Card declined"))
	})
})
