package payhere

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Config carries the merchant credentials and URL roots. It is injected
// explicitly so the signing logic never reads ambient/global state and
// tests can run against fixture secrets.
type Config struct {
	MerchantID     string
	MerchantSecret string
	BaseURL        string // gateway origin, e.g. https://sandbox.payhere.lk
	AppBaseURL     string // our origin, used for return/cancel/notify URLs
	HashAlgorithm  string // "md5" (gateway default) or "sha256"
	Debug          bool   // log full hash inputs; never enable in production
}

// Signer computes and verifies the keyed integrity hash on both legs of
// the checkout protocol. The concatenation order of the signing material
// is part of the gateway's wire contract and must not change.
type Signer struct {
	cfg    Config
	logger *slog.Logger
}

func NewSigner(cfg Config, logger *slog.Logger) *Signer {
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = "md5"
	}
	return &Signer{cfg: cfg, logger: logger}
}

// SignCheckout produces the outbound hash sent with the checkout form:
// H(merchantId + orderId + amount + currency + secret), uppercase hex.
// amount must already be formatted with two decimals.
func (s *Signer) SignCheckout(orderID, amount, currency string) string {
	input := s.cfg.MerchantID + orderID + amount + currency + s.cfg.MerchantSecret
	sig := s.digest(input)

	if s.cfg.Debug {
		s.logger.Debug("outbound checkout signature",
			"hash_input", input,
			"signature", sig)
	}
	return sig
}

// VerifyCallback checks the inbound md5sig against
// H(merchantId + orderId + amount + currency + statusCode + secret).
// The comparison is case-insensitive and constant-time.
func (s *Signer) VerifyCallback(cb *Callback) bool {
	input := s.cfg.MerchantID + cb.OrderID + cb.Amount + cb.Currency + cb.StatusCode + s.cfg.MerchantSecret
	expected := s.digest(input)
	received := strings.ToUpper(strings.TrimSpace(cb.Signature))

	if s.cfg.Debug {
		s.logger.Debug("callback signature verification",
			"hash_input", input,
			"expected", expected,
			"received", received)
	}

	if len(received) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}

func (s *Signer) digest(input string) string {
	var sum []byte
	switch strings.ToLower(s.cfg.HashAlgorithm) {
	case "sha256":
		h := sha256.Sum256([]byte(input))
		sum = h[:]
	default:
		h := md5.Sum([]byte(input))
		sum = h[:]
	}
	return strings.ToUpper(hex.EncodeToString(sum))
}

// Validate rejects merchant configurations the gateway would refuse,
// before any payment is attempted.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.MerchantID) == "" {
		issues = append(issues, "merchant id is missing")
	} else {
		for _, r := range c.MerchantID {
			if r < '0' || r > '9' {
				issues = append(issues, "merchant id should contain only digits")
				break
			}
		}
	}

	if strings.TrimSpace(c.MerchantSecret) == "" {
		issues = append(issues, "merchant secret is missing")
	} else if len(c.MerchantSecret) < 32 {
		issues = append(issues, "merchant secret seems too short")
	}

	if !strings.HasPrefix(c.BaseURL, "https://") {
		issues = append(issues, "gateway base URL must use https")
	}
	if !strings.HasPrefix(c.AppBaseURL, "http") {
		issues = append(issues, "invalid app base URL")
	}

	switch strings.ToLower(c.HashAlgorithm) {
	case "", "md5", "sha256":
	default:
		issues = append(issues, fmt.Sprintf("unsupported hash algorithm %q", c.HashAlgorithm))
	}

	if len(issues) > 0 {
		return fmt.Errorf("merchant configuration issues: %s", strings.Join(issues, ", "))
	}
	return nil
}
