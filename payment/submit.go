package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paperwall/paperwall-agent/interfaces"
)

// submitRequest is the publisher wire contract for payment submission.
type submitRequest struct {
	PaymentPayload *interfaces.SignedPayment `json:"paymentPayload"`
}

// submitResponse covers both the success and failure shapes of the
// publisher response.
type submitResponse struct {
	Success     bool   `json:"success"`
	TxHash      string `json:"txHash"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
	Error       string `json:"error"`
}

// Settlement is the content returned by a successful submission.
type Settlement struct {
	TxHash      string
	Content     string
	ContentType string
}

// SubmitterConfig configures the publisher client.
type SubmitterConfig struct {
	// AllowedHosts restricts submission targets when non-empty. Loopback
	// hosts are always permitted for local development.
	AllowedHosts []string

	// Client overrides the HTTP client; timeouts are the caller's business.
	Client *http.Client

	Log *slog.Logger
}

// Submitter posts signed payments to publisher endpoints and classifies the
// outcome into a receipt stage. It never retries: a signed authorization is
// money in flight and the retry decision belongs to the caller.
type Submitter struct {
	allowedHosts []string
	client       *http.Client
	log          *slog.Logger
}

// NewSubmitter creates a publisher client.
func NewSubmitter(cfg *SubmitterConfig) *Submitter {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Submitter{
		allowedHosts: cfg.AllowedHosts,
		client:       client,
		log:          cfg.Log,
	}
}

// ValidatePaymentURL enforces the allow-list policy before any signed
// payment leaves the process: https only (plain http is tolerated for
// loopback hosts), and the host must match the allow-list when one is
// configured.
func (s *Submitter) ValidatePaymentURL(paymentURL string) error {
	u, err := url.Parse(paymentURL)
	if err != nil {
		return fmt.Errorf("invalid payment URL %q: %w", paymentURL, err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !isLoopbackHost(u.Hostname()) {
			return fmt.Errorf("refusing to submit payment over plain http to %q", u.Hostname())
		}
	default:
		return fmt.Errorf("unsupported payment URL scheme %q", u.Scheme)
	}

	if len(s.allowedHosts) > 0 && !s.hostAllowed(u.Hostname()) {
		return fmt.Errorf("payment host %q is not in the configured allow-list", u.Hostname())
	}
	return nil
}

// SubmitPayment posts the signed payment to paymentURL and returns the
// updated receipt.
//
// Outcome classification:
//   - transport failure or non-2xx status: error returned, receipt stays in
//     the intent stage
//   - 2xx with success=false: receipt declined with the server's reason
//   - 2xx with success=true and a txHash: receipt settled
//   - any other shape: malformed-response error, receipt stays intent
func (s *Submitter) SubmitPayment(ctx context.Context, paymentURL string, signed *interfaces.SignedPayment, amountFormatted string) (*Receipt, error) {
	receipt := NewIntentReceipt(signed)

	if err := s.ValidatePaymentURL(paymentURL); err != nil {
		return receipt, err
	}

	body, err := json.Marshal(submitRequest{PaymentPayload: signed})
	if err != nil {
		return receipt, fmt.Errorf("failed to encode payment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, paymentURL, bytes.NewReader(body))
	if err != nil {
		return receipt, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return receipt, fmt.Errorf("could not reach payment endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil || len(respBody) == 0 {
			return receipt, fmt.Errorf("payment endpoint returned status %d", resp.StatusCode)
		}
		return receipt, fmt.Errorf("payment endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return receipt, fmt.Errorf("malformed payment response: %w", err)
	}

	if !parsed.Success {
		reason := parsed.Error
		if reason == "" {
			return receipt, fmt.Errorf("malformed payment response: declined without a reason")
		}
		if err := receipt.Decline(reason); err != nil {
			return receipt, err
		}
		s.log.Info("Payment declined",
			slog.String("url", paymentURL),
			slog.String("reason", reason))
		return receipt, nil
	}

	if parsed.TxHash == "" {
		return receipt, fmt.Errorf("malformed payment response: success without txHash")
	}
	if err := receipt.Settle(parsed.TxHash, amountFormatted, parsed.Content, parsed.ContentType); err != nil {
		return receipt, err
	}

	s.log.Info("Payment settled",
		slog.String("url", paymentURL),
		slog.String("txHash", parsed.TxHash))
	return receipt, nil
}

func (s *Submitter) hostAllowed(host string) bool {
	for _, allowed := range s.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// FormatAmount renders a smallest-unit decimal amount as a human-readable
// token amount, e.g. ("10000", 6, "USDC") -> "0.01 USDC".
func FormatAmount(amount string, decimals int, symbol string) (string, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok || v.Sign() < 0 {
		return "", fmt.Errorf("invalid amount %q", amount)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, scale, new(big.Int))

	out := whole.String()
	if frac.Sign() > 0 {
		fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
		out += "." + fracStr
	}
	if symbol != "" {
		out += " " + symbol
	}
	return out, nil
}
