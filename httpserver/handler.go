package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/paperwall/paperwall-agent/interfaces"
	"github.com/paperwall/paperwall-agent/payment"
	"github.com/paperwall/paperwall-agent/registry"
	"github.com/paperwall/paperwall-agent/wallet"
)

// Recorder counts payment outcomes. Satisfied by metrics.MetricsServer.
type Recorder interface {
	RecordSettled()
	RecordDeclined()
	RecordFailure()
}

// HandlerConfig wires the payment pipeline into the agent API.
type HandlerConfig struct {
	Keystore  *wallet.Keystore
	Signer    *payment.Signer
	Submitter *payment.Submitter
	Networks  *registry.Registry
	Log       *slog.Logger
}

// Handler implements the agent API endpoints. The wallet must be unlockable
// without interaction by the time requests arrive; the serve command warms the
// password cache before the listener starts.
type Handler struct {
	keystore  *wallet.Keystore
	signer    *payment.Signer
	submitter *payment.Submitter
	networks  *registry.Registry
	log       *slog.Logger
	recorder  Recorder
}

func NewHandler(cfg *HandlerConfig) *Handler {
	return &Handler{
		keystore:  cfg.Keystore,
		signer:    cfg.Signer,
		submitter: cfg.Submitter,
		networks:  cfg.Networks,
		log:       cfg.Log,
	}
}

func (h *Handler) setRecorder(r Recorder) {
	if h.recorder == nil {
		h.recorder = r
	}
}

// payRequest is the body of POST /api/pay.
type payRequest struct {
	URL     string `json:"url"`
	Network string `json:"network"`
	Amount  string `json:"amount"`
	PayTo   string `json:"payTo"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// payFailureResponse carries the non-terminal receipt alongside the error so
// callers can see how far the payment got.
type payFailureResponse struct {
	Error   string           `json:"error"`
	Receipt *payment.Receipt `json:"receipt,omitempty"`
}

// HandlePay executes one payment end to end: unlock, sign, submit, receipt.
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.URL == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	network, err := h.networks.Lookup(req.Network)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	terms := interfaces.PaymentTerms{
		Network: network.CAIP2,
		Amount:  req.Amount,
		PayTo:   req.PayTo,
	}
	if err := terms.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.submitter.ValidatePaymentURL(req.URL); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// Resolve the display amount before any key material is touched so a
	// bad amount never produces a dangling signature.
	amountFormatted, err := payment.FormatAmount(req.Amount, network.Token.Decimals, network.Token.Symbol)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	privateKeyHex, err := h.keystore.Unlock(r.Context(), nil)
	if err != nil {
		h.log.Error("Failed to unlock wallet", "err", err)
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "wallet unavailable: " + err.Error()})
		return
	}

	signed, err := h.signer.SignPayment(privateKeyHex, network.PaymentDomain(), terms)
	if err != nil {
		h.recordFailure()
		h.log.Error("Failed to sign payment", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to sign payment: " + err.Error()})
		return
	}

	receipt, err := h.submitter.SubmitPayment(r.Context(), req.URL, signed, amountFormatted)
	if err != nil {
		h.recordFailure()
		h.log.Error("Payment submission failed", "url", req.URL, "err", err)
		h.writeJSON(w, http.StatusBadGateway, payFailureResponse{Error: err.Error(), Receipt: receipt})
		return
	}

	switch receipt.Stage {
	case payment.StageSettled:
		if h.recorder != nil {
			h.recorder.RecordSettled()
		}
	case payment.StageDeclined:
		if h.recorder != nil {
			h.recorder.RecordDeclined()
		}
	}
	h.writeJSON(w, http.StatusOK, receipt)
}

// HandleWalletAddress returns the wallet's payment address.
func (h *Handler) HandleWalletAddress(w http.ResponseWriter, r *http.Request) {
	address, err := h.keystore.Address(r.Context())
	if errors.Is(err, interfaces.ErrWalletNotFound) {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no wallet configured"})
		return
	} else if err != nil {
		h.log.Error("Failed to load wallet", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"address": address})
}

func (h *Handler) recordFailure() {
	if h.recorder != nil {
		h.recorder.RecordFailure()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
