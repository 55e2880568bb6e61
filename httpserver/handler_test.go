package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
	"github.com/paperwall/paperwall-agent/payment"
	"github.com/paperwall/paperwall-agent/registry"
	"github.com/paperwall/paperwall-agent/wallet"
	"github.com/paperwall/paperwall-agent/walletstore"
)

type countingRecorder struct {
	settled, declined, failed int
}

func (c *countingRecorder) RecordSettled()  { c.settled++ }
func (c *countingRecorder) RecordDeclined() { c.declined++ }
func (c *countingRecorder) RecordFailure()  { c.failed++ }

func testHandler(t *testing.T, initWallet bool) (*Handler, *countingRecorder) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := walletstore.NewFileStore(filepath.Join(t.TempDir(), "wallet.json"), log)
	require.NoError(t, err)

	keystore := wallet.NewKeystore(store, cryptoutils.NewEngine(cryptoutils.CryptoRand), cryptoutils.CryptoRand, nil, log)
	if initWallet {
		_, err = keystore.Init(context.Background(), interfaces.ModeMachineBound, "")
		require.NoError(t, err)
	}

	h := NewHandler(&HandlerConfig{
		Keystore:  keystore,
		Signer:    payment.NewSigner(cryptoutils.CryptoRand),
		Submitter: payment.NewSubmitter(&payment.SubmitterConfig{Log: log}),
		Networks:  registry.Default(),
		Log:       log,
	})
	rec := &countingRecorder{}
	h.setRecorder(rec)
	return h, rec
}

func postPay(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/pay", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.HandlePay(w, req)
	return w
}

func TestHandlePaySettled(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PaymentPayload *interfaces.SignedPayment `json:"paymentPayload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.PaymentPayload)
		require.Equal(t, "10000", req.PaymentPayload.Authorization.Value)
		fmt.Fprint(w, `{"success":true,"txHash":"0xabc","content":"article body","contentType":"text/plain"}`)
	}))
	defer publisher.Close()

	h, rec := testHandler(t, true)
	w := postPay(t, h, payRequest{
		URL:     publisher.URL,
		Network: "eip155:84532",
		Amount:  "10000",
		PayTo:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var receipt payment.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	require.Equal(t, payment.StageSettled, receipt.Stage)
	require.Equal(t, "0xabc", receipt.TxHash)
	require.Equal(t, "0.01 USDC", receipt.AmountFormatted)
	require.Equal(t, 1, rec.settled)
}

func TestHandlePayDeclined(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"payment required upfront"}`)
	}))
	defer publisher.Close()

	h, rec := testHandler(t, true)
	w := postPay(t, h, payRequest{
		URL:     publisher.URL,
		Network: "eip155:84532",
		Amount:  "10000",
		PayTo:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var receipt payment.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	require.Equal(t, payment.StageDeclined, receipt.Stage)
	require.Equal(t, "payment required upfront", receipt.Reason)
	require.Equal(t, 1, rec.declined)
}

func TestHandlePayPublisherFailure(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer publisher.Close()

	h, rec := testHandler(t, true)
	w := postPay(t, h, payRequest{
		URL:     publisher.URL,
		Network: "eip155:84532",
		Amount:  "10000",
		PayTo:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp payFailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Error)
	require.Equal(t, payment.StageIntent, resp.Receipt.Stage)
	require.Equal(t, 1, rec.failed)
}

func TestHandlePayBadRequests(t *testing.T) {
	h, rec := testHandler(t, true)

	testCases := []struct {
		name string
		req  payRequest
	}{
		{name: "missing url", req: payRequest{Network: "eip155:84532", Amount: "1", PayTo: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"}},
		{name: "unknown network", req: payRequest{URL: "https://pub.example.com/pay", Network: "eip155:1", Amount: "1", PayTo: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"}},
		{name: "bad amount", req: payRequest{URL: "https://pub.example.com/pay", Network: "eip155:84532", Amount: "1.5", PayTo: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"}},
		{name: "bad recipient", req: payRequest{URL: "https://pub.example.com/pay", Network: "eip155:84532", Amount: "1", PayTo: "0xnope"}},
		{name: "plain http remote", req: payRequest{URL: "http://pub.example.com/pay", Network: "eip155:84532", Amount: "1", PayTo: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postPay(t, h, tc.req)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Requests rejected before signing are caller mistakes, not payment
	// failures.
	require.Equal(t, 0, rec.failed)
	require.Equal(t, 0, rec.settled)
	require.Equal(t, 0, rec.declined)
}

func TestHandlePayWithoutWallet(t *testing.T) {
	h, _ := testHandler(t, false)

	w := postPay(t, h, payRequest{
		URL:     "https://pub.example.com/pay",
		Network: "eip155:84532",
		Amount:  "10000",
		PayTo:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleWalletAddress(t *testing.T) {
	h, _ := testHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet/address", nil)
	w := httptest.NewRecorder()
	h.HandleWalletAddress(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, interfaces.ValidateAddress(resp["address"]))
}

func TestHandleWalletAddressWithoutWallet(t *testing.T) {
	h, _ := testHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet/address", nil)
	w := httptest.NewRecorder()
	h.HandleWalletAddress(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerHealthEndpoints(t *testing.T) {
	h, _ := testHandler(t, true)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MetricsAddr:              "",
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, h)
	require.NoError(t, err)

	router := srv.getRouter()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	require.Equal(t, http.StatusOK, get("/livez").Code)
	require.Equal(t, http.StatusOK, get("/readyz").Code)

	require.Equal(t, http.StatusOK, get("/drain").Code)
	require.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)

	require.Equal(t, http.StatusOK, get("/undrain").Code)
	require.Equal(t, http.StatusOK, get("/readyz").Code)
}
