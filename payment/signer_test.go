package payment

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// Well-known test vector: hardhat/anvil dev account zero.
const (
	testPrivateKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddressFrom = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func testDomain() interfaces.PaymentDomain {
	return interfaces.PaymentDomain{
		Name:              "USDC",
		Version:           "2",
		VerifyingContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}
}

func testTerms() interfaces.PaymentTerms {
	return interfaces.PaymentTerms{
		Network: "eip155:84532",
		Amount:  "10000",
		PayTo:   "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
	}
}

func TestSignPaymentGoldenAddress(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)

	signed, err := signer.SignPayment(testPrivateKey, testDomain(), testTerms())
	require.NoError(t, err)
	require.Equal(t, testAddressFrom, signed.Authorization.From)
}

func TestSignPaymentSignatureFormat(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)

	signed, err := signer.SignPayment(testPrivateKey, testDomain(), testTerms())
	require.NoError(t, err)

	require.Regexp(t, regexp.MustCompile(`^0x[0-9a-f]{130}$`), signed.Signature)
	require.Regexp(t, regexp.MustCompile(`^0x[0-9a-f]{64}$`), signed.Authorization.Nonce)

	// Recovery byte follows the Ethereum 27/28 convention.
	v := signed.Signature[len(signed.Signature)-2:]
	require.Contains(t, []string{"1b", "1c"}, v)
}

func TestSignPaymentAuthorizationFields(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)
	terms := testTerms()

	before := time.Now()
	signed, err := signer.SignPayment(testPrivateKey, testDomain(), terms)
	require.NoError(t, err)

	auth := signed.Authorization
	require.Equal(t, terms.PayTo, auth.To)
	require.Equal(t, terms.Amount, auth.Value)
	require.Equal(t, "0", auth.ValidAfter)

	validBefore, err := strconv.ParseInt(auth.ValidBefore, 10, 64)
	require.NoError(t, err)
	expected := before.Add(AuthorizationValidity).Unix()
	require.InDelta(t, expected, validBefore, 5)
}

func TestSignPaymentFreshNoncePerCall(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)

	first, err := signer.SignPayment(testPrivateKey, testDomain(), testTerms())
	require.NoError(t, err)
	second, err := signer.SignPayment(testPrivateKey, testDomain(), testTerms())
	require.NoError(t, err)

	// Identical terms must never produce a replayable signature.
	require.NotEqual(t, first.Authorization.Nonce, second.Authorization.Nonce)
	require.NotEqual(t, first.Signature, second.Signature)
}

func TestSignPaymentTermsChangeSignature(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)

	base, err := signer.SignPayment(testPrivateKey, testDomain(), testTerms())
	require.NoError(t, err)

	bumped := testTerms()
	bumped.Amount = "20000"
	differentAmount, err := signer.SignPayment(testPrivateKey, testDomain(), bumped)
	require.NoError(t, err)
	require.NotEqual(t, base.Signature, differentAmount.Signature)

	redirected := testTerms()
	redirected.PayTo = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	differentRecipient, err := signer.SignPayment(testPrivateKey, testDomain(), redirected)
	require.NoError(t, err)
	require.NotEqual(t, base.Signature, differentRecipient.Signature)
}

func TestSignPaymentLargeChainID(t *testing.T) {
	// Chain ids above 2^63 must survive the uint64 -> domain conversion
	// without wrapping negative.
	const chainID uint64 = 1 << 63

	terms := testTerms()
	terms.Network = fmt.Sprintf("eip155:%d", chainID)

	signed, err := NewSigner(cryptoutils.CryptoRand).SignPayment(testPrivateKey, testDomain(), terms)
	require.NoError(t, err)

	domain := testDomain()
	typedData := apitypes.TypedData{
		Types:       transferWithAuthorizationTypes,
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
			VerifyingContract: domain.VerifyingContract,
		},
		Message: apitypes.TypedDataMessage{
			"from":        signed.Authorization.From,
			"to":          signed.Authorization.To,
			"value":       signed.Authorization.Value,
			"validAfter":  signed.Authorization.ValidAfter,
			"validBefore": signed.Authorization.ValidBefore,
			"nonce":       signed.Authorization.Nonce,
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	require.NoError(t, err)

	sig, err := hexutil.Decode(signed.Signature)
	require.NoError(t, err)
	sig[64] -= 27

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	require.Equal(t, testAddressFrom, crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignPaymentRejectsBadInput(t *testing.T) {
	signer := NewSigner(cryptoutils.CryptoRand)

	_, err := signer.SignPayment("not-a-key", testDomain(), testTerms())
	require.Error(t, err)

	badNetwork := testTerms()
	badNetwork.Network = "solana:mainnet"
	_, err = signer.SignPayment(testPrivateKey, testDomain(), badNetwork)
	require.Error(t, err)

	badRecipient := testTerms()
	badRecipient.PayTo = "0x1234"
	_, err = signer.SignPayment(testPrivateKey, testDomain(), badRecipient)
	require.Error(t, err)

	badAmount := testTerms()
	badAmount.Amount = "1.5"
	_, err = signer.SignPayment(testPrivateKey, testDomain(), badAmount)
	require.Error(t, err)
}

func TestParseEVMChainID(t *testing.T) {
	id, err := ParseEVMChainID("eip155:8453")
	require.NoError(t, err)
	require.Equal(t, uint64(8453), id)

	id, err = ParseEVMChainID("eip155:324705682")
	require.NoError(t, err)
	require.Equal(t, uint64(324705682), id)

	_, err = ParseEVMChainID("eip155")
	require.Error(t, err)
	_, err = ParseEVMChainID("cosmos:cosmoshub-4")
	require.Error(t, err)
	_, err = ParseEVMChainID("eip155:not-a-number")
	require.Error(t, err)
}
