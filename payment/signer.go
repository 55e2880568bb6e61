package payment

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// AuthorizationValidity is the window during which a signed authorization
// may be settled on-chain. A policy constant, not a local timeout.
const AuthorizationValidity = 300 * time.Second

// transferWithAuthorizationTypes is the EIP-3009 typed-data schema every
// authorization is signed under.
var transferWithAuthorizationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// Signer produces signed payment authorizations. Nonces come from the
// injected random source; the signature itself is deterministic per payload.
type Signer struct {
	rand cryptoutils.RandSource
}

// NewSigner creates a signer drawing nonce randomness from src. Pass
// cryptoutils.CryptoRand outside of tests.
func NewSigner(src cryptoutils.RandSource) *Signer {
	if src == nil {
		src = cryptoutils.CryptoRand
	}
	return &Signer{rand: src}
}

// SignPayment builds a TransferWithAuthorization for the given terms and
// signs it as EIP-712 typed data under domain with the wallet private key.
// The from address is derived from the key; validAfter is "0" and
// validBefore is now plus AuthorizationValidity.
func (s *Signer) SignPayment(privateKeyHex string, domain interfaces.PaymentDomain, terms interfaces.PaymentTerms) (*interfaces.SignedPayment, error) {
	if err := terms.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payment terms: %w", err)
	}
	chainID, err := ParseEVMChainID(terms.Network)
	if err != nil {
		return nil, err
	}

	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}
	from := crypto.PubkeyToAddress(priv.PublicKey)

	nonce, err := cryptoutils.RandomBytes(s.rand, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate authorization nonce: %w", err)
	}

	authorization := interfaces.PaymentAuthorization{
		From:        from.Hex(),
		To:          terms.PayTo,
		Value:       terms.Amount,
		ValidAfter:  "0",
		ValidBefore: strconv.FormatInt(time.Now().Add(AuthorizationValidity).Unix(), 10),
		Nonce:       hexutil.Encode(nonce),
	}

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
			"from":        authorization.From,
			"to":          authorization.To,
			"value":       authorization.Value,
			"validAfter":  authorization.ValidAfter,
			"validBefore": authorization.ValidBefore,
			"nonce":       authorization.Nonce,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	signature, err := crypto.Sign(hash, priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authorization: %w", err)
	}
	// Shift the recovery id into the Ethereum convention.
	signature[64] += 27

	return &interfaces.SignedPayment{
		Signature:     hexutil.Encode(signature),
		Authorization: authorization,
	}, nil
}
