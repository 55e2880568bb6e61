package payment

import (
	"fmt"

	"github.com/paperwall/paperwall-agent/interfaces"
)

// Stage is the AP2 receipt lifecycle state.
type Stage string

const (
	// StageIntent means the payment is signed but not yet settled. The sole
	// non-terminal stage.
	StageIntent Stage = "intent"

	// StageSettled means the publisher confirmed on-chain settlement.
	StageSettled Stage = "settled"

	// StageDeclined means the publisher refused the payment.
	StageDeclined Stage = "declined"
)

// Receipt tracks one payment through the intent -> settled/declined state
// machine. It transitions at most once into a terminal stage and is never
// mutated back.
type Receipt struct {
	Stage   Stage                     `json:"stage"`
	Payment *interfaces.SignedPayment `json:"payment"`

	// Settled fields.
	TxHash          string `json:"txHash,omitempty"`
	AmountFormatted string `json:"amountFormatted,omitempty"`
	Content         string `json:"content,omitempty"`
	ContentType     string `json:"contentType,omitempty"`

	// Declined field.
	Reason string `json:"reason,omitempty"`
}

// NewIntentReceipt creates a receipt for a signed, unsubmitted payment.
func NewIntentReceipt(payment *interfaces.SignedPayment) *Receipt {
	return &Receipt{Stage: StageIntent, Payment: payment}
}

// Settle transitions the receipt to the settled stage. Fails if the receipt
// already reached a terminal stage.
func (r *Receipt) Settle(txHash, amountFormatted, content, contentType string) error {
	if r.Stage != StageIntent {
		return fmt.Errorf("receipt already %s, cannot settle", r.Stage)
	}
	r.Stage = StageSettled
	r.TxHash = txHash
	r.AmountFormatted = amountFormatted
	r.Content = content
	r.ContentType = contentType
	return nil
}

// Decline transitions the receipt to the declined stage with the server's
// stated reason. Fails if the receipt already reached a terminal stage.
func (r *Receipt) Decline(reason string) error {
	if r.Stage != StageIntent {
		return fmt.Errorf("receipt already %s, cannot decline", r.Stage)
	}
	r.Stage = StageDeclined
	r.Reason = reason
	return nil
}

// Terminal reports whether the receipt reached settled or declined.
func (r *Receipt) Terminal() bool {
	return r.Stage != StageIntent
}
