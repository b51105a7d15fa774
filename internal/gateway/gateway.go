package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeInput describes a charge against a user's funding source at the
// payment processor.
type ChargeInput struct {
	CustomerRef string
	SourceRef   string
	Amount      decimal.Decimal
}

// ChargeResult is the processor's answer to a charge. Pending means the
// processor accepted the charge but will confirm the outcome later on the
// event feed.
type ChargeResult struct {
	PaymentRef   string
	ChargeRef    string
	ProcessorFee decimal.Decimal
	Pending      bool
}

// PayoutResult is the processor's answer to a payout request.
type PayoutResult struct {
	PayoutRef string
	Pending   bool
}

// PaymentGateway is the capability contract the wallet ledger requires of
// the external payment processor. Implementations execute real money
// movement; the ledger never assumes money moved unless the gateway
// explicitly confirms it.
type PaymentGateway interface {
	// CreateCustomer provisions a processor-side customer for the user and
	// returns its opaque reference.
	CreateCustomer(ctx context.Context, userID string) (string, error)

	// ChargeFundingSource charges the customer's funding source.
	ChargeFundingSource(ctx context.Context, input ChargeInput) (ChargeResult, error)

	// CreatePayout pushes funds to a payout destination.
	CreatePayout(ctx context.Context, destinationRef string, amount decimal.Decimal) (PayoutResult, error)

	// VerifyAndParseEvent authenticates a raw event feed payload against the
	// shared secret and decodes it. Callers must verify before acting.
	VerifyAndParseEvent(payload []byte, signature string, secret []byte) (Event, error)
}
