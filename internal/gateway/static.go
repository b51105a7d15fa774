package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StaticGateway simulates a processor that approves everything with
// synthetic references. The toggles let tests force declines and deferred
// settlement without a real processor in the loop.
type StaticGateway struct {
	// FeeBps is the processor fee in basis points of the charged amount.
	FeeBps int64

	// ChargeErr / PayoutErr, when set, are returned instead of an approval.
	ChargeErr error
	PayoutErr error

	// ChargePending / PayoutPending report the operation as accepted but not
	// yet settled; confirmation then arrives on the event feed.
	ChargePending bool
	PayoutPending bool
}

// NewStatic builds a simulator charging the given processor fee.
func NewStatic(feeBps int64) *StaticGateway {
	return &StaticGateway{FeeBps: feeBps}
}

func (g *StaticGateway) CreateCustomer(_ context.Context, _ string) (string, error) {
	return "cus_" + uuid.NewString(), nil
}

func (g *StaticGateway) ChargeFundingSource(_ context.Context, input ChargeInput) (ChargeResult, error) {
	if g.ChargeErr != nil {
		return ChargeResult{}, g.ChargeErr
	}
	return ChargeResult{
		PaymentRef:   "pay_" + uuid.NewString(),
		ChargeRef:    "ch_" + uuid.NewString(),
		ProcessorFee: g.fee(input.Amount),
		Pending:      g.ChargePending,
	}, nil
}

func (g *StaticGateway) CreatePayout(_ context.Context, _ string, _ decimal.Decimal) (PayoutResult, error) {
	if g.PayoutErr != nil {
		return PayoutResult{}, g.PayoutErr
	}
	return PayoutResult{
		PayoutRef: "po_" + uuid.NewString(),
		Pending:   g.PayoutPending,
	}, nil
}

func (g *StaticGateway) VerifyAndParseEvent(payload []byte, signature string, secret []byte) (Event, error) {
	return VerifyAndParseEvent(payload, signature, secret)
}

func (g *StaticGateway) fee(amount decimal.Decimal) decimal.Decimal {
	if g.FeeBps <= 0 {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromInt(g.FeeBps)).Div(decimal.NewFromInt(10_000)).Round(2)
}
