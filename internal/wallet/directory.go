package wallet

import "context"

// FundingSource is a charge instrument the user registered with the
// marketplace (card, bank debit).
type FundingSource struct {
	Ref    string
	Active bool
}

// FundingSources resolves the payment instruments owned by a user. The
// instrument registry itself lives outside the ledger.
type FundingSources interface {
	// Source returns the named funding source if the user owns it.
	Source(ctx context.Context, userID, ref string) (FundingSource, error)

	// PayoutDestination resolves where a withdrawal should be paid: the
	// explicit ref when given, otherwise the user's default destination.
	PayoutDestination(ctx context.Context, userID, ref string) (string, error)
}

// Trades answers whether a trade exists. The trade workflow is an external
// collaborator; the ledger only checks existence before tying funds to it.
type Trades interface {
	Exists(ctx context.Context, tradeID string) (bool, error)
}

// StaticFundingSources treats any non-empty reference as an active
// instrument owned by the caller. Stands in until the instrument registry
// integration, in the same way the processor simulator does.
type StaticFundingSources struct{}

func (StaticFundingSources) Source(_ context.Context, _, ref string) (FundingSource, error) {
	if ref == "" {
		return FundingSource{}, ErrFundingSourceNotFound
	}
	return FundingSource{Ref: ref, Active: true}, nil
}

func (StaticFundingSources) PayoutDestination(_ context.Context, _, ref string) (string, error) {
	if ref == "" {
		return "", ErrNoPayoutDestination
	}
	return ref, nil
}

// OpenTrades accepts every trade id. Stands in until the trade service
// integration.
type OpenTrades struct{}

func (OpenTrades) Exists(_ context.Context, tradeID string) (bool, error) {
	return tradeID != "", nil
}
