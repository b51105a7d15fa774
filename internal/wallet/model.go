package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the balance-affecting operation a record describes.
type TransactionType string

const (
	TypeDeposit         TransactionType = "deposit"
	TypeWithdrawal      TransactionType = "withdrawal"
	TypeEscrowDeposit   TransactionType = "escrow_deposit"
	TypeEscrowRelease   TransactionType = "escrow_release"
	TypeEscrowRefund    TransactionType = "escrow_refund"
	TypeShippingPayment TransactionType = "shipping_payment"
)

// TransactionStatus tracks a record through its lifecycle. Pending is the only
// non-terminal state; completed and failed records never transition again.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Account is a user's wallet: available funds, funds held in escrow, running
// totals, and per-account withdrawal ceilings. Created lazily on first access.
type Account struct {
	ID                     string
	UserID                 string
	AvailableBalance       decimal.Decimal
	EscrowBalance          decimal.Decimal
	TotalDeposited         decimal.Decimal
	TotalWithdrawn         decimal.Decimal
	TotalShippingPaid      decimal.Decimal
	DailyWithdrawalLimit   decimal.Decimal
	MonthlyWithdrawalLimit decimal.Decimal
	ExternalCustomerRef    string
	CreatedAt              time.Time
}

// Transaction is the audit record for one operation attempt. Amount is always
// positive; the sign of its effect on the account follows from Type.
type Transaction struct {
	ID                 string
	WalletID           string
	Type               TransactionType
	Status             TransactionStatus
	Amount             decimal.Decimal
	BalanceBefore      decimal.Decimal
	BalanceAfter       decimal.Decimal
	PlatformFee        decimal.Decimal
	ProcessorFee       decimal.Decimal
	ExternalPaymentRef string
	ExternalChargeRef  string
	TradeID            string
	CreatedAt          time.Time
	CompletedAt        *time.Time
}

// Terminal reports whether the record has reached a final state.
func (t Transaction) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// SignedDelta is the record's net effect on available+escrow once completed.
// Escrow moves are internal transfers and net to zero; the sum of signed
// deltas over all completed records equals available+escrow at any time.
func (t Transaction) SignedDelta() decimal.Decimal {
	switch t.Type {
	case TypeDeposit:
		return t.Amount
	case TypeWithdrawal, TypeShippingPayment:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}
