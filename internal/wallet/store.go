package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Finalization carries the fields written when a pending transaction settles.
type Finalization struct {
	BalanceAfter       decimal.Decimal
	PlatformFee        decimal.Decimal
	ProcessorFee       decimal.Decimal
	ExternalPaymentRef string
	ExternalChargeRef  string
	CompletedAt        time.Time
}

// AccountOps is the view of an account handed to a WithAccountLock closure.
// Everything it exposes runs inside the same unit of work: mutations either
// all commit or all roll back, and no other operation on the account can
// interleave.
type AccountOps interface {
	// Account returns the row as read under the lock.
	Account() Account

	// UpdateAccount writes balances, totals and the external customer ref.
	UpdateAccount(ctx context.Context, acct Account) error

	// AppendTransaction inserts a new record.
	AppendTransaction(ctx context.Context, rec Transaction) error

	// AttachGatewayRefs stores processor references on a still-pending record
	// so the webhook feed can locate it later.
	AttachGatewayRefs(ctx context.Context, id, paymentRef, chargeRef string) error

	// FinalizeTransaction moves a pending record to a terminal status. It
	// returns ErrInvalidStateTransition if the record is not pending.
	FinalizeTransaction(ctx context.Context, id string, status TransactionStatus, fin Finalization) error

	// Transaction re-reads a record under the lock.
	Transaction(ctx context.Context, id string) (Transaction, error)

	// SumCompletedSince totals completed records of the given type whose
	// completion time is at or after since. Pending and failed records never
	// count.
	SumCompletedSince(ctx context.Context, txType TransactionType, since time.Time) (decimal.Decimal, error)
}

// Store is the durable backend for wallet accounts and transaction records.
// WithAccountLock is the concurrency primitive every balance mutation is
// built on; reading a balance and writing it back outside a single locked
// unit of work is a correctness bug.
type Store interface {
	// GetOrCreateAccount returns the account for userID, creating it with
	// zero balances and default limits on first access. Creation is
	// idempotent under concurrent callers.
	GetOrCreateAccount(ctx context.Context, userID string) (Account, error)

	// AccountByID fetches an account by wallet id.
	AccountByID(ctx context.Context, walletID string) (Account, error)

	// WithAccountLock runs fn with the account row locked for the duration of
	// the unit of work. The work commits iff fn returns nil.
	WithAccountLock(ctx context.Context, userID string, fn func(ctx context.Context, ops AccountOps) error) error

	// ListTransactions returns the newest records for a wallet, up to limit.
	ListTransactions(ctx context.Context, walletID string, limit int) ([]Transaction, error)

	// FindTransactionByPaymentRef locates a record by its external payment
	// reference. Used by webhook reconciliation; lock-free.
	FindTransactionByPaymentRef(ctx context.Context, ref string) (Transaction, error)
}

// AccountDefaults are applied to lazily created accounts. A non-positive
// limit means the corresponding window is uncapped.
type AccountDefaults struct {
	DailyWithdrawalLimit   decimal.Decimal
	MonthlyWithdrawalLimit decimal.Decimal
}
