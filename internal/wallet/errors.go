package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount occurs when an operation is requested with a zero or
	// negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound indicates no wallet account exists for the lookup key.
	ErrAccountNotFound = errors.New("wallet account not found")

	// ErrTransactionNotFound indicates no transaction matches the lookup key.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTradeNotFound indicates the referenced trade does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrFundingSourceNotFound indicates the funding source is missing,
	// inactive, or not owned by the requesting user.
	ErrFundingSourceNotFound = errors.New("funding source not found or inactive")

	// ErrNoPayoutDestination indicates no payout destination could be resolved
	// for a withdrawal.
	ErrNoPayoutDestination = errors.New("no payout destination on file")

	// ErrInsufficientBalance occurs when available funds do not cover the
	// requested amount.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrInsufficientEscrow occurs when escrowed funds do not cover the
	// requested release or refund.
	ErrInsufficientEscrow = errors.New("insufficient escrow balance")

	// ErrDailyLimitExceeded occurs when a withdrawal would push today's
	// completed withdrawal total past the account's daily ceiling.
	ErrDailyLimitExceeded = errors.New("daily withdrawal limit exceeded")

	// ErrMonthlyLimitExceeded occurs when a withdrawal would push this month's
	// completed withdrawal total past the account's monthly ceiling.
	ErrMonthlyLimitExceeded = errors.New("monthly withdrawal limit exceeded")

	// ErrInvalidStateTransition indicates an attempt to finalize a record that
	// is not pending. The finalize rejects rather than double-applying.
	ErrInvalidStateTransition = errors.New("transaction is not pending")
)

// GatewayError reports a payment processor failure. The transaction record,
// if one was created, has been finalized failed; its id is carried for
// support traceability. Gateway failures are never retried automatically.
type GatewayError struct {
	Op            string
	TransactionID string
	Err           error
}

func (e *GatewayError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("payment gateway %s failed (transaction %s): %v", e.Op, e.TransactionID, e.Err)
	}
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
