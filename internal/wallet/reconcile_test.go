package wallet

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/gateway"
)

func pendingDeposit(t *testing.T, svc *Service, userID string, amount decimal.Decimal) Transaction {
	t.Helper()
	res, err := svc.Deposit(context.Background(), DepositInput{UserID: userID, Amount: amount, FundingSourceRef: "card_1"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)

	recs, err := svc.Transactions(context.Background(), userID, 10)
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.ID == res.TransactionID {
			require.NotEmpty(t, rec.ExternalPaymentRef)
			return rec
		}
	}
	t.Fatalf("pending record %s not found", res.TransactionID)
	return Transaction{}
}

func TestReconcileAppliesPendingDeposit(t *testing.T) {
	svc, store, gw := newTestService(t)
	ctx := context.Background()
	gw.ChargePending = true

	rec := pendingDeposit(t, svc, "buyer", dec(100))

	acct, err := store.GetOrCreateAccount(ctx, "buyer")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.IsZero(), "pending deposit must not credit yet")

	err = svc.ReconcileEvent(ctx, gateway.Event{
		Type:       "payment.succeeded",
		PaymentRef: rec.ExternalPaymentRef,
		Outcome:    gateway.OutcomeSucceeded,
	})
	require.NoError(t, err)

	acct, err = store.GetOrCreateAccount(ctx, "buyer")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.Equal(dec(100)))
	require.True(t, acct.TotalDeposited.Equal(dec(100)))

	recs, err := svc.Transactions(ctx, "buyer", 10)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, recs[0].Status)
}

func TestReconcileDuplicateEventIsNoOp(t *testing.T) {
	svc, store, gw := newTestService(t)
	ctx := context.Background()
	gw.ChargePending = true

	rec := pendingDeposit(t, svc, "buyer", dec(100))
	ev := gateway.Event{Type: "payment.succeeded", PaymentRef: rec.ExternalPaymentRef, Outcome: gateway.OutcomeSucceeded}

	require.NoError(t, svc.ReconcileEvent(ctx, ev))
	require.NoError(t, svc.ReconcileEvent(ctx, ev))

	acct, err := store.GetOrCreateAccount(ctx, "buyer")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.Equal(dec(100)), "duplicate event credited twice")
}

func TestReconcileUnknownRefIsDiscarded(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.ReconcileEvent(context.Background(), gateway.Event{
		Type:       "payment.succeeded",
		PaymentRef: "pay_unknown",
		Outcome:    gateway.OutcomeSucceeded,
	})
	require.NoError(t, err)
}

func TestReconcileFailedOutcomeFailsRecord(t *testing.T) {
	svc, store, gw := newTestService(t)
	ctx := context.Background()
	gw.ChargePending = true

	rec := pendingDeposit(t, svc, "buyer", dec(100))

	err := svc.ReconcileEvent(ctx, gateway.Event{
		Type:       "payment.failed",
		PaymentRef: rec.ExternalPaymentRef,
		Outcome:    gateway.OutcomeFailed,
	})
	require.NoError(t, err)

	acct, err := store.GetOrCreateAccount(ctx, "buyer")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.IsZero())

	recs, err := svc.Transactions(ctx, "buyer", 10)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, recs[0].Status)
}

func TestReconcilePendingWithdrawal(t *testing.T) {
	svc, store, gw := newTestService(t)
	ctx := context.Background()
	gw.PayoutPending = true
	SeedAccount(store, "seller", dec(100), decimal.Zero, decimal.Zero, decimal.Zero)

	res, err := svc.Withdraw(ctx, WithdrawInput{UserID: "seller", Amount: dec(80), PayoutDestinationRef: "bank_1"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)
	require.True(t, res.AvailableBalance.Equal(dec(100)), "pending payout must not debit yet")

	var ref string
	recs, err := svc.Transactions(ctx, "seller", 10)
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.ID == res.TransactionID {
			ref = rec.ExternalPaymentRef
		}
	}
	require.NotEmpty(t, ref)

	err = svc.ReconcileEvent(ctx, gateway.Event{Type: "payout.succeeded", PaymentRef: ref, Outcome: gateway.OutcomeSucceeded})
	require.NoError(t, err)

	acct, err := store.GetOrCreateAccount(ctx, "seller")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.Equal(dec(20)))
	require.True(t, acct.TotalWithdrawn.Equal(dec(80)))
}

func TestReconcileUncoveredWithdrawalFailsRecord(t *testing.T) {
	svc, store, gw := newTestService(t)
	ctx := context.Background()
	gw.PayoutPending = true
	SeedAccount(store, "seller", dec(100), decimal.Zero, decimal.Zero, decimal.Zero)

	res, err := svc.Withdraw(ctx, WithdrawInput{UserID: "seller", Amount: dec(80), PayoutDestinationRef: "bank_1"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)

	// funds move away while the payout confirmation is in flight
	_, err = svc.PlaceInEscrow(ctx, TradeInput{UserID: "seller", Amount: dec(50), TradeID: "trade-1"})
	require.NoError(t, err)

	var ref string
	recs, err := svc.Transactions(ctx, "seller", 10)
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.ID == res.TransactionID {
			ref = rec.ExternalPaymentRef
		}
	}
	require.NotEmpty(t, ref)

	err = svc.ReconcileEvent(ctx, gateway.Event{Type: "payout.succeeded", PaymentRef: ref, Outcome: gateway.OutcomeSucceeded})
	require.NoError(t, err)

	// the record fails instead of driving the balance negative
	acct, err := store.GetOrCreateAccount(ctx, "seller")
	require.NoError(t, err)
	require.True(t, acct.AvailableBalance.Equal(dec(50)))

	recs, err = svc.Transactions(ctx, "seller", 10)
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.ID == res.TransactionID {
			require.Equal(t, StatusFailed, rec.Status)
		}
	}
}
