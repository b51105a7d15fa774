package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMemoryStoreCreateIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.GetOrCreateAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.GetOrCreateAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same wallet id, got %s and %s", first.ID, second.ID)
	}
}

func TestMemoryStoreRollbackDiscardsStagedChanges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	SeedAccount(store, "user-1", decimal.NewFromInt(100), decimal.Zero, decimal.Zero, decimal.Zero)

	boom := errors.New("boom")
	var recID string
	err := store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
		acct := ops.Account()
		recID = uuid.NewString()
		if err := ops.AppendTransaction(ctx, Transaction{
			ID:        recID,
			WalletID:  acct.ID,
			Type:      TypeDeposit,
			Status:    StatusPending,
			Amount:    decimal.NewFromInt(50),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		acct.AvailableBalance = acct.AvailableBalance.Add(decimal.NewFromInt(50))
		if err := ops.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	acct, err := store.GetOrCreateAccount(ctx, "user-1")
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if !acct.AvailableBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed after rollback: %s", acct.AvailableBalance)
	}
	recs, err := store.ListTransactions(ctx, acct.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no committed records, got %d", len(recs))
	}
}

func TestMemoryStoreFinalizeRejectsTerminalRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	acct, _ := store.GetOrCreateAccount(ctx, "user-1")

	recID := uuid.NewString()
	err := store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
		if err := ops.AppendTransaction(ctx, Transaction{
			ID:        recID,
			WalletID:  acct.ID,
			Type:      TypeDeposit,
			Status:    StatusPending,
			Amount:    decimal.NewFromInt(10),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return ops.FinalizeTransaction(ctx, recID, StatusCompleted, Finalization{
			BalanceAfter: decimal.NewFromInt(10),
			CompletedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	err = store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
		return ops.FinalizeTransaction(ctx, recID, StatusFailed, Finalization{CompletedAt: time.Now().UTC()})
	})
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestMemoryStoreRejectsNegativeBalances(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
		acct := ops.Account()
		acct.AvailableBalance = decimal.NewFromInt(-1)
		return ops.UpdateAccount(ctx, acct)
	})
	if err == nil {
		t.Fatal("expected negative balance update to be rejected")
	}
}

func TestMemoryStoreSumCompletedSinceSkipsPendingAndFailed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	acct, _ := store.GetOrCreateAccount(ctx, "user-1")
	now := time.Now().UTC()

	addRec := func(status TransactionStatus, amount int64, completed *time.Time) {
		t.Helper()
		err := store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
			return ops.AppendTransaction(ctx, Transaction{
				ID:          uuid.NewString(),
				WalletID:    acct.ID,
				Type:        TypeWithdrawal,
				Status:      status,
				Amount:      decimal.NewFromInt(amount),
				CreatedAt:   now,
				CompletedAt: completed,
			})
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	old := now.Add(-48 * time.Hour)
	addRec(StatusCompleted, 30, &now)
	addRec(StatusCompleted, 99, &old) // outside the window
	addRec(StatusPending, 40, nil)
	addRec(StatusFailed, 50, &now)

	var total decimal.Decimal
	err := store.WithAccountLock(ctx, "user-1", func(ctx context.Context, ops AccountOps) error {
		var err error
		total, err = ops.SumCompletedSince(ctx, TypeWithdrawal, now.Add(-time.Hour))
		return err
	})
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("total = %s, want 30", total)
	}
}
