package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account     // keyed by user id
	byWallet map[string]string      // wallet id -> user id
	txs      map[string]Transaction // keyed by transaction id
	byRef    map[string]string      // external payment ref -> transaction id
	locks    map[string]*sync.Mutex // per-account serialization
}

// NewMemoryStore creates a concurrency-safe in-memory store useful for unit
// tests. Accounts are created uncapped; use SeedAccount to adjust balances
// and limits.
func NewMemoryStore() Store {
	return &memoryStore{
		accounts: make(map[string]Account),
		byWallet: make(map[string]string),
		txs:      make(map[string]Transaction),
		byRef:    make(map[string]string),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *memoryStore) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *memoryStore) GetOrCreateAccount(_ context.Context, userID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[userID]; ok {
		return acct, nil
	}
	acct := Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[userID] = acct
	s.byWallet[acct.ID] = userID
	return acct, nil
}

func (s *memoryStore) AccountByID(_ context.Context, walletID string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.byWallet[walletID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.accounts[userID], nil
}

func (s *memoryStore) WithAccountLock(ctx context.Context, userID string, fn func(ctx context.Context, ops AccountOps) error) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	acct, err := s.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return err
	}

	ops := &memoryOps{store: s, acct: acct, staged: make(map[string]Transaction)}
	if err := fn(ctx, ops); err != nil {
		// staged changes are discarded, mirroring a transaction rollback
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = ops.acct
	for _, id := range ops.order {
		rec := ops.staged[id]
		s.txs[id] = rec
		if rec.ExternalPaymentRef != "" {
			s.byRef[rec.ExternalPaymentRef] = id
		}
	}
	return nil
}

func (s *memoryStore) ListTransactions(_ context.Context, walletID string, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Transaction
	for _, rec := range s.txs {
		if rec.WalletID == walletID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) FindTransactionByPaymentRef(_ context.Context, ref string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[ref]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return s.txs[id], nil
}

// memoryOps stages mutations against a copy of the account and applies them
// only when the lock scope returns nil.
type memoryOps struct {
	store  *memoryStore
	acct   Account
	staged map[string]Transaction
	order  []string
}

func (o *memoryOps) Account() Account { return o.acct }

func (o *memoryOps) UpdateAccount(_ context.Context, acct Account) error {
	if acct.AvailableBalance.IsNegative() || acct.EscrowBalance.IsNegative() {
		return fmt.Errorf("balance update would go negative (available %s, escrow %s)",
			acct.AvailableBalance, acct.EscrowBalance)
	}
	acct.ID = o.acct.ID
	acct.UserID = o.acct.UserID
	o.acct = acct
	return nil
}

func (o *memoryOps) AppendTransaction(_ context.Context, rec Transaction) error {
	o.stage(rec)
	return nil
}

func (o *memoryOps) AttachGatewayRefs(ctx context.Context, id, paymentRef, chargeRef string) error {
	rec, err := o.Transaction(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	rec.ExternalPaymentRef = paymentRef
	rec.ExternalChargeRef = chargeRef
	o.stage(rec)
	return nil
}

func (o *memoryOps) FinalizeTransaction(ctx context.Context, id string, status TransactionStatus, fin Finalization) error {
	rec, err := o.Transaction(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	rec.Status = status
	rec.BalanceAfter = fin.BalanceAfter
	rec.PlatformFee = fin.PlatformFee
	rec.ProcessorFee = fin.ProcessorFee
	if fin.ExternalPaymentRef != "" {
		rec.ExternalPaymentRef = fin.ExternalPaymentRef
	}
	if fin.ExternalChargeRef != "" {
		rec.ExternalChargeRef = fin.ExternalChargeRef
	}
	completedAt := fin.CompletedAt
	rec.CompletedAt = &completedAt
	o.stage(rec)
	return nil
}

func (o *memoryOps) Transaction(_ context.Context, id string) (Transaction, error) {
	if rec, ok := o.staged[id]; ok {
		return rec, nil
	}
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	rec, ok := o.store.txs[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return rec, nil
}

func (o *memoryOps) SumCompletedSince(_ context.Context, txType TransactionType, since time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	seen := make(map[string]bool, len(o.staged))

	add := func(rec Transaction) {
		if rec.WalletID != o.acct.ID || rec.Type != txType || rec.Status != StatusCompleted {
			return
		}
		if rec.CompletedAt == nil || rec.CompletedAt.Before(since) {
			return
		}
		total = total.Add(rec.Amount)
	}

	for id, rec := range o.staged {
		seen[id] = true
		add(rec)
	}
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	for id, rec := range o.store.txs {
		if !seen[id] {
			add(rec)
		}
	}
	return total, nil
}

func (o *memoryOps) stage(rec Transaction) {
	if _, ok := o.staged[rec.ID]; !ok {
		o.order = append(o.order, rec.ID)
	}
	o.staged[rec.ID] = rec
}
