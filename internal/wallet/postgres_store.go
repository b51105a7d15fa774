package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, user_id, available_balance, escrow_balance,
        total_deposited, total_withdrawn, total_shipping_paid,
        daily_withdrawal_limit, monthly_withdrawal_limit,
        external_customer_ref, created_at`

const transactionColumns = `id, wallet_id, type, status, amount,
        balance_before, balance_after, platform_fee, processor_fee,
        external_payment_ref, external_charge_ref, trade_id,
        created_at, completed_at`

// PostgresStore persists wallet accounts and transaction records in
// PostgreSQL. Per-account serialization uses SELECT ... FOR UPDATE on the
// account row inside a single transaction.
type PostgresStore struct {
	db       *pgxpool.Pool
	defaults AccountDefaults
}

// NewPostgresStore constructs a Postgres-backed store. defaults seed the
// withdrawal limits of lazily created accounts.
func NewPostgresStore(db *pgxpool.Pool, defaults AccountDefaults) *PostgresStore {
	return &PostgresStore{db: db, defaults: defaults}
}

// GetOrCreateAccount returns the account for userID, creating it on first
// access. Losers of a creation race simply re-read the winner's row.
func (s *PostgresStore) GetOrCreateAccount(ctx context.Context, userID string) (Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Account{}, fmt.Errorf("parse user id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO wallet_accounts (id, user_id, daily_withdrawal_limit, monthly_withdrawal_limit)
        VALUES ($1, $2, $3, $4) ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), uid, s.defaults.DailyWithdrawalLimit, s.defaults.MonthlyWithdrawalLimit)
	if err != nil {
		return Account{}, err
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM wallet_accounts WHERE user_id = $1`, uid)
	return scanAccount(row)
}

// AccountByID fetches an account by wallet id.
func (s *PostgresStore) AccountByID(ctx context.Context, walletID string) (Account, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return Account{}, fmt.Errorf("parse wallet id: %w", err)
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM wallet_accounts WHERE id = $1`, wid)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return acct, err
}

// WithAccountLock executes fn with the account row locked for the duration
// of one database transaction. The transaction commits iff fn returns nil.
func (s *PostgresStore) WithAccountLock(ctx context.Context, userID string, fn func(ctx context.Context, ops AccountOps) error) error {
	if _, err := s.GetOrCreateAccount(ctx, userID); err != nil {
		return err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM wallet_accounts WHERE user_id = $1 FOR UPDATE`, uid)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	if err := fn(ctx, &pgAccountOps{tx: tx, acct: acct}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListTransactions returns the newest records for a wallet, up to limit.
// Lock-free; intended for display and audit reads.
func (s *PostgresStore) ListTransactions(ctx context.Context, walletID string, limit int) ([]Transaction, error) {
	wid, err := uuid.Parse(walletID)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+`
        FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2`, wid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindTransactionByPaymentRef locates a record by its external payment
// reference.
func (s *PostgresStore) FindTransactionByPaymentRef(ctx context.Context, ref string) (Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+`
        FROM wallet_transactions WHERE external_payment_ref = $1`, ref)
	rec, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return rec, err
}

type pgAccountOps struct {
	tx   pgx.Tx
	acct Account
}

func (o *pgAccountOps) Account() Account { return o.acct }

func (o *pgAccountOps) UpdateAccount(ctx context.Context, acct Account) error {
	cmd, err := o.tx.Exec(ctx, `UPDATE wallet_accounts SET
            available_balance = $2, escrow_balance = $3,
            total_deposited = $4, total_withdrawn = $5, total_shipping_paid = $6,
            external_customer_ref = $7
        WHERE id = $1`,
		mustUUID(o.acct.ID), acct.AvailableBalance, acct.EscrowBalance,
		acct.TotalDeposited, acct.TotalWithdrawn, acct.TotalShippingPaid,
		acct.ExternalCustomerRef)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	acct.ID = o.acct.ID
	acct.UserID = o.acct.UserID
	o.acct = acct
	return nil
}

func (o *pgAccountOps) AppendTransaction(ctx context.Context, rec Transaction) error {
	var completedAt *time.Time
	if rec.CompletedAt != nil {
		t := rec.CompletedAt.UTC()
		completedAt = &t
	}
	_, err := o.tx.Exec(ctx, `INSERT INTO wallet_transactions (`+transactionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		mustUUID(rec.ID), mustUUID(rec.WalletID), rec.Type, rec.Status, rec.Amount,
		rec.BalanceBefore, rec.BalanceAfter, rec.PlatformFee, rec.ProcessorFee,
		rec.ExternalPaymentRef, rec.ExternalChargeRef, rec.TradeID,
		rec.CreatedAt.UTC(), completedAt)
	return err
}

func (o *pgAccountOps) AttachGatewayRefs(ctx context.Context, id, paymentRef, chargeRef string) error {
	cmd, err := o.tx.Exec(ctx, `UPDATE wallet_transactions
        SET external_payment_ref = $2, external_charge_ref = $3
        WHERE id = $1 AND status = $4`,
		mustUUID(id), paymentRef, chargeRef, StatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return o.rejectNonPending(ctx, id)
	}
	return nil
}

func (o *pgAccountOps) FinalizeTransaction(ctx context.Context, id string, status TransactionStatus, fin Finalization) error {
	cmd, err := o.tx.Exec(ctx, `UPDATE wallet_transactions SET
            status = $2, balance_after = $3, platform_fee = $4, processor_fee = $5,
            external_payment_ref = CASE WHEN $6 = '' THEN external_payment_ref ELSE $6 END,
            external_charge_ref = CASE WHEN $7 = '' THEN external_charge_ref ELSE $7 END,
            completed_at = $8
        WHERE id = $1 AND status = $9`,
		mustUUID(id), status, fin.BalanceAfter, fin.PlatformFee, fin.ProcessorFee,
		fin.ExternalPaymentRef, fin.ExternalChargeRef, fin.CompletedAt.UTC(), StatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return o.rejectNonPending(ctx, id)
	}
	return nil
}

func (o *pgAccountOps) Transaction(ctx context.Context, id string) (Transaction, error) {
	row := o.tx.QueryRow(ctx, `SELECT `+transactionColumns+`
        FROM wallet_transactions WHERE id = $1`, mustUUID(id))
	rec, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return rec, err
}

func (o *pgAccountOps) SumCompletedSince(ctx context.Context, txType TransactionType, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := o.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)
        FROM wallet_transactions
        WHERE wallet_id = $1 AND type = $2 AND status = $3 AND completed_at >= $4`,
		mustUUID(o.acct.ID), txType, StatusCompleted, since.UTC()).Scan(&total)
	return total, err
}

// rejectNonPending distinguishes a missing record from a terminal one after
// a guarded update matched no rows.
func (o *pgAccountOps) rejectNonPending(ctx context.Context, id string) error {
	var status TransactionStatus
	err := o.tx.QueryRow(ctx, `SELECT status FROM wallet_transactions WHERE id = $1`, mustUUID(id)).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTransactionNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidStateTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		acct Account
		id   uuid.UUID
		uid  uuid.UUID
	)
	if err := row.Scan(&id, &uid, &acct.AvailableBalance, &acct.EscrowBalance,
		&acct.TotalDeposited, &acct.TotalWithdrawn, &acct.TotalShippingPaid,
		&acct.DailyWithdrawalLimit, &acct.MonthlyWithdrawalLimit,
		&acct.ExternalCustomerRef, &acct.CreatedAt); err != nil {
		return Account{}, err
	}
	acct.ID = id.String()
	acct.UserID = uid.String()
	acct.CreatedAt = acct.CreatedAt.UTC()
	return acct, nil
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var (
		rec Transaction
		id  uuid.UUID
		wid uuid.UUID
	)
	if err := row.Scan(&id, &wid, &rec.Type, &rec.Status, &rec.Amount,
		&rec.BalanceBefore, &rec.BalanceAfter, &rec.PlatformFee, &rec.ProcessorFee,
		&rec.ExternalPaymentRef, &rec.ExternalChargeRef, &rec.TradeID,
		&rec.CreatedAt, &rec.CompletedAt); err != nil {
		return Transaction{}, err
	}
	rec.ID = id.String()
	rec.WalletID = wid.String()
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func mustUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
