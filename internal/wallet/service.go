package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepost/tradepost/internal/gateway"
	"github.com/tradepost/tradepost/internal/notification"
	"github.com/tradepost/tradepost/internal/observability"
)

// Service orchestrates every balance-affecting wallet operation. Each
// operation runs inside a single account lock scope: precondition checks,
// the gateway call when one is needed, the record finalize and the balance
// write all commit as one unit. The gateway call happening under the lock
// trades throughput for correctness; wallet operations are not a hot path.
type Service struct {
	store    Store
	gateway  gateway.PaymentGateway
	trades   Trades
	sources  FundingSources
	notifier notification.Notifier
	logger   *slog.Logger
	cache    *SummaryCache
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService builds the wallet ledger service. Nil trades/sources fall back
// to the permissive static collaborators.
func NewService(store Store, gw gateway.PaymentGateway, trades Trades, sources FundingSources, notifier notification.Notifier, logger *slog.Logger) *Service {
	if trades == nil {
		trades = OpenTrades{}
	}
	if sources == nil {
		sources = StaticFundingSources{}
	}
	return &Service{
		store:    store,
		gateway:  gw,
		trades:   trades,
		sources:  sources,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UseSummaryCache enables best-effort caching of wallet summaries.
func (s *Service) UseSummaryCache(c *SummaryCache) { s.cache = c }

// UseMetrics enables Prometheus instrumentation.
func (s *Service) UseMetrics(m *observability.Metrics) { s.metrics = m }

// DepositInput funds a wallet from a registered funding source.
type DepositInput struct {
	UserID           string
	Amount           decimal.Decimal
	FundingSourceRef string
}

// WithdrawInput pays available funds out to a destination. An empty ref
// resolves to the account's default destination.
type WithdrawInput struct {
	UserID               string
	Amount               decimal.Decimal
	PayoutDestinationRef string
}

// TradeInput covers the internal transfers tied to a trade: escrow holds,
// releases, refunds and shipping payments.
type TradeInput struct {
	UserID  string
	Amount  decimal.Decimal
	TradeID string
}

// Result reports the outcome of an operation: the audit record's id, its
// final status and the balances as committed.
type Result struct {
	TransactionID    string
	Status           TransactionStatus
	AvailableBalance decimal.Decimal
	EscrowBalance    decimal.Decimal
}

// Deposit charges the funding source and credits the wallet. A processor
// decline commits a failed record and surfaces a GatewayError carrying its
// id; a deferred ("processing") charge leaves the record pending for the
// webhook feed to settle.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Result, error) {
	started := s.now()
	if !input.Amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}
	src, err := s.sources.Source(ctx, input.UserID, input.FundingSourceRef)
	if err != nil {
		return Result{}, err
	}
	if !src.Active {
		return Result{}, ErrFundingSourceNotFound
	}

	var (
		res   Result
		opErr error
	)
	err = s.store.WithAccountLock(ctx, input.UserID, func(ctx context.Context, ops AccountOps) error {
		acct := ops.Account()
		if acct.ExternalCustomerRef == "" {
			ref, err := s.gateway.CreateCustomer(ctx, input.UserID)
			if err != nil {
				s.countGateway("create_customer", "error")
				return &GatewayError{Op: "create_customer", Err: err}
			}
			s.countGateway("create_customer", "ok")
			acct.ExternalCustomerRef = ref
			if err := ops.UpdateAccount(ctx, acct); err != nil {
				return err
			}
		}

		rec := s.newRecord(acct, TypeDeposit, input.Amount, "")
		if err := ops.AppendTransaction(ctx, rec); err != nil {
			return err
		}

		charge, err := s.gateway.ChargeFundingSource(ctx, gateway.ChargeInput{
			CustomerRef: acct.ExternalCustomerRef,
			SourceRef:   src.Ref,
			Amount:      input.Amount,
		})
		if err != nil {
			s.countGateway("charge", "error")
			if ferr := ops.FinalizeTransaction(ctx, rec.ID, StatusFailed, Finalization{
				BalanceAfter: acct.AvailableBalance,
				CompletedAt:  s.now(),
			}); ferr != nil {
				return ferr
			}
			res = result(rec.ID, StatusFailed, acct)
			opErr = &GatewayError{Op: "charge", TransactionID: rec.ID, Err: err}
			return nil // commit the failed record
		}
		s.countGateway("charge", "ok")

		if charge.Pending {
			if err := ops.AttachGatewayRefs(ctx, rec.ID, charge.PaymentRef, charge.ChargeRef); err != nil {
				return err
			}
			res = result(rec.ID, StatusPending, acct)
			return nil
		}

		acct.AvailableBalance = acct.AvailableBalance.Add(input.Amount)
		acct.TotalDeposited = acct.TotalDeposited.Add(input.Amount)
		if err := ops.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		if err := ops.FinalizeTransaction(ctx, rec.ID, StatusCompleted, Finalization{
			BalanceAfter:       acct.AvailableBalance,
			ProcessorFee:       charge.ProcessorFee,
			ExternalPaymentRef: charge.PaymentRef,
			ExternalChargeRef:  charge.ChargeRef,
			CompletedAt:        s.now(),
		}); err != nil {
			return err
		}
		res = result(rec.ID, StatusCompleted, acct)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.observe(TypeDeposit, res.Status, started)
	if opErr != nil {
		return res, opErr
	}
	if res.Status == StatusCompleted {
		s.invalidate(ctx, input.UserID)
		s.notify(ctx, notification.KindDeposit, input.UserID, res.TransactionID,
			fmt.Sprintf("Deposit of %s completed", input.Amount))
	}
	return res, nil
}

// Withdraw pays out available funds. Checks run in a fixed order so error
// messages are deterministic: balance sufficiency, then the limit policy,
// then destination resolution.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Result, error) {
	started := s.now()
	if !input.Amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}

	var (
		res   Result
		opErr error
	)
	err := s.store.WithAccountLock(ctx, input.UserID, func(ctx context.Context, ops AccountOps) error {
		acct := ops.Account()
		if acct.AvailableBalance.LessThan(input.Amount) {
			return ErrInsufficientBalance
		}
		dayStart, monthStart := LimitWindows(s.now())
		today, err := ops.SumCompletedSince(ctx, TypeWithdrawal, dayStart)
		if err != nil {
			return err
		}
		month, err := ops.SumCompletedSince(ctx, TypeWithdrawal, monthStart)
		if err != nil {
			return err
		}
		if err := CheckWithdrawalLimit(acct, input.Amount, today, month); err != nil {
			return err
		}
		dest, err := s.sources.PayoutDestination(ctx, input.UserID, input.PayoutDestinationRef)
		if err != nil {
			return err
		}

		rec := s.newRecord(acct, TypeWithdrawal, input.Amount, "")
		if err := ops.AppendTransaction(ctx, rec); err != nil {
			return err
		}

		payout, err := s.gateway.CreatePayout(ctx, dest, input.Amount)
		if err != nil {
			s.countGateway("payout", "error")
			if ferr := ops.FinalizeTransaction(ctx, rec.ID, StatusFailed, Finalization{
				BalanceAfter: acct.AvailableBalance,
				CompletedAt:  s.now(),
			}); ferr != nil {
				return ferr
			}
			res = result(rec.ID, StatusFailed, acct)
			opErr = &GatewayError{Op: "payout", TransactionID: rec.ID, Err: err}
			return nil
		}
		s.countGateway("payout", "ok")

		if payout.Pending {
			if err := ops.AttachGatewayRefs(ctx, rec.ID, payout.PayoutRef, ""); err != nil {
				return err
			}
			res = result(rec.ID, StatusPending, acct)
			return nil
		}

		acct.AvailableBalance = acct.AvailableBalance.Sub(input.Amount)
		acct.TotalWithdrawn = acct.TotalWithdrawn.Add(input.Amount)
		if err := ops.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		if err := ops.FinalizeTransaction(ctx, rec.ID, StatusCompleted, Finalization{
			BalanceAfter:       acct.AvailableBalance,
			ExternalPaymentRef: payout.PayoutRef,
			CompletedAt:        s.now(),
		}); err != nil {
			return err
		}
		res = result(rec.ID, StatusCompleted, acct)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.observe(TypeWithdrawal, res.Status, started)
	if opErr != nil {
		return res, opErr
	}
	if res.Status == StatusCompleted {
		s.invalidate(ctx, input.UserID)
		s.notify(ctx, notification.KindWithdrawal, input.UserID, res.TransactionID,
			fmt.Sprintf("Withdrawal of %s completed", input.Amount))
	}
	return res, nil
}

// PlaceInEscrow moves available funds into escrow for a trade.
func (s *Service) PlaceInEscrow(ctx context.Context, input TradeInput) (Result, error) {
	return s.internalTransfer(ctx, input, TypeEscrowDeposit)
}

// ReleaseFromEscrow returns escrowed funds to the available balance after a
// completed trade. The ledger does not interpret trade semantics; the trade
// workflow decides between release and refund.
func (s *Service) ReleaseFromEscrow(ctx context.Context, input TradeInput) (Result, error) {
	return s.internalTransfer(ctx, input, TypeEscrowRelease)
}

// RefundFromEscrow returns escrowed funds after a cancelled or rejected
// trade.
func (s *Service) RefundFromEscrow(ctx context.Context, input TradeInput) (Result, error) {
	return s.internalTransfer(ctx, input, TypeEscrowRefund)
}

// PayShipping spends available funds on a shipping label for a trade.
func (s *Service) PayShipping(ctx context.Context, input TradeInput) (Result, error) {
	return s.internalTransfer(ctx, input, TypeShippingPayment)
}

// internalTransfer performs the pure balance moves that never touch the
// gateway. The record is appended and finalized completed in the same unit
// of work, so no pending window is visible to other operations.
func (s *Service) internalTransfer(ctx context.Context, input TradeInput, txType TransactionType) (Result, error) {
	started := s.now()
	if !input.Amount.IsPositive() {
		return Result{}, ErrInvalidAmount
	}
	ok, err := s.trades.Exists(ctx, input.TradeID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrTradeNotFound
	}

	var res Result
	err = s.store.WithAccountLock(ctx, input.UserID, func(ctx context.Context, ops AccountOps) error {
		acct := ops.Account()
		rec := s.newRecord(acct, txType, input.Amount, input.TradeID)

		switch txType {
		case TypeEscrowDeposit:
			if acct.AvailableBalance.LessThan(input.Amount) {
				return ErrInsufficientBalance
			}
			acct.AvailableBalance = acct.AvailableBalance.Sub(input.Amount)
			acct.EscrowBalance = acct.EscrowBalance.Add(input.Amount)
		case TypeEscrowRelease, TypeEscrowRefund:
			if acct.EscrowBalance.LessThan(input.Amount) {
				return ErrInsufficientEscrow
			}
			acct.EscrowBalance = acct.EscrowBalance.Sub(input.Amount)
			acct.AvailableBalance = acct.AvailableBalance.Add(input.Amount)
		case TypeShippingPayment:
			if acct.AvailableBalance.LessThan(input.Amount) {
				return ErrInsufficientBalance
			}
			acct.AvailableBalance = acct.AvailableBalance.Sub(input.Amount)
			acct.TotalShippingPaid = acct.TotalShippingPaid.Add(input.Amount)
		default:
			return fmt.Errorf("%s is not an internal transfer", txType)
		}

		if err := ops.AppendTransaction(ctx, rec); err != nil {
			return err
		}
		if err := ops.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		if err := ops.FinalizeTransaction(ctx, rec.ID, StatusCompleted, Finalization{
			BalanceAfter: acct.AvailableBalance,
			CompletedAt:  s.now(),
		}); err != nil {
			return err
		}
		res = result(rec.ID, StatusCompleted, acct)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.observe(txType, res.Status, started)
	s.invalidate(ctx, input.UserID)
	kind := notification.KindEscrow
	if txType == TypeShippingPayment {
		kind = notification.KindShipping
	}
	s.notify(ctx, kind, input.UserID, res.TransactionID,
		fmt.Sprintf("%s of %s for trade %s", txType, input.Amount, input.TradeID))
	return res, nil
}

// ReconcileEvent settles a pending record from an asynchronous gateway
// confirmation. Unknown references are discarded, duplicate deliveries are
// idempotent no-ops, and a pending record is finalized under the account
// lock exactly as the synchronous path would have done.
func (s *Service) ReconcileEvent(ctx context.Context, ev gateway.Event) error {
	rec, err := s.store.FindTransactionByPaymentRef(ctx, ev.PaymentRef)
	if errors.Is(err, ErrTransactionNotFound) {
		s.countWebhook("unknown")
		s.logger.Info("webhook for unknown payment ref discarded",
			"payment_ref", ev.PaymentRef, "event_type", ev.Type)
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Terminal() {
		s.countWebhook("duplicate")
		return nil
	}
	acct, err := s.store.AccountByID(ctx, rec.WalletID)
	if err != nil {
		return err
	}

	outcome := "duplicate"
	err = s.store.WithAccountLock(ctx, acct.UserID, func(ctx context.Context, ops AccountOps) error {
		cur, err := ops.Transaction(ctx, rec.ID)
		if err != nil {
			return err
		}
		if cur.Terminal() {
			// settled while the event was in flight
			return nil
		}
		a := ops.Account()
		now := s.now()

		if ev.Outcome == gateway.OutcomeFailed {
			outcome = "failed"
			return ops.FinalizeTransaction(ctx, cur.ID, StatusFailed, Finalization{
				BalanceAfter: a.AvailableBalance,
				CompletedAt:  now,
			})
		}

		switch cur.Type {
		case TypeDeposit:
			a.AvailableBalance = a.AvailableBalance.Add(cur.Amount)
			a.TotalDeposited = a.TotalDeposited.Add(cur.Amount)
		case TypeWithdrawal:
			if a.AvailableBalance.LessThan(cur.Amount) {
				// the confirmed payout can no longer be covered; fail the
				// record rather than drive the balance negative
				s.logger.Error("confirmed withdrawal exceeds available balance",
					"transaction_id", cur.ID, "wallet_id", cur.WalletID)
				outcome = "failed"
				return ops.FinalizeTransaction(ctx, cur.ID, StatusFailed, Finalization{
					BalanceAfter: a.AvailableBalance,
					CompletedAt:  now,
				})
			}
			a.AvailableBalance = a.AvailableBalance.Sub(cur.Amount)
			a.TotalWithdrawn = a.TotalWithdrawn.Add(cur.Amount)
		default:
			s.logger.Error("pending record of unexpected type on webhook feed",
				"transaction_id", cur.ID, "type", string(cur.Type))
			return nil
		}
		if err := ops.UpdateAccount(ctx, a); err != nil {
			return err
		}
		if err := ops.FinalizeTransaction(ctx, cur.ID, StatusCompleted, Finalization{
			BalanceAfter: a.AvailableBalance,
			CompletedAt:  now,
		}); err != nil {
			return err
		}
		outcome = "applied"
		return nil
	})
	if err != nil {
		return err
	}
	s.countWebhook(outcome)
	if outcome == "applied" || outcome == "failed" {
		s.invalidate(ctx, acct.UserID)
	}
	return nil
}

// Summary is the display view of an account: balances, running totals and
// limits. Served lock-free and best-effort through the cache.
type Summary struct {
	UserID                 string          `json:"user_id"`
	WalletID               string          `json:"wallet_id"`
	AvailableBalance       decimal.Decimal `json:"available_balance"`
	EscrowBalance          decimal.Decimal `json:"escrow_balance"`
	TotalDeposited         decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn         decimal.Decimal `json:"total_withdrawn"`
	TotalShippingPaid      decimal.Decimal `json:"total_shipping_paid"`
	DailyWithdrawalLimit   decimal.Decimal `json:"daily_withdrawal_limit"`
	MonthlyWithdrawalLimit decimal.Decimal `json:"monthly_withdrawal_limit"`
	AsOf                   time.Time       `json:"as_of"`
}

// Summary returns the account's display view, creating the account on first
// access.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Get(ctx, userID); ok {
			return sum, nil
		}
	}
	acct, err := s.store.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		UserID:                 acct.UserID,
		WalletID:               acct.ID,
		AvailableBalance:       acct.AvailableBalance,
		EscrowBalance:          acct.EscrowBalance,
		TotalDeposited:         acct.TotalDeposited,
		TotalWithdrawn:         acct.TotalWithdrawn,
		TotalShippingPaid:      acct.TotalShippingPaid,
		DailyWithdrawalLimit:   acct.DailyWithdrawalLimit,
		MonthlyWithdrawalLimit: acct.MonthlyWithdrawalLimit,
		AsOf:                   s.now(),
	}
	if s.cache != nil {
		s.cache.Set(ctx, sum)
	}
	return sum, nil
}

// Transactions lists the newest records for the user's wallet.
func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	acct, err := s.store.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, acct.ID, limit)
}

// EnsureAccount provisions the user's wallet account if it does not exist.
func (s *Service) EnsureAccount(ctx context.Context, userID string) (Account, error) {
	return s.store.GetOrCreateAccount(ctx, userID)
}

func (s *Service) newRecord(acct Account, txType TransactionType, amount decimal.Decimal, tradeID string) Transaction {
	return Transaction{
		ID:            uuid.NewString(),
		WalletID:      acct.ID,
		Type:          txType,
		Status:        StatusPending,
		Amount:        amount,
		BalanceBefore: acct.AvailableBalance,
		TradeID:       tradeID,
		CreatedAt:     s.now(),
	}
}

func result(id string, status TransactionStatus, acct Account) Result {
	return Result{
		TransactionID:    id,
		Status:           status,
		AvailableBalance: acct.AvailableBalance,
		EscrowBalance:    acct.EscrowBalance,
	}
}

func (s *Service) observe(txType TransactionType, status TransactionStatus, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.Operations.WithLabelValues(string(txType), string(status)).Inc()
	s.metrics.OperationSeconds.WithLabelValues(string(txType)).Observe(s.now().Sub(started).Seconds())
}

func (s *Service) countGateway(op, outcome string) {
	if s.metrics != nil {
		s.metrics.GatewayCalls.WithLabelValues(op, outcome).Inc()
	}
}

func (s *Service) countWebhook(result string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(result).Inc()
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

func (s *Service) notify(ctx context.Context, kind, userID, transactionID, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:          kind,
		Destination:   userID,
		TransactionID: transactionID,
		Body:          body,
	})
}
