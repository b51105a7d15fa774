package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// SeedAccount is a test helper that overwrites balances and limits on an
// in-memory store account, creating the account if needed.
func SeedAccount(s Store, userID string, available, escrow, dailyLimit, monthlyLimit decimal.Decimal) Account {
	mem, ok := s.(*memoryStore)
	if !ok {
		return Account{}
	}
	acct, _ := mem.GetOrCreateAccount(context.Background(), userID)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	acct.AvailableBalance = available
	acct.EscrowBalance = escrow
	acct.DailyWithdrawalLimit = dailyLimit
	acct.MonthlyWithdrawalLimit = monthlyLimit
	mem.accounts[userID] = acct
	return acct
}
