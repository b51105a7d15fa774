package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitWindows returns the start of the current calendar day and month.
// Windows are computed in UTC: the upstream behavior depended on the server's
// wall clock without naming a zone, which made the day boundary deployment
// dependent. UTC is the explicit policy here.
func LimitWindows(now time.Time) (dayStart, monthStart time.Time) {
	now = now.UTC()
	dayStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return dayStart, monthStart
}

// CheckWithdrawalLimit decides whether a withdrawal of amount is permitted
// given the account's ceilings and the completed withdrawal totals for the
// current day and month. The daily window is evaluated first, so when both
// would be exceeded the daily error is reported. A non-positive configured
// limit leaves the corresponding window uncapped.
func CheckWithdrawalLimit(acct Account, amount, todayTotal, monthTotal decimal.Decimal) error {
	if acct.DailyWithdrawalLimit.IsPositive() && todayTotal.Add(amount).GreaterThan(acct.DailyWithdrawalLimit) {
		return ErrDailyLimitExceeded
	}
	if acct.MonthlyWithdrawalLimit.IsPositive() && monthTotal.Add(amount).GreaterThan(acct.MonthlyWithdrawalLimit) {
		return ErrMonthlyLimitExceeded
	}
	return nil
}
