package wallet

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLimitWindows(t *testing.T) {
	now := time.Date(2025, time.March, 15, 17, 30, 12, 0, time.UTC)
	dayStart, monthStart := LimitWindows(now)

	if want := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC); !dayStart.Equal(want) {
		t.Fatalf("day start = %v, want %v", dayStart, want)
	}
	if want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC); !monthStart.Equal(want) {
		t.Fatalf("month start = %v, want %v", monthStart, want)
	}
}

func TestLimitWindowsNormalizesZone(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	zone := time.FixedZone("minus5", -5*3600)
	now := time.Date(2025, time.March, 31, 23, 30, 0, 0, zone)
	dayStart, monthStart := LimitWindows(now)

	if want := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC); !dayStart.Equal(want) {
		t.Fatalf("day start = %v, want %v", dayStart, want)
	}
	if want := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC); !monthStart.Equal(want) {
		t.Fatalf("month start = %v, want %v", monthStart, want)
	}
}

func TestCheckWithdrawalLimit(t *testing.T) {
	acct := Account{
		DailyWithdrawalLimit:   decimal.NewFromInt(100),
		MonthlyWithdrawalLimit: decimal.NewFromInt(500),
	}

	if err := CheckWithdrawalLimit(acct, decimal.NewFromInt(40), decimal.NewFromInt(60), decimal.NewFromInt(60)); err != nil {
		t.Fatalf("exactly at the daily limit should pass, got %v", err)
	}
	if err := CheckWithdrawalLimit(acct, decimal.NewFromInt(41), decimal.NewFromInt(60), decimal.NewFromInt(60)); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("expected daily limit error, got %v", err)
	}
	if err := CheckWithdrawalLimit(acct, decimal.NewFromInt(50), decimal.NewFromInt(10), decimal.NewFromInt(480)); !errors.Is(err, ErrMonthlyLimitExceeded) {
		t.Fatalf("expected monthly limit error, got %v", err)
	}
}

func TestCheckWithdrawalLimitDailyReportedFirst(t *testing.T) {
	acct := Account{
		DailyWithdrawalLimit:   decimal.NewFromInt(50),
		MonthlyWithdrawalLimit: decimal.NewFromInt(50),
	}
	err := CheckWithdrawalLimit(acct, decimal.NewFromInt(60), decimal.Zero, decimal.Zero)
	if !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("expected daily error when both windows exceed, got %v", err)
	}
}

func TestCheckWithdrawalLimitUncapped(t *testing.T) {
	if err := CheckWithdrawalLimit(Account{}, decimal.NewFromInt(1_000_000), decimal.NewFromInt(1_000_000), decimal.NewFromInt(1_000_000)); err != nil {
		t.Fatalf("zero limits should be uncapped, got %v", err)
	}
}
