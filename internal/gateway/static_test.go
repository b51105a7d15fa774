package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStaticGatewayChargeFee(t *testing.T) {
	gw := NewStatic(250) // 2.5%
	res, err := gw.ChargeFundingSource(context.Background(), ChargeInput{
		CustomerRef: "cus_1",
		SourceRef:   "card_1",
		Amount:      decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if want := decimal.NewFromFloat(2.5); !res.ProcessorFee.Equal(want) {
		t.Fatalf("fee = %s, want %s", res.ProcessorFee, want)
	}
	if !strings.HasPrefix(res.PaymentRef, "pay_") || !strings.HasPrefix(res.ChargeRef, "ch_") {
		t.Fatalf("unexpected refs: %s %s", res.PaymentRef, res.ChargeRef)
	}
	if res.Pending {
		t.Fatal("charge should settle synchronously by default")
	}
}

func TestStaticGatewayZeroFee(t *testing.T) {
	gw := NewStatic(0)
	res, err := gw.ChargeFundingSource(context.Background(), ChargeInput{Amount: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !res.ProcessorFee.IsZero() {
		t.Fatalf("expected zero fee, got %s", res.ProcessorFee)
	}
}

func TestStaticGatewayPendingToggles(t *testing.T) {
	gw := NewStatic(0)
	gw.ChargePending = true
	gw.PayoutPending = true

	charge, err := gw.ChargeFundingSource(context.Background(), ChargeInput{Amount: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !charge.Pending {
		t.Fatal("expected pending charge")
	}

	payout, err := gw.CreatePayout(context.Background(), "bank_1", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	if !payout.Pending {
		t.Fatal("expected pending payout")
	}
}
