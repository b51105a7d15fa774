package gateway

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSignAndVerifyEvent(t *testing.T) {
	secret := []byte("feed-secret")
	payload, err := json.Marshal(Event{Type: "payment.succeeded", PaymentRef: "pay_1", Outcome: OutcomeSucceeded})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	ev, err := VerifyAndParseEvent(payload, SignEvent(payload, secret), secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.PaymentRef != "pay_1" || ev.Outcome != OutcomeSucceeded {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := []byte("feed-secret")
	payload := []byte(`{"type":"payment.succeeded","payment_ref":"pay_1","outcome":"succeeded"}`)
	sig := SignEvent(payload, secret)

	tampered := []byte(`{"type":"payment.succeeded","payment_ref":"pay_2","outcome":"succeeded"}`)
	if _, err := VerifyAndParseEvent(tampered, sig, secret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"type":"payment.failed","payment_ref":"pay_1","outcome":"failed"}`)
	sig := SignEvent(payload, []byte("right"))
	if _, err := VerifyAndParseEvent(payload, sig, []byte("wrong")); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsMalformedEvents(t *testing.T) {
	secret := []byte("feed-secret")
	cases := []string{
		`{"type":"payment.succeeded","outcome":"succeeded"}`,
		`{"type":"payment.succeeded","payment_ref":"pay_1","outcome":"maybe"}`,
		`not json at all`,
	}
	for _, payload := range cases {
		sig := SignEvent([]byte(payload), secret)
		if _, err := VerifyAndParseEvent([]byte(payload), sig, secret); err == nil {
			t.Fatalf("expected rejection for payload %s", payload)
		}
	}
}
