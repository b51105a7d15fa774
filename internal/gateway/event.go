package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Outcome is the settled result a gateway event reports for a payment.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Event is a confirmation delivered on the processor's event feed.
// Delivery may be duplicated or arrive out of order; consumers are expected
// to reconcile idempotently.
type Event struct {
	Type       string  `json:"type"`
	PaymentRef string  `json:"payment_ref"`
	Outcome    Outcome `json:"outcome"`
}

// ErrBadSignature indicates the event payload failed authentication.
var ErrBadSignature = errors.New("event signature mismatch")

// SignEvent computes the hex HMAC-SHA256 signature the feed attaches to a
// payload. Exposed so the static gateway and tests can produce valid events.
func SignEvent(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAndParseEvent checks the payload signature and decodes the event.
func VerifyAndParseEvent(payload []byte, signature string, secret []byte) (Event, error) {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return Event{}, ErrBadSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return Event{}, ErrBadSignature
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, errors.New("invalid event payload")
	}
	if ev.PaymentRef == "" {
		return Event{}, errors.New("event missing payment ref")
	}
	switch ev.Outcome {
	case OutcomeSucceeded, OutcomeFailed:
	default:
		return Event{}, errors.New("unknown event outcome")
	}
	return ev, nil
}
