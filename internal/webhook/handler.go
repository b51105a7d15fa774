package webhook

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tradepost/tradepost/internal/gateway"
	"github.com/tradepost/tradepost/internal/wallet"
)

// SignatureHeader carries the hex HMAC of the raw event payload.
const SignatureHeader = "X-Gateway-Signature"

// Handler is the boundary adapter for the payment processor's event feed.
// It authenticates raw payloads before anything downstream trusts them; the
// reconciler itself only ever sees verified events.
type Handler struct {
	gw     gateway.PaymentGateway
	secret []byte
	ledger *wallet.Service
	logger *slog.Logger
}

// NewHandler builds the webhook handler with the feed's shared secret.
func NewHandler(gw gateway.PaymentGateway, secret []byte, ledger *wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{gw: gw, secret: secret, ledger: ledger, logger: logger}
}

// HandleGatewayEvent verifies and reconciles one event. Handled events
// always answer 200 so the processor stops redelivering; duplicates are
// harmless by design.
func (h *Handler) HandleGatewayEvent(c *fiber.Ctx) error {
	ev, err := h.gw.VerifyAndParseEvent(c.Body(), c.Get(SignatureHeader), h.secret)
	if err != nil {
		h.logger.Warn("rejected gateway event", "error", err)
		return fiber.NewError(http.StatusUnauthorized, "invalid event signature")
	}
	if err := h.ledger.ReconcileEvent(c.UserContext(), ev); err != nil {
		h.logger.Error("event reconciliation failed",
			"payment_ref", ev.PaymentRef, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "reconciliation failure")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"received": true})
}
