package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tradepost/tradepost/internal/identity"
	"github.com/tradepost/tradepost/internal/wallet"
)

// RegisterIdentityRoutes wires identity endpoints and auto-provisions a wallet
// account on registration.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, ledger *wallet.Service, logger *slog.Logger) {
	// Plain authenticate (no tokens) remains alongside /auth/login.
	r.Post("/identity/authenticate", identity.NewHandler(ids).Authenticate)

	r.Post("/identity/register", func(c *fiber.Ctx) error {
		var req struct {
			Phone    string `json:"phone"`
			PIN      string `json:"pin"`
			DeviceID string `json:"device_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := ids.Register(c.UserContext(), identity.Credentials{Phone: req.Phone, PIN: req.PIN, DeviceID: req.DeviceID})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		var walletID string
		if ledger != nil {
			if acct, err := ledger.EnsureAccount(c.UserContext(), user.ID); err == nil {
				walletID = acct.ID
			}
		}
		if logger != nil {
			logger.Info("identity.register completed",
				slog.String("user_id", user.ID),
				slog.String("phone", user.Phone),
				slog.String("wallet_id", walletID),
				slog.Int("status", http.StatusCreated),
			)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":   user.ID,
			"phone":     user.Phone,
			"tier":      user.Tier,
			"device_id": user.DeviceID,
			"wallet_id": walletID,
		})
	})
}
