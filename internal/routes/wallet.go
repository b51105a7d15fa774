package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tradepost/tradepost/internal/wallet"
)

// RegisterWalletRoutes wires the ledger endpoints onto an authenticated group.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/", h.Summary)
	r.Get("/transactions", h.Transactions)
	r.Post("/deposit", h.Deposit)
	r.Post("/withdraw", h.Withdraw)
	r.Post("/escrow", h.PlaceInEscrow)
	r.Post("/escrow/release", h.ReleaseFromEscrow)
	r.Post("/escrow/refund", h.RefundFromEscrow)
	r.Post("/shipping", h.PayShipping)
}
