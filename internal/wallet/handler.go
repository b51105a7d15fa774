package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints. All routes assume the JWT
// middleware placed the authenticated user id in Locals.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type moneyRequest struct {
	Amount    string `json:"amount"`
	SourceRef string `json:"funding_source_ref"`
	PayoutRef string `json:"payout_destination_ref"`
	TradeID   string `json:"trade_id"`
}

type operationResponse struct {
	TransactionID    string `json:"transaction_id"`
	Status           string `json:"status"`
	AvailableBalance string `json:"available_balance"`
	EscrowBalance    string `json:"escrow_balance"`
}

// Summary returns the caller's wallet overview.
func (h *Handler) Summary(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	sum, err := h.service.Summary(c.UserContext(), uid)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(sum)
}

// Transactions returns the caller's newest transaction records.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	limit := c.QueryInt("limit", 50)
	recs, err := h.service.Transactions(c.UserContext(), uid, limit)
	if err != nil {
		return mapError(err)
	}
	out := make([]fiber.Map, 0, len(recs))
	for _, rec := range recs {
		entry := fiber.Map{
			"id":             rec.ID,
			"type":           rec.Type,
			"status":         rec.Status,
			"amount":         rec.Amount,
			"balance_before": rec.BalanceBefore,
			"balance_after":  rec.BalanceAfter,
			"created_at":     rec.CreatedAt,
		}
		if rec.TradeID != "" {
			entry["trade_id"] = rec.TradeID
		}
		if rec.CompletedAt != nil {
			entry["completed_at"] = rec.CompletedAt
		}
		out = append(out, entry)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Deposit funds the wallet from a registered source.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	uid, req, amount, err := h.parse(c)
	if err != nil {
		return err
	}
	res, opErr := h.service.Deposit(c.UserContext(), DepositInput{
		UserID:           uid,
		Amount:           amount,
		FundingSourceRef: req.SourceRef,
	})
	return respond(c, res, opErr)
}

// Withdraw pays available funds out to a destination.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	uid, req, amount, err := h.parse(c)
	if err != nil {
		return err
	}
	res, opErr := h.service.Withdraw(c.UserContext(), WithdrawInput{
		UserID:               uid,
		Amount:               amount,
		PayoutDestinationRef: req.PayoutRef,
	})
	return respond(c, res, opErr)
}

// PlaceInEscrow holds funds for a trade.
func (h *Handler) PlaceInEscrow(c *fiber.Ctx) error {
	return h.tradeOp(c, h.service.PlaceInEscrow)
}

// ReleaseFromEscrow returns held funds after a completed trade.
func (h *Handler) ReleaseFromEscrow(c *fiber.Ctx) error {
	return h.tradeOp(c, h.service.ReleaseFromEscrow)
}

// RefundFromEscrow returns held funds after a cancelled trade.
func (h *Handler) RefundFromEscrow(c *fiber.Ctx) error {
	return h.tradeOp(c, h.service.RefundFromEscrow)
}

// PayShipping spends available funds on a shipping label.
func (h *Handler) PayShipping(c *fiber.Ctx) error {
	return h.tradeOp(c, h.service.PayShipping)
}

func (h *Handler) tradeOp(c *fiber.Ctx, op func(ctx context.Context, input TradeInput) (Result, error)) error {
	uid, req, amount, err := h.parse(c)
	if err != nil {
		return err
	}
	res, opErr := op(c.UserContext(), TradeInput{
		UserID:  uid,
		Amount:  amount,
		TradeID: req.TradeID,
	})
	return respond(c, res, opErr)
}

func (h *Handler) parse(c *fiber.Ctx) (string, moneyRequest, decimal.Decimal, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", moneyRequest{}, decimal.Zero, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req moneyRequest
	if err := c.BodyParser(&req); err != nil {
		return "", moneyRequest{}, decimal.Zero, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return "", moneyRequest{}, decimal.Zero, fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	return uid, req, amount, nil
}

func respond(c *fiber.Ctx, res Result, err error) error {
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			// surface the record id for support traceability
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error":          "payment gateway failure",
				"transaction_id": gwErr.TransactionID,
			})
		}
		return mapError(err)
	}
	status := http.StatusCreated
	if res.Status == StatusPending {
		status = http.StatusAccepted
	}
	return c.Status(status).JSON(operationResponse{
		TransactionID:    res.TransactionID,
		Status:           string(res.Status),
		AvailableBalance: res.AvailableBalance.String(),
		EscrowBalance:    res.EscrowBalance.String(),
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientEscrow),
		errors.Is(err, ErrDailyLimitExceeded),
		errors.Is(err, ErrMonthlyLimitExceeded),
		errors.Is(err, ErrNoPayoutDestination):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTradeNotFound),
		errors.Is(err, ErrFundingSourceNotFound),
		errors.Is(err, ErrTransactionNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
