package wallet

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/gateway"
	"github.com/tradepost/tradepost/internal/logging"
)

func newHandlerApp(t *testing.T) (*fiber.App, *gateway.StaticGateway) {
	t.Helper()
	store := NewMemoryStore()
	gw := gateway.NewStatic(0)
	svc := NewService(store, gw, nil, nil, nil, logging.Discard())
	h := NewHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "buyer")
		return c.Next()
	})
	app.Post("/wallet/deposit", h.Deposit)
	app.Get("/wallet", h.Summary)
	return app, gw
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestHandlerDepositCreated(t *testing.T) {
	app, _ := newHandlerApp(t)
	status, body := postJSON(t, app, "/wallet/deposit", `{"amount":"100.00","funding_source_ref":"card_1"}`)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "completed", body["status"])
	require.Equal(t, "100", body["available_balance"])
}

func TestHandlerDepositPendingAnswersAccepted(t *testing.T) {
	app, gw := newHandlerApp(t)
	gw.ChargePending = true
	status, body := postJSON(t, app, "/wallet/deposit", `{"amount":"50","funding_source_ref":"card_1"}`)
	require.Equal(t, fiber.StatusAccepted, status)
	require.Equal(t, "pending", body["status"])
}

func TestHandlerDepositGatewayFailureAnswersBadGateway(t *testing.T) {
	app, gw := newHandlerApp(t)
	gw.ChargeErr = errors.New("card declined")
	status, body := postJSON(t, app, "/wallet/deposit", `{"amount":"50","funding_source_ref":"card_1"}`)
	require.Equal(t, fiber.StatusBadGateway, status)
	require.NotEmpty(t, body["transaction_id"])
}

func TestHandlerDepositRejectsBadAmount(t *testing.T) {
	app, _ := newHandlerApp(t)
	status, _ := postJSON(t, app, "/wallet/deposit", `{"amount":"abc","funding_source_ref":"card_1"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postJSON(t, app, "/wallet/deposit", `{"amount":"-5","funding_source_ref":"card_1"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandlerSummary(t *testing.T) {
	app, _ := newHandlerApp(t)
	_, _ = postJSON(t, app, "/wallet/deposit", `{"amount":"25","funding_source_ref":"card_1"}`)

	req := httptest.NewRequest(fiber.MethodGet, "/wallet", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var sum Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	require.Equal(t, "buyer", sum.UserID)
	require.True(t, sum.AvailableBalance.Equal(dec(25)))
}
