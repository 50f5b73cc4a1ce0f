package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/skillbridge/skillbridge-api/services/razorpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	calls int
}

func (g *stubGateway) CreateOrder(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	g.calls++
	return map[string]interface{}{"id": "order_test_1"}, nil
}

func newCreateOrderApp(gateway razorpay.Gateway) *fiber.App {
	handler := NewPaymentHandler(razorpay.NewService(gateway, "rzp_test_key"), nil)
	app := fiber.New()
	app.Post("/payment/create-order", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	}, handler.CreateOrder)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	return resp.StatusCode, decoded
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	detail, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "response carries no error detail: %v", body)
	code, _ := detail["code"].(string)
	return code
}

func TestCreateOrderRejectsFractionalAmount(t *testing.T) {
	gateway := &stubGateway{}
	app := newCreateOrderApp(gateway)

	status, body := postJSON(t, app, "/payment/create-order", map[string]interface{}{
		"courseId":     1,
		"courseTierId": 2,
		"amount":       1500.5,
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, body))
	assert.Zero(t, gateway.calls, "a fractional amount must be rejected before any gateway call")
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	gateway := &stubGateway{}
	app := newCreateOrderApp(gateway)

	status, body := postJSON(t, app, "/payment/create-order", map[string]interface{}{
		"courseId":     1,
		"courseTierId": 2,
		"amount":       -100,
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, body))
	assert.Zero(t, gateway.calls)
}

func TestCreateOrderHappyPath(t *testing.T) {
	gateway := &stubGateway{}
	app := newCreateOrderApp(gateway)

	status, body := postJSON(t, app, "/payment/create-order", map[string]interface{}{
		"courseId":     1,
		"courseTierId": 2,
		"amount":       150000,
	})

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, gateway.calls)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "order_test_1", data["orderId"])
	assert.Equal(t, "rzp_test_key", data["keyId"])
	assert.Equal(t, float64(150000), data["amount"])
}

func TestCreateOrderRequiresAuthentication(t *testing.T) {
	gateway := &stubGateway{}
	handler := NewPaymentHandler(razorpay.NewService(gateway, "rzp_test_key"), nil)
	app := fiber.New()
	app.Post("/payment/create-order", handler.CreateOrder)

	status, _ := postJSON(t, app, "/payment/create-order", map[string]interface{}{
		"courseId":     1,
		"courseTierId": 2,
		"amount":       150000,
	})

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Zero(t, gateway.calls)
}
