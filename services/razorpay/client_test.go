package razorpay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	lastData map[string]interface{}
	response map[string]interface{}
	err      error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	f.lastData = data
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestCreateOrder(t *testing.T) {
	gw := &fakeGateway{response: map[string]interface{}{"id": "order_abc123"}}
	svc := NewService(gw, "rzp_test_key")

	order, err := svc.CreateOrder(context.Background(), 42, 1200000, "", map[string]interface{}{
		"course_id": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc123", order.ID)
	assert.Equal(t, int64(1200000), order.AmountPaise)
	assert.Equal(t, "INR", order.Currency, "currency defaults to INR")

	assert.Equal(t, int64(1200000), gw.lastData["amount"])
	assert.Equal(t, "INR", gw.lastData["currency"])
	assert.NotNil(t, gw.lastData["notes"])

	receipt, _ := gw.lastData["receipt"].(string)
	assert.True(t, strings.HasPrefix(receipt, "rcpt_42_"))
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	gw := &fakeGateway{response: map[string]interface{}{"id": "order_abc123"}}
	svc := NewService(gw, "rzp_test_key")

	_, err := svc.CreateOrder(context.Background(), 42, 0, "INR", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreateOrder(context.Background(), 42, -500, "INR", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Nil(t, gw.lastData, "the gateway must not be called for an invalid amount")
}

func TestCreateOrderWrapsGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("BAD_REQUEST_ERROR: authentication failed")}
	svc := NewService(gw, "rzp_test_key")

	_, err := svc.CreateOrder(context.Background(), 42, 1200000, "INR", nil)
	assert.ErrorIs(t, err, ErrOrderCreation)
}

func TestCreateOrderRejectsMissingOrderID(t *testing.T) {
	gw := &fakeGateway{response: map[string]interface{}{"status": "created"}}
	svc := NewService(gw, "rzp_test_key")

	_, err := svc.CreateOrder(context.Background(), 42, 1200000, "INR", nil)
	assert.ErrorIs(t, err, ErrOrderCreation)
}

func TestBuildReceiptIDLength(t *testing.T) {
	receipt := BuildReceiptID(18446744073709551615)
	assert.LessOrEqual(t, len(receipt), maxReceiptLength)
	assert.True(t, strings.HasPrefix(receipt, "rcpt_"))
}
