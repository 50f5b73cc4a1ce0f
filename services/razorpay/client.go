package razorpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpaygo "github.com/razorpay/razorpay-go"
)

var (
	// ErrInvalidAmount is returned before any gateway call when the caller
	// passes a non-positive amount. Gateway charges are denominated in paise;
	// a fractional or zero amount is a caller bug, not a user error.
	ErrInvalidAmount = errors.New("order amount must be a positive integer in paise")

	// ErrOrderCreation wraps any transport/auth failure from the gateway
	ErrOrderCreation = errors.New("order creation failed")
)

// maxReceiptLength is the gateway's limit on the receipt field
const maxReceiptLength = 40

// Order is the gateway order handed back to the checkout widget
type Order struct {
	ID          string `json:"order_id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// Gateway is the remote order API. Only the operations this service needs are
// declared, so tests can substitute a fake instead of hitting Razorpay.
type Gateway interface {
	CreateOrder(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error)
}

// liveGateway wraps the Razorpay SDK client
type liveGateway struct {
	client *razorpaygo.Client
}

// NewGateway creates a Gateway backed by the Razorpay SDK with a bounded
// request timeout (order creation runs inside request handlers; an unbounded
// call would pin connections under load)
func NewGateway(keyID, keySecret string) Gateway {
	client := razorpaygo.NewClient(keyID, keySecret)
	client.SetTimeout(10) // seconds
	return &liveGateway{client: client}
}

func (g *liveGateway) CreateOrder(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	// The SDK does not take a context; the client-level timeout bounds the call.
	return g.client.Order.Create(data, nil)
}

// Service creates payment-gateway orders. The gateway is injected so the
// order path is testable without network access.
type Service struct {
	gateway Gateway
	keyID   string
}

// NewService creates a new order service
func NewService(gateway Gateway, keyID string) *Service {
	return &Service{
		gateway: gateway,
		keyID:   keyID,
	}
}

// KeyID returns the public gateway key id (safe to send to the client)
func (s *Service) KeyID() string {
	return s.keyID
}

// CreateOrder creates one gateway order for the given amount. Repeated calls
// create repeated orders: deduplication happens later at reconciliation,
// keyed by the payment id the gateway assigns after payment.
func (s *Service) CreateOrder(ctx context.Context, userID uint, amountPaise int64, currency string, notes map[string]interface{}) (*Order, error) {
	if amountPaise <= 0 {
		return nil, ErrInvalidAmount
	}

	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  BuildReceiptID(userID),
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := s.gateway.CreateOrder(ctx, data)
	if err != nil {
		// Don't leak gateway internals to callers; the handler logs them
		return nil, fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("%w: gateway returned no order id", ErrOrderCreation)
	}

	return &Order{
		ID:          orderID,
		AmountPaise: amountPaise,
		Currency:    currency,
	}, nil
}

// BuildReceiptID derives a short advisory receipt identifier from the user id
// and the current time. Collisions are acceptable: the receipt is not a
// uniqueness key, it only has to satisfy the gateway's length constraint.
func BuildReceiptID(userID uint) string {
	receipt := fmt.Sprintf("rcpt_%d_%d", userID, time.Now().Unix())
	if len(receipt) > maxReceiptLength {
		receipt = receipt[:maxReceiptLength]
	}
	return receipt
}
