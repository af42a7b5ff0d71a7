package razorpay

import (
	"context"
	"errors"
	"strings"

	rzpsdk "github.com/razorpay/razorpay-go"

	"github.com/brieflyhq/briefly-backend/pkg/config"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client exposes Razorpay primitives with centralized auth, logging, and error mapping.
type Client struct {
	orders        orderAPI
	keyID         string
	keySecret     string
	webhookSecret string
	currency      string
	logger        *logger.Logger
}

// Order is the subset of the gateway order response the platform consumes.
// Field names serialize with gateway casing so the order can be handed
// straight to browser checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	sdk := rzpsdk.NewClient(keyID, keySecret)

	c := &Client{
		orders:        sdk.Order,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      cfg.Currency,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key identifier handed to browser checkouts.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the secret used to sign client confirmations.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// WebhookSecret returns the secret used to sign gateway-pushed events.
// Empty means webhooks were never provisioned for this deployment.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// Currency reports the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return "INR"
	}
	return c.currency
}

// CreateOrder creates a gateway order denominated in minor units.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string, notes map[string]interface{}) (*Order, error) {
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": c.Currency(),
		"receipt":  receipt,
		"notes":    notes,
	}

	resp, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating gateway order")
	}

	order, err := orderFromResponse(resp)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func orderFromResponse(resp map[string]interface{}) (*Order, error) {
	id, _ := resp["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway order response missing id")
	}

	order := &Order{ID: id}
	if currency, ok := resp["currency"].(string); ok {
		order.Currency = currency
	}
	if status, ok := resp["status"].(string); ok {
		order.Status = status
	}
	order.Amount = amountFromResponse(resp["amount"])
	return order, nil
}

// amountFromResponse tolerates the SDK decoding amounts as float64 or int.
func amountFromResponse(raw interface{}) int64 {
	switch v := raw.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
