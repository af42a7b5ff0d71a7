package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

type stubOrderAPI struct {
	lastData map[string]interface{}
	resp     map[string]interface{}
	err      error
}

func (s *stubOrderAPI) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	s.lastData = data
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestClient(orders orderAPI) *Client {
	return &Client{
		orders:        orders,
		keyID:         "rzp_test_key",
		keySecret:     "secret",
		webhookSecret: "whsec",
		currency:      "INR",
		logger:        logger.New(logger.Options{ServiceName: "test"}),
	}
}

func TestCreateOrder(t *testing.T) {
	stub := &stubOrderAPI{resp: map[string]interface{}{
		"id":       "order_123",
		"amount":   float64(49900),
		"currency": "INR",
		"status":   "created",
	}}
	client := newTestClient(stub)

	order, err := client.CreateOrder(context.Background(), 49900, "rcpt_1", map[string]interface{}{
		"accountId": "acct-1",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_123" {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Amount != 49900 {
		t.Fatalf("unexpected amount %d", order.Amount)
	}
	if stub.lastData["amount"] != int64(49900) {
		t.Fatalf("expected minor-unit amount in request, got %v", stub.lastData["amount"])
	}
	if stub.lastData["currency"] != "INR" {
		t.Fatalf("expected currency INR, got %v", stub.lastData["currency"])
	}
	notes, ok := stub.lastData["notes"].(map[string]interface{})
	if !ok || notes["accountId"] != "acct-1" {
		t.Fatalf("notes not forwarded: %v", stub.lastData["notes"])
	}
}

func TestOrderSerializesWithGatewayCasing(t *testing.T) {
	order := Order{ID: "order_123", Amount: 49900, Currency: "INR", Status: "created"}
	raw, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "amount", "currency", "status"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected key %q in %s", key, raw)
		}
	}
	if fields["id"] != "order_123" {
		t.Fatalf("unexpected id %v", fields["id"])
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(&stubOrderAPI{})
	_, err := client.CreateOrder(context.Background(), 0, "rcpt", nil)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderMapsGatewayFailure(t *testing.T) {
	client := newTestClient(&stubOrderAPI{err: errors.New("gateway down")})
	_, err := client.CreateOrder(context.Background(), 100, "rcpt", nil)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCreateOrderMissingID(t *testing.T) {
	client := newTestClient(&stubOrderAPI{resp: map[string]interface{}{"status": "created"}})
	_, err := client.CreateOrder(context.Background(), 100, "rcpt", nil)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for missing id, got %v", err)
	}
}
