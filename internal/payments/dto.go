package payments

import (
	"encoding/json"

	"github.com/brieflyhq/briefly-backend/pkg/razorpay"
)

// CreateOrderRequest is the checkout payload for a plan purchase.
// Amount is denominated in major currency units (rupees).
type CreateOrderRequest struct {
	PlanID   string  `json:"planId" validate:"required"`
	Amount   float64 `json:"amount" validate:"required"`
	PlanName string  `json:"planName,omitempty"`
	Period   string  `json:"period,omitempty"`
}

// CreateOrderResponse hands the gateway order and public key to the browser checkout.
type CreateOrderResponse struct {
	Order *razorpay.Order `json:"order"`
	Key   string          `json:"key"`
}

// VerifyRequest is the client-submitted payment confirmation. Field names
// follow the gateway's checkout callback payload.
type VerifyRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	PlanID            string `json:"planId,omitempty"`
	PlanName          string `json:"planName,omitempty"`
	Period            string `json:"period,omitempty"`
	AmountPaise       *int64 `json:"amountPaise,omitempty"`
}

// WebhookEvent is the gateway-pushed event envelope.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

// WebhookPayload tolerates both the wrapped ("payment": {"entity": {...}})
// and flat ("payment_entity": {...}) shapes the gateway has shipped.
type WebhookPayload struct {
	Payment       *EntityWrapper  `json:"payment,omitempty"`
	Order         *EntityWrapper  `json:"order,omitempty"`
	PaymentEntity *WebhookEntity  `json:"payment_entity,omitempty"`
	OrderEntity   *WebhookEntity  `json:"order_entity,omitempty"`
}

// EntityWrapper holds the nested "entity" object.
type EntityWrapper struct {
	Entity *WebhookEntity `json:"entity,omitempty"`
}

// WebhookEntity is the payment or order record carried by an event.
type WebhookEntity struct {
	ID       string            `json:"id"`
	Amount   *int64            `json:"amount,omitempty"`
	Currency string            `json:"currency,omitempty"`
	Method   string            `json:"method,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// UnmarshalJSON tolerates the gateway sending notes as an object or an
// empty array (its representation of "no notes").
func (e *WebhookEntity) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID       string          `json:"id"`
		Amount   *int64          `json:"amount,omitempty"`
		Currency string          `json:"currency,omitempty"`
		Method   string          `json:"method,omitempty"`
		Notes    json.RawMessage `json:"notes,omitempty"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	e.ID = a.ID
	e.Amount = a.Amount
	e.Currency = a.Currency
	e.Method = a.Method
	e.Notes = nil
	if len(a.Notes) > 0 && a.Notes[0] == '{' {
		var notes map[string]string
		if err := json.Unmarshal(a.Notes, &notes); err == nil {
			e.Notes = notes
		}
	}
	return nil
}

func (p WebhookPayload) payment() *WebhookEntity {
	if p.Payment != nil && p.Payment.Entity != nil {
		return p.Payment.Entity
	}
	return p.PaymentEntity
}

func (p WebhookPayload) order() *WebhookEntity {
	if p.Order != nil && p.Order.Entity != nil {
		return p.Order.Entity
	}
	return p.OrderEntity
}
