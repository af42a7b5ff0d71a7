package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brieflyhq/briefly-backend/internal/mailer"
	"github.com/brieflyhq/briefly-backend/internal/users"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/metrics"
	"github.com/brieflyhq/briefly-backend/pkg/razorpay"
)

// acceptedEvents is the allow-list of webhook event types that activate an
// entitlement. Anything else is acknowledged and dropped.
var acceptedEvents = map[string]struct{}{
	"payment.captured":   {},
	"order.paid":         {},
	"payment.authorized": {},
}

// Service drives order creation, client confirmation, and webhook processing.
type Service interface {
	CreateOrder(ctx context.Context, accountID uuid.UUID, req CreateOrderRequest) (*CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, accountID uuid.UUID, req VerifyRequest) error
	ProcessWebhook(ctx context.Context, body []byte, signature string) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string, notes map[string]interface{}) (*razorpay.Order, error)
	KeyID() string
	KeySecret() string
	WebhookSecret() string
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ActivateSubscription(ctx context.Context, id uuid.UUID, dto users.ActivateSubscriptionDTO) error
}

// ServiceParams bundles the dependencies for the payments service.
type ServiceParams struct {
	Gateway  gatewayClient
	UserRepo userRepository
	Mailer   mailer.Mailer
	Logger   *logger.Logger
	Metrics  *metrics.PaymentMetrics
}

type service struct {
	gateway  gatewayClient
	users    userRepository
	mailer   mailer.Mailer
	logger   *logger.Logger
	metrics  *metrics.PaymentMetrics
}

// NewService constructs the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		gateway: params.Gateway,
		users:   params.UserRepo,
		mailer:  params.Mailer,
		logger:  params.Logger,
		metrics: params.Metrics,
	}, nil
}

// CreateOrder converts the major-unit amount to minor units (round half up)
// and attaches the account/plan linkage as order notes. The gateway echoes
// the notes back on confirmation and webhook; they are the only association
// between a payment and the account to credit.
func (s *service) CreateOrder(ctx context.Context, accountID uuid.UUID, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if req.PlanID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planId and amount required")
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid amount")
	}

	amountMinor := majorToMinor(req.Amount)

	period := req.Period
	if period == "" {
		period = "one-time"
	}

	id := accountID.String()
	receipt := fmt.Sprintf("rcpt_%d_%s", time.Now().UnixMilli(), id[len(id)-6:])
	notes := map[string]interface{}{
		"accountId": id,
		"planId":    req.PlanID,
		"planName":  req.PlanName,
		"period":    period,
	}

	order, err := s.gateway.CreateOrder(ctx, amountMinor, receipt, notes)
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(req.PlanID)
	return &CreateOrderResponse{Order: order, Key: s.gateway.KeyID()}, nil
}

// VerifyPayment authenticates a client-submitted confirmation and activates
// the entitlement. The receipt email is best-effort and never blocks or
// fails the response.
func (s *service) VerifyPayment(ctx context.Context, accountID uuid.UUID, req VerifyRequest) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if req.RazorpayPaymentID == "" || req.RazorpayOrderID == "" || req.RazorpaySignature == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing payment identifiers")
	}

	if !VerifyClientSignature(s.gateway.KeySecret(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.metrics.IncVerification("rejected")
		return pkgerrors.New(pkgerrors.CodeSignatureInvalid, "invalid signature")
	}

	now := time.Now().UTC()
	plan := firstNonEmpty(req.PlanID, req.PlanName, "paid")
	period := firstNonEmpty(req.Period, "one-time")

	dto := users.ActivateSubscriptionDTO{
		Plan:            plan,
		PlanActivatedAt: now,
		PlanPeriod:      &period,
		OrderID:         &req.RazorpayOrderID,
		PaymentID:       &req.RazorpayPaymentID,
		PaidAt:          &now,
	}
	if req.AmountPaise != nil {
		amount := minorToMajor(*req.AmountPaise)
		dto.Amount = &amount
	}

	if err := s.users.ActivateSubscription(ctx, accountID, dto); err != nil {
		s.metrics.IncVerification("persistence_failed")
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate subscription")
	}

	s.metrics.IncVerification("verified")
	s.sendReceiptAsync(ctx, accountID, mailer.PaymentReceipt{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Amount:    dto.Amount,
		Currency:  "INR",
		PlanName:  req.PlanName,
		Period:    period,
		PaidAt:    now,
	})

	return nil
}

// ProcessWebhook authenticates and applies a gateway-pushed event.
//
// Error semantics follow the gateway contract: a missing secret or a bad
// signature is the only failure the caller should surface; everything after
// a valid signature is acknowledged so the gateway stops redelivering, even
// when the entitlement write fails.
func (s *service) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	secret := s.gateway.WebhookSecret()
	if secret == "" {
		s.metrics.IncWebhookFailure("secret_not_set")
		s.logger.Warn(ctx, "no webhook secret configured; rejecting webhook")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook_secret_not_set")
	}

	if !VerifyWebhookSignature(secret, body, signature) {
		s.metrics.IncWebhookFailure("invalid_signature")
		s.logger.Warn(ctx, "webhook signature mismatch")
		return pkgerrors.New(pkgerrors.CodeSignatureInvalid, "invalid signature")
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.metrics.IncWebhookFailure("invalid_payload")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid_payload")
	}

	s.metrics.IncWebhookEvent(event.Event)
	if _, ok := acceptedEvents[event.Event]; !ok {
		return nil
	}

	payment := event.Payload.payment()
	order := event.Payload.order()

	notes := map[string]string{}
	if order != nil && len(order.Notes) > 0 {
		notes = order.Notes
	} else if payment != nil && len(payment.Notes) > 0 {
		notes = payment.Notes
	}

	accountRaw := notes["accountId"]
	accountID, err := uuid.Parse(accountRaw)
	if accountRaw == "" || err != nil {
		// Unattributable events are logged and dropped; failing the HTTP
		// transaction would make the gateway retry forever.
		s.logger.Warn(s.logger.WithField(ctx, "event", event.Event), "no account id in webhook notes; skipping update")
		return nil
	}

	now := time.Now().UTC()
	plan := firstNonEmpty(notes["planId"], notes["plan"], notes["planName"], "paid")
	period := firstNonEmpty(notes["period"], "one-time")

	dto := users.ActivateSubscriptionDTO{
		Plan:            plan,
		PlanActivatedAt: now,
		PlanPeriod:      &period,
		PaidAt:          &now,
	}
	if order != nil && order.ID != "" {
		orderID := order.ID
		dto.OrderID = &orderID
	}
	if payment != nil && payment.ID != "" {
		paymentID := payment.ID
		dto.PaymentID = &paymentID
	}

	// Amount: payment entity wins over order entity.
	if payment != nil && payment.Amount != nil {
		amount := minorToMajor(*payment.Amount)
		dto.Amount = &amount
	} else if order != nil && order.Amount != nil {
		amount := minorToMajor(*order.Amount)
		dto.Amount = &amount
	}

	if err := s.users.ActivateSubscription(ctx, accountID, dto); err != nil {
		// Deliberate: acknowledged anyway. Redelivery would not fix a
		// persistence fault and would storm the endpoint.
		s.logger.Error(s.logger.WithUserID(ctx, accountID.String()), "webhook entitlement update failed", err)
		return nil
	}

	receipt := mailer.PaymentReceipt{
		Currency: "INR",
		PlanName: notes["planName"],
		Period:   period,
		PaidAt:   now,
	}
	if dto.OrderID != nil {
		receipt.OrderID = *dto.OrderID
	}
	if dto.PaymentID != nil {
		receipt.PaymentID = *dto.PaymentID
	}
	if payment != nil {
		if payment.Currency != "" {
			receipt.Currency = payment.Currency
		}
		receipt.Method = payment.Method
	}
	receipt.Amount = dto.Amount

	s.sendReceiptAsync(ctx, accountID, receipt)
	return nil
}

// sendReceiptAsync dispatches the receipt email without blocking the caller.
// Failures are swallowed and logged.
func (s *service) sendReceiptAsync(ctx context.Context, accountID uuid.UUID, receipt mailer.PaymentReceipt) {
	if s.mailer == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		user, err := s.users.FindByID(bg, accountID)
		if err != nil {
			s.logger.Warn(s.logger.WithUserID(bg, accountID.String()), "receipt lookup failed")
			return
		}
		if user.Email == "" {
			return
		}
		if err := s.mailer.SendPaymentReceipt(bg, user.Email, user.FullName, receipt); err != nil {
			s.logger.Error(s.logger.WithUserID(bg, accountID.String()), "payment receipt send failed", err)
		}
	}()
}

// majorToMinor converts rupees to paise, rounding half up.
func majorToMinor(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// minorToMajor converts paise to rupees with two-decimal rounding.
func minorToMajor(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).Round(2)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
