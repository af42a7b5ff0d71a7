package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brieflyhq/briefly-backend/internal/users"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/razorpay"
)

type stubGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	lastAmount    int64
	lastNotes     map[string]interface{}
	order         *razorpay.Order
	err           error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinor int64, receipt string, notes map[string]interface{}) (*razorpay.Order, error) {
	g.lastAmount = amountMinor
	g.lastNotes = notes
	if g.err != nil {
		return nil, g.err
	}
	if g.order != nil {
		return g.order, nil
	}
	return &razorpay.Order{ID: "order_test", Amount: amountMinor, Currency: "INR", Status: "created"}, nil
}

func (g *stubGateway) KeyID() string         { return g.keyID }
func (g *stubGateway) KeySecret() string     { return g.keySecret }
func (g *stubGateway) WebhookSecret() string { return g.webhookSecret }

type stubUserStore struct {
	mu          sync.Mutex
	user        *models.User
	activations []users.ActivateSubscriptionDTO
	activateErr error
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.user.ID != id {
		return nil, fmt.Errorf("user not found")
	}
	return s.user, nil
}

func (s *stubUserStore) ActivateSubscription(ctx context.Context, id uuid.UUID, dto users.ActivateSubscriptionDTO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activateErr != nil {
		return s.activateErr
	}
	s.activations = append(s.activations, dto)
	if s.user != nil && s.user.ID == id {
		s.user.IsSubscriber = true
		s.user.Plan = dto.Plan
		s.user.PlanActivatedAt = &dto.PlanActivatedAt
		s.user.PlanPeriod = dto.PlanPeriod
		s.user.LastPayment = models.LastPayment{
			OrderID:   dto.OrderID,
			PaymentID: dto.PaymentID,
			Amount:    dto.Amount,
			PaidAt:    dto.PaidAt,
		}
	}
	return nil
}

func (s *stubUserStore) lastActivation(t *testing.T) users.ActivateSubscriptionDTO {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.activations) == 0 {
		t.Fatal("expected at least one activation")
	}
	return s.activations[len(s.activations)-1]
}

func (s *stubUserStore) activationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activations)
}

func buildService(t *testing.T, gateway *stubGateway, store *stubUserStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Gateway:  gateway,
		UserRepo: store,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateOrderConvertsToMinorUnits(t *testing.T) {
	gateway := &stubGateway{keyID: "rzp_test_key", keySecret: "secret"}
	store := &stubUserStore{}
	svc := buildService(t, gateway, store)
	accountID := uuid.New()

	resp, err := svc.CreateOrder(context.Background(), accountID, CreateOrderRequest{
		PlanID:   "pro",
		Amount:   499,
		PlanName: "Pro",
		Period:   "monthly",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if gateway.lastAmount != 49900 {
		t.Fatalf("expected 49900 paise, got %d", gateway.lastAmount)
	}
	if resp.Key != "rzp_test_key" {
		t.Fatalf("expected gateway key id, got %q", resp.Key)
	}
	if got := gateway.lastNotes["accountId"]; got != accountID.String() {
		t.Fatalf("expected accountId note, got %v", got)
	}
	if got := gateway.lastNotes["planId"]; got != "pro" {
		t.Fatalf("expected planId note, got %v", got)
	}
	if got := gateway.lastNotes["period"]; got != "monthly" {
		t.Fatalf("expected period note, got %v", got)
	}
}

func TestCreateOrderRoundsHalfUp(t *testing.T) {
	gateway := &stubGateway{keyID: "k", keySecret: "s"}
	svc := buildService(t, gateway, &stubUserStore{})

	cases := []struct {
		amount float64
		want   int64
	}{
		{499, 49900},
		{499.99, 49999},
		{0.005, 1},
		{1.005, 101},
		{123.456, 12346},
	}
	for _, tc := range cases {
		_, err := svc.CreateOrder(context.Background(), uuid.New(), CreateOrderRequest{PlanID: "p", Amount: tc.amount})
		if err != nil {
			t.Fatalf("CreateOrder(%v): %v", tc.amount, err)
		}
		if gateway.lastAmount != tc.want {
			t.Errorf("amount %v: expected %d paise, got %d", tc.amount, tc.want, gateway.lastAmount)
		}
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := buildService(t, &stubGateway{keyID: "k", keySecret: "s"}, &stubUserStore{})
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, uuid.Nil, CreateOrderRequest{PlanID: "pro", Amount: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized without account, got %v", err)
	}

	_, err = svc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{Amount: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without plan, got %v", err)
	}

	for _, amount := range []float64{0, -5} {
		_, err = svc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{PlanID: "pro", Amount: amount})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for amount %v, got %v", amount, err)
		}
	}
}

func TestVerifyPaymentActivatesEntitlement(t *testing.T) {
	gateway := &stubGateway{keyID: "k", keySecret: "verify-secret"}
	user := &models.User{ID: uuid.New(), Email: "reader@example.com", FullName: "Reader"}
	store := &stubUserStore{user: user}
	svc := buildService(t, gateway, store)

	sig := hexHMAC("verify-secret", []byte("order_1|pay_1"))
	paise := int64(49900)
	err := svc.VerifyPayment(context.Background(), user.ID, VerifyRequest{
		RazorpayPaymentID: "pay_1",
		RazorpayOrderID:   "order_1",
		RazorpaySignature: sig,
		PlanID:            "pro",
		PlanName:          "Pro",
		Period:            "monthly",
		AmountPaise:       &paise,
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	act := store.lastActivation(t)
	if act.Plan != "pro" {
		t.Fatalf("expected plan pro, got %q", act.Plan)
	}
	if act.PaymentID == nil || *act.PaymentID != "pay_1" {
		t.Fatal("payment id not recorded")
	}
	if act.Amount == nil || !act.Amount.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("expected 499.00 recorded, got %v", act.Amount)
	}
	if !user.IsSubscriber {
		t.Fatal("expected subscriber flag set")
	}
}

func TestVerifyPaymentWithoutAmountStillActivates(t *testing.T) {
	gateway := &stubGateway{keyID: "k", keySecret: "verify-secret"}
	user := &models.User{ID: uuid.New()}
	store := &stubUserStore{user: user}
	svc := buildService(t, gateway, store)

	sig := hexHMAC("verify-secret", []byte("order_2|pay_2"))
	err := svc.VerifyPayment(context.Background(), user.ID, VerifyRequest{
		RazorpayPaymentID: "pay_2",
		RazorpayOrderID:   "order_2",
		RazorpaySignature: sig,
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	act := store.lastActivation(t)
	if act.Amount != nil {
		t.Fatalf("expected amount unset, got %v", act.Amount)
	}
	if act.Plan != "paid" {
		t.Fatalf("expected plan fallback 'paid', got %q", act.Plan)
	}
	if act.PlanPeriod == nil || *act.PlanPeriod != "one-time" {
		t.Fatal("expected period fallback one-time")
	}
	if !user.IsSubscriber {
		t.Fatal("expected subscriber flag set without amount")
	}
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	gateway := &stubGateway{keyID: "k", keySecret: "verify-secret"}
	store := &stubUserStore{user: &models.User{ID: uuid.New()}}
	svc := buildService(t, gateway, store)

	sig := hexHMAC("wrong-secret", []byte("order_1|pay_1"))
	err := svc.VerifyPayment(context.Background(), store.user.ID, VerifyRequest{
		RazorpayPaymentID: "pay_1",
		RazorpayOrderID:   "order_1",
		RazorpaySignature: sig,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("expected signature error, got %v", err)
	}
	if store.activationCount() != 0 {
		t.Fatal("no mutation allowed on signature failure")
	}
}

func TestVerifyPaymentMissingIdentifiers(t *testing.T) {
	svc := buildService(t, &stubGateway{keySecret: "s"}, &stubUserStore{})
	err := svc.VerifyPayment(context.Background(), uuid.New(), VerifyRequest{RazorpayOrderID: "order_1"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func webhookBody(t *testing.T, event string, payload WebhookPayload) []byte {
	t.Helper()
	body, err := json.Marshal(WebhookEvent{Event: event, Payload: payload})
	if err != nil {
		t.Fatalf("marshal webhook: %v", err)
	}
	return body
}

func TestProcessWebhookActivatesFromWrappedEntities(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	user := &models.User{ID: uuid.New(), Email: "reader@example.com"}
	store := &stubUserStore{user: user}
	svc := buildService(t, gateway, store)

	paise := int64(49900)
	body := webhookBody(t, "payment.captured", WebhookPayload{
		Payment: &EntityWrapper{Entity: &WebhookEntity{ID: "pay_9", Amount: &paise, Currency: "INR"}},
		Order: &EntityWrapper{Entity: &WebhookEntity{
			ID: "order_9",
			Notes: map[string]string{
				"accountId": user.ID.String(),
				"planId":    "pro",
				"planName":  "Pro",
				"period":    "monthly",
			},
		}},
	})
	sig := hexHMAC("wh-secret", body)

	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}

	act := store.lastActivation(t)
	if act.OrderID == nil || *act.OrderID != "order_9" {
		t.Fatal("order id not sourced from order entity")
	}
	if act.PaymentID == nil || *act.PaymentID != "pay_9" {
		t.Fatal("payment id not sourced from payment entity")
	}
	if act.Amount == nil || !act.Amount.Equal(decimal.NewFromInt(499)) {
		t.Fatalf("expected payment amount preferred, got %v", act.Amount)
	}
	if act.Plan != "pro" {
		t.Fatalf("expected plan pro, got %q", act.Plan)
	}
}

func TestProcessWebhookFlatEntities(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	user := &models.User{ID: uuid.New()}
	store := &stubUserStore{user: user}
	svc := buildService(t, gateway, store)

	orderPaise := int64(10000)
	body := webhookBody(t, "order.paid", WebhookPayload{
		PaymentEntity: &WebhookEntity{ID: "pay_flat", Notes: map[string]string{
			"accountId": user.ID.String(),
			"planName":  "Basic",
		}},
		OrderEntity: &WebhookEntity{ID: "order_flat", Amount: &orderPaise},
	})
	sig := hexHMAC("wh-secret", body)

	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}

	act := store.lastActivation(t)
	if act.PaymentID == nil || *act.PaymentID != "pay_flat" {
		t.Fatal("flat payment entity not normalized")
	}
	// Payment carries no amount, so the order amount is used.
	if act.Amount == nil || !act.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected order amount fallback, got %v", act.Amount)
	}
	if act.Plan != "Basic" {
		t.Fatalf("expected planName fallback, got %q", act.Plan)
	}
}

func TestProcessWebhookIdempotentReplay(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	user := &models.User{ID: uuid.New()}
	store := &stubUserStore{user: user}
	svc := buildService(t, gateway, store)

	paise := int64(49900)
	body := webhookBody(t, "payment.captured", WebhookPayload{
		Payment: &EntityWrapper{Entity: &WebhookEntity{ID: "pay_dup", Amount: &paise, Notes: map[string]string{
			"accountId": user.ID.String(),
			"planId":    "pro",
		}}},
	})
	sig := hexHMAC("wh-secret", body)

	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	first := *user
	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if !user.IsSubscriber {
		t.Fatal("subscriber flag lost on replay")
	}
	if *user.LastPayment.PaymentID != *first.LastPayment.PaymentID {
		t.Fatal("replay changed payment id")
	}
	if !user.LastPayment.Amount.Equal(*first.LastPayment.Amount) {
		t.Fatal("replay changed amount")
	}
	if store.activationCount() != 2 {
		t.Fatalf("expected both deliveries applied as overwrites, got %d", store.activationCount())
	}
}

func TestProcessWebhookIgnoresUnknownEvent(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	store := &stubUserStore{}
	svc := buildService(t, gateway, store)

	body := []byte(`{"event":"refund.created","payload":{}}`)
	sig := hexHMAC("wh-secret", body)

	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("unknown event must be acknowledged: %v", err)
	}
	if store.activationCount() != 0 {
		t.Fatal("unknown event must not mutate")
	}
}

func TestProcessWebhookSkipsInvalidAccount(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	store := &stubUserStore{}
	svc := buildService(t, gateway, store)

	for _, accountID := range []string{"", "not-a-uuid"} {
		body := webhookBody(t, "payment.captured", WebhookPayload{
			Payment: &EntityWrapper{Entity: &WebhookEntity{ID: "pay_x", Notes: map[string]string{
				"accountId": accountID,
			}}},
		})
		sig := hexHMAC("wh-secret", body)
		if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
			t.Fatalf("unattributable event must be acknowledged: %v", err)
		}
	}
	if store.activationCount() != 0 {
		t.Fatal("unattributable events must not mutate")
	}
}

func TestProcessWebhookFailsClosedWithoutSecret(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: ""}
	store := &stubUserStore{}
	svc := buildService(t, gateway, store)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := hexHMAC("", body)

	err := svc.ProcessWebhook(context.Background(), body, sig)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized without secret, got %v", err)
	}
	if store.activationCount() != 0 {
		t.Fatal("no mutation allowed without secret")
	}
}

func TestProcessWebhookRejectsBadSignature(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	store := &stubUserStore{}
	svc := buildService(t, gateway, store)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	sig := hexHMAC("other-secret", body)

	err := svc.ProcessWebhook(context.Background(), body, sig)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestProcessWebhookRejectsBadJSON(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	svc := buildService(t, gateway, &stubUserStore{})

	body := []byte(`{not json`)
	sig := hexHMAC("wh-secret", body)

	err := svc.ProcessWebhook(context.Background(), body, sig)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessWebhookAcknowledgesPersistenceFailure(t *testing.T) {
	gateway := &stubGateway{keySecret: "s", webhookSecret: "wh-secret"}
	store := &stubUserStore{activateErr: fmt.Errorf("db down")}
	svc := buildService(t, gateway, store)

	body := webhookBody(t, "payment.captured", WebhookPayload{
		Payment: &EntityWrapper{Entity: &WebhookEntity{ID: "pay_x", Notes: map[string]string{
			"accountId": uuid.NewString(),
		}}},
	})
	sig := hexHMAC("wh-secret", body)

	if err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("persistence failure must still acknowledge: %v", err)
	}
}
