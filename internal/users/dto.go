package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brieflyhq/briefly-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	IsActive        bool            `json:"is_active"`
	IsSubscriber    bool            `json:"is_subscriber"`
	Plan            string          `json:"plan"`
	PlanActivatedAt *time.Time      `json:"plan_activated_at,omitempty"`
	PlanPeriod      *string         `json:"plan_period,omitempty"`
	LastPayment     *LastPaymentDTO `json:"last_payment,omitempty"`
	LastLoginAt     *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LastPaymentDTO mirrors the embedded last-payment record.
type LastPaymentDTO struct {
	OrderID   *string          `json:"order_id,omitempty"`
	PaymentID *string          `json:"payment_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	PaidAt    *time.Time       `json:"paid_at,omitempty"`
}

// ProfileStatsDTO aggregates usage over the account's stored summaries.
type ProfileStatsDTO struct {
	SummariesCount  int64 `json:"summaries_count"`
	WordsSummarized int64 `json:"words_summarized"`
}

// ProfileQuotaDTO reports the remaining free-tier allowance. Left is nil for
// subscribers (unlimited).
type ProfileQuotaDTO struct {
	Left    *int       `json:"left,omitempty"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}

// ProfileOverviewDTO is the full profile-page payload.
type ProfileOverviewDTO struct {
	User  UserDTO         `json:"user"`
	Stats ProfileStatsDTO `json:"stats"`
	Quota ProfileQuotaDTO `json:"quota"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FullName     string
	IsActive     *bool
}

// ActivateSubscriptionDTO carries the entitlement written after a verified payment.
type ActivateSubscriptionDTO struct {
	Plan            string
	PlanActivatedAt time.Time
	PlanPeriod      *string
	OrderID         *string
	PaymentID       *string
	Amount          *decimal.Decimal
	PaidAt          *time.Time
}

// UpdateProfileDTO carries the fields a user may edit about themselves.
type UpdateProfileDTO struct {
	FullName *string
	Email    *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		IsActive:        u.IsActive,
		IsSubscriber:    u.IsSubscriber,
		Plan:            u.Plan,
		PlanActivatedAt: u.PlanActivatedAt,
		PlanPeriod:      u.PlanPeriod,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}

	lp := u.LastPayment
	if lp.OrderID != nil || lp.PaymentID != nil || lp.Amount != nil || lp.PaidAt != nil {
		dto.LastPayment = &LastPaymentDTO{
			OrderID:   lp.OrderID,
			PaymentID: lp.PaymentID,
			Amount:    lp.Amount,
			PaidAt:    lp.PaidAt,
		}
	}

	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FullName:     c.FullName,
		IsActive:     isActive,
		Plan:         "free",
	}
}
