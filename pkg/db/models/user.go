package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LastPayment captures the most recent successful charge against the
// account. Gateway callbacks overwrite it wholesale; later events win.
type LastPayment struct {
	OrderID   *string          `gorm:"column:order_id"`
	PaymentID *string          `gorm:"column:payment_id"`
	Amount    *decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	PaidAt    *time.Time       `gorm:"column:paid_at"`
}

// User represents the canonical identity and entitlement entity.
type User struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string      `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string      `gorm:"column:password_hash;not null"`
	FullName        string      `gorm:"column:full_name;not null"`
	IsActive        bool        `gorm:"column:is_active;not null;default:true"`
	IsSubscriber    bool        `gorm:"column:is_subscriber;not null;default:false"`
	Plan            string      `gorm:"column:plan;not null;default:'free'"`
	PlanActivatedAt *time.Time  `gorm:"column:plan_activated_at"`
	PlanPeriod      *string     `gorm:"column:plan_period"`
	LastPayment     LastPayment `gorm:"embedded;embeddedPrefix:last_payment_"`
	SummaryCount    int         `gorm:"column:summary_count;not null;default:0"`
	SummaryResetAt  *time.Time  `gorm:"column:summary_reset_at"`
	LastLoginAt     *time.Time  `gorm:"column:last_login_at"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
