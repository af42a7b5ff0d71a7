package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brieflyhq/briefly-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// ActivateSubscription overwrites the entitlement columns for the user.
// Callbacks can arrive more than once per payment; the last write wins,
// but a callback that omits a payment reference must not erase one a
// previous callback recorded.
func (r *Repository) ActivateSubscription(ctx context.Context, id uuid.UUID, dto ActivateSubscriptionDTO) error {
	columns := map[string]any{
		"is_subscriber":        true,
		"plan":                 dto.Plan,
		"plan_activated_at":    dto.PlanActivatedAt,
		"plan_period":          dto.PlanPeriod,
		"last_payment_paid_at": dto.PaidAt,
		"updated_at":           time.Now().UTC(),
	}
	if dto.OrderID != nil {
		columns["last_payment_order_id"] = *dto.OrderID
	}
	if dto.PaymentID != nil {
		columns["last_payment_payment_id"] = *dto.PaymentID
	}
	if dto.Amount != nil {
		columns["last_payment_amount"] = *dto.Amount
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

// UpdateProfile applies the provided edits to the user row.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) error {
	columns := map[string]any{}
	if dto.FullName != nil {
		columns["full_name"] = *dto.FullName
	}
	if dto.Email != nil {
		columns["email"] = *dto.Email
	}
	if len(columns) == 0 {
		return nil
	}
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

// EmailTakenByOther reports whether another account already owns the email.
func (r *Repository) EmailTakenByOther(ctx context.Context, id uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", email, id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResetQuotaIfExpired zeroes the free-summary counter once the rolling window
// has elapsed. Returns true when a reset happened.
func (r *Repository) ResetQuotaIfExpired(ctx context.Context, id uuid.UUID, window time.Duration, now time.Time) (bool, error) {
	cutoff := now.Add(-window)
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND (summary_reset_at IS NULL OR summary_reset_at <= ?)", id, cutoff).
		UpdateColumns(map[string]any{
			"summary_count":    0,
			"summary_reset_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConsumeFreeSummary increments the usage counter only while it is below max.
// The conditional update keeps concurrent requests from exceeding the quota.
func (r *Repository) ConsumeFreeSummary(ctx context.Context, id uuid.UUID, max int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND summary_count < ?", id, max).
		UpdateColumn("summary_count", gorm.Expr("summary_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
