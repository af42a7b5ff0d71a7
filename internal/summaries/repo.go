package summaries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brieflyhq/briefly-backend/pkg/db/models"
)

// Repository is the gorm-backed store for summaries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, summary *models.Summary) error {
	return r.db.WithContext(ctx).Create(summary).Error
}

// ListByUser returns the newest summaries first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error) {
	var out []models.Summary
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID is owner-scoped; another user's summary reads as not found.
func (r *Repository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Summary, error) {
	var summary models.Summary
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Delete removes an owned summary and reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Summary{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Recent returns the latest summaries for a user, or across all users when
// userID is uuid.Nil.
func (r *Repository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error) {
	q := r.db.WithContext(ctx).Model(&models.Summary{})
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.Summary
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
