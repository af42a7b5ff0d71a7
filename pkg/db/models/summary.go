package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary persists a generated summary alongside the source text.
type Summary struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;type:varchar(200);not null"`
	SummaryText  string    `gorm:"column:summary_text;type:text;not null"`
	OriginalText string    `gorm:"column:original_text;type:text;not null"`
	Mode         string    `gorm:"column:mode;not null;default:'concise'"`
	Source       string    `gorm:"column:source;not null;default:'model'"`
	Model        *string   `gorm:"column:model"`
	DurationMS   int64     `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
