package summaries

import (
	"time"

	"github.com/google/uuid"

	"github.com/brieflyhq/briefly-backend/pkg/db/models"
)

// Summary source labels.
const (
	SourceModel      = "model"
	SourceExtractive = "extractive"
)

// SummarizeRequest is the inbound payload for a summarization call.
type SummarizeRequest struct {
	Text string `json:"text" validate:"required"`
	Mode string `json:"mode"`
}

// SummarizeResult reports the generated summary and how it was produced.
// ID is nil when persistence failed; the summary itself is still returned.
type SummarizeResult struct {
	ID         *uuid.UUID `json:"id"`
	Summary    string     `json:"summary"`
	Mode       string     `json:"mode"`
	Source     string     `json:"source"`
	Model      *string    `json:"model,omitempty"`
	DurationMS int64      `json:"durationMs"`
}

// SummaryDTO is the read shape for history listings.
type SummaryDTO struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Mode       string    `json:"mode"`
	Source     string    `json:"source"`
	Model      *string   `json:"model,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SummaryDetailDTO additionally carries the original text.
type SummaryDetailDTO struct {
	SummaryDTO
	OriginalText string `json:"originalText"`
}

func fromModel(s *models.Summary) SummaryDTO {
	return SummaryDTO{
		ID:         s.ID,
		Title:      s.Title,
		Summary:    s.SummaryText,
		Mode:       s.Mode,
		Source:     s.Source,
		Model:      s.Model,
		DurationMS: s.DurationMS,
		CreatedAt:  s.CreatedAt,
	}
}

func detailFromModel(s *models.Summary) SummaryDetailDTO {
	return SummaryDetailDTO{
		SummaryDTO:   fromModel(s),
		OriginalText: s.OriginalText,
	}
}
