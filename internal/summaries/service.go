package summaries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brieflyhq/briefly-backend/internal/summarizer"
	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/metrics"
)

const (
	historyLimit = 200
	recentLimit  = 10
	titleMaxLen  = 200
)

// Service generates summaries, enforces the free-tier quota, and manages
// per-user history.
type Service interface {
	Summarize(ctx context.Context, userID uuid.UUID, req SummarizeRequest) (*SummarizeResult, error)
	History(ctx context.Context, userID uuid.UUID) ([]SummaryDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*SummaryDetailDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Recent(ctx context.Context, userID uuid.UUID) ([]SummaryDTO, error)
	Usage(ctx context.Context, userID uuid.UUID) (int64, int64, error)
}

type summaryStore interface {
	Create(ctx context.Context, summary *models.Summary) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Summary, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error)
}

type quotaStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ResetQuotaIfExpired(ctx context.Context, id uuid.UUID, window time.Duration, now time.Time) (bool, error)
	ConsumeFreeSummary(ctx context.Context, id uuid.UUID, max int) (bool, error)
}

type ServiceParams struct {
	Store      summaryStore
	Users      quotaStore
	Generative summarizer.Generative // nil runs extractive-only
	Quota      config.QuotaConfig
	Logger     *logger.Logger
	Metrics    *metrics.SummaryMetrics
}

type service struct {
	store      summaryStore
	users      quotaStore
	generative summarizer.Generative
	quota      config.QuotaConfig
	logger     *logger.Logger
	metrics    *metrics.SummaryMetrics
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("summary store is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		store:      params.Store,
		users:      params.Users,
		generative: params.Generative,
		quota:      params.Quota,
		logger:     params.Logger,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

// Summarize runs the quota gate, produces a summary (model first, extractive
// on failure), and records it in the caller's history. Persistence failure
// does not lose the summary: the result comes back with a nil ID.
func (s *service) Summarize(ctx context.Context, userID uuid.UUID, req SummarizeRequest) (*SummarizeResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	if !user.IsSubscriber {
		if err := s.consumeQuota(ctx, userID); err != nil {
			return nil, err
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = summarizer.ModeConcise
	}
	safeText := summarizer.Truncate(req.Text)

	start := s.now()
	summaryText, source, modelName := s.generate(ctx, safeText, mode)
	duration := s.now().Sub(start)

	s.metrics.IncGenerated(mode, source)
	s.metrics.ObserveDuration(source, duration)

	record := &models.Summary{
		UserID:       userID,
		Title:        truncateTitle(summaryText),
		SummaryText:  summaryText,
		OriginalText: safeText,
		Mode:         mode,
		Source:       source,
		Model:        modelName,
		DurationMS:   duration.Milliseconds(),
	}

	result := &SummarizeResult{
		Summary:    summaryText,
		Mode:       mode,
		Source:     source,
		Model:      modelName,
		DurationMS: duration.Milliseconds(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		// The summary was already produced; history is best-effort.
		s.logger.Error(s.logger.WithUserID(ctx, userID.String()), "persisting summary failed", err)
		return result, nil
	}
	result.ID = &record.ID
	return result, nil
}

// consumeQuota applies the rolling free-tier window and takes one slot.
func (s *service) consumeQuota(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.ResetQuotaIfExpired(ctx, userID, s.quota.Window, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resetting quota window")
	}
	allowed, err := s.users.ConsumeFreeSummary(ctx, userID, s.quota.FreeSummaries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming quota")
	}
	if !allowed {
		s.metrics.IncQuotaRejection()
		return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "free summary limit reached, upgrade to continue").
			WithDetails(map[string]any{"limit": s.quota.FreeSummaries})
	}
	return nil
}

// generate tries the model and falls back to the extractive summarizer on
// any model failure, so a degraded upstream never breaks the endpoint.
func (s *service) generate(ctx context.Context, text, mode string) (summaryText, source string, modelName *string) {
	if s.generative != nil {
		out, err := s.generative.Summarize(ctx, text, mode)
		if err == nil {
			name := s.generative.Model()
			return out, SourceModel, &name
		}
		s.logger.Warn(s.logger.WithField(ctx, "mode", mode), "model summarization failed; using extractive fallback")
	}
	return summarizer.Extractive(text, mode), SourceExtractive, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]SummaryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	items, err := s.store.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing summaries")
	}
	return toDTOs(items), nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*SummaryDetailDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	item, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "summary not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading summary")
	}
	detail := detailFromModel(item)
	return &detail, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	deleted, err := s.store.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting summary")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "summary not found")
	}
	return nil
}

// Recent serves the landing-page feed: the caller's latest summaries when
// authenticated, the sitewide latest otherwise.
func (s *service) Recent(ctx context.Context, userID uuid.UUID) ([]SummaryDTO, error) {
	items, err := s.store.Recent(ctx, userID, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing recent summaries")
	}
	return toDTOs(items), nil
}

// Usage reports how many summaries the user has on record and how many words
// of source text they cover. Counted over the same window history serves.
func (s *service) Usage(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	if userID == uuid.Nil {
		return 0, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	items, err := s.store.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading usage")
	}

	var words int64
	for i := range items {
		text := items[i].OriginalText
		if strings.TrimSpace(text) == "" {
			text = items[i].SummaryText
		}
		words += int64(len(strings.Fields(text)))
	}
	return int64(len(items)), words, nil
}

func toDTOs(items []models.Summary) []SummaryDTO {
	out := make([]SummaryDTO, 0, len(items))
	for i := range items {
		out = append(out, fromModel(&items[i]))
	}
	return out
}

func truncateTitle(text string) string {
	if len(text) > titleMaxLen {
		return text[:titleMaxLen]
	}
	return text
}
