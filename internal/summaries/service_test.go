package summaries

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brieflyhq/briefly-backend/internal/summarizer"
	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db/models"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

type memoryStore struct {
	created   []*models.Summary
	createErr error
}

func (m *memoryStore) Create(ctx context.Context, summary *models.Summary) error {
	if m.createErr != nil {
		return m.createErr
	}
	summary.ID = uuid.New()
	m.created = append(m.created, summary)
	return nil
}

func (m *memoryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error) {
	var out []models.Summary
	for _, s := range m.created {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Summary, error) {
	for _, s := range m.created {
		if s.ID == id && s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryStore) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	for i, s := range m.created {
		if s.ID == id && s.UserID == userID {
			m.created = append(m.created[:i], m.created[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Summary, error) {
	if userID == uuid.Nil {
		var out []models.Summary
		for _, s := range m.created {
			out = append(out, *s)
		}
		return out, nil
	}
	return m.ListByUser(ctx, userID, limit)
}

type quotaUser struct {
	user       *models.User
	count      int
	resetCalls int
}

func (q *quotaUser) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if q.user == nil || q.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return q.user, nil
}

func (q *quotaUser) ResetQuotaIfExpired(ctx context.Context, id uuid.UUID, window time.Duration, now time.Time) (bool, error) {
	q.resetCalls++
	return false, nil
}

func (q *quotaUser) ConsumeFreeSummary(ctx context.Context, id uuid.UUID, max int) (bool, error) {
	if q.count >= max {
		return false, nil
	}
	q.count++
	return true, nil
}

type fixedGenerative struct {
	out  string
	err  error
	name string
}

func (f *fixedGenerative) Summarize(ctx context.Context, text, mode string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func (f *fixedGenerative) Model() string { return f.name }

func buildService(t *testing.T, store *memoryStore, users *quotaUser, gen summarizer.Generative) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:      store,
		Users:      users,
		Generative: gen,
		Quota:      config.QuotaConfig{FreeSummaries: 2, Window: 720 * time.Hour},
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func freeUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "reader@example.com", IsActive: true, Plan: "free"}
}

func subscriberUser() *models.User {
	u := freeUser()
	u.IsSubscriber = true
	u.Plan = "pro"
	return u
}

func TestSummarizeUsesModelOutput(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	gen := &fixedGenerative{out: "Model summary.", name: "gemini-2.0-flash"}
	svc := buildService(t, store, users, gen)

	res, err := svc.Summarize(context.Background(), users.user.ID, SummarizeRequest{Text: "Some long text."})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Summary != "Model summary." {
		t.Fatalf("unexpected summary %q", res.Summary)
	}
	if res.Source != SourceModel {
		t.Fatalf("expected model source, got %q", res.Source)
	}
	if res.Model == nil || *res.Model != "gemini-2.0-flash" {
		t.Fatal("model name not recorded")
	}
	if res.Mode != summarizer.ModeConcise {
		t.Fatalf("empty mode must default to concise, got %q", res.Mode)
	}
	if res.ID == nil {
		t.Fatal("expected persisted id")
	}
	if len(store.created) != 1 || store.created[0].Title != "Model summary." {
		t.Fatal("summary not persisted with title")
	}
}

func TestSummarizeFallsBackOnModelFailure(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	gen := &fixedGenerative{err: errors.New("upstream down"), name: "gemini-2.0-flash"}
	svc := buildService(t, store, users, gen)

	res, err := svc.Summarize(context.Background(), users.user.ID, SummarizeRequest{
		Text: "First fact. Second fact. Third fact.",
		Mode: summarizer.ModeConcise,
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Source != SourceExtractive {
		t.Fatalf("expected extractive fallback, got %q", res.Source)
	}
	if res.Model != nil {
		t.Fatal("fallback must not claim a model")
	}
	if res.Summary != "First fact. Second fact." {
		t.Fatalf("unexpected fallback summary %q", res.Summary)
	}
}

func TestSummarizeWithoutModelConfigured(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, store, users, nil)

	res, err := svc.Summarize(context.Background(), users.user.ID, SummarizeRequest{Text: "Only fact."})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Source != SourceExtractive {
		t.Fatalf("expected extractive source, got %q", res.Source)
	}
}

func TestSummarizeQuota(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, store, users, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "Fact."}); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	_, err := svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "Fact."})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota error, got %v", err)
	}
	if users.resetCalls != 3 {
		t.Fatalf("window reset must run before each consume, got %d", users.resetCalls)
	}
}

func TestSummarizeSubscriberBypassesQuota(t *testing.T) {
	store := &memoryStore{}
	user := freeUser()
	user.IsSubscriber = true
	users := &quotaUser{user: user, count: 99}
	svc := buildService(t, store, users, nil)

	for i := 0; i < 5; i++ {
		if _, err := svc.Summarize(context.Background(), user.ID, SummarizeRequest{Text: "Fact."}); err != nil {
			t.Fatalf("subscriber request %d: %v", i+1, err)
		}
	}
	if users.resetCalls != 0 {
		t.Fatal("subscribers must not touch the quota window")
	}
}

func TestSummarizeValidation(t *testing.T) {
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, &memoryStore{}, users, nil)
	ctx := context.Background()

	_, err := svc.Summarize(ctx, uuid.Nil, SummarizeRequest{Text: "x"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "   "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Summarize(ctx, uuid.New(), SummarizeRequest{Text: "x"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown account, got %v", err)
	}
}

func TestSummarizeTruncatesInput(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, store, users, nil)

	long := strings.Repeat("a", summarizer.MaxInputChars+500)
	if _, err := svc.Summarize(context.Background(), users.user.ID, SummarizeRequest{Text: long}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got := len(store.created[0].OriginalText); got != summarizer.MaxInputChars {
		t.Fatalf("expected original text truncated to %d, got %d", summarizer.MaxInputChars, got)
	}
}

func TestSummarizeSurvivesPersistenceFailure(t *testing.T) {
	store := &memoryStore{createErr: errors.New("db down")}
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, store, users, nil)

	res, err := svc.Summarize(context.Background(), users.user.ID, SummarizeRequest{Text: "Fact."})
	if err != nil {
		t.Fatalf("persistence failure must not fail the request: %v", err)
	}
	if res.ID != nil {
		t.Fatal("unpersisted result must carry nil id")
	}
	if res.Summary == "" {
		t.Fatal("summary must still be returned")
	}
}

func TestGetAndDelete(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: freeUser()}
	svc := buildService(t, store, users, nil)
	ctx := context.Background()

	res, err := svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "Fact one. Fact two."})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	detail, err := svc.Get(ctx, users.user.ID, *res.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.OriginalText != "Fact one. Fact two." {
		t.Fatalf("unexpected original text %q", detail.OriginalText)
	}

	if _, err := svc.Get(ctx, uuid.New(), *res.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign account, got %v", err)
	}

	if err := svc.Delete(ctx, users.user.ID, *res.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, users.user.ID, *res.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestUsageCountsWordsOverHistory(t *testing.T) {
	store := &memoryStore{}
	users := &quotaUser{user: subscriberUser()}
	svc := buildService(t, store, users, nil)
	ctx := context.Background()

	if _, err := svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "One two three."}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if _, err := svc.Summarize(ctx, users.user.ID, SummarizeRequest{Text: "Four five six seven."}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	count, words, err := svc.Usage(ctx, users.user.ID)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 summaries, got %d", count)
	}
	if words != 7 {
		t.Fatalf("expected 7 words, got %d", words)
	}

	if _, _, err := svc.Usage(ctx, uuid.Nil); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for anonymous usage, got %v", err)
	}
}
