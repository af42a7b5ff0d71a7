package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

const (
	maxAttempts    = 3
	initialBackoff = 300 * time.Millisecond
)

// generator is the raw prompt-in text-out surface of the model client,
// split out so tests can run the retry loop without the SDK.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Gemini summarizes through the Gemini API with bounded retries on
// transient upstream failures.
type Gemini struct {
	gen     generator
	model   string
	logger  *logger.Logger
	backoff time.Duration
}

// NewGemini dials the Gemini API. An empty API key is a configuration
// error; callers wanting a keyless deployment should not construct a
// Gemini at all and rely on the extractive path.
func NewGemini(ctx context.Context, apiKey, model string, log *logger.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{gen: &sdkGenerator{client: client, model: model}, model: model, logger: log}, nil
}

func (g *Gemini) Model() string { return g.model }

// Summarize prompts the model and normalizes its output for the requested
// mode. Transient upstream errors (429/502/503/504) are retried with
// exponential backoff; anything else fails immediately so the caller can
// fall back.
func (g *Gemini) Summarize(ctx context.Context, text, mode string) (string, error) {
	prompt := buildPrompt(text, mode)

	var lastErr error
	backoff := g.backoff
	if backoff <= 0 {
		backoff = initialBackoff
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := g.gen.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			if !isRetryable(err) {
				break
			}
			if g.logger != nil {
				g.logger.Warn(g.logger.WithField(ctx, "attempt", attempt), "transient model error; retrying")
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		switch mode {
		case ModeBullet:
			out = normalizeBullets(out)
		case ModeConcise:
			out = clampConcise(out)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			lastErr = errors.New("empty response from model")
			break
		}
		return out, nil
	}
	return "", lastErr
}

func isRetryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

type sdkGenerator struct {
	client *genai.Client
	model  string
}

func (s *sdkGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
