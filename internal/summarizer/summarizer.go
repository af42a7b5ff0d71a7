// Package summarizer produces summaries of free-form text, either through
// the Gemini API or through a deterministic extractive fallback that needs
// no network at all.
package summarizer

import "context"

// Well-known summary modes. Unknown modes are still accepted; they get a
// generic prompt and a middle-of-the-road extractive cut.
const (
	ModeConcise   = "concise"
	ModeDetailed  = "detailed"
	ModeBullet    = "bullet"
	ModeTechnical = "technical"
)

// MaxInputChars bounds how much text a single request may feed the model.
// Longer input is truncated, not rejected.
const MaxInputChars = 50000

// Generative is the model-backed summarizer. Implementations return the
// normalized summary text; any error signals the caller to fall back to
// Extractive.
type Generative interface {
	Summarize(ctx context.Context, text, mode string) (string, error)
	Model() string
}

// Truncate clips text to MaxInputChars.
func Truncate(text string) string {
	if len(text) > MaxInputChars {
		return text[:MaxInputChars]
	}
	return text
}
