package summarizer

import (
	"regexp"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?`)
	bulletPrefix    = regexp.MustCompile(`^(-|\*|•)\s*`)
	bulletLine      = regexp.MustCompile(`(?m)^[-•*]\s+`)
)

// splitSentences cuts text on sentence terminators, keeping the terminator
// with its sentence. Text without any terminator comes back as one sentence.
func splitSentences(text string) []string {
	parts := sentencePattern.FindAllString(text, -1)
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// Extractive builds a summary by selecting leading sentences, the number
// depending on the mode. It is the offline fallback when the model is
// unavailable or misbehaving.
func Extractive(text, mode string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	sentences := splitSentences(text)

	take := func(n int) []string {
		if n > len(sentences) {
			n = len(sentences)
		}
		out := make([]string, 0, n)
		for _, s := range sentences[:n] {
			out = append(out, strings.TrimSpace(s))
		}
		return out
	}

	switch mode {
	case ModeConcise:
		return strings.TrimSpace(strings.Join(take(2), " "))
	case ModeDetailed:
		return strings.TrimSpace(strings.Join(take(6), " "))
	case ModeBullet:
		lines := take(6)
		for i, l := range lines {
			lines[i] = "- " + l
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	case ModeTechnical:
		return strings.TrimSpace(strings.Join(take(4), " "))
	default:
		return strings.TrimSpace(strings.Join(take(3), " "))
	}
}

// normalizeBullets forces model output for bullet mode into "- item" lines.
// Output that arrived as prose is re-cut into sentences first.
func normalizeBullets(out string) string {
	if !bulletLine.MatchString(out) && !strings.Contains(out, "\n-") && !strings.Contains(out, "\n•") {
		sentences := splitSentences(out)
		n := len(sentences)
		if n > 6 {
			n = 6
		}
		lines := make([]string, 0, n)
		for _, s := range sentences[:n] {
			lines = append(lines, "- "+strings.TrimSpace(s))
		}
		return strings.Join(lines, "\n")
	}
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, bulletPrefix.ReplaceAllString(l, "- "))
	}
	return strings.Join(lines, "\n")
}

// clampConcise keeps at most three sentences of model output.
func clampConcise(out string) string {
	sentences := splitSentences(out)
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return strings.TrimSpace(strings.Join(sentences, " "))
}
