package summarizer

import "fmt"

// buildPrompt returns the instruction block for a summary mode. Every prompt
// pins the model to the source text; "Output only the summary" keeps the
// response free of preamble the normalizers would otherwise have to strip.
func buildPrompt(text, mode string) string {
	switch mode {
	case ModeConcise:
		return "You are a helpful, factual summarizer. Produce a concise summary in 2-3 short sentences. Do not invent facts. Output only the summary.\n\nText:\n" + text + "\n"
	case ModeDetailed:
		return "You are a careful summarizer. Produce a detailed summary that includes the main points, sub-points, and a short conclusion. Use 5-8 sentences or short paragraphs. Do not invent facts. Output only the summary.\n\nText:\n" + text + "\n"
	case ModeBullet:
		return "You are a concise summarizer. Produce a short list of important bullet points (4-8 items) that capture the key facts or takeaways from the text. Start each line with a hyphen. Do not invent facts. Output only the bullet list.\n\nText:\n" + text + "\n"
	case ModeTechnical:
		return "You are an expert technical summarizer. Produce a technical summary focusing on mechanisms, assumptions, and key metrics where present. Use clear technical language and short paragraphs (3-6 sentences). Do not invent facts. Output only the technical summary.\n\nText:\n" + text + "\n"
	default:
		return fmt.Sprintf("Summarize the following text in %s style. Be concise and factual.\n\nText:\n%s\n", mode, text)
	}
}
