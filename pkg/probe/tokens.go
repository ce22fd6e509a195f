package probe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// charsPerToken approximates English-text token density for the local
// fallback counter, used only when a backend's generate response omits
// eval_count.
const charsPerToken = 4

// maxStorageChars bounds how much of a benchmark's generated text is kept
// on the AIModelPerformance row. Storage hygiene, not inspection — a
// pathological or misconfigured model can't bloat the table.
const maxStorageChars = 8000 * charsPerToken

// EstimateTokens returns an approximate token count for text, used as the
// output_tokens fallback when the upstream generate response has no
// eval_count. Intentionally approximate — exact counting would need a
// real tokenizer per model family, which no single library here covers
// for arbitrary Ollama-hosted models.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// truncateOutput cuts text to maxStorageChars at the last newline before
// the limit, so indented JSON/log-shaped output isn't split mid-line.
func truncateOutput(text string) string {
	if len(text) <= maxStorageChars {
		return text
	}
	cut := maxStorageChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]
	if idx := strings.LastIndex(truncated, "\n"); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + fmt.Sprintf("\n\n[TRUNCATED: original size %d bytes, limit %d]", len(text), maxStorageChars)
}
