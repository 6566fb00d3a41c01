package llm

import (
	"strings"
	"unicode/utf8"
)

// BuildSystemPrompt composes the system message. Phrasing of the source
// documents drifts across years and issuers, so the instructions describe the
// fields, not a layout.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a parser for Texas housing tax credit (TDHCA) application documents.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Every key in the schema MUST be present. Use null for any field not clearly present in the text; never guess.",
		"'application_number' is the 5-digit TDHCA application number.",
		"'county' is the Texas county of the development site. It is a name like 'Harris', never a ZIP code or the word 'County'.",
		"'zip_code' is the site ZIP. Monetary fields are plain decimal strings with no currency symbol or thousands separators.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"'total_score' is the application's self-score or total score in points.",
		"The text may contain OCR artifacts and column bleed; extract what is legible and null the rest.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt bounds the document text and labels it for the model. The
// excerpt bound is in bytes but the cut never splits a UTF-8 rune.
func BuildUserPrompt(docID, text string, excerptBytes int) string {
	if excerptBytes <= 0 {
		excerptBytes = 6000
	}
	if len(text) > excerptBytes {
		cut := excerptBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	var b strings.Builder
	b.WriteString("Document: ")
	b.WriteString(docID)
	b.WriteString("\n\nDocument text (excerpt):\n")
	b.WriteString(text)
	return b.String()
}
