package llm

import (
	"encoding/json"
	"strings"

	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/utils"
)

const noOutputReason = "No LLM output was returned."

// RecoverInterpretation turns raw model output into an interpretation. It
// never fails: markdown fences and surrounding prose are stripped, the
// outermost JSON object is isolated, and anything still unparseable yields
// a documented fallback record with the raw output preserved for debugging.
func RecoverInterpretation(raw string) *core.MailInterpretation {
	out := &core.MailInterpretation{
		MailType:       "unknown",
		RawModelOutput: raw,
	}

	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		out.ImportanceReason = noOutputReason
		return out
	}

	body, ok := isolateObject(cleaned)
	if !ok {
		out.ShortSummary = utils.TruncateText(utils.NormalizeWhitespace(cleaned), 200)
		out.ImportanceReason = "Model output contained no JSON object."
		return out
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		out.ShortSummary = utils.TruncateText(utils.NormalizeWhitespace(cleaned), 200)
		out.ImportanceReason = "Model output could not be parsed as JSON."
		return out
	}

	out.SenderName = stringField(fields, "senderName")
	if t := stringField(fields, "mailType"); t != "" {
		out.MailType = t
	}
	out.ShortSummary = stringField(fields, "shortSummary")
	out.IsImportant = boolField(fields, "isImportant")
	out.ImportanceReason = stringField(fields, "importanceReason")
	if out.ImportanceReason == "" {
		out.ImportanceReason = "Model gave no importance reasoning."
	}
	return out
}

// stripFences removes a ```json ... ``` (or plain ```) wrapper if present
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag line
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// isolateObject slices from the first '{' to the last '}' so prose before
// or after the object does not break parsing
func isolateObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return utils.TruncateText(strings.TrimSpace(v), 500)
	}
	return ""
}

func boolField(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
