// Package llm carries the pieces shared by every interpreter backend: the
// prompt contract and the defensive recovery of model output.
package llm

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/llm-mail-ingest/internal/core"
)

const promptFormat = `You are analyzing OCR text extracted from a physical mail piece.

Your job:
1. Identify the sender name if possible. If unclear, set "senderName" to null.
2. Provide a free-form label "mailType" describing what kind of mail this is,
   in natural language. Examples (just examples, you are NOT limited to these):
   - "insurance solicitation"
   - "credit card offer"
   - "bank statement"
   - "advertising flyer"
   - "medical billing notice"
   - "political advertisement"
   - "personal mail"
   - "unclear"
3. Provide a short one-two sentence human-friendly summary.
4. Decide if this mail is important to a typical recipient.
5. Explain in plain English why or why not.

STRICT FORMAT RULES:
- Respond with ONLY a single JSON object, no extra text, no markdown.
- JSON must match this exact shape:

{
  "senderName": string | null,
  "mailType": string,
  "shortSummary": string,
  "isImportant": boolean,
  "importanceReason": string
}

- Do NOT add any other fields.
- Do NOT include double quote (") characters inside string values. If you need quotes, use single quotes (').
- Keep "shortSummary" under 200 characters.
- Keep "importanceReason" under 200 characters.
- Do not include line breaks inside any string values.

Here is the OCR result as JSON:

%s`

// BuildPrompt renders the interpretation prompt for one OCR result
func BuildPrompt(ocr *core.OcrResult) string {
	payload, err := json.MarshalIndent(ocrPayload(ocr), "", "  ")
	if err != nil {
		// Marshalling a plain struct cannot realistically fail; fall back to
		// the normalized text alone
		payload = []byte(ocr.NormalizedText)
	}
	return fmt.Sprintf(promptFormat, payload)
}

type promptLine struct {
	Text string `json:"text"`
	X0   int    `json:"x0"`
	Y0   int    `json:"y0"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
}

type promptOcr struct {
	RawText        string       `json:"rawText"`
	NormalizedText string       `json:"normalizedText"`
	Lines          []promptLine `json:"lines"`
}

func ocrPayload(ocr *core.OcrResult) promptOcr {
	out := promptOcr{
		RawText:        ocr.RawText,
		NormalizedText: ocr.NormalizedText,
		Lines:          make([]promptLine, 0, len(ocr.Lines)),
	}
	for _, l := range ocr.Lines {
		out.Lines = append(out.Lines, promptLine{Text: l.Text, X0: l.X0, Y0: l.Y0, X1: l.X1, Y1: l.Y1})
	}
	return out
}
