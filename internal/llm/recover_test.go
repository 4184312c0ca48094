package llm

import (
	"strings"
	"testing"
)

func TestRecoverInterpretation_CleanJSON(t *testing.T) {
	raw := `{"senderName":"Acme Corp","mailType":"credit card offer","shortSummary":"A pre-approved card offer.","isImportant":false,"importanceReason":"Unsolicited marketing."}`

	got := RecoverInterpretation(raw)
	if got.SenderName != "Acme Corp" {
		t.Errorf("SenderName = %q", got.SenderName)
	}
	if got.MailType != "credit card offer" {
		t.Errorf("MailType = %q", got.MailType)
	}
	if got.IsImportant {
		t.Error("Expected IsImportant false")
	}
	if got.RawModelOutput != raw {
		t.Error("Expected raw output preserved")
	}
}

func TestRecoverInterpretation_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"senderName\":null,\"mailType\":\"bank statement\",\"shortSummary\":\"Monthly statement.\",\"isImportant\":true,\"importanceReason\":\"Financial record.\"}\n```"

	got := RecoverInterpretation(raw)
	if got.MailType != "bank statement" {
		t.Errorf("MailType = %q", got.MailType)
	}
	if !got.IsImportant {
		t.Error("Expected IsImportant true")
	}
	if got.SenderName != "" {
		t.Errorf("Expected null sender to map to empty, got %q", got.SenderName)
	}
}

func TestRecoverInterpretation_SurroundingProse(t *testing.T) {
	raw := `Sure! Here is the analysis you asked for:
{"senderName":"DMV","mailType":"government notice","shortSummary":"Registration renewal.","isImportant":true,"importanceReason":"Has a deadline."}
Let me know if you need anything else.`

	got := RecoverInterpretation(raw)
	if got.SenderName != "DMV" {
		t.Errorf("SenderName = %q", got.SenderName)
	}
	if got.MailType != "government notice" {
		t.Errorf("MailType = %q", got.MailType)
	}
}

func TestRecoverInterpretation_TruncatedOutput(t *testing.T) {
	raw := `{"senderName":"Acme Corp","mailType":"adver`

	got := RecoverInterpretation(raw)
	if got == nil {
		t.Fatal("Expected a fallback interpretation, got nil")
	}
	if got.MailType != "unknown" {
		t.Errorf("Expected unknown mail type, got %q", got.MailType)
	}
	if got.IsImportant {
		t.Error("Fallback must not claim importance")
	}
	if strings.TrimSpace(got.ImportanceReason) == "" {
		t.Error("Fallback must explain itself")
	}
	if got.RawModelOutput != raw {
		t.Error("Expected raw output preserved for debugging")
	}
}

func TestRecoverInterpretation_EmptyOutput(t *testing.T) {
	for _, raw := range []string{"", "   ", "```\n```"} {
		got := RecoverInterpretation(raw)
		if got.MailType != "unknown" {
			t.Errorf("RecoverInterpretation(%q) MailType = %q", raw, got.MailType)
		}
		if got.IsImportant {
			t.Errorf("RecoverInterpretation(%q) claimed importance", raw)
		}
		if got.ImportanceReason == "" {
			t.Errorf("RecoverInterpretation(%q) gave no reason", raw)
		}
	}
}

func TestRecoverInterpretation_NonObjectOutput(t *testing.T) {
	got := RecoverInterpretation("I could not read the image, sorry.")
	if got.MailType != "unknown" {
		t.Errorf("MailType = %q", got.MailType)
	}
	if got.ShortSummary == "" {
		t.Error("Expected the prose carried into the summary")
	}
}

func TestRecoverInterpretation_BooleanAsString(t *testing.T) {
	raw := `{"mailType":"medical billing notice","isImportant":"true","importanceReason":"Billing."}`
	got := RecoverInterpretation(raw)
	if !got.IsImportant {
		t.Error("Expected string booleans to be coerced")
	}
}
