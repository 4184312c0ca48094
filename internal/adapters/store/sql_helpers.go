package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mikey/llm-mail-ingest/internal/core"
)

// interpretationArgs flattens the optional interpretation into the six
// llm_* column values, all NULL when the stage was skipped
func interpretationArgs(i *core.MailInterpretation) []interface{} {
	if i == nil {
		return []interface{}{nil, nil, nil, nil, nil, nil}
	}
	return []interface{}{
		i.SenderName,
		i.MailType,
		i.ShortSummary,
		i.IsImportant,
		i.ImportanceReason,
		i.RawModelOutput,
	}
}

// scanRecord reads one ingest_records row, reassembling the optional
// interpretation from its nullable columns
func scanRecord(rows *sql.Rows) (*core.IngestRecord, error) {
	var rec core.IngestRecord
	var senderName, mailType, shortSummary, importanceReason, rawOutput sql.NullString
	var isImportant sql.NullBool
	var createdAt string

	err := rows.Scan(&rec.RecordID, &rec.UserID, &rec.MessageID, &rec.DeliveryDate,
		&rec.RawSenderText, &rec.Fingerprint, &senderName, &mailType, &shortSummary,
		&isImportant, &importanceReason, &rawOutput, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ingest record: %w", err)
	}

	if mailType.Valid {
		rec.Interpretation = &core.MailInterpretation{
			SenderName:       senderName.String,
			MailType:         mailType.String,
			ShortSummary:     shortSummary.String,
			IsImportant:      isImportant.Bool,
			ImportanceReason: importanceReason.String,
			RawModelOutput:   rawOutput.String,
		}
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}
