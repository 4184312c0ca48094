package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the Store interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL store, creating the schema if needed
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_records (
			record_id VARCHAR(128) NOT NULL,
			user_id VARCHAR(128) NOT NULL,
			message_id VARCHAR(128) NOT NULL,
			delivery_date VARCHAR(10),
			raw_sender_text VARCHAR(255),
			fingerprint CHAR(64) NOT NULL,
			llm_sender_name VARCHAR(255),
			llm_mail_type VARCHAR(255),
			llm_short_summary TEXT,
			llm_is_important BOOLEAN,
			llm_importance_reason TEXT,
			llm_raw_output TEXT,
			created_at VARCHAR(40) NOT NULL,
			PRIMARY KEY (user_id, fingerprint)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ingest_records table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS followup_actions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id VARCHAR(128) NOT NULL,
			fingerprint CHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			endpoint VARCHAR(255),
			payload_json TEXT,
			status VARCHAR(32),
			created_at VARCHAR(40) NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create followup_actions table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// ExistsByFingerprint reports whether a record is already persisted
func (s *MySQLStore) ExistsByFingerprint(ctx context.Context, userID, fingerprint string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM ingest_records
		WHERE user_id = ? AND fingerprint = ?
	`, userID, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ingest record: %w", err)
	}
	return true, nil
}

// Insert persists a record, returning ErrDuplicate on a key conflict
func (s *MySQLStore) Insert(ctx context.Context, rec *core.IngestRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	args := []interface{}{rec.RecordID, rec.UserID, rec.MessageID, rec.DeliveryDate, rec.RawSenderText, rec.Fingerprint}
	args = append(args, interpretationArgs(rec.Interpretation)...)
	args = append(args, createdAt.Format(time.RFC3339))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_records (
			record_id, user_id, message_id, delivery_date, raw_sender_text,
			fingerprint, llm_sender_name, llm_mail_type, llm_short_summary,
			llm_is_important, llm_importance_reason, llm_raw_output, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		var merr *mysql.MySQLError
		if errors.As(err, &merr) && merr.Number == 1062 {
			return core.ErrDuplicate
		}
		return fmt.Errorf("failed to insert ingest record: %w", err)
	}
	return nil
}

// ListRecent returns the user's most recently ingested records
func (s *MySQLStore) ListRecent(ctx context.Context, userID string, limit int) ([]*core.IngestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, user_id, message_id, delivery_date, raw_sender_text,
			fingerprint, llm_sender_name, llm_mail_type, llm_short_summary,
			llm_is_important, llm_importance_reason, llm_raw_output, created_at
		FROM ingest_records
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest records: %w", err)
	}
	defer rows.Close()

	var records []*core.IngestRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordAction persists a follow-up decision
func (s *MySQLStore) RecordAction(ctx context.Context, action *core.FollowUpAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO followup_actions (user_id, fingerprint, kind, endpoint, payload_json, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, action.UserID, action.Fingerprint, action.Kind, action.Endpoint,
		action.PayloadJSON, action.Status, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert followup action: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
