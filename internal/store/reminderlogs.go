// internal/store/reminderlogs.go
package store

import (
	"context"
	"database/sql"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/models"
)

// execer is satisfied by both *sql.DB and *sql.Tx so the audit insert can run
// standalone or inside a state-change transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertReminderLog(ctx context.Context, ex execer, entry models.ReminderLog) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO reminder_logs (id, phone, form_type, level, rendered_content, success, gateway_error, provider_message_id, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Phone, entry.FormType, entry.Level, entry.RenderedContent,
		entry.Success, entry.GatewayError, entry.ProviderMessageID, entry.SentAt)
	if err != nil {
		return commonerrors.NewAuditWriteFailedError(err)
	}
	return nil
}

// ReminderLogStore appends to the reminder audit log. Failed sends go through
// here directly; successful sends are inserted by the submission store inside
// the state-change transaction.
type ReminderLogStore struct {
	db *sql.DB
}

func NewReminderLogStore(db *sql.DB) *ReminderLogStore {
	return &ReminderLogStore{db: db}
}

func (s *ReminderLogStore) Record(ctx context.Context, entry models.ReminderLog) error {
	return insertReminderLog(ctx, s.db, entry)
}

// ListByPhone returns the audit trail for one customer, newest first.
func (s *ReminderLogStore) ListByPhone(ctx context.Context, phone string) ([]models.ReminderLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phone, form_type, level, rendered_content, success, gateway_error, provider_message_id, sent_at
		 FROM reminder_logs WHERE phone = $1 ORDER BY sent_at DESC`,
		phone)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_reminder_logs", err)
	}
	defer rows.Close()

	var entries []models.ReminderLog
	for rows.Next() {
		var (
			entry        models.ReminderLog
			gatewayError sql.NullString
			providerID   sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Phone, &entry.FormType, &entry.Level,
			&entry.RenderedContent, &entry.Success, &gatewayError, &providerID, &entry.SentAt); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("list_reminder_logs", err)
		}
		entry.GatewayError = gatewayError.String
		entry.ProviderMessageID = providerID.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_reminder_logs", err)
	}
	return entries, nil
}
