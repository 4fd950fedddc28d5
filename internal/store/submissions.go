// internal/store/submissions.go

// Package store holds the postgres persistence layer for customers,
// submissions, form types, templates and the reminder audit log.
package store

import (
	"context"
	"database/sql"
	"time"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/models"

	"github.com/lib/pq"
)

// SubmissionStore reads and writes the submissions table. The write methods
// that follow a delivered message run the state change and the audit insert
// in one transaction.
type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

const submissionColumns = `phone, form_type, submitted_fields, first_sent_at,
	last_interaction_at, last_reminder_sent_at, reminder_count, reminder_paused,
	form_link, created_at, updated_at`

func scanSubmission(row interface {
	Scan(dest ...interface{}) error
}) (*models.Submission, error) {
	var (
		sub          models.Submission
		firstSent    sql.NullTime
		lastInteract sql.NullTime
		lastReminder sql.NullTime
		formLink     sql.NullString
	)
	err := row.Scan(
		&sub.Phone, &sub.FormType, pq.Array(&sub.SubmittedFields), &firstSent,
		&lastInteract, &lastReminder, &sub.ReminderCount, &sub.ReminderPaused,
		&formLink, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if firstSent.Valid {
		sub.FirstSentAt = &firstSent.Time
	}
	if lastInteract.Valid {
		sub.LastInteractionAt = &lastInteract.Time
	}
	if lastReminder.Valid {
		sub.LastReminderSentAt = &lastReminder.Time
	}
	sub.FormLink = formLink.String
	return &sub, nil
}

// ListSubmissions returns every tracked submission in insertion order.
func (s *SubmissionStore) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY created_at, phone`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_submissions", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("list_submissions", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("list_submissions", err)
	}
	return subs, nil
}

// GetSubmission fetches one submission by its (phone, form type) key.
func (s *SubmissionStore) GetSubmission(ctx context.Context, phone, formType string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE phone = $1 AND form_type = $2`,
		phone, formType)

	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewSubmissionNotFoundError(phone, formType)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_submission", err)
	}
	return sub, nil
}

// MarkFirstSent stamps first_sent_at and the provisioned form link on a
// submission, creating the row for first-contact customers, and records the
// audit entry in the same transaction. first_sent_at is write-once: a row
// that already has it set makes the update a STATE_CONFLICT.
func (s *SubmissionStore) MarkFirstSent(ctx context.Context, phone, formType, formLink string, sentAt time.Time, entry models.ReminderLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("mark_first_sent", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions (phone, form_type, submitted_fields, reminder_count, reminder_paused, created_at, updated_at)
		 VALUES ($1, $2, '{}', 0, FALSE, $3, $3)
		 ON CONFLICT (phone, form_type) DO NOTHING`,
		phone, formType, sentAt)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("mark_first_sent", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE submissions
		 SET first_sent_at = $3, form_link = $4, updated_at = $3
		 WHERE phone = $1 AND form_type = $2 AND first_sent_at IS NULL`,
		phone, formType, sentAt, formLink)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("mark_first_sent", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewStateConflictError(phone, formType)
	}

	if err := insertReminderLog(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewStoreUpdateFailedError(phone, formType, err)
	}
	return nil
}

// AdvanceReminderState bumps the reminder counter and stamps
// last_reminder_sent_at, conditional on the counter still holding the value
// the send was planned against. Zero rows matched means another run advanced
// the submission first. The audit entry commits atomically with the update.
func (s *SubmissionStore) AdvanceReminderState(ctx context.Context, phone, formType string, expectedCount, newCount int, sentAt time.Time, entry models.ReminderLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("advance_reminder_state", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE submissions
		 SET reminder_count = $4, last_reminder_sent_at = $5, updated_at = $5
		 WHERE phone = $1 AND form_type = $2 AND reminder_count = $3`,
		phone, formType, expectedCount, newCount, sentAt)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("advance_reminder_state", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewStateConflictError(phone, formType)
	}

	if err := insertReminderLog(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewStoreUpdateFailedError(phone, formType, err)
	}
	return nil
}

// RecordInteraction replaces the submitted field set and stamps
// last_interaction_at, pushing every pending escalation out by the relevant
// threshold.
func (s *SubmissionStore) RecordInteraction(ctx context.Context, phone, formType string, submittedFields []string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions
		 SET submitted_fields = $3, last_interaction_at = $4, updated_at = $4
		 WHERE phone = $1 AND form_type = $2`,
		phone, formType, pq.Array(submittedFields), at)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("record_interaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewSubmissionNotFoundError(phone, formType)
	}
	return nil
}

// SetReminderPaused flips the operator pause flag.
func (s *SubmissionStore) SetReminderPaused(ctx context.Context, phone, formType string, paused bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET reminder_paused = $3, updated_at = NOW() WHERE phone = $1 AND form_type = $2`,
		phone, formType, paused)
	if err != nil {
		return commonerrors.NewQueryExecutionFailedError("set_reminder_paused", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return commonerrors.NewSubmissionNotFoundError(phone, formType)
	}
	return nil
}
