// internal/reminder/sender.go
package reminder

import (
	"context"
	"errors"
	"time"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/common/metrics"
	"docflow-workers/internal/models"

	"github.com/google/uuid"
)

// ErrNotDue is returned when the re-read at send time shows the reminder is
// no longer due (the customer interacted, completed, or another run got there
// first). Callers treat it as a skip, not a failure.
var ErrNotDue = errors.New("reminder no longer due")

// SubmissionWriter is the transactional write side of the submission store.
// MarkFirstSent and AdvanceReminderState persist the audit entry and the state
// change in one transaction so a crash can never record a send without
// advancing the counter, or vice versa.
type SubmissionWriter interface {
	GetSubmission(ctx context.Context, phone, formType string) (*models.Submission, error)
	MarkFirstSent(ctx context.Context, phone, formType, formLink string, sentAt time.Time, entry models.ReminderLog) error
	AdvanceReminderState(ctx context.Context, phone, formType string, expectedCount, newCount int, sentAt time.Time, entry models.ReminderLog) error
}

// AuditWriter records failed attempts, which carry no state change.
type AuditWriter interface {
	Record(ctx context.Context, entry models.ReminderLog) error
}

// AuditMirror copies audit entries into the search cluster. Best effort: a
// mirror failure is logged and swallowed, postgres stays the source of truth.
type AuditMirror interface {
	Mirror(ctx context.Context, entry models.ReminderLog) error
}

// LinkProvisioner creates the authorized short link embedded in first-contact
// messages.
type LinkProvisioner interface {
	CreateAuthorizedShortLink(ctx context.Context, phone, formType string) (string, error)
}

// Sender executes exactly one reminder: render, deliver, persist. It re-reads
// the submission immediately before sending so minutes of batch pacing cannot
// deliver a reminder the customer already answered.
type Sender struct {
	store      SubmissionWriter
	audit      AuditWriter
	mirror     AuditMirror
	links      LinkProvisioner
	messenger  Messenger
	templates  Templates
	thresholds Thresholds
	logger     logger.Logger
	now        func() time.Time
}

func NewSender(
	store SubmissionWriter,
	audit AuditWriter,
	mirror AuditMirror,
	links LinkProvisioner,
	messenger Messenger,
	templates Templates,
	thresholds Thresholds,
	log logger.Logger,
) *Sender {
	return &Sender{
		store:      store,
		audit:      audit,
		mirror:     mirror,
		links:      links,
		messenger:  messenger,
		templates:  templates,
		thresholds: thresholds,
		logger:     log,
		now:        time.Now,
	}
}

// SendOne delivers the reminder described by the candidate. On success the
// audit entry and the submission state advance together; on gateway failure
// only a failed audit entry is written and the submission stays untouched so
// the next run retries naturally.
func (s *Sender) SendOne(ctx context.Context, cand Candidate) error {
	if cand.Level == LevelFirstMessage {
		return s.sendFirstMessage(ctx, cand)
	}
	return s.sendEscalation(ctx, cand)
}

func (s *Sender) sendFirstMessage(ctx context.Context, cand Candidate) error {
	now := s.now()

	link, err := s.links.CreateAuthorizedShortLink(ctx, cand.Customer.Phone, cand.FormType.ID)
	if err != nil {
		return commonerrors.NewLinkProvisioningFailedError(cand.Customer.Phone, err)
	}

	body := RenderTemplate(s.templates.ForLevel(LevelFirstMessage), cand.Customer.FullName(), cand.FormType.Label, link)
	entry := models.ReminderLog{
		ID:              uuid.New().String(),
		Phone:           cand.Customer.Phone,
		FormType:        cand.FormType.ID,
		Level:           string(LevelFirstMessage),
		RenderedContent: body,
		SentAt:          now,
	}

	providerID, err := s.messenger.Send(ctx, s.outbound(cand, body))
	if err != nil {
		return s.recordFailure(ctx, entry, err)
	}
	entry.Success = true
	entry.ProviderMessageID = providerID

	if err := s.store.MarkFirstSent(ctx, cand.Customer.Phone, cand.FormType.ID, link, now, entry); err != nil {
		// The message went out but the state write lost; surfaced loudly
		// because a retry would double-contact the customer.
		return err
	}

	metrics.RemindersSent.WithLabelValues(string(LevelFirstMessage)).Inc()
	s.mirrorEntry(ctx, entry)
	return nil
}

func (s *Sender) sendEscalation(ctx context.Context, cand Candidate) error {
	now := s.now()

	fresh, err := s.store.GetSubmission(ctx, cand.Submission.Phone, cand.Submission.FormType)
	if err != nil {
		return err
	}

	level, due := Resolve(*fresh, cand.FormType.RequiredFields, now, s.thresholds)
	if !due || level != cand.Level {
		s.logger.Debug("candidate stale at send time, skipping", map[string]interface{}{
			"phone":    fresh.Phone,
			"formType": fresh.FormType,
			"planned":  string(cand.Level),
		})
		return ErrNotDue
	}

	link := fresh.FormLink
	if link == "" {
		link, err = s.links.CreateAuthorizedShortLink(ctx, fresh.Phone, fresh.FormType)
		if err != nil {
			return commonerrors.NewLinkProvisioningFailedError(fresh.Phone, err)
		}
	}

	body := RenderTemplate(s.templates.ForLevel(level), cand.Customer.FullName(), cand.FormType.Label, link)
	entry := models.ReminderLog{
		ID:              uuid.New().String(),
		Phone:           fresh.Phone,
		FormType:        fresh.FormType,
		Level:           string(level),
		RenderedContent: body,
		SentAt:          now,
	}

	providerID, err := s.messenger.Send(ctx, s.outbound(cand, body))
	if err != nil {
		return s.recordFailure(ctx, entry, err)
	}
	entry.Success = true
	entry.ProviderMessageID = providerID

	if level == LevelFourthWeek && fresh.ReminderCount >= 8 {
		s.logger.Debug("standing weekly reminder continues", map[string]interface{}{
			"phone":         fresh.Phone,
			"reminderCount": fresh.ReminderCount,
		})
	}

	newCount := nextCount(level, fresh.ReminderCount)
	if err := s.store.AdvanceReminderState(ctx, fresh.Phone, fresh.FormType, fresh.ReminderCount, newCount, now, entry); err != nil {
		return err
	}

	metrics.RemindersSent.WithLabelValues(string(level)).Inc()
	s.mirrorEntry(ctx, entry)
	return nil
}

func (s *Sender) outbound(cand Candidate, body string) OutboundMessage {
	return OutboundMessage{
		Phone: cand.Customer.Phone,
		Email: cand.Customer.Email,
		Body:  body,
	}
}

func (s *Sender) recordFailure(ctx context.Context, entry models.ReminderLog, sendErr error) error {
	entry.Success = false
	entry.GatewayError = sendErr.Error()

	if auditErr := s.audit.Record(ctx, entry); auditErr != nil {
		s.logger.Error("failed to record audit entry for failed send", map[string]interface{}{
			"phone": entry.Phone,
			"error": auditErr.Error(),
		})
	}
	s.mirrorEntry(ctx, entry)

	metrics.RemindersFailed.WithLabelValues(entry.Level, string(commonerrors.ErrCodeGatewaySendFailed)).Inc()
	return commonerrors.NewGatewaySendFailedError(entry.Phone, sendErr)
}

func (s *Sender) mirrorEntry(ctx context.Context, entry models.ReminderLog) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Mirror(ctx, entry); err != nil {
		s.logger.Warn("audit mirror write failed", map[string]interface{}{
			"auditId": entry.ID,
			"error":   err.Error(),
		})
	}
}
