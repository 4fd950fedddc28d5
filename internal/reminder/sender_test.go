// internal/reminder/sender_test.go
package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSubmissionWriter struct {
	submission *models.Submission
	getErr     error

	markedFirstSent bool
	markedLink      string
	markedEntry     models.ReminderLog

	advanced      bool
	expectedCount int
	newCount      int
	advanceEntry  models.ReminderLog
	advanceErr    error
}

func (f *fakeSubmissionWriter) GetSubmission(_ context.Context, _, _ string) (*models.Submission, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sub := *f.submission
	return &sub, nil
}

func (f *fakeSubmissionWriter) MarkFirstSent(_ context.Context, _, _, formLink string, _ time.Time, entry models.ReminderLog) error {
	f.markedFirstSent = true
	f.markedLink = formLink
	f.markedEntry = entry
	return nil
}

func (f *fakeSubmissionWriter) AdvanceReminderState(_ context.Context, _, _ string, expectedCount, newCount int, _ time.Time, entry models.ReminderLog) error {
	f.advanced = true
	f.expectedCount = expectedCount
	f.newCount = newCount
	f.advanceEntry = entry
	return f.advanceErr
}

type fakeAuditWriter struct {
	entries []models.ReminderLog
}

func (f *fakeAuditWriter) Record(_ context.Context, entry models.ReminderLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeAuditMirror struct {
	entries []models.ReminderLog
	err     error
}

func (f *fakeAuditMirror) Mirror(_ context.Context, entry models.ReminderLog) error {
	f.entries = append(f.entries, entry)
	return f.err
}

type fakeLinks struct {
	link  string
	err   error
	calls int
}

func (f *fakeLinks) CreateAuthorizedShortLink(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.link, f.err
}

type fakeMessenger struct {
	sent []OutboundMessage
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, msg OutboundMessage) (string, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "provider-msg-1", nil
}

type senderFixture struct {
	sender    *Sender
	store     *fakeSubmissionWriter
	audit     *fakeAuditWriter
	mirror    *fakeAuditMirror
	links     *fakeLinks
	messenger *fakeMessenger
	now       time.Time
}

func newSenderFixture(t *testing.T, sub *models.Submission) *senderFixture {
	f := &senderFixture{
		store:     &fakeSubmissionWriter{submission: sub},
		audit:     &fakeAuditWriter{},
		mirror:    &fakeAuditMirror{},
		links:     &fakeLinks{link: "https://dfl.io/x1"},
		messenger: &fakeMessenger{},
		now:       time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.sender = NewSender(
		f.store,
		f.audit,
		f.mirror,
		f.links,
		f.messenger,
		LoadTemplates(context.Background(), nil, logger.NewTestLogger(t)),
		testThresholds(),
		logger.NewTestLogger(t),
	)
	f.sender.now = func() time.Time { return f.now }
	return f
}

func escalationCandidate(sub models.Submission, level Level) Candidate {
	return Candidate{
		Customer:   models.Customer{Phone: sub.Phone, FirstName: "Dana", LastName: "Petrov"},
		Submission: sub,
		FormType:   models.FormType{ID: sub.FormType, Label: "KYC Check", RequiredFields: 2},
		Level:      level,
	}
}

// ==========================
// Escalation Send Tests
// ==========================

func TestSender_EscalationSuccessAdvancesState(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
		FormLink:    "https://dfl.io/existing",
	}

	f := newSenderFixture(t, &sub)
	err := f.sender.SendOne(context.Background(), escalationCandidate(sub, LevelFirst))
	require.NoError(t, err)

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0].Body, "Dana Petrov")
	assert.Contains(t, f.messenger.sent[0].Body, "https://dfl.io/existing")

	assert.True(t, f.store.advanced)
	assert.Equal(t, 0, f.store.expectedCount)
	assert.Equal(t, 1, f.store.newCount)
	assert.True(t, f.store.advanceEntry.Success)
	assert.Equal(t, "provider-msg-1", f.store.advanceEntry.ProviderMessageID)
	assert.Equal(t, string(LevelFirst), f.store.advanceEntry.Level)

	// Existing link reused, no provisioning call.
	assert.Zero(t, f.links.calls)
	// Success entries are mirrored, not Record()ed separately.
	assert.Empty(t, f.audit.entries)
	assert.Len(t, f.mirror.entries, 1)
}

func TestSender_StaleCandidateSkipped(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	planned := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
	}
	// The fresh read shows the customer interacted after the scan.
	fresh := planned
	fresh.LastInteractionAt = ts(now.Add(-time.Minute))
	fresh.SubmittedFields = []string{"id_card", "payslip"}

	f := newSenderFixture(t, &fresh)
	err := f.sender.SendOne(context.Background(), escalationCandidate(planned, LevelFirst))

	assert.ErrorIs(t, err, ErrNotDue)
	assert.Empty(t, f.messenger.sent)
	assert.False(t, f.store.advanced)
}

func TestSender_GatewayFailureRecordsAuditOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
		FormLink:    "https://dfl.io/x1",
	}

	f := newSenderFixture(t, &sub)
	f.messenger.err = errors.New("sms provider unavailable")

	err := f.sender.SendOne(context.Background(), escalationCandidate(sub, LevelFirst))
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeGatewaySendFailed, stdErr.Code)

	// Failed attempt audited, submission untouched so the next run retries.
	require.Len(t, f.audit.entries, 1)
	assert.False(t, f.audit.entries[0].Success)
	assert.Equal(t, "sms provider unavailable", f.audit.entries[0].GatewayError)
	assert.False(t, f.store.advanced)
}

func TestSender_AdvanceConflictSurfaces(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
		FormLink:    "https://dfl.io/x1",
	}

	f := newSenderFixture(t, &sub)
	f.store.advanceErr = commonerrors.NewStateConflictError(sub.Phone, sub.FormType)

	err := f.sender.SendOne(context.Background(), escalationCandidate(sub, LevelFirst))

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeStateConflict, stdErr.Code)
}

func TestSender_MissingLinkIsProvisioned(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
	}

	f := newSenderFixture(t, &sub)
	err := f.sender.SendOne(context.Background(), escalationCandidate(sub, LevelFirst))
	require.NoError(t, err)

	assert.Equal(t, 1, f.links.calls)
	assert.Contains(t, f.messenger.sent[0].Body, "https://dfl.io/x1")
}

// ==========================
// First Contact Tests
// ==========================

func TestSender_FirstMessageProvisionsLinkAndMarksFirstSent(t *testing.T) {
	f := newSenderFixture(t, nil)

	cand := Candidate{
		Customer:   models.Customer{Phone: "+15550002", FirstName: "Omar", Email: "omar@example.com"},
		Submission: models.Submission{Phone: "+15550002", FormType: "mortgage-docs"},
		FormType:   models.FormType{ID: "mortgage-docs", Label: "Mortgage Application", RequiredFields: 4},
		Level:      LevelFirstMessage,
		Synthetic:  true,
	}

	err := f.sender.SendOne(context.Background(), cand)
	require.NoError(t, err)

	assert.Equal(t, 1, f.links.calls)
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "omar@example.com", f.messenger.sent[0].Email)
	assert.Contains(t, f.messenger.sent[0].Body, "https://dfl.io/x1")

	assert.True(t, f.store.markedFirstSent)
	assert.Equal(t, "https://dfl.io/x1", f.store.markedLink)
	assert.True(t, f.store.markedEntry.Success)
	assert.Equal(t, string(LevelFirstMessage), f.store.markedEntry.Level)
	assert.False(t, f.store.advanced)
}

func TestSender_FirstMessageLinkFailureAbortsBeforeSend(t *testing.T) {
	f := newSenderFixture(t, nil)
	f.links.err = errors.New("link service down")

	cand := Candidate{
		Customer:  models.Customer{Phone: "+15550002"},
		FormType:  models.FormType{ID: "mortgage-docs", Label: "Mortgage Application"},
		Level:     LevelFirstMessage,
		Synthetic: true,
	}

	err := f.sender.SendOne(context.Background(), cand)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeLinkProvisioningFailed, stdErr.Code)
	assert.Empty(t, f.messenger.sent)
	assert.False(t, f.store.markedFirstSent)
}

func TestSender_MirrorFailureIsSwallowed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{
		Phone:       "+15550001",
		FormType:    "kyc-basic",
		FirstSentAt: ts(now.Add(-50 * time.Hour)),
		FormLink:    "https://dfl.io/x1",
	}

	f := newSenderFixture(t, &sub)
	f.mirror.err = errors.New("search cluster red")

	err := f.sender.SendOne(context.Background(), escalationCandidate(sub, LevelFirst))
	assert.NoError(t, err)
	assert.True(t, f.store.advanced)
}
