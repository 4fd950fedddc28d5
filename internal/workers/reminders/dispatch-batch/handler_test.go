// internal/workers/reminders/dispatch-batch/handler_test.go
package dispatchbatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/models"
	"docflow-workers/internal/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubLease struct {
	held     bool
	acquired int
	released int
}

func (s *stubLease) Acquire(_ context.Context) (string, error) {
	if s.held {
		return "", commonerrors.NewDispatchLeaseHeldError("other-run")
	}
	s.acquired++
	return "lease-token", nil
}

func (s *stubLease) Release(_ context.Context, token string) error {
	if token == "lease-token" {
		s.released++
	}
	return nil
}

type stubScanner struct {
	cands []reminder.Candidate
}

func (s *stubScanner) Scan(_ context.Context) ([]reminder.Candidate, error) {
	return s.cands, nil
}

type stubRunner struct {
	got    []reminder.Candidate
	result models.BatchResult
	err    error
}

func (s *stubRunner) Run(_ context.Context, cands []reminder.Candidate, onProgress reminder.ProgressFunc) (models.BatchResult, error) {
	s.got = cands
	if onProgress != nil {
		onProgress(models.BatchProgress{RunID: s.result.RunID, Phase: models.PhaseSending, Total: len(cands)})
	}
	return s.result, s.err
}

type stubCustomers struct{}

func (stubCustomers) GetCustomer(_ context.Context, phone string) (*models.Customer, error) {
	return &models.Customer{Phone: phone}, nil
}

type stubFormTypes struct{}

func (stubFormTypes) GetFormType(_ context.Context, id string) (*models.FormType, error) {
	return &models.FormType{ID: id, RequiredFields: 2}, nil
}

type stubProgress struct {
	key    string
	values []string
}

func (s *stubProgress) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.key = key
	s.values = append(s.values, value.(string))
	return nil
}

type fixture struct {
	handler  *Handler
	lease    *stubLease
	runner   *stubRunner
	progress *stubProgress
}

func newFixture(t *testing.T, scanned []reminder.Candidate, result models.BatchResult) *fixture {
	f := &fixture{
		lease:    &stubLease{},
		runner:   &stubRunner{result: result},
		progress: &stubProgress{},
	}
	f.handler = NewHandler(
		LoadConfig(),
		f.lease,
		&stubScanner{cands: scanned},
		f.runner,
		stubCustomers{},
		stubFormTypes{},
		f.progress,
		logger.NewTestLogger(t),
	)
	return f
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ScanDrivenRun(t *testing.T) {
	scanned := []reminder.Candidate{
		{Customer: models.Customer{Phone: "+15550001"}, Level: reminder.LevelFirst},
	}
	f := newFixture(t, scanned, models.BatchResult{
		RunID:     "run-1",
		TotalSent: 1,
		Duration:  90 * time.Minute,
	})

	output, err := f.handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, "run-1", output.RunID)
	assert.Equal(t, OutcomeSuccess, output.Outcome)
	assert.Equal(t, 1, output.TotalSent)
	assert.Equal(t, (90 * time.Minute).Seconds(), output.DurationSeconds)
	assert.Len(t, f.runner.got, 1)

	// Lease is acquired once and released even on success.
	assert.Equal(t, 1, f.lease.acquired)
	assert.Equal(t, 1, f.lease.released)
}

func TestHandler_Execute_ExplicitRecipientsResolved(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{RunID: "run-2", TotalSent: 2})

	input := &Input{Recipients: []reminder.BatchRecipient{
		{Phone: "+15550001", FormType: "kyc-basic", Level: "first"},
		{Phone: "+15550002", FormType: "mortgage-docs", Level: "first_message"},
	}}

	output, err := f.handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, output.Outcome)

	require.Len(t, f.runner.got, 2)
	assert.Equal(t, reminder.LevelFirst, f.runner.got[0].Level)
	assert.False(t, f.runner.got[0].Synthetic)
	assert.True(t, f.runner.got[1].Synthetic)
}

func TestHandler_Execute_PartialFailuresAreSuccessWithErrors(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{
		RunID:       "run-3",
		TotalSent:   4,
		TotalFailed: 1,
		Errors:      []models.RecipientError{{Index: 2, Phone: "+15550003", Error: "gateway rejected"}},
	})

	output, err := f.handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, output.Outcome)
	assert.Equal(t, 1, output.TotalFailed)
	require.Len(t, output.Errors, 1)
	assert.Equal(t, 2, output.Errors[0].Index)
}

func TestHandler_Execute_InvalidRecipientRejectedBeforeLease(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{})

	input := &Input{Recipients: []reminder.BatchRecipient{
		{Phone: "", FormType: "kyc-basic", Level: "first"},
	}}

	_, err := f.handler.Execute(context.Background(), input)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeBatchValidationFailed, stdErr.Code)
	assert.Zero(t, f.lease.acquired, "invalid input must not touch the lease")
}

func TestHandler_Execute_MissingFormTypeRejectsWholeBatch(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{})

	input := &Input{Recipients: []reminder.BatchRecipient{
		{Phone: "+15550001", FormType: "kyc-basic", Level: "first"},
		{Phone: "+15550002", FormType: "", Level: "first"},
		{Phone: "+15550003", FormType: "kyc-basic", Level: "first"},
	}}

	_, err := f.handler.Execute(context.Background(), input)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeBatchValidationFailed, stdErr.Code)

	// One bad entry rejects the whole batch with exactly one error naming it.
	verrs, ok := stdErr.Metadata["validationErrors"].([]models.RecipientError)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, 1, verrs[0].Index)
	assert.Equal(t, "+15550002", verrs[0].Phone)
	assert.Contains(t, verrs[0].Error, "formType")

	assert.Zero(t, f.lease.acquired)
	assert.Nil(t, f.runner.got)
}

func TestHandler_Execute_HeldLeaseRejectsRun(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{})
	f.lease.held = true

	_, err := f.handler.Execute(context.Background(), &Input{})

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeDispatchLeaseHeld, stdErr.Code)
	assert.Nil(t, f.runner.got)
}

func TestHandler_Execute_ProgressPublished(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{RunID: "run-4"})

	_, err := f.handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	require.NotEmpty(t, f.progress.values)
	assert.Equal(t, LoadConfig().ProgressKey, f.progress.key)

	var p models.BatchProgress
	require.NoError(t, json.Unmarshal([]byte(f.progress.values[0]), &p))
	assert.Equal(t, "run-4", p.RunID)
	assert.Equal(t, models.PhaseSending, p.Phase)
}

func TestHandler_Execute_RunErrorReleasesLease(t *testing.T) {
	f := newFixture(t, nil, models.BatchResult{})
	f.runner.err = context.Canceled

	_, err := f.handler.Execute(context.Background(), &Input{})
	assert.Error(t, err)
	assert.Equal(t, 1, f.lease.released)
}
