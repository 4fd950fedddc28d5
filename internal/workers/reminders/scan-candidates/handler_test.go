// internal/workers/reminders/scan-candidates/handler_test.go
package scancandidates

import (
	"context"
	"errors"
	"testing"

	"docflow-workers/internal/common/logger"
	"docflow-workers/internal/models"
	"docflow-workers/internal/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubScanner struct {
	cands []reminder.Candidate
	err   error
}

func (s *stubScanner) Scan(_ context.Context) ([]reminder.Candidate, error) {
	return s.cands, s.err
}

func createTestHandler(t *testing.T, scanner CandidateScanner) *Handler {
	return NewHandler(LoadConfig(), scanner, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_MapsCandidates(t *testing.T) {
	scanner := &stubScanner{cands: []reminder.Candidate{
		{
			Customer: models.Customer{Phone: "+15550001"},
			FormType: models.FormType{ID: "kyc-basic"},
			Level:    reminder.LevelFirst,
		},
		{
			Customer:  models.Customer{Phone: "+15550002"},
			FormType:  models.FormType{ID: "mortgage-docs"},
			Level:     reminder.LevelFirstMessage,
			Synthetic: true,
		},
	}}

	h := createTestHandler(t, scanner)
	output, err := h.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, output.Count)
	require.Len(t, output.Candidates, 2)
	assert.Equal(t, CandidateVar{Phone: "+15550001", FormType: "kyc-basic", Level: "first"}, output.Candidates[0])
	assert.True(t, output.Candidates[1].Synthetic)
	assert.NotEmpty(t, output.ScannedAt)
}

func TestHandler_Execute_EmptyScan(t *testing.T) {
	h := createTestHandler(t, &stubScanner{})

	output, err := h.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, output.Count)
	assert.Empty(t, output.Candidates)
}

func TestHandler_Execute_ScanErrorPropagates(t *testing.T) {
	h := createTestHandler(t, &stubScanner{err: errors.New("db down")})

	_, err := h.Execute(context.Background())
	assert.Error(t, err)
}
