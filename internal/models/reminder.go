// internal/models/reminder.go
package models

import "time"

// ReminderLog is one audit entry per send attempt, successful or not.
// Append-only; the engine never reads it back.
type ReminderLog struct {
	ID                string    `json:"id"`
	Phone             string    `json:"phone"`
	FormType          string    `json:"formType"`
	Level             string    `json:"level"`
	RenderedContent   string    `json:"renderedContent"`
	Success           bool      `json:"success"`
	GatewayError      string    `json:"gatewayError,omitempty"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	SentAt            time.Time `json:"sentAt"`
}

// BatchPhase labels what the dispatcher is doing when a progress event fires.
type BatchPhase string

const (
	PhaseSending  BatchPhase = "sending"
	PhaseSleeping BatchPhase = "sleeping"
)

// BatchProgress is an immutable snapshot emitted through the dispatcher's
// progress callback. It exists only for the duration of one run.
type BatchProgress struct {
	RunID            string        `json:"runId"`
	Phase            BatchPhase    `json:"phase"`
	Total            int           `json:"total"`
	Sent             int           `json:"sent"`
	Failed           int           `json:"failed"`
	CurrentRecipient string        `json:"currentRecipient,omitempty"`
	ETA              time.Duration `json:"eta"`
}

// RecipientError ties a per-recipient failure back to its index in the batch.
type RecipientError struct {
	Index int    `json:"index"`
	Phone string `json:"phone,omitempty"`
	Error string `json:"error"`
}

// BatchResult summarizes one dispatcher run. Partial success is still a
// result, not an error; the caller decides how to surface it.
type BatchResult struct {
	RunID       string           `json:"runId"`
	TotalSent   int              `json:"totalSent"`
	TotalFailed int              `json:"totalFailed"`
	Duration    time.Duration    `json:"duration"`
	Errors      []RecipientError `json:"errors,omitempty"`
}
