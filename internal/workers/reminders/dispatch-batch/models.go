// internal/workers/reminders/dispatch-batch/models.go
package dispatchbatch

import (
	"docflow-workers/internal/models"
	"docflow-workers/internal/reminder"
)

// Input optionally names explicit recipients. An empty list means "dispatch
// whatever the scanner finds due right now".
type Input struct {
	Recipients []reminder.BatchRecipient `json:"recipients,omitempty"`
}

const (
	OutcomeSuccess = "success"
	OutcomePartial = "success_with_errors"
)

type Output struct {
	RunID           string                  `json:"runId"`
	Outcome         string                  `json:"outcome"`
	TotalSent       int                     `json:"totalSent"`
	TotalFailed     int                     `json:"totalFailed"`
	DurationSeconds float64                 `json:"durationSeconds"`
	Errors          []models.RecipientError `json:"errors,omitempty"`
}
