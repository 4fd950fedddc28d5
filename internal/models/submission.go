// internal/models/submission.go
package models

import "time"

// SubmissionStatus is derived from how many required fields have been uploaded.
type SubmissionStatus string

const (
	SubmissionNew        SubmissionStatus = "new"
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionCompleted  SubmissionStatus = "completed"
)

// Submission is one (customer, form type) tracking record, the unit the
// reminder engine reasons about.
//
// FirstSentAt is write-once: it is set the moment the form link is first
// delivered and never changes afterwards. ReminderCount only advances through
// the single-send executor's transactional update.
type Submission struct {
	Phone              string     `json:"phone"`
	FormType           string     `json:"formType"`
	SubmittedFields    []string   `json:"submittedFields"`
	FirstSentAt        *time.Time `json:"firstSentAt,omitempty"`
	LastInteractionAt  *time.Time `json:"lastInteractionAt,omitempty"`
	LastReminderSentAt *time.Time `json:"lastReminderSentAt,omitempty"`
	ReminderCount      int        `json:"reminderCount"`
	ReminderPaused     bool       `json:"reminderPaused"`
	FormLink           string     `json:"formLink,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Status derives the submission state from the required-field count of its
// form type. completed iff every required field identifier is present.
func (s Submission) Status(requiredFields int) SubmissionStatus {
	n := len(s.SubmittedFields)
	switch {
	case requiredFields > 0 && n >= requiredFields:
		return SubmissionCompleted
	case n > 0:
		return SubmissionInProgress
	default:
		return SubmissionNew
	}
}

// LastActionAt is the interaction timestamp used for inactivity gating,
// falling back to FirstSentAt when the customer never interacted.
func (s Submission) LastActionAt() *time.Time {
	if s.LastInteractionAt != nil {
		return s.LastInteractionAt
	}
	return s.FirstSentAt
}
