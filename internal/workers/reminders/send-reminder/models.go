// internal/workers/reminders/send-reminder/models.go
package sendreminder

// Input identifies one reminder to deliver right now, with no batch pacing.
type Input struct {
	Phone    string `json:"phone"`
	FormType string `json:"formType"`
	Level    string `json:"level"`
}

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
)

type Output struct {
	Status string `json:"status"`
	Level  string `json:"level"`
	SentAt string `json:"sentAt"`
}
