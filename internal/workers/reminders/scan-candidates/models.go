// internal/workers/reminders/scan-candidates/models.go
package scancandidates

// Input carries no parameters today; the scan always covers the full
// submission table.
type Input struct{}

// CandidateVar is the wire form of one due reminder, passed downstream to the
// dispatch task.
type CandidateVar struct {
	Phone     string `json:"phone"`
	FormType  string `json:"formType"`
	Level     string `json:"level"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

type Output struct {
	Candidates []CandidateVar `json:"candidates"`
	Count      int            `json:"count"`
	ScannedAt  string         `json:"scannedAt"`
}
