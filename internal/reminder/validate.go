// internal/reminder/validate.go
package reminder

import (
	"time"

	"docflow-workers/internal/common/config"
	commonerrors "docflow-workers/internal/common/errors"
	"docflow-workers/internal/models"
)

// BatchRecipient is one raw entry of an explicit batch request, before it is
// resolved against the stores into a Candidate.
type BatchRecipient struct {
	Phone    string `json:"phone"`
	FormType string `json:"formType"`
	Level    string `json:"level"`
}

// ValidateRecipients checks every entry and returns one error per bad index.
// The whole batch is rejected when any entry is invalid; nothing is sent on a
// partially broken request.
func ValidateRecipients(recipients []BatchRecipient) []models.RecipientError {
	var errs []models.RecipientError
	for i, r := range recipients {
		if r.Phone == "" {
			errs = append(errs, models.RecipientError{Index: i, Error: "phone is required"})
			continue
		}
		if r.FormType == "" {
			errs = append(errs, models.RecipientError{Index: i, Phone: r.Phone, Error: "formType is required"})
			continue
		}
		if _, err := ParseLevel(r.Level); err != nil {
			errs = append(errs, models.RecipientError{Index: i, Phone: r.Phone, Error: err.Error()})
		}
	}
	return errs
}

// validateCandidates applies the same per-index checks to resolved candidates
// before a run starts.
func validateCandidates(cands []Candidate) []models.RecipientError {
	var errs []models.RecipientError
	for i, c := range cands {
		if c.Customer.Phone == "" {
			errs = append(errs, models.RecipientError{Index: i, Error: "phone is required"})
			continue
		}
		if c.Submission.FormType == "" {
			errs = append(errs, models.RecipientError{Index: i, Phone: c.Customer.Phone, Error: "formType is required"})
			continue
		}
		if _, err := ParseLevel(string(c.Level)); err != nil {
			errs = append(errs, models.RecipientError{Index: i, Phone: c.Customer.Phone, Error: err.Error()})
		}
	}
	return errs
}

// newValidationError wraps per-index errors into a standard error whose
// metadata carries the full list for the job variable payload.
func newValidationError(errs []models.RecipientError) *commonerrors.StandardError {
	stdErr := commonerrors.NewBatchValidationFailedError("one or more recipients are invalid")
	stdErr.Metadata = map[string]interface{}{
		"validationErrors": errs,
	}
	return stdErr
}

// EstimateDuration predicts the wall-clock time of a run over n recipients:
// per-send overhead, an average inter-send delay for every gap, and a cooldown
// for every full batch that has more work after it. Counts mirror the pacing
// loop exactly: the last send gets no trailing delay and a cooldown only
// fires when another send follows, so 45 recipients estimate as 44 delays
// and 2 cooldowns.
func EstimateDuration(n int, cfg config.RemindersConfig) time.Duration {
	if n <= 0 {
		return 0
	}
	avg := (cfg.MinDelay + cfg.MaxDelay) / 2
	d := time.Duration(n) * cfg.SendOverhead
	d += time.Duration(n-1) * avg
	if cfg.BatchSize > 0 {
		d += time.Duration((n-1)/cfg.BatchSize) * cfg.Cooldown
	}
	return d
}
