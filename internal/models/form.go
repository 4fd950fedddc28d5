// internal/models/form.go
package models

// FormType describes one document-collection form. RequiredFields is the number
// of field identifiers a submission must carry before it counts as completed.
type FormType struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	RequiredFields int    `json:"requiredFields"`
}

// CriterionFormTypes maps a customer's criterion tag to the default form type
// used when materializing a synthetic submission for a customer that has never
// been sent anything.
type CriterionFormTypes map[string]string

// DefaultFor returns the form type id mapped to the criterion, or the fallback
// when the criterion is unknown or empty.
func (m CriterionFormTypes) DefaultFor(criterion, fallback string) string {
	if id, ok := m[criterion]; ok && id != "" {
		return id
	}
	return fallback
}
