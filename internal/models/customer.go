// internal/models/customer.go
package models

import "time"

// PipelineStatus tracks where a customer sits in the intake pipeline.
type PipelineStatus string

const (
	StatusLead      PipelineStatus = "lead"
	StatusQualified PipelineStatus = "qualified"
	StatusAgreement PipelineStatus = "agreement"
	StatusReady     PipelineStatus = "ready"
	StatusApplied   PipelineStatus = "applied"
	StatusApproved  PipelineStatus = "approved"
	StatusDeclined  PipelineStatus = "declined"
)

// Customer is keyed by phone handle. Email is optional and only used when the
// messaging channel is configured for email delivery.
type Customer struct {
	Phone     string         `json:"phone"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email,omitempty"`
	Status    PipelineStatus `json:"status"`
	Criterion string         `json:"criterion,omitempty"` // maps to a default form type
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// FullName joins first and last name for template rendering.
func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}
