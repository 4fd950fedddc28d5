// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Reminder engine error codes
const (
	ErrCodeGatewaySendFailed  ErrorCode = "GATEWAY_SEND_FAILED"
	ErrCodeStoreUpdateFailed  ErrorCode = "STORE_UPDATE_FAILED"
	ErrCodeStateConflict      ErrorCode = "STATE_CONFLICT"
	ErrCodeSubmissionNotFound ErrorCode = "SUBMISSION_NOT_FOUND"
	ErrCodeCustomerNotFound   ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeFormTypeNotFound   ErrorCode = "FORM_TYPE_NOT_FOUND"

	ErrCodeTemplateNotFound  ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateMalformed ErrorCode = "TEMPLATE_MALFORMED"

	ErrCodeBatchValidationFailed  ErrorCode = "BATCH_VALIDATION_FAILED"
	ErrCodeDispatchLeaseHeld      ErrorCode = "DISPATCH_LEASE_HELD"
	ErrCodeLinkProvisioningFailed ErrorCode = "LINK_PROVISIONING_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeAuditWriteFailed         ErrorCode = "AUDIT_WRITE_FAILED"
)

// Generic service errors used by infrastructure clients
const (
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeResourceNotFound   ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule       ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthenticationFail ErrorCode = "AUTHENTICATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Constructors
// ==========================

func NewGatewaySendFailedError(phone string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewaySendFailed,
		Message:   "Messaging gateway rejected the send",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"phone": phone},
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUpdateFailedError flags the message-sent-but-state-stale
// inconsistency: the gateway accepted the message but the submission row did
// not advance.
func NewStoreUpdateFailedError(phone, formType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUpdateFailed,
		Message:   "Submission state update failed after a delivered send",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"phone": phone, "formType": formType},
		Timestamp: time.Now().UTC(),
	}
}

func NewStateConflictError(phone, formType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateConflict,
		Message:   "Submission was modified concurrently",
		Details:   fmt.Sprintf("conditional update matched no row for %s/%s", phone, formType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSubmissionNotFoundError(phone, formType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionNotFound,
		Message:   "Submission not found",
		Details:   fmt.Sprintf("phone=%s formType=%s", phone, formType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCustomerNotFoundError(phone string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerNotFound,
		Message:   "Customer not found",
		Details:   fmt.Sprintf("phone=%s", phone),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewFormTypeNotFoundError(formType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFormTypeNotFound,
		Message:   "Form type not found",
		Details:   formType,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTemplateNotFoundError(level string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "No template stored for escalation level",
		Details:   level,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBatchValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchValidationFailed,
		Message:   "Batch input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDispatchLeaseHeldError(holder string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchLeaseHeld,
		Message:   "Another dispatch run holds the lease",
		Details:   holder,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLinkProvisioningFailedError(phone string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLinkProvisioningFailed,
		Message:   "Authorized short link provisioning failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"phone": phone},
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Query execution failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"queryType": queryType},
		Timestamp: time.Now().UTC(),
	}
}

func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit log write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service %s failed", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Call to %s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFail,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeGatewaySendFailed:        "GATEWAY_SEND_FAILED",
	ErrCodeStoreUpdateFailed:        "STORE_UPDATE_FAILED",
	ErrCodeStateConflict:            "STATE_CONFLICT",
	ErrCodeSubmissionNotFound:       "SUBMISSION_NOT_FOUND",
	ErrCodeCustomerNotFound:         "CUSTOMER_NOT_FOUND",
	ErrCodeFormTypeNotFound:         "FORM_TYPE_NOT_FOUND",
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateMalformed:        "TEMPLATE_MALFORMED",
	ErrCodeBatchValidationFailed:    "BATCH_VALIDATION_FAILED",
	ErrCodeDispatchLeaseHeld:        "DISPATCH_LEASE_HELD",
	ErrCodeLinkProvisioningFailed:   "LINK_PROVISIONING_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeAuditWriteFailed:         "AUDIT_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeLinkProvisioningFailed,
		ErrCodeAuditWriteFailed:
		return 3 // Retryable technical errors

	case ErrCodeExternalService,
		ErrCodeTimeout:
		return 2 // Transient infrastructure failures

	case ErrCodeGatewaySendFailed,
		ErrCodeStateConflict,
		ErrCodeDispatchLeaseHeld:
		// The scanner re-offers unsent candidates on the next pass; a single
		// workflow-level retry is enough.
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "GATEWAY"):
		return "GATEWAY"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "AUDIT"):
		return "DATABASE"
	case strings.Contains(codeStr, "LEASE") || strings.Contains(codeStr, "CONFLICT"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
