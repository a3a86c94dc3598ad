// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Retrieval / assembly conditions. These are absorbed at the component boundary
// and surface only in logs, metrics and the raw context.
const (
	ErrCodeSourceUnavailable  ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodePayloadMalformed   ErrorCode = "PAYLOAD_MALFORMED"
	ErrCodeAggregationSkipped ErrorCode = "AGGREGATION_SKIPPED"
)

// Job input errors, thrown to the process as BPMN errors.
const (
	ErrCodeInvalidMonth ErrorCode = "INVALID_MONTH"
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Infrastructure errors.
const (
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e after attaching a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
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

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSourceUnavailableError marks a (source, month) cell that could not be retrieved.
func NewSourceUnavailableError(sourceID, month string, err error) *StandardError {
	return newError(ErrCodeSourceUnavailable, "Data source unavailable",
		fmt.Sprintf("source: %s, month: %s, error: %v", sourceID, month, err), false, err).
		WithMetadata("source", sourceID).
		WithMetadata("month", month)
}

// NewPayloadMalformedError marks a payload that failed shape validation.
func NewPayloadMalformedError(sourceID, month string, err error) *StandardError {
	return newError(ErrCodePayloadMalformed, "Payload failed validation",
		fmt.Sprintf("source: %s, month: %s, error: %v", sourceID, month, err), false, err).
		WithMetadata("source", sourceID).
		WithMetadata("month", month)
}

// NewAggregationSkippedError marks a month with no usable sales payload.
func NewAggregationSkippedError(month, reason string) *StandardError {
	return newError(ErrCodeAggregationSkipped, "Sales aggregation skipped",
		fmt.Sprintf("month: %s, reason: %s", month, reason), false, nil).
		WithMetadata("month", month)
}

func NewInvalidMonthError(month string, err error) *StandardError {
	return newError(ErrCodeInvalidMonth, "Month must be formatted as YYYY-MM",
		fmt.Sprintf("month: %q", month), false, err)
}

func NewInvalidQueryError(details string) *StandardError {
	return newError(ErrCodeInvalidQuery, "Query is not usable", details, false, nil)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Job variables could not be parsed", err.Error(), false, err)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input failed validation", details, false, nil)
}

// Generic constructors
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code. Assembly
// conditions are never retried: a missing source is reported, not re-fetched.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeExternalService:
		return 3
	case ErrCodeTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
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
	case strings.Contains(codeStr, "SOURCE") || strings.Contains(codeStr, "PAYLOAD"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "AGGREGATION"):
		return "AGGREGATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}
