package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryProcessing    ErrorCategory = "processing"
	ErrorCategoryChallenge     ErrorCategory = "challenge"
	ErrorCategoryResolution    ErrorCategory = "resolution"
)

// ErrChallengeRequired is returned when a registrar insists on an interactive challenge
var ErrChallengeRequired = errors.New("registrar requires an interactive challenge")

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewValidationError builds the error returned for malformed inbound requests
func NewValidationError(code, message, operation string) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, code, message, "AllotmentService", operation, false, nil)
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// GetCategory returns the error category
func (e *ServiceError) GetCategory() ErrorCategory {
	return e.Category
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"timestamp":        e.Timestamp,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}

// CategoryOf returns the category of a ServiceError anywhere in the chain, or "" if none
func CategoryOf(err error) ErrorCategory {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.GetCategory()
	}
	return ""
}

// IsValidationError reports whether err was raised by request validation
func IsValidationError(err error) bool {
	return CategoryOf(err) == ErrorCategoryValidation
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	if serviceErr, ok := err.(*ServiceError); ok {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// ClassifyTransportError wraps a failed outbound call as a network or timeout ServiceError
func ClassifyTransportError(err error, registrar, operation string) *ServiceError {
	if err == nil {
		return nil
	}
	if serviceErr, ok := err.(*ServiceError); ok {
		return serviceErr
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewServiceError(ErrorCategoryTimeout, "UPSTREAM_TIMEOUT", err.Error(), registrar, operation, true, err)
	}
	return NewServiceError(ErrorCategoryNetwork, "UPSTREAM_UNAVAILABLE", err.Error(), registrar, operation, IsRetryableError(err), err)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if serviceErr, ok := err.(*ServiceError); ok {
		return serviceErr.IsRetryable()
	}

	// Default heuristics for standard errors
	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket", "eof",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}

// BuildBatchProcessingErrorSummary creates a comprehensive error summary for batch processing results
func BuildBatchProcessingErrorSummary(successCount, totalErrorCount int, sampleErrors []error) string {
	var summaryBuilder strings.Builder
	summaryBuilder.WriteString(fmt.Sprintf("batch processing completed with %d successes and %d failures", successCount, totalErrorCount))

	// Include sample errors for debugging (limited to prevent memory issues)
	sampleSize := len(sampleErrors)
	if sampleSize > 3 {
		sampleSize = 3
	}

	for i := 0; i < sampleSize; i++ {
		summaryBuilder.WriteString(fmt.Sprintf("; %s", sampleErrors[i].Error()))
	}

	if totalErrorCount > len(sampleErrors) {
		summaryBuilder.WriteString(fmt.Sprintf("; and %d additional errors", totalErrorCount-len(sampleErrors)))
	}

	return summaryBuilder.String()
}
