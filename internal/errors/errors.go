// Package errors provides the structured error vocabulary shared by the
// docsentry scanner, linter, and link checker, plus a concurrency-safe
// collector for aggregating problems across a corpus scan.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Severity represents how serious a reported problem is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DocError is a structured error tied to a location in the documentation tree.
type DocError struct {
	Type     ErrorType
	Rule     string
	Message  string
	Cause    error
	Document string
	Line     int
	Column   int
	Severity Severity
}

// Error implements the error interface.
func (e *DocError) Error() string {
	var parts []string

	if e.Rule != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Rule))
	}

	if e.Document != "" {
		location := e.Document
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DocError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and rule.
func (e *DocError) Is(target error) bool {
	var t *DocError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Rule == t.Rule
	}

	return false
}

// WithLocation adds document location information.
func (e *DocError) WithLocation(document string, line, column int) *DocError {
	e.Document = document
	e.Line = line
	e.Column = column

	return e
}

// NewValidationError creates a validation error for a lint rule.
func NewValidationError(rule, message string) *DocError {
	return &DocError{
		Type:     ErrorTypeValidation,
		Rule:     rule,
		Message:  message,
		Severity: SeverityError,
	}
}

// NewNetworkError creates a network error for link checking.
func NewNetworkError(message string, cause error) *DocError {
	return &DocError{
		Type:     ErrorTypeNetwork,
		Rule:     "link-unreachable",
		Message:  message,
		Cause:    cause,
		Severity: SeverityError,
	}
}

// NewIOError creates an IO error for unreadable documents.
func NewIOError(message string, cause error) *DocError {
	return &DocError{
		Type:     ErrorTypeIO,
		Message:  message,
		Cause:    cause,
		Severity: SeverityError,
	}
}

// NewSecurityError creates a security error; never recoverable.
func NewSecurityError(message string) *DocError {
	return &DocError{
		Type:     ErrorTypeSecurity,
		Message:  message,
		Severity: SeverityFatal,
	}
}

// CollectedError is a DocError with the time it was recorded.
type CollectedError struct {
	DocError
	Timestamp time.Time
}

// ErrorCollector aggregates structured errors from concurrent corpus
// operations. All methods are safe for concurrent use.
type ErrorCollector struct {
	collected []CollectedError
	mutex     sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		collected: make([]CollectedError, 0),
	}
}

// Add records a structured error.
func (ec *ErrorCollector) Add(err DocError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	ec.collected = append(ec.collected, CollectedError{DocError: err, Timestamp: time.Now()})
}

// AddError records a plain error, wrapping it as an internal DocError.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}

	var docErr *DocError
	if errors.As(err, &docErr) {
		ec.Add(*docErr)
		return
	}

	ec.Add(DocError{
		Type:     ErrorTypeInternal,
		Message:  err.Error(),
		Cause:    err,
		Severity: SeverityError,
	})
}

// Errors returns a copy of all collected errors sorted by document then line.
func (ec *ErrorCollector) Errors() []CollectedError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]CollectedError, len(ec.collected))
	copy(result, ec.collected)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Document != result[j].Document {
			return result[i].Document < result[j].Document
		}
		return result[i].Line < result[j].Line
	})
	return result
}

// ByDocument returns collected errors for a single document.
func (ec *ErrorCollector) ByDocument(document string) []CollectedError {
	var result []CollectedError
	for _, err := range ec.Errors() {
		if err.Document == document {
			result = append(result, err)
		}
	}
	return result
}

// HasErrors reports whether any error-or-worse problem was collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	for _, err := range ec.collected {
		if err.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of collected errors.
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	return len(ec.collected)
}

// Clear drops all collected errors.
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()

	ec.collected = ec.collected[:0]
}
