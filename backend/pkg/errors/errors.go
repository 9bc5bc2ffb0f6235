package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeProvider represents completion/embedding provider failures
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeClassification represents utterances that could not be classified
	ErrorTypeClassification ErrorType = "classification"
	// ErrorTypeExtraction represents entity/relationship extraction errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeHistory represents conversation history store errors
	ErrorTypeHistory ErrorType = "history"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
	// ErrorTypeValidation represents invalid caller input
	ErrorTypeValidation ErrorType = "validation"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Provider Errors

// ErrProviderFailed is returned when a completion or embedding call fails
type ErrProviderFailed struct {
	*BaseError
	Operation string
	Model     string
	Attempts  int
	Retryable bool
}

func NewProviderFailed(operation, model string, attempts int, retryable bool, err error) *ErrProviderFailed {
	return &ErrProviderFailed{
		BaseError: NewBaseError(ErrorTypeProvider, fmt.Sprintf("%s failed after %d attempts", operation, attempts), err),
		Operation: operation,
		Model:     model,
		Attempts:  attempts,
		Retryable: retryable,
	}
}

// ErrProviderNoChoices is returned when a completion carries no choices
var ErrProviderNoChoices = NewBaseError(ErrorTypeProvider, "no choices in completion response", nil)

// Classification Errors

// ErrUnclassifiable is returned when the model answers with a token outside the label set.
// The item stays unresolved; callers must not guess a label.
type ErrUnclassifiable struct {
	*BaseError
	Token string
}

func NewUnclassifiable(token string) *ErrUnclassifiable {
	return &ErrUnclassifiable{
		BaseError: NewBaseError(ErrorTypeClassification, fmt.Sprintf("unrecognized classification %q", token), nil),
		Token:     token,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph statement fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrGraphBatchFailed is returned when a compiled batch stops at a failing statement.
// Statements before Index were committed.
type ErrGraphBatchFailed struct {
	*BaseError
	Index int
	Total int
}

func NewGraphBatchFailed(index, total int, err error) *ErrGraphBatchFailed {
	return &ErrGraphBatchFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("batch failed at statement %d of %d", index+1, total), err),
		Index:     index,
		Total:     total,
	}
}

// History Errors

// ErrHistoryFailed is returned when the conversation history store fails
type ErrHistoryFailed struct {
	*BaseError
	Operation string
}

func NewHistoryFailed(operation string, err error) *ErrHistoryFailed {
	return &ErrHistoryFailed{
		BaseError: NewBaseError(ErrorTypeHistory, fmt.Sprintf("history %s failed", operation), err),
		Operation: operation,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Validation Errors

// ErrInvalidItem is returned when a conversation item fails validation
type ErrInvalidItem struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidItem(field, reason string) *ErrInvalidItem {
	return &ErrInvalidItem{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid item: %s %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

type typedError interface {
	error
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if te, ok := err.(typedError); ok && te.errorType() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var providerErr *ErrProviderFailed
	if stderrors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	// Context, classification and validation errors will fail the same way again
	if IsErrorType(err, ErrorTypeContext) ||
		IsErrorType(err, ErrorTypeClassification) ||
		IsErrorType(err, ErrorTypeValidation) {
		return false
	}
	// Graph connection and query errors are retryable
	if IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeHistory) {
		return true
	}
	return false
}
