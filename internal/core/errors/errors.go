package errors

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Domain errors - these represent business rule violations
var (
	// Datasets
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrInvalidRecords     = errors.New("dataset contains invalid records")
	ErrUnknownView        = errors.New("unknown dashboard view")

	// Record validation
	ErrNegativeCount   = errors.New("count must not be negative")
	ErrInvalidACV      = errors.New("acv must be a non-negative finite number")
	ErrQuarterRequired = errors.New("closed fiscal quarter is required")
	ErrCategoryMissing = errors.New("category is required")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

// NewDatasetNotFoundError reports a dataset name missing from the catalog.
func NewDatasetNotFoundError(name string) *AppError {
	return &AppError{
		Err:        ErrDatasetNotFound,
		Message:    fmt.Sprintf("Dataset %q not found", name),
		Code:       "DATASET_NOT_FOUND",
		StatusCode: 404,
		Details:    map[string]interface{}{"dataset": name},
	}
}

// NewDatasetUnavailableError reports a record source failure. The label is the
// human name of the dataset, e.g. "customer types".
func NewDatasetUnavailableError(err error, label string) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrDatasetUnavailable, err),
		Message:    fmt.Sprintf("Failed to load %s data", label),
		Code:       "DATASET_UNAVAILABLE",
		StatusCode: 500,
	}
}

func NewValidationError(err error, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: 422,
		Details:    details,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

// AddRecord records a message against the record at index, keyed
// "records[<index>].<field>".
func (v *ValidationErrors) AddRecord(index int, field, message string) {
	v.Add("records["+strconv.Itoa(index)+"]."+field, message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Fields returns the failing field keys in sorted order.
func (v *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}

func (v *ValidationErrors) Unwrap() error {
	return ErrInvalidRecords
}
