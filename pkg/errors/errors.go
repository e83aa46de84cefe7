package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFetch         ErrorCategory = "fetch"
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Fetch errors
	CodeFetchFailed   ErrorCode = "fetch_failed"
	CodeNoFilesFound  ErrorCode = "no_files_found"
	CodeNoDownloadURL ErrorCode = "no_download_url"
	CodeTokenRejected ErrorCode = "token_rejected"
	CodeRemoteStatus  ErrorCode = "remote_status"

	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeEmptyTable    ErrorCode = "empty_table"
	CodeNoSheets      ErrorCode = "no_sheets"

	// Validation errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidValue  ErrorCode = "invalid_value"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// DashboardError is the base error type for all application errors.
// Fetch errors are fatal for a refresh; parse errors are fatal only
// after every tabular format has been tried. Cell-level data problems
// never surface as errors at all (they degrade to zero or missing).
type DashboardError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *DashboardError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *DashboardError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	case CategoryFetch:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *DashboardError) WithContext(key string, value interface{}) *DashboardError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *DashboardError) WithSuggestion(suggestion string) *DashboardError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DashboardError
func New(category ErrorCategory, code ErrorCode, message string) *DashboardError {
	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with DashboardError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FetchError creates an error for a failed remote extract download
func FetchError(code ErrorCode, source string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeFetchFailed:
		message = fmt.Sprintf("failed to download AR extract from %s", source)
		suggestion = "check network connectivity and the source credentials"
	case CodeNoFilesFound:
		message = fmt.Sprintf("no files found in source folder %s", source)
		suggestion = "verify the configured folder path contains the AR extract"
	case CodeNoDownloadURL:
		message = fmt.Sprintf("latest file in %s has no download URL", source)
		suggestion = "confirm the service principal has read access to the drive"
	case CodeTokenRejected:
		message = fmt.Sprintf("authentication rejected by %s", source)
		suggestion = "check tenant, client id, and client secret settings"
	case CodeRemoteStatus:
		message = fmt.Sprintf("unexpected HTTP status from %s", source)
		suggestion = "the remote service may be unavailable; try again later"
	default:
		message = fmt.Sprintf("fetch error from %s", source)
		suggestion = "check the source configuration and try again"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryFetch, code, message)
	} else {
		result = New(CategoryFetch, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates an error for an extract that no tabular parser accepted
func ParseError(code ErrorCode, name string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("extract %s is not parseable as CSV, XLSX, or XLS", name)
		suggestion = "verify the extract is exported in a supported tabular format"
	case CodeEmptyTable:
		message = fmt.Sprintf("extract %s contains no data rows", name)
		suggestion = "ensure the file contains a header row and at least one invoice row"
	case CodeNoSheets:
		message = fmt.Sprintf("workbook %s has no sheets", name)
		suggestion = "verify the spreadsheet was saved with a data sheet"
	default:
		message = fmt.Sprintf("parse error in extract %s", name)
		suggestion = "check the file format and data integrity"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("extract", name)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("required column '%s' is missing from the extract", field)
		suggestion = "verify the extract schema includes this column"
	case CodeInvalidValue:
		message = fmt.Sprintf("invalid value in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting via flag, environment, or config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *DashboardError {
	message := fmt.Sprintf("internal error during %s", operation)
	suggestion := "try again or contact support if the problem persists"
	if code == CodeUnexpectedError {
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	}

	var result *DashboardError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// IsDashboardError checks if an error is a DashboardError
func IsDashboardError(err error) bool {
	_, ok := err.(*DashboardError)
	return ok
}

// AsDashboardError extracts a DashboardError from an error chain
func AsDashboardError(err error) (*DashboardError, bool) {
	var dashErr *DashboardError
	if errors.As(err, &dashErr) {
		return dashErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a DashboardError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	if dashErr, ok := AsDashboardError(err); ok {
		return dashErr
	}

	return Wrap(err, category, code, message)
}

// FormatCategories renders category counts for log summaries
func FormatCategories(counts map[ErrorCategory]int) string {
	if len(counts) == 0 {
		return "no errors"
	}
	var parts []string
	for category, count := range counts {
		parts = append(parts, fmt.Sprintf("%s: %d", category, count))
	}
	return strings.Join(parts, ", ")
}
