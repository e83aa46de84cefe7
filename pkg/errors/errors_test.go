package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CategoryParse, CodeInvalidFormat, "test message")

	if err.Category != CategoryParse {
		t.Errorf("Expected category %s, got %s", CategoryParse, err.Category)
	}
	if err.Code != CodeInvalidFormat {
		t.Errorf("Expected code %s, got %s", CodeInvalidFormat, err.Code)
	}
	if err.Message != "test message" {
		t.Errorf("Expected message 'test message', got %s", err.Message)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, CategoryFetch, CodeFetchFailed, "download failed")

	if err.Cause != cause {
		t.Error("Expected cause to be preserved")
	}
	if !stderrors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause through Unwrap")
	}

	if Wrap(nil, CategoryFetch, CodeFetchFailed, "x") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestError_WithSuggestion(t *testing.T) {
	err := New(CategoryFetch, CodeNoFilesFound, "no files").WithSuggestion("check folder")

	msg := err.Error()
	if !strings.Contains(msg, "no files") || !strings.Contains(msg, "check folder") {
		t.Errorf("Error message missing parts: %s", msg)
	}
}

func TestError_WithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "missing").
		WithContext("file_path", "/tmp/extract.csv")

	if err.Context["file_path"] != "/tmp/extract.csv" {
		t.Errorf("Expected context value, got %v", err.Context["file_path"])
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryInternal, 5},
		{CategoryFetch, 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "test")
			if got := err.GetExitCode(); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestFetchError(t *testing.T) {
	err := FetchError(CodeNoDownloadURL, "graph:/ar/extracts", nil)

	if err.Category != CategoryFetch {
		t.Errorf("Expected fetch category, got %s", err.Category)
	}
	if err.Context["source"] != "graph:/ar/extracts" {
		t.Errorf("Expected source context, got %v", err.Context["source"])
	}
	if err.Suggestion == "" {
		t.Error("Expected a suggestion")
	}
}

func TestParseError(t *testing.T) {
	cause := fmt.Errorf("bad magic bytes")
	err := ParseError(CodeInvalidFormat, "extract.bin", cause)

	if err.Category != CategoryParse {
		t.Errorf("Expected parse category, got %s", err.Category)
	}
	if !strings.Contains(err.Message, "extract.bin") {
		t.Errorf("Expected extract name in message: %s", err.Message)
	}
	if err.Unwrap() != cause {
		t.Error("Expected cause preserved")
	}
}

func TestAsDashboardError(t *testing.T) {
	inner := FileError(CodeFileNotFound, "/x", nil)
	wrapped := fmt.Errorf("context: %w", inner)

	extracted, ok := AsDashboardError(wrapped)
	if !ok {
		t.Fatal("Expected to extract DashboardError from chain")
	}
	if extracted.Code != CodeFileNotFound {
		t.Errorf("Expected code %s, got %s", CodeFileNotFound, extracted.Code)
	}

	if _, ok := AsDashboardError(fmt.Errorf("plain")); ok {
		t.Error("Plain error should not extract")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	already := New(CategoryParse, CodeEmptyTable, "empty")
	if got := WrapIfNeeded(already, CategoryInternal, CodeUnexpectedError, "x"); got != already {
		t.Error("Existing DashboardError should pass through unchanged")
	}

	plain := fmt.Errorf("plain")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "wrapped")
	if got.Category != CategoryInternal {
		t.Errorf("Expected internal category, got %s", got.Category)
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "x") != nil {
		t.Error("nil should stay nil")
	}
}

func TestFormatCategories(t *testing.T) {
	if got := FormatCategories(nil); got != "no errors" {
		t.Errorf("Expected 'no errors', got %s", got)
	}

	got := FormatCategories(map[ErrorCategory]int{CategoryFetch: 2})
	if got != "fetch: 2" {
		t.Errorf("Expected 'fetch: 2', got %s", got)
	}
}
