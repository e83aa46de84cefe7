package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// Report prints user-friendly diagnostics for the error and returns it
// for propagation to cobra.
func (h *CLIErrorHandler) Report(err error) error {
	if err != nil {
		h.HandleError(err)
	}
	return err
}

// HandleError handles errors and provides user-friendly messages,
// returning the process exit code for the error.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if dashErr, ok := errors.AsDashboardError(err); ok {
		return h.handleDashboardError(dashErr)
	}
	return h.handleGenericError(err)
}

// handleDashboardError handles DashboardError with detailed context
func (h *CLIErrorHandler) handleDashboardError(err *errors.DashboardError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-DashboardError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with --verbose\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFetch:
		return `Fetch error help:
• Check network connectivity to the SharePoint tenant
• Verify SP_TENANT_ID, SP_CLIENT_ID, and SP_CLIENT_SECRET are set
• Confirm the app registration still has Sites.Read.All consent
• Check that the extract folder contains at least one file`

	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the extract is a CSV or Excel workbook
• Check for proper column headers in the first row
• Ensure CSV files use UTF-8 encoding
• Try opening and re-saving the file from a spreadsheet application`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify emails and roles are spelled correctly
• Check that all values are within acceptable ranges`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Check the SP_* environment variables or the .env file
• Try running with default settings first`

	default:
		return `For more help:
• Use 'ardash --help' for general help
• Use 'ardash serve --help' or 'ardash report --help' for command help`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) || strings.Contains(err.Error(), "permission denied")
}
