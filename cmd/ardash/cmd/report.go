package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang-ar-analytics-service/cmd/ardash/config"
	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/ardata"
	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the report command
var (
	reportExtract        string
	reportOutputFormat   string
	reportOutputFile     string
	reportDisputeKeyword string
	reportFromSharePoint bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a one-shot analytics report from an extract",
	Long: `Report runs every dashboard aggregation over one extract and writes
the result as a console, JSON, or CSV report.

Examples:
  # Human-readable report from a local extract
  ardash report --extract-file extract.csv

  # JSON report from the newest SharePoint extract
  ardash report --from-sharepoint --output-format json --output-file report.json`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportExtract, "extract-file", "e", "", "path to a local extract file")
	reportCmd.Flags().BoolVar(&reportFromSharePoint, "from-sharepoint", false, "fetch the newest extract from SharePoint instead")
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&reportOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().StringVar(&reportDisputeKeyword, "dispute-keyword", "", "projection keyword marking dispute buckets (default: Dispute)")

	viper.BindPFlag("report-extract-file", reportCmd.Flags().Lookup("extract-file"))
	viper.BindPFlag("report-output-format", reportCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("report-output-file", reportCmd.Flags().Lookup("output-file"))
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	if reportExtract == "" && !reportFromSharePoint {
		return fmt.Errorf("either --extract-file or --from-sharepoint is required")
	}
	if reportExtract != "" && reportFromSharePoint {
		return fmt.Errorf("--extract-file and --from-sharepoint are mutually exclusive")
	}

	if reportExtract != "" {
		info, err := os.Stat(reportExtract)
		if os.IsNotExist(err) {
			return fmt.Errorf("extract file does not exist: %s", reportExtract)
		}
		if err != nil {
			return fmt.Errorf("error accessing extract file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("extract path is a directory, expected a file: %s", reportExtract)
		}
	}

	if !reporter.OutputFormat(reportOutputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", reportOutputFormat)
	}

	if reportOutputFile != "" {
		dir := filepath.Dir(reportOutputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	var source fetch.Source
	if reportFromSharePoint {
		graphSource, err := config.CreateSource("")
		if err != nil {
			return handler.Report(err)
		}
		source = graphSource
	} else {
		source = fetch.NewFileSource(reportExtract)
	}

	model := ardata.NewModel(source, config.CreateCleanerConfig())
	if err := model.Load(context.Background()); err != nil {
		return handler.Report(err)
	}

	engine := analytics.NewEngine(config.CreateAnalyticsConfig(reportDisputeKeyword))
	report := reporter.BuildReport(engine, model.Dataset(), model.FileInfo())

	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{
		Format: reporter.OutputFormat(reportOutputFormat),
	})
	if err != nil {
		return handler.Report(err)
	}

	var writer io.Writer = os.Stdout
	if reportOutputFile != "" {
		file, err := os.Create(reportOutputFile)
		if err != nil {
			return handler.Report(fmt.Errorf("creating output file: %w", err))
		}
		defer file.Close()
		writer = file
	}

	if err := generator.GenerateReport(report, writer); err != nil {
		return handler.Report(err)
	}
	if reportOutputFile != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportOutputFile)
	}
	return nil
}
