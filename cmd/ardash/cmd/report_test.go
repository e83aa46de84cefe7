package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func resetReportFlags() {
	reportExtract = ""
	reportOutputFormat = "console"
	reportOutputFile = ""
	reportFromSharePoint = false
}

func TestValidateReportFlags(t *testing.T) {
	dir := t.TempDir()
	extract := filepath.Join(dir, "extract.csv")
	if err := os.WriteFile(extract, []byte("A\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		setup   func()
		wantErr bool
	}{
		{
			name:    "no source selected",
			setup:   func() {},
			wantErr: true,
		},
		{
			name: "valid local extract",
			setup: func() {
				reportExtract = extract
			},
			wantErr: false,
		},
		{
			name: "both sources selected",
			setup: func() {
				reportExtract = extract
				reportFromSharePoint = true
			},
			wantErr: true,
		},
		{
			name: "missing extract file",
			setup: func() {
				reportExtract = filepath.Join(dir, "missing.csv")
			},
			wantErr: true,
		},
		{
			name: "extract path is a directory",
			setup: func() {
				reportExtract = dir
			},
			wantErr: true,
		},
		{
			name: "invalid output format",
			setup: func() {
				reportExtract = extract
				reportOutputFormat = "xml"
			},
			wantErr: true,
		},
		{
			name: "output directory missing",
			setup: func() {
				reportExtract = extract
				reportOutputFile = filepath.Join(dir, "nope", "out.json")
			},
			wantErr: true,
		},
		{
			name: "sharepoint source",
			setup: func() {
				reportFromSharePoint = true
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetReportFlags()
			tt.setup()
			err := validateReportFlags(reportCmd, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateReportFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	resetReportFlags()
}
