package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang-ar-analytics-service/pkg/errors"
)

func testConfig(graphURL, loginURL string) *GraphConfig {
	config := DefaultGraphConfig()
	config.TenantID = "tenant"
	config.ClientID = "client"
	config.ClientSecret = "secret"
	config.SiteHost = "contoso.sharepoint.com"
	config.GraphBaseURL = graphURL
	config.LoginBaseURL = loginURL
	return config
}

// newGraphServer fakes the token endpoint plus the four Graph calls the
// source makes: site lookup, drive list, folder children, download.
func newGraphServer(t *testing.T, children string, payload []byte) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/oauth2/v2.0/token"):
			w.Write([]byte(`{"access_token":"tok"}`))
		case strings.Contains(r.URL.Path, "/sites/contoso.sharepoint.com"):
			w.Write([]byte(`{"id":"site-1"}`))
		case strings.HasSuffix(r.URL.Path, "/sites/site-1/drives"):
			w.Write([]byte(`{"value":[{"id":"drive-1"}]}`))
		case strings.Contains(r.URL.Path, "/drives/drive-1/root:"):
			w.Write([]byte(strings.ReplaceAll(children, "BASE", server.URL)))
		case r.URL.Path == "/download":
			w.Write(payload)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func TestGraphSource_FetchNewestFile(t *testing.T) {
	children := `{"value":[
		{"name":"old.csv","lastModifiedDateTime":"2026-01-01T00:00:00Z",
		 "@microsoft.graph.downloadUrl":"BASE/download"},
		{"name":"new.csv","lastModifiedDateTime":"2026-02-01T00:00:00Z",
		 "@microsoft.graph.downloadUrl":"BASE/download",
		 "lastModifiedBy":{"user":{"displayName":"Jane"}}}
	]}`
	server := newGraphServer(t, children, []byte("a,b\n1,2\n"))
	defer server.Close()

	source, err := NewGraphSource(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("NewGraphSource() error = %v", err)
	}

	data, info, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("unexpected payload %q", data)
	}
	if info.Name != "new.csv" {
		t.Errorf("Name = %q, want new.csv (newest by modification time)", info.Name)
	}
	if info.ModifiedBy != "Jane" {
		t.Errorf("ModifiedBy = %q, want Jane", info.ModifiedBy)
	}
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !info.LastModified.Equal(want) {
		t.Errorf("LastModified = %v, want %v", info.LastModified, want)
	}
}

func TestGraphSource_EmptyFolder(t *testing.T) {
	server := newGraphServer(t, `{"value":[]}`, nil)
	defer server.Close()

	source, err := NewGraphSource(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("NewGraphSource() error = %v", err)
	}

	_, _, err = source.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for empty folder")
	}
	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeNoFilesFound {
		t.Errorf("error = %v, want code %s", err, errors.CodeNoFilesFound)
	}
}

func TestGraphSource_MissingDownloadURL(t *testing.T) {
	children := `{"value":[{"name":"x.csv","lastModifiedDateTime":"2026-01-01T00:00:00Z"}]}`
	server := newGraphServer(t, children, nil)
	defer server.Close()

	source, err := NewGraphSource(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("NewGraphSource() error = %v", err)
	}

	_, _, err = source.Fetch(context.Background())
	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeNoDownloadURL {
		t.Errorf("error = %v, want code %s", err, errors.CodeNoDownloadURL)
	}
}

func TestGraphSource_TokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source, err := NewGraphSource(testConfig(server.URL, server.URL))
	if err != nil {
		t.Fatalf("NewGraphSource() error = %v", err)
	}

	_, _, err = source.Fetch(context.Background())
	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeTokenRejected {
		t.Errorf("error = %v, want code %s", err, errors.CodeTokenRejected)
	}
}

func TestGraphConfig_Validate(t *testing.T) {
	config := DefaultGraphConfig()
	if err := config.Validate(); err == nil {
		t.Error("expected validation error for empty credentials")
	}

	config = testConfig("", "")
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")
	if err := os.WriteFile(path, []byte("A,B\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, info, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "A,B\n1,2\n" {
		t.Errorf("unexpected data %q", data)
	}
	if info.Name != "extract.csv" {
		t.Errorf("Name = %q, want extract.csv", info.Name)
	}
	if info.LastModified.IsZero() {
		t.Error("expected non-zero LastModified")
	}
}

func TestFileSource_NotFound(t *testing.T) {
	_, _, err := NewFileSource("/nonexistent/extract.csv").Fetch(context.Background())
	de, ok := errors.AsDashboardError(err)
	if !ok || de.Code != errors.CodeFileNotFound {
		t.Errorf("error = %v, want code %s", err, errors.CodeFileNotFound)
	}
}
