// Package fetch retrieves the latest AR extract from its source.
//
// The production source is a SharePoint document folder reached through
// the Microsoft Graph API; a local file source covers offline runs and
// tests. Both return the raw extract bytes plus file metadata, leaving
// parsing to the caller.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"
)

// FileInfo describes the extract file that was fetched.
type FileInfo struct {
	Name         string    `json:"name"`
	LastModified time.Time `json:"last_modified"`
	ModifiedBy   string    `json:"modified_by"`
	DownloadURL  string    `json:"-"`
}

// Source produces the newest extract available from a data source.
type Source interface {
	Fetch(ctx context.Context) ([]byte, FileInfo, error)
}

// GraphConfig holds the Microsoft Graph client credentials and the
// SharePoint location of the extract folder.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// SiteHost is the SharePoint hostname, e.g. "contoso.sharepoint.com".
	SiteHost string
	// SitePath is the server-relative site path, e.g.
	// "/sites/FIN_AccountsReceivable".
	SitePath string
	// FolderPath is the drive-relative folder holding the extracts.
	FolderPath string

	// GraphBaseURL and LoginBaseURL exist so tests can point the client
	// at a local server. Empty means the public endpoints.
	GraphBaseURL string
	LoginBaseURL string

	Timeout time.Duration
}

// DefaultGraphConfig returns a config with the standard endpoints and
// extract folder filled in; credentials must still be provided.
func DefaultGraphConfig() *GraphConfig {
	return &GraphConfig{
		SitePath:     "/sites/FIN_AccountsReceivable",
		FolderPath:   "/2026/AR_Tech_Source File",
		GraphBaseURL: "https://graph.microsoft.com/v1.0",
		LoginBaseURL: "https://login.microsoftonline.com",
		Timeout:      30 * time.Second,
	}
}

// GraphConfigFromEnv builds a config from SP_* environment variables,
// falling back to the defaults for endpoints and paths.
func GraphConfigFromEnv() *GraphConfig {
	config := DefaultGraphConfig()
	config.TenantID = os.Getenv("SP_TENANT_ID")
	config.ClientID = os.Getenv("SP_CLIENT_ID")
	config.ClientSecret = os.Getenv("SP_CLIENT_SECRET")
	if host := os.Getenv("SHAREPOINT_SITE"); host != "" {
		config.SiteHost = host
	}
	if path := os.Getenv("SHAREPOINT_SITE_PATH"); path != "" {
		config.SitePath = path
	}
	if folder := os.Getenv("SHAREPOINT_FOLDER_PATH"); folder != "" {
		config.FolderPath = folder
	}
	return config
}

// Validate checks that the required credentials are present.
func (c *GraphConfig) Validate() error {
	missing := []string{}
	if c.TenantID == "" {
		missing = append(missing, "tenant id")
	}
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.SiteHost == "" {
		missing = append(missing, "site host")
	}
	if len(missing) > 0 {
		return errors.ConfigurationError(errors.CodeMissingConfig,
			"graph", strings.Join(missing, ", "), nil)
	}
	return nil
}

// GraphSource fetches the newest extract from a SharePoint folder:
// client-credentials token, site and drive resolution, newest child by
// modification time, then content download.
type GraphSource struct {
	config *GraphConfig
	client *http.Client
	logger logger.Logger
}

// NewGraphSource creates a GraphSource after validating the config.
func NewGraphSource(config *GraphConfig) (*GraphSource, error) {
	if config == nil {
		config = DefaultGraphConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GraphSource{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger.GetGlobalLogger().WithComponent("fetch"),
	}, nil
}

// Fetch downloads the newest extract in the configured folder.
func (s *GraphSource) Fetch(ctx context.Context) ([]byte, FileInfo, error) {
	token, err := s.acquireToken(ctx)
	if err != nil {
		return nil, FileInfo{}, err
	}

	siteID, err := s.resolveSiteID(ctx, token)
	if err != nil {
		return nil, FileInfo{}, err
	}
	driveID, err := s.resolveDriveID(ctx, token, siteID)
	if err != nil {
		return nil, FileInfo{}, err
	}

	info, err := s.latestFile(ctx, token, driveID)
	if err != nil {
		return nil, FileInfo{}, err
	}
	if info.DownloadURL == "" {
		return nil, FileInfo{}, errors.FetchError(errors.CodeNoDownloadURL,
			fmt.Sprintf("file %s has no download URL", info.Name), nil)
	}

	data, err := s.download(ctx, info.DownloadURL)
	if err != nil {
		return nil, FileInfo{}, err
	}

	s.logger.WithFields(logger.Fields{
		"file":          info.Name,
		"bytes":         len(data),
		"last_modified": info.LastModified,
	}).Info("Fetched AR extract")

	return data, info, nil
}

func (s *GraphSource) acquireToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
	}
	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", s.config.LoginBaseURL, s.config.TenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.FetchError(errors.CodeFetchFailed, "building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.FetchError(errors.CodeFetchFailed, "requesting access token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.FetchError(errors.CodeTokenRejected,
			fmt.Sprintf("token endpoint returned %d", resp.StatusCode), nil)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.FetchError(errors.CodeTokenRejected, "decoding token response", err)
	}
	if body.AccessToken == "" {
		return "", errors.FetchError(errors.CodeTokenRejected, "token response missing access_token", nil)
	}
	return body.AccessToken, nil
}

func (s *GraphSource) resolveSiteID(ctx context.Context, token string) (string, error) {
	endpoint := fmt.Sprintf("%s/sites/%s:%s", s.config.GraphBaseURL, s.config.SiteHost, s.config.SitePath)

	var body struct {
		ID string `json:"id"`
	}
	if err := s.getJSON(ctx, token, endpoint, &body); err != nil {
		return "", err
	}
	return body.ID, nil
}

func (s *GraphSource) resolveDriveID(ctx context.Context, token, siteID string) (string, error) {
	endpoint := fmt.Sprintf("%s/sites/%s/drives", s.config.GraphBaseURL, siteID)

	var body struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := s.getJSON(ctx, token, endpoint, &body); err != nil {
		return "", err
	}
	if len(body.Value) == 0 {
		return "", errors.FetchError(errors.CodeNoFilesFound, "site has no document drives", nil)
	}
	return body.Value[0].ID, nil
}

// driveItem is the subset of the Graph drive-item payload we read.
type driveItem struct {
	Name                 string    `json:"name"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	DownloadURL          string    `json:"@microsoft.graph.downloadUrl"`
	LastModifiedBy       struct {
		User struct {
			DisplayName string `json:"displayName"`
		} `json:"user"`
	} `json:"lastModifiedBy"`
}

func (s *GraphSource) latestFile(ctx context.Context, token, driveID string) (FileInfo, error) {
	endpoint := fmt.Sprintf("%s/drives/%s/root:%s:/children",
		s.config.GraphBaseURL, driveID, s.config.FolderPath)

	var body struct {
		Value []driveItem `json:"value"`
	}
	if err := s.getJSON(ctx, token, endpoint, &body); err != nil {
		return FileInfo{}, err
	}
	if len(body.Value) == 0 {
		return FileInfo{}, errors.FetchError(errors.CodeNoFilesFound,
			fmt.Sprintf("no files in folder %s", s.config.FolderPath), nil)
	}

	latest := body.Value[0]
	for _, item := range body.Value[1:] {
		if item.LastModifiedDateTime.After(latest.LastModifiedDateTime) {
			latest = item
		}
	}

	modifiedBy := latest.LastModifiedBy.User.DisplayName
	if modifiedBy == "" {
		modifiedBy = "Unknown"
	}
	return FileInfo{
		Name:         latest.Name,
		LastModified: latest.LastModifiedDateTime,
		ModifiedBy:   modifiedBy,
		DownloadURL:  latest.DownloadURL,
	}, nil
}

func (s *GraphSource) download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, errors.FetchError(errors.CodeFetchFailed, "building download request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.FetchError(errors.CodeFetchFailed, "downloading extract", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.FetchError(errors.CodeRemoteStatus,
			fmt.Sprintf("download returned %d", resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}

func (s *GraphSource) getJSON(ctx context.Context, token, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.FetchError(errors.CodeFetchFailed, "building Graph request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.FetchError(errors.CodeFetchFailed,
			fmt.Sprintf("requesting %s", endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.FetchError(errors.CodeRemoteStatus,
			fmt.Sprintf("Graph returned %d for %s", resp.StatusCode, endpoint), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.FetchError(errors.CodeFetchFailed, "decoding Graph response", err)
	}
	return nil
}

// FileSource reads the extract from a local file. Used by the report
// command and tests.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch reads the file and reports its modification time as the
// last-modified metadata.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, FileInfo{}, err
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, FileInfo{}, errors.FileError(errors.CodeFileNotFound, s.Path, err)
		}
		return nil, FileInfo{}, errors.FileError(errors.CodeFilePermission, s.Path, err)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, FileInfo{}, errors.FileError(errors.CodeFilePermission, s.Path, err)
	}

	return data, FileInfo{
		Name:         stat.Name(),
		LastModified: stat.ModTime().UTC(),
		ModifiedBy:   "local",
	}, nil
}
