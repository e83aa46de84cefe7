package config

import (
	"time"

	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/cleaner"
	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/server"
)

// CreateCleanerConfig creates the column-group configuration for the
// standard AR extract.
func CreateCleanerConfig() *cleaner.Config {
	return cleaner.DefaultConfig()
}

// CreateAnalyticsConfig creates the engine configuration, applying the
// CLI dispute-keyword override when non-empty.
func CreateAnalyticsConfig(disputeKeyword string) *analytics.Config {
	config := analytics.DefaultConfig()
	if disputeKeyword != "" {
		config.DisputeKeyword = disputeKeyword
	}
	return config
}

// CreateSource creates the extract source: a local file when a path is
// given, otherwise the SharePoint Graph source configured from the
// environment.
func CreateSource(extractFile string) (fetch.Source, error) {
	if extractFile != "" {
		return fetch.NewFileSource(extractFile), nil
	}
	return fetch.NewGraphSource(fetch.GraphConfigFromEnv())
}

// CreateServerConfig creates the HTTP server configuration.
func CreateServerConfig(addr string, cacheTTL time.Duration, authDisabled bool) *server.Config {
	config := server.DefaultConfig()
	if addr != "" {
		config.Addr = addr
	}
	if cacheTTL > 0 {
		config.CacheTTL = cacheTTL
	}
	config.AuthDisabled = authDisabled
	return config
}
