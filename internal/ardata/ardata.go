// Package ardata owns the load pipeline: fetch the newest extract,
// parse it, clean it, and expose the resulting dataset snapshot.
package ardata

import (
	"context"
	"sync"

	"golang-ar-analytics-service/internal/cleaner"
	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/internal/parsers"
	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"
)

// Model loads and holds the cleaned AR dataset. A failed load leaves
// the previously loaded snapshot untouched, so serving layers keep
// answering from stale data while the source is unreachable.
type Model struct {
	source  fetch.Source
	cleaner *cleaner.Cleaner
	logger  logger.Logger

	mu      sync.RWMutex
	dataset *models.Dataset
	info    fetch.FileInfo
}

// NewModel creates a Model reading from the given source. A nil
// cleanerConfig selects the default column groups.
func NewModel(source fetch.Source, cleanerConfig *cleaner.Config) *Model {
	return &Model{
		source:  source,
		cleaner: cleaner.New(cleanerConfig),
		logger:  logger.GetGlobalLogger().WithComponent("ardata"),
	}
}

// Load fetches, parses, and cleans the newest extract, replacing the
// held snapshot on success. On any failure the previous snapshot and
// metadata are retained and the error is returned.
func (m *Model) Load(ctx context.Context) error {
	data, info, err := m.source.Fetch(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Extract fetch failed, keeping previous snapshot")
		return errors.WrapIfNeeded(err, errors.CategoryFetch, errors.CodeFetchFailed, "loading AR extract")
	}

	table, err := parsers.ParseTable(data, info.Name)
	if err != nil {
		m.logger.WithError(err).WithField("file", info.Name).Error("Extract parse failed, keeping previous snapshot")
		return err
	}

	dataset := m.cleaner.Clean(table)

	m.mu.Lock()
	m.dataset = dataset
	m.info = info
	m.mu.Unlock()

	m.logger.WithFields(logger.Fields{
		"file": info.Name,
		"rows": dataset.Len(),
	}).Info("Loaded AR dataset")
	return nil
}

// Dataset returns the current snapshot, or nil when nothing has been
// loaded yet.
func (m *Model) Dataset() *models.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

// FileInfo returns the metadata of the extract behind the current
// snapshot.
func (m *Model) FileInfo() fetch.FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

// Loaded reports whether a snapshot is available.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset != nil
}
