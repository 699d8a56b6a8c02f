package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/dto"
	"github.com/vibast-solutions/ms-go-reports/app/metrics"
	"github.com/vibast-solutions/ms-go-reports/config"

	"github.com/sirupsen/logrus"
)

var ErrSheetNotFound = errors.New("sheet not found")

// SheetMirror keeps the configured published Google Sheets mirrored in
// memory. A failed fetch leaves an empty data set for that sheet so readers
// never block on a broken source.
type SheetMirror struct {
	sources []config.SheetSource
	client  *http.Client

	mu         sync.RWMutex
	cache      map[string][]map[string]string
	loading    bool
	lastUpdate time.Time
}

func NewSheetMirror(sources []config.SheetSource, fetchTimeout time.Duration) *SheetMirror {
	return &SheetMirror{
		sources: sources,
		client:  &http.Client{Timeout: fetchTimeout},
		cache:   make(map[string][]map[string]string),
	}
}

// LoadAll fetches every configured sheet and replaces the cache entries.
// Returns per-sheet row counts.
func (m *SheetMirror) LoadAll(ctx context.Context) map[string]int {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	counts := make(map[string]int, len(m.sources))
	for _, source := range m.sources {
		rows, err := m.fetchCSV(ctx, source.URL)
		if err != nil {
			logrus.WithError(err).WithField("sheet", source.ID).Warn("Sheet fetch failed")
			metrics.SheetFetchFailures.WithLabelValues(source.ID).Inc()
			rows = []map[string]string{}
		} else {
			logrus.WithFields(logrus.Fields{
				"sheet": source.ID,
				"rows":  len(rows),
			}).Info("Sheet loaded")
		}

		m.mu.Lock()
		m.cache[source.ID] = rows
		m.mu.Unlock()
		counts[source.ID] = len(rows)
	}

	m.mu.Lock()
	m.loading = false
	m.lastUpdate = time.Now()
	m.mu.Unlock()

	metrics.SheetReloads.Inc()
	return counts
}

func (m *SheetMirror) fetchCSV(ctx context.Context, url string) ([]map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	table, err := tableFromRows(records)
	if err != nil {
		return nil, err
	}
	return table.Rows, nil
}

// Get returns the cached rows for a sheet id.
func (m *SheetMirror) Get(id string) ([]map[string]string, config.SheetSource, error) {
	m.mu.RLock()
	rows, ok := m.cache[id]
	m.mu.RUnlock()
	if !ok {
		return nil, config.SheetSource{}, fmt.Errorf("%w: %s", ErrSheetNotFound, id)
	}

	source := config.SheetSource{ID: id, Label: id}
	for _, s := range m.sources {
		if s.ID == id {
			source = s
			break
		}
	}
	return rows, source, nil
}

func (m *SheetMirror) List() []dto.SheetSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]dto.SheetSummary, 0, len(m.sources))
	for _, source := range m.sources {
		rows := m.cache[source.ID]
		summaries = append(summaries, dto.SheetSummary{
			ID:       source.ID,
			Label:    source.Label,
			Keywords: source.Keywords,
			Type:     source.Type,
			Rows:     len(rows),
			HasData:  len(rows) > 0,
		})
	}
	return summaries
}

// Status reports whether a load is in flight, when the last one finished,
// and which sheet ids are cached.
func (m *SheetMirror) Status() (loading bool, lastUpdate time.Time, ids []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids = make([]string, 0, len(m.cache))
	for id := range m.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return m.loading, m.lastUpdate, ids
}
