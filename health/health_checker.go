// Package health reports the state of the catalog and the embedding index
// for the /health endpoint.
package health

import (
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
)

// Catalog age thresholds
const (
	degradedAge  = 24 * time.Hour
	unhealthyAge = 48 * time.Hour
	stuckUpdate  = 6 * time.Hour
)

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// IndexStatus is the read-only view of the embedding index
type IndexStatus interface {
	IsInitialized() bool
	Len() int
	InitializedAt() time.Time
}

// Options describes what the checker reports besides the catalog
type Options struct {
	Index    IndexStatus // nil when the heuristic strategy is used
	Strategy string
	Schedule string // ';' separated HH:MM refresh times
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	index     IndexStatus
	strategy  string
	schedule  []time.Duration // offsets from midnight, sorted
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore, opts Options) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		index:     opts.Index,
		strategy:  opts.Strategy,
		schedule:  parseSchedule(opts.Schedule),
		now:       time.Now,
	}
}

// HealthCheck classifies the service from the catalog size and age. The
// index state is informational: a cold index only slows the first lookup.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	medicines := h.dataStore.GetMedicines()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	switch {
	case len(medicines) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > unhealthyAge:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > degradedAge:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > stuckUpdate:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	index := map[string]any{"initialized": false, "entries": 0}
	if h.index != nil && h.index.IsInitialized() {
		index["initialized"] = true
		index["entries"] = h.index.Len()
		index["built_at"] = h.index.InitializedAt().Format(time.RFC3339)
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"medicines":      len(medicines),
		"is_updating":    isUpdating,
		"strategy":       h.strategy,
		"vector_index":   index,
		"next_update":    h.CalculateNextUpdate().Format(time.RFC3339),
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh after now
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, offset := range h.schedule {
		if at := midnight.Add(offset); at.After(now) {
			return at
		}
	}
	return midnight.AddDate(0, 0, 1).Add(h.schedule[0])
}

// parseSchedule falls back to 06:00 and 18:00 when nothing parses
func parseSchedule(schedule string) []time.Duration {
	var offsets []time.Duration
	for _, at := range strings.Split(schedule, ";") {
		t, err := time.Parse("15:04", strings.TrimSpace(at))
		if err != nil {
			continue
		}
		offsets = append(offsets, time.Duration(t.Hour())*time.Hour+time.Duration(t.Minute())*time.Minute)
	}
	if len(offsets) == 0 {
		offsets = []time.Duration{6 * time.Hour, 18 * time.Hour}
	}
	slices.Sort(offsets)
	return slices.Compact(offsets)
}
