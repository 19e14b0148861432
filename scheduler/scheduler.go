// Package scheduler reloads the medicine catalog on a fixed schedule,
// rebuilds the embedding index after each reload and warns when the catalog
// goes stale.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	defaultSchedule   = "06:00;18:00"
	monitorInterval   = 1 * time.Hour
	staleDataWarnings = 25 * time.Hour
)

// IndexRebuilder is implemented by the embedding index
type IndexRebuilder interface {
	Rebuild(ctx context.Context, medicines []entities.Medicine) error
}

// Options configures a Scheduler. Index is nil for the heuristic strategy.
type Options struct {
	CatalogPath string
	Schedule    string
	Index       IndexRebuilder
}

// Scheduler handles catalog reloads and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	index     IndexRebuilder
	path      string
	schedule  string
	scheduler *gocron.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, opts Options) *Scheduler {
	if opts.Schedule == "" {
		opts.Schedule = defaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		validator: validation.NewDataValidator(),
		index:     opts.Index,
		path:      opts.CatalogPath,
		schedule:  opts.Schedule,
		scheduler: gocron.NewScheduler(time.Local),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start performs the initial load, then schedules reloads and health monitoring
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.schedule).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "error", err, "schedule", s.schedule)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	return nil
}

// Stop stops scheduled reloads, the monitor and any index build in progress
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// updateData reloads the catalog, swaps it in and rebuilds the index.
// An index failure is logged and leaves the previous index serving.
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting catalog reload", "path", s.path)
	start := time.Now()

	medicines, err := s.parser.ParseCatalog(s.path)
	if err != nil {
		logging.Error("Failed to parse catalog", "error", err)
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	report := s.validator.ReportDataQuality(medicines)
	if report.MedicinesBelowMinStock > 0 {
		logging.Warn("Medicines below minimum stock", "count", report.MedicinesBelowMinStock)
	}
	if len(report.UnknownCategories) > 0 {
		logging.Warn("Categories without therapeutic class",
			"total", len(report.UnknownCategories),
			"categories", report.UnknownCategories,
		)
	}

	// Atomic update using injected data store (including report)
	s.dataStore.UpdateData(medicines, report)

	logging.Info("Catalog reload completed", "duration", time.Since(start).String(), "medicine_count", len(medicines))

	if s.index != nil {
		indexStart := time.Now()
		if err := s.index.Rebuild(s.ctx, medicines); err != nil {
			logging.Error("Failed to rebuild vector index", "error", err)
		} else {
			logging.Info("Vector index rebuilt", "duration", time.Since(indexStart).String())
		}
	}

	return nil
}

// startHealthMonitoring warns when the catalog has not been reloaded recently
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > staleDataWarnings {
					logging.Warn("Catalog hasn't been reloaded in over 25 hours", "last_update", lastUpdate)
				}
			}
		}
	}()
}
