// Package data provides thread-safe catalog storage for the pharmacy API.
// It includes the DataContainer struct with atomic operations for zero-downtime
// updates and lock-free read access to the medicine catalog.
package data

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/similarity"
	"github.com/google/uuid"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the catalog with atomic pointers for zero-downtime updates
type DataContainer struct {
	medicines    atomic.Value // []entities.Medicine
	medicinesMap atomic.Value // map[string]entities.Medicine
	report       atomic.Value // *interfaces.DataQualityReport
	lastUpdated  atomic.Value // time.Time
	updating     atomic.Bool
	version      atomic.Uint64

	// writeMu serializes writers; readers only touch the atomic values.
	writeMu      sync.Mutex
	transactions []entities.StockTransaction
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.medicines.Store(make([]entities.Medicine, 0))
	dc.medicinesMap.Store(make(map[string]entities.Medicine))
	dc.report.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	return dc
}

// Thread-safe getters with type check

// GetMedicines returns the catalog in load order
func (dc *DataContainer) GetMedicines() []entities.Medicine {
	if v := dc.medicines.Load(); v != nil {
		if medicines, ok := v.([]entities.Medicine); ok {
			return medicines
		}
	}

	logging.Warn("Medicines list is empty or invalid")
	return []entities.Medicine{}
}

// GetMedicineByID returns a catalog record by id
func (dc *DataContainer) GetMedicineByID(id string) (entities.Medicine, bool) {
	if v := dc.medicinesMap.Load(); v != nil {
		if medicinesMap, ok := v.(map[string]entities.Medicine); ok {
			med, exists := medicinesMap[id]
			return med, exists
		}
	}

	logging.Warn("MedicinesMap is empty or invalid")
	return entities.Medicine{}, false
}

// FilterMedicines returns the records matching every set field of filter,
// in catalog order
func (dc *DataContainer) FilterMedicines(filter entities.MedicineFilter) []entities.Medicine {
	medicines := dc.GetMedicines()
	search := similarity.Normalize(strings.TrimSpace(filter.Search))

	results := make([]entities.Medicine, 0, len(medicines))
	for _, med := range medicines {
		if search != "" && !matchesSearch(med, search) {
			continue
		}
		if filter.Category != "" && med.Category != filter.Category {
			continue
		}
		if filter.Status != "" && med.Status != filter.Status {
			continue
		}
		if filter.LowStock && med.Stock > med.MinStock {
			continue
		}
		results = append(results, med)
	}
	return results
}

func matchesSearch(med entities.Medicine, search string) bool {
	for _, field := range []string{med.Name, med.GenericName, med.Category, med.Manufacturer} {
		if strings.Contains(similarity.Normalize(field), search) {
			return true
		}
	}
	return false
}

// GetDataQualityReport returns the report computed at the last catalog load
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.report.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok {
			return report
		}
	}
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// Version increases on every write. Consumers that derive state from the
// catalog compare versions to detect that it changed.
func (dc *DataContainer) Version() uint64 {
	return dc.version.Load()
}

// UpdateData atomically replaces the whole catalog
func (dc *DataContainer) UpdateData(medicines []entities.Medicine, report *interfaces.DataQualityReport) {
	dc.writeMu.Lock()
	defer dc.writeMu.Unlock()

	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	dc.store(medicines)
	dc.report.Store(report)
}

// UpdateStock applies delta to a record's stock, clamping at zero, and
// records the movement. It returns false when the id is unknown.
func (dc *DataContainer) UpdateStock(id string, delta int, reason, actor string) (entities.Medicine, bool) {
	dc.writeMu.Lock()
	defer dc.writeMu.Unlock()

	current := dc.GetMedicines()
	idx := -1
	for i := range current {
		if current[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return entities.Medicine{}, false
	}

	// Copy so readers holding the previous snapshot never see the change
	updated := make([]entities.Medicine, len(current))
	copy(updated, current)

	now := time.Now()
	updated[idx].Stock = max(0, updated[idx].Stock+delta)
	updated[idx].UpdatedAt = now

	dc.transactions = append(dc.transactions, entities.StockTransaction{
		ID:         uuid.NewString(),
		MedicineID: id,
		Delta:      delta,
		Reason:     reason,
		Actor:      actor,
		Timestamp:  now,
	})

	dc.store(updated)
	logging.Debug("Stock updated", "medicine_id", id, "delta", delta, "stock", updated[idx].Stock, "reason", reason)

	return updated[idx], true
}

// GetTransactions returns the stock movements for one medicine, or all of
// them when medicineID is empty
func (dc *DataContainer) GetTransactions(medicineID string) []entities.StockTransaction {
	dc.writeMu.Lock()
	defer dc.writeMu.Unlock()

	result := make([]entities.StockTransaction, 0, len(dc.transactions))
	for _, tx := range dc.transactions {
		if medicineID == "" || tx.MedicineID == medicineID {
			result = append(result, tx)
		}
	}
	return result
}

// store swaps the catalog snapshot (caller must hold writeMu)
func (dc *DataContainer) store(medicines []entities.Medicine) {
	medicinesMap := make(map[string]entities.Medicine, len(medicines))
	for _, med := range medicines {
		medicinesMap[med.ID] = med
	}

	// Atomic swap (zero downtime replacement)
	dc.medicines.Store(medicines)
	dc.medicinesMap.Store(medicinesMap)
	dc.lastUpdated.Store(time.Now())
	dc.version.Add(1)
}

// BeginUpdate marks the start of a catalog reload
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
