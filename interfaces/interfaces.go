// Package interfaces defines core abstractions for the pharmacy API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/pharmacy-api/medicinesparser/entities"
)

// DataQualityReport provides a summary of catalog data quality issues
type DataQualityReport struct {
	DuplicateIDs           []string
	MedicinesWithoutStock  int
	MedicinesBelowMinStock int
	MedicinesWithoutPrice  int
	UncategorizedMedicines int
	UnknownCategories      []string // Categories with no therapeutic class mapping
}

// DataStore is the catalog accessor. Reads are lock-free snapshots, writes
// swap the snapshot atomically.
type DataStore interface {
	// Data retrieval methods
	GetMedicines() []entities.Medicine
	FilterMedicines(filter entities.MedicineFilter) []entities.Medicine
	GetMedicineByID(id string) (entities.Medicine, bool)
	GetLastUpdated() time.Time
	IsUpdating() bool
	Version() uint64

	// Data update methods
	UpdateData(medicines []entities.Medicine, report *DataQualityReport)
	UpdateStock(id string, delta int, reason, actor string) (entities.Medicine, bool)
	BeginUpdate() bool
	EndUpdate()
}

// Parser loads the medicine catalog from a seed source.
type Parser interface {
	ParseCatalog(path string) ([]entities.Medicine, error)
}

// EmbeddingProvider turns text into a fixed-dimension vector.
// Errors are returned, never replaced by a placeholder vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// AlternativeFinder ranks in-stock substitutes for a requested medicine.
type AlternativeFinder interface {
	FindAlternatives(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) ([]entities.AlternativeCandidate, error)
	Strategy() string
}

// SemanticSearcher answers free-text queries over the catalog.
type SemanticSearcher interface {
	SearchMedicines(ctx context.Context, query string, maxResults int) ([]entities.AlternativeCandidate, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and index rebuilds.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	ListMedicines(w http.ResponseWriter, r *http.Request)
	FindMedicineByID(w http.ResponseWriter, r *http.Request)
	FindAlternatives(w http.ResponseWriter, r *http.Request)
	FindAlternativesBatch(w http.ResponseWriter, r *http.Request)
	TherapeuticAlternatives(w http.ResponseWriter, r *http.Request)
	CheckInventory(w http.ResponseWriter, r *http.Request)
	CalculateCost(w http.ResponseWriter, r *http.Request)
	ProcessPrescription(w http.ResponseWriter, r *http.Request)
	SearchMedicines(w http.ResponseWriter, r *http.Request)
	RecommendBySymptoms(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateMedicine checks if a catalog record is valid
	ValidateMedicine(m *entities.Medicine) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(medicines []entities.Medicine) *DataQualityReport

	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ValidateLineItems validates prescription line items
	ValidateLineItems(items []entities.LineItem) error
}
