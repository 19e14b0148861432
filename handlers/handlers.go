// Package handlers provides HTTP request handlers for the pharmacy API.
// It covers catalog lookups, alternative discovery, inventory checks,
// prescription costing and processing, and response formatting with input
// validation.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/pharmacy-api/alternatives"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/prescriptions"
	"github.com/shopspring/decimal"
)

// maxResultsLimit caps the maxResults of any request
const maxResultsLimit = 50

// ============================================================================
// REQUEST TYPES
// ============================================================================

type alternativesRequest struct {
	MedicineName      string `json:"medicineName"`
	Category          string `json:"category"`
	RequestedQuantity int    `json:"requestedQuantity"`
	MaxResults        int    `json:"maxResults"`
}

type batchLine struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	RequestedQuantity int    `json:"requestedQuantity"`
}

type batchRequest struct {
	Medicines []batchLine `json:"medicines"`
}

type therapeuticRequest struct {
	MedicineName string `json:"medicineName"`
}

type lineItemsRequest struct {
	Medicines []entities.LineItem `json:"medicines"`
}

type prescriptionRequest struct {
	Medicines []entities.PrescriptionLine `json:"medicines"`
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type symptomsRequest struct {
	Symptoms []string `json:"symptoms"`
}

// ============================================================================
// RESPONSE TYPES
// ============================================================================

// AlternativesResponse is the body of POST /v1/alternatives
type AlternativesResponse struct {
	OriginalMedicine  string                          `json:"originalMedicine"`
	RequestedQuantity int                             `json:"requestedQuantity"`
	Alternatives      []entities.AlternativeCandidate `json:"alternatives"`
	Strategy          string                          `json:"strategy"`
	Degraded          bool                            `json:"degraded"`
}

// BatchResponse is the body of POST /v1/alternatives/batch
type BatchResponse struct {
	Results  []entities.MedicineAlternatives `json:"results"`
	Strategy string                          `json:"strategy"`
	Degraded bool                            `json:"degraded"`
}

// InventoryResponse is the body of POST /v1/inventory/check
type InventoryResponse struct {
	Results      []entities.InventoryCheckResult `json:"results"`
	AllAvailable bool                            `json:"allAvailable"`
}

// CostResponse is the body of POST /v1/prescriptions/cost
type CostResponse struct {
	TotalCost decimal.Decimal `json:"totalCost"`
	Items     int             `json:"items"`
}

// SearchResponse is the body of the semantic search endpoints
type SearchResponse struct {
	Query   string                          `json:"query"`
	Results []entities.AlternativeCandidate `json:"results"`
}

// ListResponse is the body of GET /v1/medicines
type ListResponse struct {
	Data       []entities.Medicine `json:"data"`
	TotalItems int                 `json:"totalItems"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// ============================================================================
// HELPERS
// ============================================================================

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes the {error, message, code} envelope
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large: maximum %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, prescriptions.ErrNoLineItems):
		return http.StatusBadRequest
	case errors.Is(err, alternatives.ErrMedicineNotFound):
		return http.StatusNotFound
	case errors.Is(err, alternatives.ErrSemanticSearchUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validateMaxResults(n int) error {
	if n < 0 || n > maxResultsLimit {
		return fmt.Errorf("maxResults must be between 0 and %d", maxResultsLimit)
	}
	return nil
}
