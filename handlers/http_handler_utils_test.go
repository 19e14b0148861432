package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/pharmacy-api/alternatives"
	"github.com/giygas/pharmacy-api/data"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates catalog fixtures
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

func (f *TestDataFactory) CreateMedicine(id, name, category string, stock int, price string) entities.Medicine {
	return entities.Medicine{
		ID:        id,
		Name:      name,
		Category:  category,
		Stock:     stock,
		MinStock:  10,
		Price:     decimal.RequireFromString(price),
		Status:    "active",
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateCatalog returns a small catalog covering stock edge cases
func (f *TestDataFactory) CreateCatalog() []entities.Medicine {
	return []entities.Medicine{
		f.CreateMedicine("med-1", "Paracetamol 500mg", "Pain Relief", 45, "2.50"),
		f.CreateMedicine("med-2", "Ibuprofen 400mg", "Pain Relief", 0, "3.99"),
		f.CreateMedicine("med-3", "Aspirin 100mg", "Pain Relief", 25, "1.49"),
		f.CreateMedicine("med-4", "Amoxicillin 250mg", "Antibiotic", 5, "8.99"),
		f.CreateMedicine("med-5", "Metformin 500mg", "Diabetes", 30, "4.25"),
	}
}

func (f *TestDataFactory) CreateDataContainer(medicines []entities.Medicine) *data.DataContainer {
	logging.InitLogger("")
	dataContainer := data.NewDataContainer()
	dataContainer.UpdateData(medicines, nil)
	return dataContainer
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDataValidator delegates to the real validator unless an error is injected
type MockDataValidator struct {
	real               interfaces.DataValidator
	validateInputError error
	lineItemsError     error
}

func (m *MockDataValidator) ValidateMedicine(med *entities.Medicine) error {
	return m.real.ValidateMedicine(med)
}

func (m *MockDataValidator) ReportDataQuality(medicines []entities.Medicine) *interfaces.DataQualityReport {
	return m.real.ReportDataQuality(medicines)
}

func (m *MockDataValidator) ValidateInput(input string) error {
	if m.validateInputError != nil {
		return m.validateInputError
	}
	return m.real.ValidateInput(input)
}

func (m *MockDataValidator) ValidateLineItems(items []entities.LineItem) error {
	if m.lineItemsError != nil {
		return m.lineItemsError
	}
	return m.real.ValidateLineItems(items)
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{real: validation.NewDataValidator()}}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.validateInputError = err
	return b
}

func (b *MockDataValidatorBuilder) WithLineItemsError(err error) *MockDataValidatorBuilder {
	b.mock.lineItemsError = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// MockHealthChecker returns a fixed health report
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
}

type MockHealthCheckerBuilder struct {
	mock *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{mock: &MockHealthChecker{
		status:     "healthy",
		details:    map[string]any{"medicines": 5},
		httpStatus: http.StatusOK,
	}}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.mock.status = status
	b.mock.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.mock
}

// MockSearcher answers semantic searches with a fixed list
type MockSearcher struct {
	results   []entities.AlternativeCandidate
	err       error
	lastQuery string
}

func (m *MockSearcher) SearchMedicines(ctx context.Context, query string, maxResults int) ([]entities.AlternativeCandidate, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if len(m.results) > maxResults {
		return m.results[:maxResults], nil
	}
	return m.results, nil
}

// newTestHandler wires a heuristic handler over the default catalog
func newTestHandler(t testing.TB) (*HTTPHandlerImpl, *data.DataContainer) {
	t.Helper()
	store := NewTestDataFactory().CreateDataContainer(NewTestDataFactory().CreateCatalog())
	handler := NewHTTPHandler(store, NewMockDataValidatorBuilder().Build(), NewMockHealthCheckerBuilder().Build(), Services{})
	return handler, store
}

// newSearchHandler wires a handler whose service has a semantic searcher
func newSearchHandler(t testing.TB, searcher *MockSearcher) *HTTPHandlerImpl {
	t.Helper()
	store := NewTestDataFactory().CreateDataContainer(NewTestDataFactory().CreateCatalog())
	service := alternatives.NewServiceWithFinder(alternatives.NewHeuristicFinder(store), searcher, store)
	return NewHTTPHandler(store, NewMockDataValidatorBuilder().Build(), NewMockHealthCheckerBuilder().Build(), Services{Alternatives: service})
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// ExecuteJSON posts body as JSON to handler
func (h *HTTPTestHelper) ExecuteJSON(handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case string:
		buf.WriteString(v)
	default:
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			h.t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d: %s", expectedStatus, resp.Code, resp.Body.String())
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts that response contains an error with expected status
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) map[string]any {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d: %s", expectedStatus, resp.Code, resp.Body.String())
	}

	var errorResp map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &errorResp); err != nil {
		h.t.Errorf("Error response should be valid JSON, got error: %v", err)
	}

	for _, field := range []string{"error", "message", "code"} {
		if _, ok := errorResp[field]; !ok {
			h.t.Errorf("Error response should have %s field", field)
		}
	}
	return errorResp
}
