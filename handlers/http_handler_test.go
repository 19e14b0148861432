package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/prescriptions"
	"github.com/shopspring/decimal"
)

// ============================================================================
// CORE HANDLER TESTS
// ============================================================================

func TestNewHTTPHandlerDefaults(t *testing.T) {
	handler, _ := newTestHandler(t)

	if handler.alternatives == nil || handler.processor == nil || handler.checker == nil || handler.calculator == nil {
		t.Fatal("Missing services should be built from the data store")
	}
	if handler.alternatives.Strategy() != entities.StrategyHeuristic {
		t.Errorf("Default strategy should be heuristic, got %s", handler.alternatives.Strategy())
	}
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		payload      any
		expectedJSON string
	}{
		{"object", http.StatusOK, map[string]string{"message": "success"}, `{"message":"success"}`},
		{"empty payload", http.StatusOK, nil, `null`},
		{"array payload", http.StatusCreated, []string{"item1", "item2"}, `["item1","item2"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondWithJSON(rr, tt.code, tt.payload)

			if rr.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Expected Content-Type application/json; charset=utf-8, got %s", ct)
			}
			if !strings.Contains(rr.Body.String(), tt.expectedJSON) {
				t.Errorf("Expected body to contain %s, got %s", tt.expectedJSON, rr.Body.String())
			}
		})
	}
}

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, http.StatusNotFound, "Medicine not found")

	resp := NewHTTPTestHelper(t).AssertErrorResponse(rr, http.StatusNotFound)
	if resp["error"] != "Not Found" || resp["message"] != "Medicine not found" || resp["code"] != float64(404) {
		t.Errorf("Unexpected envelope %v", resp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{prescriptions.ErrNoLineItems, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ============================================================================
// CATALOG ENDPOINTS
// ============================================================================

func TestListMedicines(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
	}{
		{"all", "/v1/medicines", http.StatusOK, 5},
		{"search", "/v1/medicines?search=PARACETAMOL", http.StatusOK, 1},
		{"category", "/v1/medicines?category=Pain+Relief", http.StatusOK, 3},
		{"low stock", "/v1/medicines?lowStock=true", http.StatusOK, 2},
		{"combined", "/v1/medicines?category=Pain+Relief&lowStock=true", http.StatusOK, 1},
		{"no match", "/v1/medicines?search=zzz", http.StatusOK, 0},
		{"bad lowStock", "/v1/medicines?lowStock=maybe", http.StatusBadRequest, 0},
		{"dangerous search", "/v1/medicines?search=%3Cscript%3E", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := helper.ExecuteRequest(handler.ListMedicines, http.MethodGet, tt.path, nil)
			if tt.wantCode != http.StatusOK {
				helper.AssertErrorResponse(rr, tt.wantCode)
				return
			}

			var resp ListResponse
			helper.AssertJSONResponse(rr, http.StatusOK, &resp)
			if resp.TotalItems != tt.wantCount || len(resp.Data) != tt.wantCount {
				t.Errorf("Expected %d medicines, got %d", tt.wantCount, resp.TotalItems)
			}
		})
	}
}

func TestFindMedicineByID(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(handler.FindMedicineByID, http.MethodGet, "/v1/medicines/med-3", map[string]string{"id": "med-3"})
	var med entities.Medicine
	helper.AssertJSONResponse(rr, http.StatusOK, &med)
	if med.Name != "Aspirin 100mg" || !med.Price.Equal(decimal.RequireFromString("1.49")) {
		t.Errorf("Unexpected medicine %+v", med)
	}

	rr = helper.ExecuteRequest(handler.FindMedicineByID, http.MethodGet, "/v1/medicines/nope", map[string]string{"id": "nope"})
	helper.AssertErrorResponse(rr, http.StatusNotFound)

	rr = helper.ExecuteRequest(handler.FindMedicineByID, http.MethodGet, "/v1/medicines/", nil)
	helper.AssertErrorResponse(rr, http.StatusBadRequest)
}

// ============================================================================
// ALTERNATIVES
// ============================================================================

func TestFindAlternatives(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.FindAlternatives, "/v1/alternatives", map[string]any{
		"medicineName":      "Ibuprofen 400mg",
		"category":          "Pain Relief",
		"requestedQuantity": 30,
	})

	var resp AlternativesResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)

	if resp.Strategy != entities.StrategyHeuristic || resp.Degraded {
		t.Errorf("Unexpected strategy %s (degraded=%v)", resp.Strategy, resp.Degraded)
	}
	if len(resp.Alternatives) != 2 {
		t.Fatalf("Expected 2 alternatives, got %d", len(resp.Alternatives))
	}
	// Paracetamol can fill 30 units, Aspirin cannot
	if resp.Alternatives[0].Name != "Paracetamol 500mg" || resp.Alternatives[1].Name != "Aspirin 100mg" {
		t.Errorf("Unexpected order %s, %s", resp.Alternatives[0].Name, resp.Alternatives[1].Name)
	}
	for _, alt := range resp.Alternatives {
		if alt.AvailableQuantity <= 0 || alt.Name == "Ibuprofen 400mg" {
			t.Errorf("Unexpected alternative %+v", alt)
		}
	}
}

func TestFindAlternativesDefaults(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.FindAlternatives, "/v1/alternatives", map[string]any{"medicineName": "Aspirin"})

	var resp AlternativesResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if resp.RequestedQuantity != 1 {
		t.Errorf("Expected requested quantity 1, got %d", resp.RequestedQuantity)
	}
	// General has no members in the catalog
	if resp.Alternatives == nil || len(resp.Alternatives) != 0 {
		t.Errorf("Expected an empty list, got %v", resp.Alternatives)
	}
}

func TestFindAlternativesErrors(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", `{"medicineName":`},
		{"empty body", ``},
		{"missing name", map[string]any{"category": "Pain Relief"}},
		{"dangerous name", map[string]any{"medicineName": "<script>alert(1)</script>"}},
		{"negative quantity", map[string]any{"medicineName": "Aspirin", "requestedQuantity": -1}},
		{"too many results", map[string]any{"medicineName": "Aspirin", "maxResults": 500}},
		{"bad category", map[string]any{"medicineName": "Aspirin", "category": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := helper.ExecuteJSON(handler.FindAlternatives, "/v1/alternatives", tt.body)
			helper.AssertErrorResponse(rr, http.StatusBadRequest)
		})
	}
}

func TestFindAlternativesValidatorError(t *testing.T) {
	store := NewTestDataFactory().CreateDataContainer(NewTestDataFactory().CreateCatalog())
	validator := NewMockDataValidatorBuilder().WithInputError(errors.New("rejected")).Build()
	handler := NewHTTPHandler(store, validator, NewMockHealthCheckerBuilder().Build(), Services{})

	rr := NewHTTPTestHelper(t).ExecuteJSON(handler.FindAlternatives, "/v1/alternatives", map[string]any{"medicineName": "Aspirin"})
	resp := NewHTTPTestHelper(t).AssertErrorResponse(rr, http.StatusBadRequest)
	if !strings.Contains(resp["message"].(string), "rejected") {
		t.Errorf("Expected validator message, got %v", resp["message"])
	}
}

func TestFindAlternativesBatch(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.FindAlternativesBatch, "/v1/alternatives/batch", map[string]any{
		"medicines": []map[string]any{
			{"name": "Ibuprofen 400mg", "category": "Pain Relief", "requestedQuantity": 5},
			{"name": "Gliclazide", "category": "Diabetes"},
		},
	})

	var resp BatchResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 result groups, got %d", len(resp.Results))
	}
	if resp.Results[0].OriginalMedicine != "Ibuprofen 400mg" || len(resp.Results[0].Alternatives) != 2 {
		t.Errorf("Unexpected first group %+v", resp.Results[0])
	}
	if resp.Results[1].RequestedQuantity != 1 || len(resp.Results[1].Alternatives) != 1 {
		t.Errorf("Unexpected second group %+v", resp.Results[1])
	}

	rr = helper.ExecuteJSON(handler.FindAlternativesBatch, "/v1/alternatives/batch", map[string]any{"medicines": []any{}})
	helper.AssertErrorResponse(rr, http.StatusBadRequest)
}

func TestTherapeuticAlternatives(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.TherapeuticAlternatives, "/v1/alternatives/therapeutic", map[string]any{"medicineName": "aspirin"})
	var resp AlternativesResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if len(resp.Alternatives) != 1 || resp.Alternatives[0].Name != "Paracetamol 500mg" {
		t.Errorf("Expected only Paracetamol, got %+v", resp.Alternatives)
	}

	rr = helper.ExecuteJSON(handler.TherapeuticAlternatives, "/v1/alternatives/therapeutic", map[string]any{"medicineName": "Unknown Drug X"})
	helper.AssertErrorResponse(rr, http.StatusNotFound)
}

// ============================================================================
// INVENTORY AND PRESCRIPTIONS
// ============================================================================

func TestCheckInventory(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.CheckInventory, "/v1/inventory/check", map[string]any{
		"medicines": []map[string]any{
			{"name": "Paracetamol 500mg", "quantity": 10},
			{"name": "Amoxicillin", "quantity": 10},
			{"name": "Unknown Drug X", "quantity": 1},
		},
	})

	var resp InventoryResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if resp.AllAvailable || len(resp.Results) != 3 {
		t.Fatalf("Unexpected response %+v", resp)
	}
	if !resp.Results[0].IsAvailable {
		t.Error("Paracetamol should be available")
	}
	if resp.Results[1].IsAvailable || resp.Results[1].Shortage != 5 || resp.Results[1].Category != "Antibiotic" {
		t.Errorf("Unexpected Amoxicillin result %+v", resp.Results[1])
	}
	if resp.Results[2].Category != entities.UnknownCategory || resp.Results[2].Shortage != 1 {
		t.Errorf("Unexpected unknown result %+v", resp.Results[2])
	}
}

func TestCheckInventoryValidation(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	bodies := []any{
		map[string]any{"medicines": []any{}},
		map[string]any{"medicines": []map[string]any{{"name": "Aspirin", "quantity": 0}}},
		map[string]any{"medicines": []map[string]any{{"name": "", "quantity": 1}}},
	}
	for _, body := range bodies {
		rr := helper.ExecuteJSON(handler.CheckInventory, "/v1/inventory/check", body)
		helper.AssertErrorResponse(rr, http.StatusBadRequest)
	}
}

func TestCalculateCost(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.CalculateCost, "/v1/prescriptions/cost", map[string]any{
		"medicines": []map[string]any{
			{"name": "Paracetamol 500mg", "quantity": 4},
			{"name": "Aspirin 100mg", "quantity": 3},
			{"name": "Unknown Drug X", "quantity": 2},
		},
	})

	var resp CostResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if !resp.TotalCost.Equal(decimal.RequireFromString("14.47")) || resp.Items != 3 {
		t.Errorf("Expected total 14.47 over 3 items, got %s over %d", resp.TotalCost, resp.Items)
	}
}

func TestProcessPrescription(t *testing.T) {
	handler, _ := newTestHandler(t)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.ProcessPrescription, "/v1/prescriptions/process", map[string]any{
		"medicines": []map[string]any{
			{"name": "Paracetamol 500mg", "quantity": 2, "instructions": "twice daily"},
			{"name": "Ibuprofen 400mg", "category": "Pain Relief", "quantity": 10},
		},
	})

	var report prescriptions.Report
	helper.AssertJSONResponse(rr, http.StatusOK, &report)

	if report.CanProcess {
		t.Error("Ibuprofen is out of stock, prescription cannot be processed")
	}
	if len(report.MissingMedicines) != 1 || report.MissingMedicines[0] != "Ibuprofen 400mg" {
		t.Errorf("Unexpected missing medicines %v", report.MissingMedicines)
	}
	if len(report.Alternatives) != 1 || len(report.Alternatives[0].Alternatives) != 2 {
		t.Errorf("Expected Paracetamol and Aspirin as alternatives, got %+v", report.Alternatives)
	}
	if !strings.HasPrefix(report.PrescriptionID, "RX-") {
		t.Errorf("Unexpected prescription id %q", report.PrescriptionID)
	}
	// 2 × 2.50 + 10 × 3.99
	if !report.TotalCost.Equal(decimal.RequireFromString("44.90")) {
		t.Errorf("Expected total 44.90, got %s", report.TotalCost)
	}

	rr = helper.ExecuteJSON(handler.ProcessPrescription, "/v1/prescriptions/process", map[string]any{"medicines": []any{}})
	helper.AssertErrorResponse(rr, http.StatusBadRequest)
}

// ============================================================================
// SEMANTIC SEARCH
// ============================================================================

func TestSearchMedicinesUnavailable(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := NewHTTPTestHelper(t).ExecuteJSON(handler.SearchMedicines, "/v1/medicines/search", map[string]any{"query": "pain"})
	NewHTTPTestHelper(t).AssertErrorResponse(rr, http.StatusServiceUnavailable)
}

func TestSearchMedicines(t *testing.T) {
	searcher := &MockSearcher{results: []entities.AlternativeCandidate{
		{MedicineID: "med-1", Name: "Paracetamol 500mg", Reason: `Search result for "pain"`},
		{MedicineID: "med-3", Name: "Aspirin 100mg", Reason: `Search result for "pain"`},
	}}
	handler := newSearchHandler(t, searcher)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.SearchMedicines, "/v1/medicines/search", map[string]any{"query": "pain", "maxResults": 1})
	var resp SearchResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if resp.Query != "pain" || len(resp.Results) != 1 {
		t.Errorf("Unexpected search response %+v", resp)
	}

	searcher.err = errors.New("provider down")
	rr = helper.ExecuteJSON(handler.SearchMedicines, "/v1/medicines/search", map[string]any{"query": "pain"})
	helper.AssertErrorResponse(rr, http.StatusServiceUnavailable)

	rr = helper.ExecuteJSON(handler.SearchMedicines, "/v1/medicines/search", map[string]any{"query": ""})
	helper.AssertErrorResponse(rr, http.StatusBadRequest)
}

func TestRecommendBySymptoms(t *testing.T) {
	searcher := &MockSearcher{results: []entities.AlternativeCandidate{{MedicineID: "med-1", Name: "Paracetamol 500mg"}}}
	handler := newSearchHandler(t, searcher)
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteJSON(handler.RecommendBySymptoms, "/v1/medicines/recommend", map[string]any{"symptoms": []string{"headache", "fever"}})
	var resp SearchResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if searcher.lastQuery != "headache fever" || len(resp.Results) != 1 {
		t.Errorf("Unexpected query %q or results %v", searcher.lastQuery, resp.Results)
	}

	rr = helper.ExecuteJSON(handler.RecommendBySymptoms, "/v1/medicines/recommend", map[string]any{"symptoms": []string{}})
	helper.AssertErrorResponse(rr, http.StatusBadRequest)
}

// ============================================================================
// HEALTH
// ============================================================================

func TestHealthCheck(t *testing.T) {
	store := NewTestDataFactory().CreateDataContainer(nil)
	tests := []struct {
		name       string
		status     string
		httpStatus int
	}{
		{"healthy", "healthy", http.StatusOK},
		{"unhealthy", "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewMockHealthCheckerBuilder().WithStatus(tt.status, tt.httpStatus).Build()
			handler := NewHTTPHandler(store, NewMockDataValidatorBuilder().Build(), checker, Services{})

			rr := NewHTTPTestHelper(t).ExecuteRequest(handler.HealthCheck, http.MethodGet, "/health", nil)
			var resp HealthResponse
			NewHTTPTestHelper(t).AssertJSONResponse(rr, tt.httpStatus, &resp)
			if resp.Status != tt.status || resp.Data["medicines"] != float64(5) {
				t.Errorf("Unexpected health response %+v", resp)
			}
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/alternatives", strings.NewReader(`{"medicineName":"`+strings.Repeat("a", 100)+`"}`))
	req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 16)

	var body alternativesRequest
	err := decodeJSON(req, &body)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected body too large error, got %v", err)
	}
}
