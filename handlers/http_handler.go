package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/giygas/pharmacy-api/alternatives"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/inventory"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/prescriptions"
	"github.com/go-chi/chi/v5"
)

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Services are the domain components behind the handlers. Nil fields are
// built over the data store with the heuristic strategy.
type Services struct {
	Alternatives *alternatives.Service
	Processor    *prescriptions.Processor
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	alternatives  *alternatives.Service
	checker       *inventory.Checker
	calculator    *inventory.CostCalculator
	processor     *prescriptions.Processor
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker, services Services) *HTTPHandlerImpl {
	if services.Alternatives == nil {
		services.Alternatives = alternatives.NewService(entities.StrategyHeuristic, dataStore, nil)
	}
	if services.Processor == nil {
		services.Processor = prescriptions.NewProcessor(dataStore, services.Alternatives, services.Alternatives.Strategy())
	}

	resolver := inventory.NewResolver(dataStore)
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		alternatives:  services.Alternatives,
		checker:       inventory.NewChecker(resolver),
		calculator:    inventory.NewCostCalculator(resolver),
		processor:     services.Processor,
	}
}

// ListMedicines returns the catalog, optionally filtered by
// ?search=, ?category=, ?status= and ?lowStock=true
func (h *HTTPHandlerImpl) ListMedicines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := entities.MedicineFilter{
		Search:   strings.TrimSpace(query.Get("search")),
		Category: strings.TrimSpace(query.Get("category")),
		Status:   strings.TrimSpace(query.Get("status")),
	}

	for _, value := range []string{filter.Search, filter.Category} {
		if value == "" {
			continue
		}
		if err := h.validator.ValidateInput(value); err != nil {
			logging.Warn("Unusual user input", "value", value, "error", err)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if raw := query.Get("lowStock"); raw != "" {
		lowStock, err := strconv.ParseBool(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "lowStock must be true or false")
			return
		}
		filter.LowStock = lowStock
	}

	medicines := h.dataStore.FilterMedicines(filter)
	RespondWithJSON(w, http.StatusOK, ListResponse{Data: medicines, TotalItems: len(medicines)})
}

// FindMedicineByID finds a catalog record by id
func (h *HTTPHandlerImpl) FindMedicineByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing medicine id")
		return
	}

	med, ok := h.dataStore.GetMedicineByID(id)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	RespondWithJSON(w, http.StatusOK, med)
}

// FindAlternatives ranks in-stock substitutes for one medicine
func (h *HTTPHandlerImpl) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	var req alternativesRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validator.ValidateInput(req.MedicineName); err != nil {
		RespondWithError(w, http.StatusBadRequest, "medicineName: "+err.Error())
		return
	}
	if req.Category != "" {
		if err := h.validator.ValidateInput(req.Category); err != nil {
			RespondWithError(w, http.StatusBadRequest, "category: "+err.Error())
			return
		}
	}
	if req.RequestedQuantity < 0 {
		RespondWithError(w, http.StatusBadRequest, "requestedQuantity cannot be negative")
		return
	}
	if err := validateMaxResults(req.MaxResults); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.alternatives.FindAlternatives(r.Context(), req.MedicineName, req.Category, req.RequestedQuantity, req.MaxResults)
	if err != nil {
		logging.Error("Alternative search failed", "medicine", req.MedicineName, "error", err)
		RespondWithError(w, statusFor(err), err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, AlternativesResponse{
		OriginalMedicine:  req.MedicineName,
		RequestedQuantity: max(req.RequestedQuantity, 1),
		Alternatives:      result.Candidates,
		Strategy:          result.Strategy,
		Degraded:          result.Degraded,
	})
}

// FindAlternativesBatch returns a few alternatives for each requested medicine
func (h *HTTPHandlerImpl) FindAlternativesBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]entities.PrescriptionLine, len(req.Medicines))
	items := make([]entities.LineItem, len(req.Medicines))
	for i, m := range req.Medicines {
		lines[i] = entities.PrescriptionLine{Name: m.Name, Category: m.Category, Quantity: max(m.RequestedQuantity, 1)}
		items[i] = lines[i].Item()
	}
	if err := h.validator.ValidateLineItems(items); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, degraded, err := h.alternatives.FindBatch(r.Context(), lines)
	if err != nil {
		logging.Error("Batch alternative search failed", "error", err)
		RespondWithError(w, statusFor(err), err.Error())
		return
	}

	strategy := h.alternatives.Strategy()
	if degraded {
		strategy = entities.StrategyHeuristic
	}
	RespondWithJSON(w, http.StatusOK, BatchResponse{Results: results, Strategy: strategy, Degraded: degraded})
}

// TherapeuticAlternatives looks up alternatives in the category of a known medicine
func (h *HTTPHandlerImpl) TherapeuticAlternatives(w http.ResponseWriter, r *http.Request) {
	var req therapeuticRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateInput(req.MedicineName); err != nil {
		RespondWithError(w, http.StatusBadRequest, "medicineName: "+err.Error())
		return
	}

	result, err := h.alternatives.TherapeuticAlternatives(r.Context(), req.MedicineName)
	if err != nil {
		RespondWithError(w, statusFor(err), err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, AlternativesResponse{
		OriginalMedicine:  req.MedicineName,
		RequestedQuantity: 1,
		Alternatives:      result.Candidates,
		Strategy:          result.Strategy,
		Degraded:          result.Degraded,
	})
}

// CheckInventory reports per-line availability
func (h *HTTPHandlerImpl) CheckInventory(w http.ResponseWriter, r *http.Request) {
	var req lineItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateLineItems(req.Medicines); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.checker.CheckAvailability(req.Medicines)
	if err != nil {
		RespondWithError(w, statusFor(err), err.Error())
		return
	}

	all := true
	for _, res := range results {
		all = all && res.IsAvailable
	}
	RespondWithJSON(w, http.StatusOK, InventoryResponse{Results: results, AllAvailable: all})
}

// CalculateCost prices a list of line items
func (h *HTTPHandlerImpl) CalculateCost(w http.ResponseWriter, r *http.Request) {
	var req lineItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateLineItems(req.Medicines); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := h.calculator.CalculateCost(req.Medicines)
	if err != nil {
		RespondWithError(w, statusFor(err), err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, CostResponse{TotalCost: total, Items: len(req.Medicines)})
}

// ProcessPrescription runs the full availability, alternatives and cost flow
func (h *HTTPHandlerImpl) ProcessPrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]entities.LineItem, len(req.Medicines))
	for i, line := range req.Medicines {
		items[i] = line.Item()
	}
	if err := h.validator.ValidateLineItems(items); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.processor.Process(r.Context(), req.Medicines)
	if err != nil {
		logging.Error("Prescription processing failed", "error", err)
		RespondWithError(w, statusFor(err), err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, report)
}

// SearchMedicines runs a free-text semantic search
func (h *HTTPHandlerImpl) SearchMedicines(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateInput(req.Query); err != nil {
		RespondWithError(w, http.StatusBadRequest, "query: "+err.Error())
		return
	}
	if err := validateMaxResults(req.MaxResults); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.alternatives.SearchMedicines(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		logging.Warn("Semantic search failed", "query", req.Query, "error", err)
		RespondWithError(w, statusFor(err), err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: results})
}

// RecommendBySymptoms suggests medicines for a list of symptoms
func (h *HTTPHandlerImpl) RecommendBySymptoms(w http.ResponseWriter, r *http.Request) {
	var req symptomsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Symptoms) == 0 {
		RespondWithError(w, http.StatusBadRequest, "at least one symptom is required")
		return
	}
	for _, symptom := range req.Symptoms {
		if err := h.validator.ValidateInput(symptom); err != nil {
			RespondWithError(w, http.StatusBadRequest, "symptoms: "+err.Error())
			return
		}
	}

	results, err := h.alternatives.RecommendBySymptoms(r.Context(), req.Symptoms)
	if err != nil {
		RespondWithError(w, statusFor(err), err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, SearchResponse{Query: strings.Join(req.Symptoms, " "), Results: results})
}

// HealthCheck returns the catalog and index health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()
	RespondWithJSON(w, httpStatus, HealthResponse{Status: status, Data: data})
}
