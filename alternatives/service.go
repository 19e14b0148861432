// Package alternatives finds in-stock substitutes for a medicine, either by
// embedding similarity or by a same-category lexical heuristic.
package alternatives

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/inventory"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/vectorindex"
)

const (
	DefaultMaxResults    = 5
	DefaultSearchResults = 10
	DefaultCategory      = "General"

	// BatchMaxResults is the per-medicine limit of FindBatch
	BatchMaxResults = 3

	therapeuticMaxResults = 10
	symptomMaxResults     = 5
)

var (
	// ErrMedicineNotFound is returned when a name resolves to no catalog record
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrSemanticSearchUnavailable is returned by search operations when the
	// service runs the heuristic strategy only
	ErrSemanticSearchUnavailable = errors.New("semantic search unavailable")
)

// Result is a ranked list of candidates with the strategy that produced it.
// Degraded is set when the embedding path failed and the heuristic answered.
type Result struct {
	Candidates []entities.AlternativeCandidate
	Strategy   string
	Degraded   bool
}

// statusFinder is implemented by finders that can report a fallback
type statusFinder interface {
	FindAlternativesWithStatus(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) (Result, error)
}

// Service is the entry point used by handlers and the prescription processor
type Service struct {
	finder   interfaces.AlternativeFinder
	searcher interfaces.SemanticSearcher
	resolver *inventory.Resolver
}

// NewService wires the finder selected by strategy. The embedding strategy
// needs an index; without one the heuristic is used.
func NewService(strategy string, store interfaces.DataStore, index *vectorindex.Index) *Service {
	heuristic := NewHeuristicFinder(store)
	s := &Service{
		finder:   heuristic,
		resolver: inventory.NewResolver(store),
	}
	if strategy == entities.StrategyEmbedding && index != nil && index.Provider() != nil {
		embedding := NewEmbeddingFinder(store, index, heuristic)
		s.finder = embedding
		s.searcher = embedding
	}
	return s
}

// NewServiceWithFinder uses an explicit finder and optional searcher
func NewServiceWithFinder(finder interfaces.AlternativeFinder, searcher interfaces.SemanticSearcher, store interfaces.DataStore) *Service {
	return &Service{finder: finder, searcher: searcher, resolver: inventory.NewResolver(store)}
}

// Strategy is the configured strategy name
func (s *Service) Strategy() string { return s.finder.Strategy() }

// SemanticSearchEnabled reports whether SearchMedicines can answer
func (s *Service) SemanticSearchEnabled() bool { return s.searcher != nil }

// FindAlternatives applies the request defaults and runs the configured finder
func (s *Service) FindAlternatives(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) (Result, error) {
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	if requestedQuantity <= 0 {
		requestedQuantity = 1
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	if sf, ok := s.finder.(statusFinder); ok {
		return sf.FindAlternativesWithStatus(ctx, medicineName, category, requestedQuantity, maxResults)
	}

	candidates, err := s.finder.FindAlternatives(ctx, medicineName, category, requestedQuantity, maxResults)
	return Result{Candidates: candidates, Strategy: s.finder.Strategy()}, err
}

// FindBatch looks up BatchMaxResults alternatives per line, in request order
func (s *Service) FindBatch(ctx context.Context, lines []entities.PrescriptionLine) ([]entities.MedicineAlternatives, bool, error) {
	out := make([]entities.MedicineAlternatives, 0, len(lines))
	degraded := false
	for _, line := range lines {
		result, err := s.FindAlternatives(ctx, line.Name, line.Category, line.Quantity, BatchMaxResults)
		if err != nil {
			return nil, false, fmt.Errorf("alternatives for %q: %w", line.Name, err)
		}
		degraded = degraded || result.Degraded
		out = append(out, entities.MedicineAlternatives{
			OriginalMedicine:  line.Name,
			RequestedQuantity: max(line.Quantity, 1),
			Alternatives:      result.Candidates,
		})
	}
	return out, degraded, nil
}

// SearchMedicines runs a semantic search
func (s *Service) SearchMedicines(ctx context.Context, query string, maxResults int) ([]entities.AlternativeCandidate, error) {
	if s.searcher == nil {
		return nil, ErrSemanticSearchUnavailable
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	results, err := s.searcher.SearchMedicines(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSemanticSearchUnavailable, err)
	}
	return results, nil
}

// TherapeuticAlternatives resolves name and searches its own category for
// up to ten alternatives able to fill a single unit
func (s *Service) TherapeuticAlternatives(ctx context.Context, name string) (Result, error) {
	m, ok := s.resolver.Resolve(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrMedicineNotFound, name)
	}
	return s.FindAlternatives(ctx, name, m.Category, 1, therapeuticMaxResults)
}

// RecommendBySymptoms joins the symptoms into one semantic query
func (s *Service) RecommendBySymptoms(ctx context.Context, symptoms []string) ([]entities.AlternativeCandidate, error) {
	kept := make([]string, 0, len(symptoms))
	for _, symptom := range symptoms {
		if symptom = strings.TrimSpace(symptom); symptom != "" {
			kept = append(kept, symptom)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("at least one symptom is required")
	}
	return s.SearchMedicines(ctx, strings.Join(kept, " "), symptomMaxResults)
}
