package alternatives

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/metrics"
	"github.com/giygas/pharmacy-api/pharmacology"
	"github.com/giygas/pharmacy-api/vectorindex"
)

var (
	_ interfaces.AlternativeFinder = (*EmbeddingFinder)(nil)
	_ interfaces.SemanticSearcher  = (*EmbeddingFinder)(nil)
)

// ErrStaleIndex is returned when no index entry resolves against the live
// catalog, as happens between a reload and the index rebuild
var ErrStaleIndex = errors.New("vector index is stale")

// EmbeddingFinder ranks alternatives by embedding similarity and falls back
// to a HeuristicFinder whenever the index or the provider fails
type EmbeddingFinder struct {
	store    interfaces.DataStore
	index    *vectorindex.Index
	fallback *HeuristicFinder
}

func NewEmbeddingFinder(store interfaces.DataStore, index *vectorindex.Index, fallback *HeuristicFinder) *EmbeddingFinder {
	if fallback == nil {
		fallback = NewHeuristicFinder(store)
	}
	return &EmbeddingFinder{store: store, index: index, fallback: fallback}
}

func (e *EmbeddingFinder) Strategy() string { return entities.StrategyEmbedding }

// FindAlternatives implements interfaces.AlternativeFinder. It never returns
// a provider error; see FindAlternativesWithStatus for the degraded flag.
func (e *EmbeddingFinder) FindAlternatives(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) ([]entities.AlternativeCandidate, error) {
	result, err := e.FindAlternativesWithStatus(ctx, medicineName, category, requestedQuantity, maxResults)
	return result.Candidates, err
}

// FindAlternativesWithStatus reports whether the heuristic fallback produced
// the candidates
func (e *EmbeddingFinder) FindAlternativesWithStatus(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) (Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	// Zero stock never satisfies a request
	requestedQuantity = max(requestedQuantity, 1)

	candidates, err := e.semantic(ctx, medicineName, category, requestedQuantity, maxResults)
	if err != nil {
		logging.Warn("Semantic alternative search failed, using heuristic fallback",
			"medicine", medicineName,
			"category", category,
			"error", err,
		)
		metrics.AlternativeSearchesTotal.WithLabelValues(entities.StrategyEmbedding, metrics.OutcomeFallback).Inc()

		fallback, ferr := e.fallback.FindAlternatives(ctx, medicineName, category, requestedQuantity, maxResults)
		return Result{Candidates: fallback, Strategy: entities.StrategyHeuristic, Degraded: true}, ferr
	}

	outcome := metrics.OutcomeOK
	if len(candidates) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.AlternativeSearchesTotal.WithLabelValues(entities.StrategyEmbedding, outcome).Inc()

	return Result{Candidates: candidates, Strategy: entities.StrategyEmbedding}, nil
}

func (e *EmbeddingFinder) semantic(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) ([]entities.AlternativeCandidate, error) {
	if err := e.ensureIndex(ctx); err != nil {
		return nil, err
	}

	matches, err := e.index.Query(ctx, vectorindex.Query{
		Text:             vectorindex.QueryText(medicineName, category),
		Exclude:          medicineName,
		Ingredients:      pharmacology.ExtractActiveIngredients(medicineName),
		TherapeuticClass: pharmacology.Classify(category),
		K:                2 * maxResults,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]entities.AlternativeCandidate, 0, maxResults)
	resolved := 0
	for _, match := range matches {
		// Stock is read at query time, never from the index
		m, ok := e.store.GetMedicineByID(match.Entry.SourceID)
		if !ok {
			continue
		}
		resolved++
		if m.Stock < requestedQuantity {
			continue
		}

		c := e.candidate(match, m)
		c.Reason = embeddingReason(medicineName, match)
		candidates = append(candidates, c)
		if len(candidates) == maxResults {
			break
		}
	}
	if len(matches) > 0 && resolved == 0 {
		return nil, fmt.Errorf("%w: %d matches, none in catalog", ErrStaleIndex, len(matches))
	}
	return candidates, nil
}

// SearchMedicines runs a free-text semantic search with no exclusion.
// Errors are returned since there is no heuristic equivalent.
func (e *EmbeddingFinder) SearchMedicines(ctx context.Context, query string, maxResults int) ([]entities.AlternativeCandidate, error) {
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, err
	}

	matches, err := e.index.Query(ctx, vectorindex.Query{Text: strings.ToLower(query), K: maxResults})
	if err != nil {
		return nil, err
	}

	results := make([]entities.AlternativeCandidate, 0, len(matches))
	for _, match := range matches {
		m, ok := e.store.GetMedicineByID(match.Entry.SourceID)
		if !ok {
			continue
		}
		c := e.candidate(match, m)
		c.TherapeuticMatch = false
		c.IngredientMatch = false
		c.Reason = fmt.Sprintf("Search result for %q", query)
		results = append(results, c)
	}
	return results, nil
}

func (e *EmbeddingFinder) candidate(match vectorindex.Match, m entities.Medicine) entities.AlternativeCandidate {
	return entities.AlternativeCandidate{
		MedicineID:        m.ID,
		Name:              m.Name,
		Dosage:            m.Dosage,
		Category:          m.Category,
		AvailableQuantity: m.Stock,
		Price:             m.Price,
		SimilarityScore:   match.Similarity,
		TherapeuticMatch:  match.TherapeuticMatch,
		IngredientMatch:   match.IngredientMatch,
		ActiveIngredients: match.Entry.ActiveIngredients,
		TherapeuticClass:  match.Entry.TherapeuticClass,
		Strategy:          entities.StrategyEmbedding,
	}
}

// ensureIndex builds the index on first use
func (e *EmbeddingFinder) ensureIndex(ctx context.Context) error {
	if e.index == nil {
		return vectorindex.ErrProviderUnavailable
	}
	if e.index.IsInitialized() {
		return nil
	}
	return e.index.Initialize(ctx, e.store.GetMedicines())
}

func embeddingReason(medicineName string, match vectorindex.Match) string {
	category := match.Entry.Category
	switch {
	case match.IngredientMatch:
		return fmt.Sprintf("Same active ingredient as %s", medicineName)
	case match.TherapeuticMatch:
		return fmt.Sprintf("Same therapeutic class - %s", category)
	case match.Similarity > 0.7:
		return fmt.Sprintf("High semantic similarity to %s", medicineName)
	case match.Similarity > 0.5:
		return fmt.Sprintf("Similar medicine in %s category", category)
	default:
		return fmt.Sprintf("Alternative %s medication", category)
	}
}
