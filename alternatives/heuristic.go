package alternatives

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/metrics"
	"github.com/giygas/pharmacy-api/pharmacology"
	"github.com/giygas/pharmacy-api/similarity"
)

var _ interfaces.AlternativeFinder = (*HeuristicFinder)(nil)

// HeuristicFinder ranks same-category medicines by lexical name similarity.
// It has no external dependency and cannot fail transiently.
type HeuristicFinder struct {
	store interfaces.DataStore

	mu         sync.RWMutex
	version    uint64
	built      bool
	partitions map[string][]string // category -> medicine ids in catalog order
}

func NewHeuristicFinder(store interfaces.DataStore) *HeuristicFinder {
	return &HeuristicFinder{store: store}
}

func (h *HeuristicFinder) Strategy() string { return entities.StrategyHeuristic }

// FindAlternatives returns in-stock medicines of the same category whose name
// does not overlap medicineName. Candidates able to fill requestedQuantity
// rank above those that cannot, then by similarity, then catalog order.
func (h *HeuristicFinder) FindAlternatives(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) ([]entities.AlternativeCandidate, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	ingredients := pharmacology.ExtractActiveIngredients(medicineName)
	candidates := []entities.AlternativeCandidate{}
	for _, id := range h.partition(category) {
		m, ok := h.store.GetMedicineByID(id)
		if !ok || m.Stock <= 0 || similarity.NamesOverlap(m.Name, medicineName) {
			continue
		}

		score := similarity.Score(medicineName, m.Name)
		active := pharmacology.ExtractActiveIngredients(m.Name)
		candidates = append(candidates, entities.AlternativeCandidate{
			MedicineID:        m.ID,
			Name:              m.Name,
			Dosage:            m.Dosage,
			Category:          m.Category,
			AvailableQuantity: m.Stock,
			Price:             m.Price,
			SimilarityScore:   score,
			TherapeuticMatch:  true,
			IngredientMatch:   pharmacology.IngredientsMatch(ingredients, active),
			ActiveIngredients: active,
			TherapeuticClass:  pharmacology.Classify(m.Category),
			Reason:            heuristicReason(medicineName, category, score),
			Strategy:          entities.StrategyHeuristic,
		})
	}

	slices.SortStableFunc(candidates, func(a, b entities.AlternativeCandidate) int {
		aEnough := a.AvailableQuantity >= requestedQuantity
		bEnough := b.AvailableQuantity >= requestedQuantity
		if aEnough != bEnough {
			if aEnough {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	outcome := metrics.OutcomeOK
	if len(candidates) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.AlternativeSearchesTotal.WithLabelValues(entities.StrategyHeuristic, outcome).Inc()

	return candidates, nil
}

func heuristicReason(medicineName, category string, score float64) string {
	if score > 0 {
		return fmt.Sprintf("Same category - %s, similar name to %s", category, medicineName)
	}
	return fmt.Sprintf("Alternative %s medication", category)
}

// partition returns the ids in category, rebuilding the partition whenever
// the catalog version has moved
func (h *HeuristicFinder) partition(category string) []string {
	version := h.store.Version()

	h.mu.RLock()
	if h.built && h.version == version {
		ids := h.partitions[category]
		h.mu.RUnlock()
		return ids
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.built || h.version != version {
		partitions := make(map[string][]string)
		for _, m := range h.store.GetMedicines() {
			partitions[m.Category] = append(partitions[m.Category], m.ID)
		}
		h.partitions = partitions
		h.version = version
		h.built = true
	}
	return h.partitions[category]
}
