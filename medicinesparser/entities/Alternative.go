package entities

import "github.com/shopspring/decimal"

// Ranking strategies that produce alternative candidates.
const (
	StrategyEmbedding = "embedding"
	StrategyHeuristic = "heuristic"
)

// AlternativeCandidate is a catalog medicine proposed as a substitute.
// SimilarityScore is only comparable between candidates of the same Strategy.
type AlternativeCandidate struct {
	MedicineID        string          `json:"medicineId"`
	Name              string          `json:"name"`
	Dosage            string          `json:"dosage"`
	Category          string          `json:"category"`
	AvailableQuantity int             `json:"availableQuantity"`
	Price             decimal.Decimal `json:"price"`
	SimilarityScore   float64         `json:"similarity"`
	TherapeuticMatch  bool            `json:"therapeuticMatch"`
	IngredientMatch   bool            `json:"ingredientMatch"`
	ActiveIngredients []string        `json:"activeIngredients"`
	TherapeuticClass  string          `json:"therapeuticClass"`
	Reason            string          `json:"reason"`
	Strategy          string          `json:"strategy"`
}

// MedicineAlternatives groups the candidates found for one requested medicine.
type MedicineAlternatives struct {
	OriginalMedicine  string                 `json:"originalMedicine"`
	RequestedQuantity int                    `json:"requestedQuantity"`
	Alternatives      []AlternativeCandidate `json:"alternatives"`
}
