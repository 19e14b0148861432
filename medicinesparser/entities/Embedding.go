package entities

// MedicineEmbedding is the vector-space view of one catalog medicine.
// SourceID is a lookup key into the catalog, not ownership.
type MedicineEmbedding struct {
	SourceID          string    `json:"sourceId"`
	Name              string    `json:"name"`
	Dosage            string    `json:"dosage"`
	Category          string    `json:"category"`
	CompositeText     string    `json:"compositeText"`
	Vector            []float32 `json:"-"`
	ActiveIngredients []string  `json:"activeIngredients"`
	TherapeuticClass  string    `json:"therapeuticClass"`
}
