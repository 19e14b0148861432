package vectorindex

import (
	"strings"

	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/pharmacology"
)

// Fixed vocabulary appended to alternative lookups so the query lands near
// medicines rather than near arbitrary text sharing the name
const (
	queryDomainTerms      = "medicine drug pharmaceutical"
	querySubstitutionTerm = "alternative substitute replacement"
)

// CompositeText is the lower-cased text embedded for a catalog medicine
func CompositeText(m entities.Medicine) string {
	parts := []string{
		m.Name,
		m.Dosage,
		m.Category,
		m.Description,
		strings.Join(pharmacology.ExtractActiveIngredients(m.Name), " "),
		pharmacology.Classify(m.Category),
		m.Manufacturer,
		strings.Join(m.Indications, " "),
		strings.Join(m.Contraindications, " "),
	}
	return joinLower(parts)
}

// QueryText is the lower-cased text embedded for an alternative lookup
func QueryText(name, category string) string {
	return joinLower([]string{
		name,
		category,
		pharmacology.Classify(category),
		strings.Join(pharmacology.ExtractActiveIngredients(name), " "),
		queryDomainTerms,
		querySubstitutionTerm,
	})
}

func joinLower(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}

func newEntry(m entities.Medicine) entities.MedicineEmbedding {
	return entities.MedicineEmbedding{
		SourceID:          m.ID,
		Name:              m.Name,
		Dosage:            m.Dosage,
		Category:          m.Category,
		CompositeText:     CompositeText(m),
		ActiveIngredients: pharmacology.ExtractActiveIngredients(m.Name),
		TherapeuticClass:  pharmacology.Classify(m.Category),
	}
}
