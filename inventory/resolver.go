// Package inventory answers availability and cost questions for prescription
// line items against the live catalog. It never mutates stock.
package inventory

import (
	"strings"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/similarity"
)

// Resolver maps a free-text medicine name to a catalog record
type Resolver struct {
	store interfaces.DataStore
}

func NewResolver(store interfaces.DataStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve prefers an exact name, then a case and accent insensitive equal
// name, then the first record in catalog order whose name contains or is
// contained by name.
func (r *Resolver) Resolve(name string) (entities.Medicine, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entities.Medicine{}, false
	}

	medicines := r.store.GetMedicines()
	for _, m := range medicines {
		if m.Name == name {
			return m, true
		}
	}

	normalized := similarity.Normalize(name)
	for _, m := range medicines {
		if similarity.Normalize(m.Name) == normalized {
			return m, true
		}
	}

	for _, m := range medicines {
		if similarity.NamesOverlap(m.Name, name) {
			return m, true
		}
	}

	return entities.Medicine{}, false
}
