// Package medicinesparser loads the medicine catalog from a JSON or TSV seed file.
package medicinesparser

import (
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/validation"
)

// Compile-time check to ensure MedicinesParser implements Parser interface
var _ interfaces.Parser = (*MedicinesParser)(nil)

// MedicinesParser implements the Parser interface
type MedicinesParser struct {
	validator interfaces.DataValidator
}

// NewMedicinesParser creates a parser that validates records with the default validator
func NewMedicinesParser() *MedicinesParser {
	return &MedicinesParser{validator: validation.NewDataValidator()}
}

// ParseCatalog implements the Parser interface
func (p *MedicinesParser) ParseCatalog(path string) ([]entities.Medicine, error) {
	return parseCatalog(path, p.validator)
}
