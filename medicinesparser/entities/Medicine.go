package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a catalog record. Stock and Price are read from the live
// catalog snapshot on every query.
type Medicine struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	GenericName       string          `json:"genericName"`
	Category          string          `json:"category"`
	Dosage            string          `json:"dosage"`
	Description       string          `json:"description"`
	Manufacturer      string          `json:"manufacturer"`
	Indications       []string        `json:"indications,omitempty"`
	Contraindications []string        `json:"contraindications,omitempty"`
	Stock             int             `json:"stock"`
	MinStock          int             `json:"minStock"`
	Price             decimal.Decimal `json:"price"`
	Status            string          `json:"status"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// MedicineFilter narrows a catalog listing. The zero value matches everything.
type MedicineFilter struct {
	Search   string
	Category string
	Status   string
	LowStock bool
}
