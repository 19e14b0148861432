package entities

import "github.com/shopspring/decimal"

// UnknownCategory is reported for line items that match no catalog record.
const UnknownCategory = "Unknown"

type InventoryCheckResult struct {
	MedicineName      string          `json:"medicineName"`
	RequestedQuantity int             `json:"requestedQuantity"`
	AvailableQuantity int             `json:"availableQuantity"`
	IsAvailable       bool            `json:"isAvailable"`
	Shortage          int             `json:"shortage"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
}
