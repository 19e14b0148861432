package inventory

import (
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/validation"
	"github.com/shopspring/decimal"
)

// ErrNoLineItems is returned for an empty request
var ErrNoLineItems = validation.ErrNoLineItems

// Checker reports whether each line item can be filled from stock
type Checker struct {
	resolver *Resolver
}

func NewChecker(resolver *Resolver) *Checker {
	return &Checker{resolver: resolver}
}

// CheckAvailability returns one result per item, in request order. Names that
// resolve to nothing are reported unavailable with category "Unknown".
func (c *Checker) CheckAvailability(items []entities.LineItem) ([]entities.InventoryCheckResult, error) {
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}

	results := make([]entities.InventoryCheckResult, 0, len(items))
	for _, item := range items {
		results = append(results, c.check(item))
	}
	return results, nil
}

func (c *Checker) check(item entities.LineItem) entities.InventoryCheckResult {
	m, ok := c.resolver.Resolve(item.Name)
	if !ok {
		return entities.InventoryCheckResult{
			MedicineName:      item.Name,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: 0,
			IsAvailable:       false,
			Shortage:          max(item.Quantity, 0),
			Price:             decimal.Zero,
			Category:          entities.UnknownCategory,
		}
	}

	available := m.Stock >= item.Quantity
	return entities.InventoryCheckResult{
		MedicineName:      item.Name,
		RequestedQuantity: item.Quantity,
		AvailableQuantity: m.Stock,
		IsAvailable:       available,
		Shortage:          max(item.Quantity-m.Stock, 0),
		Price:             m.Price,
		Category:          m.Category,
	}
}

// CostCalculator estimates prescription totals
type CostCalculator struct {
	resolver *Resolver
}

func NewCostCalculator(resolver *Resolver) *CostCalculator {
	return &CostCalculator{resolver: resolver}
}

// CalculateCost sums price × quantity over resolved items, rounded to cents.
// Unresolved items add nothing.
func (c *CostCalculator) CalculateCost(items []entities.LineItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, ErrNoLineItems
	}

	total := decimal.Zero
	for _, item := range items {
		if m, ok := c.resolver.Resolve(item.Name); ok {
			total = total.Add(m.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total.Round(2), nil
}
