// Package prescriptions turns a list of prescription lines into a fill
// report: availability, alternatives for shortages and the total cost.
package prescriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/pharmacy-api/alternatives"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/inventory"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoLineItems is returned when a prescription has no lines
var ErrNoLineItems = inventory.ErrNoLineItems

const (
	noteDegraded       = "semantic search unavailable, heuristic alternatives shown"
	noteUnknownPrefix  = "not in catalog: "
	noteAlternativeErr = "alternatives could not be computed for "
)

// AlternativeSource is the part of alternatives.Service the processor needs
type AlternativeSource interface {
	FindAlternatives(ctx context.Context, medicineName, category string, requestedQuantity, maxResults int) (alternatives.Result, error)
}

// Report is the outcome of processing one prescription.
// CanProcess is true only when every line can be filled from stock.
type Report struct {
	PrescriptionID   string                          `json:"prescriptionId"`
	InventoryCheck   []entities.InventoryCheckResult `json:"inventoryCheck"`
	Alternatives     []entities.MedicineAlternatives `json:"alternatives"`
	TotalCost        decimal.Decimal                 `json:"totalCost"`
	CanProcess       bool                            `json:"canProcess"`
	MissingMedicines []string                        `json:"missingMedicines"`
	Strategy         string                          `json:"strategy"`
	Notes            []string                        `json:"notes,omitempty"`
	ProcessedAt      time.Time                       `json:"processedAt"`
}

// Processor combines the checker, the cost calculator and an alternative source
type Processor struct {
	checker      *inventory.Checker
	calculator   *inventory.CostCalculator
	alternatives AlternativeSource
	strategy     string
	maxResults   int
	now          func() time.Time
}

// NewProcessor builds a Processor over store. strategy is reported as is.
func NewProcessor(store interfaces.DataStore, source AlternativeSource, strategy string) *Processor {
	resolver := inventory.NewResolver(store)
	return &Processor{
		checker:      inventory.NewChecker(resolver),
		calculator:   inventory.NewCostCalculator(resolver),
		alternatives: source,
		strategy:     strategy,
		maxResults:   alternatives.DefaultMaxResults,
		now:          time.Now,
	}
}

// Process checks every line, looks up alternatives for each shortage and
// prices the prescription. A failing alternative lookup is noted in the
// report and never fails the whole call.
func (p *Processor) Process(ctx context.Context, lines []entities.PrescriptionLine) (Report, error) {
	if len(lines) == 0 {
		return Report{}, ErrNoLineItems
	}

	items := make([]entities.LineItem, len(lines))
	for i, line := range lines {
		items[i] = line.Item()
	}

	checks, err := p.checker.CheckAvailability(items)
	if err != nil {
		return Report{}, fmt.Errorf("checking availability: %w", err)
	}

	report := Report{
		PrescriptionID:   newPrescriptionID(),
		InventoryCheck:   checks,
		Alternatives:     []entities.MedicineAlternatives{},
		MissingMedicines: []string{},
		Strategy:         p.strategy,
		CanProcess:       true,
		ProcessedAt:      p.now(),
	}

	degraded := false
	for i, check := range checks {
		if check.IsAvailable {
			continue
		}
		report.CanProcess = false
		report.MissingMedicines = append(report.MissingMedicines, check.MedicineName)
		if check.Category == entities.UnknownCategory {
			report.Notes = append(report.Notes, noteUnknownPrefix+check.MedicineName)
		}

		if p.alternatives == nil {
			continue
		}

		category := lookupCategory(check, lines[i])
		result, err := p.alternatives.FindAlternatives(ctx, check.MedicineName, category, check.RequestedQuantity, p.maxResults)
		if err != nil {
			logging.Warn("Alternative lookup failed",
				"medicine", check.MedicineName,
				"category", category,
				"error", err,
			)
			report.Notes = append(report.Notes, noteAlternativeErr+check.MedicineName)
			continue
		}

		degraded = degraded || result.Degraded
		report.Alternatives = append(report.Alternatives, entities.MedicineAlternatives{
			OriginalMedicine:  check.MedicineName,
			RequestedQuantity: check.RequestedQuantity,
			Alternatives:      result.Candidates,
		})
	}
	if degraded {
		report.Strategy = entities.StrategyHeuristic
		report.Notes = append(report.Notes, noteDegraded)
	}

	total, err := p.calculator.CalculateCost(items)
	if err != nil {
		return Report{}, fmt.Errorf("calculating cost: %w", err)
	}
	report.TotalCost = total

	logging.Info("Prescription processed",
		"prescription_id", report.PrescriptionID,
		"lines", len(lines),
		"missing", len(report.MissingMedicines),
		"can_process", report.CanProcess,
	)

	return report, nil
}

// lookupCategory prefers the resolved record's category, then the line's hint
func lookupCategory(check entities.InventoryCheckResult, line entities.PrescriptionLine) string {
	if check.Category != "" && check.Category != entities.UnknownCategory {
		return check.Category
	}
	if c := strings.TrimSpace(line.Category); c != "" {
		return c
	}
	return alternatives.DefaultCategory
}

func newPrescriptionID() string {
	return "RX-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
