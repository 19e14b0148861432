// Package validation checks catalog records and user input before they reach
// the matching core.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/pharmacology"
)

const (
	maxNameLength     = 200
	maxFieldLength    = 100
	maxInputLength    = 100
	maxInputWords     = 12
	maxLineItems      = 50
	maxLineQuantity   = 10000
	repetitionLimit   = 10
	qualitySampleSize = 10
)

var (
	// Letters in any script, digits and the punctuation found in drug names
	// and dosages ("Co-Amoxiclav 500mg/125mg", "Vitamin D3 1,000 IU")
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+'/%,()]+$`)

	// Substring checks are cheaper than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// ErrNoLineItems is returned when a check, cost or process request has no lines
var ErrNoLineItems = errors.New("at least one line item is required")

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks a catalog record before it is stored
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("empty id for medicine %q", m.Name)
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty name for medicine %s", m.ID)
	}

	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name too long for medicine %s: %d characters", m.ID, len(m.Name))
	}

	for field, value := range map[string]string{
		"category":     m.Category,
		"dosage":       m.Dosage,
		"manufacturer": m.Manufacturer,
		"generic name": m.GenericName,
	} {
		if len(value) > maxFieldLength {
			return fmt.Errorf("%s too long for medicine %s: %d characters", field, m.ID, len(value))
		}
	}

	if m.Stock < 0 {
		return fmt.Errorf("negative stock for medicine %s: %d", m.ID, m.Stock)
	}

	if m.MinStock < 0 {
		return fmt.Errorf("negative minimum stock for medicine %s: %d", m.ID, m.MinStock)
	}

	if m.Price.IsNegative() {
		return fmt.Errorf("negative price for medicine %s: %s", m.ID, m.Price)
	}

	return nil
}

// ReportDataQuality summarizes catalog problems that do not block loading
func (v *DataValidatorImpl) ReportDataQuality(medicines []entities.Medicine) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateIDs:      []string{},
		UnknownCategories: []string{},
	}

	seen := make(map[string]bool, len(medicines))
	for _, m := range medicines {
		if seen[m.ID] {
			report.DuplicateIDs = append(report.DuplicateIDs, m.ID)
		}
		seen[m.ID] = true

		if m.Stock == 0 {
			report.MedicinesWithoutStock++
		} else if m.Stock <= m.MinStock {
			report.MedicinesBelowMinStock++
		}

		if m.Price.IsZero() {
			report.MedicinesWithoutPrice++
		}

		if strings.TrimSpace(m.Category) == "" {
			report.UncategorizedMedicines++
			continue
		}

		// Categories outside the class map still work, with a lower-cased class
		if !pharmacology.KnownCategory(m.Category) &&
			!slices.Contains(report.UnknownCategories, m.Category) &&
			len(report.UnknownCategories) < qualitySampleSize {
			report.UnknownCategories = append(report.UnknownCategories, m.Category)
		}
	}

	if len(report.DuplicateIDs) > 0 {
		logging.Error("Duplicate medicine ids detected",
			"count", len(report.DuplicateIDs),
			"duplicates", report.DuplicateIDs,
		)
	}

	return report
}

// ValidateInput validates a user supplied name, category or search query
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) < 2 {
		return fmt.Errorf("input too short: minimum 2 characters")
	}

	if len(input) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("input too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' / %% , ( ) are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateLineItems checks every line of a prescription request
func (v *DataValidatorImpl) ValidateLineItems(items []entities.LineItem) error {
	if len(items) == 0 {
		return ErrNoLineItems
	}

	if len(items) > maxLineItems {
		return fmt.Errorf("too many line items: maximum %d allowed", maxLineItems)
	}

	for i, item := range items {
		if err := v.ValidateInput(item.Name); err != nil {
			return fmt.Errorf("line %d: invalid name: %w", i+1, err)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("line %d: quantity for %q must be at least 1, got %d", i+1, item.Name, item.Quantity)
		}
		if item.Quantity > maxLineQuantity {
			return fmt.Errorf("line %d: quantity for %q is too large (max %d)", i+1, item.Name, maxLineQuantity)
		}
	}

	return nil
}

// hasExcessiveRepetition reports a character repeated more than
// repetitionLimit times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > repetitionLimit {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
