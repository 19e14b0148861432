package medicinesparser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/shopspring/decimal"
)

// listSeparator splits multi-valued TSV cells such as indications
const listSeparator = ";"

// decodeTSV reads a tab separated catalog. The first line is a header naming
// the columns with the JSON field names; only "name" is required.
func decodeTSV(r io.Reader) ([]entities.Medicine, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty TSV file")
	}

	columns := make(map[string]int)
	for i, name := range strings.Split(scanner.Text(), "\t") {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("TSV header has no name column")
	}

	var medicines []entities.Medicine
	lineCount := 1
	skippedEmptyLines := 0
	skippedFormatErrors := 0

	for scanner.Scan() {
		lineCount++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			skippedEmptyLines++
			continue
		}

		fields := strings.Split(line, "\t")
		get := func(column string) string {
			if i, ok := columns[column]; ok && i < len(fields) {
				return strings.TrimSpace(fields[i])
			}
			return ""
		}

		m := entities.Medicine{
			ID:                get("id"),
			Name:              get("name"),
			GenericName:       get("genericname"),
			Category:          get("category"),
			Dosage:            get("dosage"),
			Description:       get("description"),
			Manufacturer:      get("manufacturer"),
			Indications:       splitList(get("indications")),
			Contraindications: splitList(get("contraindications")),
			Status:            get("status"),
		}

		var err error
		if m.Stock, err = parseCount(get("stock")); err != nil {
			logging.Debug("Invalid stock in TSV", "line", lineCount, "error", err)
			skippedFormatErrors++
			continue
		}
		if m.MinStock, err = parseCount(get("minstock")); err != nil {
			logging.Debug("Invalid minStock in TSV", "line", lineCount, "error", err)
			skippedFormatErrors++
			continue
		}
		if m.Price, err = parsePrice(get("price")); err != nil {
			logging.Debug("Invalid price in TSV", "line", lineCount, "error", err)
			skippedFormatErrors++
			continue
		}

		medicines = append(medicines, m)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if skippedEmptyLines > 0 || skippedFormatErrors > 0 {
		logging.Info("TSV skip statistics",
			"empty_lines", skippedEmptyLines,
			"format_errors", skippedFormatErrors,
			"total_lines", lineCount,
			"records_parsed", len(medicines))
	}

	return medicines, nil
}

func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(cell, listSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func parseCount(cell string) (int, error) {
	if cell == "" {
		return 0, nil
	}
	return strconv.Atoi(cell)
}

// parsePrice accepts both "1234.50" and the European "1.234,50" notation.
// An empty cell is a zero price.
func parsePrice(cell string) (decimal.Decimal, error) {
	if cell == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(cell, ",") {
		cell = strings.ReplaceAll(cell, ".", "")
		cell = strings.ReplaceAll(cell, ",", ".")
	}
	price, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price value %q: %w", cell, err)
	}
	return price, nil
}
