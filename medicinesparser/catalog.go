package medicinesparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

const defaultStatus = "active"

// catalogNamespace scopes ids derived for seed rows that carry none
var catalogNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:pharmacy-api:medicine"))

// ParseCatalog reads a seed file with the default validator
func ParseCatalog(path string) ([]entities.Medicine, error) {
	return NewMedicinesParser().ParseCatalog(path)
}

func parseCatalog(path string, validator interfaces.DataValidator) ([]entities.Medicine, error) {
	start := time.Now()

	reader, err := openSeed(path)
	if err != nil {
		return nil, err
	}

	var medicines []entities.Medicine
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		medicines, err = decodeJSON(reader)
	case ".tsv", ".txt":
		medicines, err = decodeTSV(reader)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q for %s", ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	now := time.Now()
	valid := make([]entities.Medicine, 0, len(medicines))
	skipped := 0
	for i := range medicines {
		m := &medicines[i]
		normalize(m, now)

		if err := validator.ValidateMedicine(m); err != nil {
			logging.Warn("Skipping invalid catalog record", "record", i+1, "error", err)
			skipped++
			continue
		}
		valid = append(valid, *m)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid medicines found in %s", path)
	}

	logging.Info("Catalog parsed",
		"path", path,
		"medicines", len(valid),
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return valid, nil
}

// openSeed reads the whole file. Seeds exported from older pharmacy systems
// are ISO-8859-1, so anything that is not valid UTF-8 is decoded as Latin-1.
func openSeed(path string) (io.Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	logging.Debug("Catalog is not UTF-8, decoding as ISO-8859-1", "path", path)
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)), nil
}

func decodeJSON(r io.Reader) ([]entities.Medicine, error) {
	var medicines []entities.Medicine
	if err := json.NewDecoder(r).Decode(&medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}

// derivedID is stable across reloads so index entries keep resolving while a
// rebuild is in flight. Rows sharing name, dosage and manufacturer collide and
// are reported as duplicate ids.
func derivedID(m *entities.Medicine) string {
	key := strings.ToLower(strings.Join([]string{m.Name, m.Dosage, strings.TrimSpace(m.Manufacturer)}, "|"))
	return uuid.NewSHA1(catalogNamespace, []byte(key)).String()
}

// normalize trims text fields and fills the defaults a seed may omit
func normalize(m *entities.Medicine, now time.Time) {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	m.Dosage = strings.TrimSpace(m.Dosage)

	if m.ID == "" {
		m.ID = derivedID(m)
	}
	if m.Status == "" {
		m.Status = defaultStatus
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	m.Price = m.Price.Round(2)
}
