package medicinesparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

func writeSeed(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestParseCatalogJSON(t *testing.T) {
	logging.InitLogger("")

	path := writeSeed(t, "medicines.json", []byte(`[
		{"id": "med-1", "name": " Paracetamol 500mg ", "category": "Pain Relief", "stock": 45, "minStock": 20, "price": "2.50"},
		{"name": "Ibuprofen 400mg", "category": "Anti-inflammatory", "stock": 8, "price": 3.755},
		{"id": "bad", "name": "Broken", "stock": -4, "price": "1.00"}
	]`))

	medicines, err := ParseCatalog(path)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if len(medicines) != 2 {
		t.Fatalf("Expected 2 valid medicines, got %d", len(medicines))
	}

	first := medicines[0]
	if first.ID != "med-1" || first.Name != "Paracetamol 500mg" {
		t.Errorf("Expected trimmed med-1 Paracetamol 500mg, got %q %q", first.ID, first.Name)
	}
	if !first.Price.Equal(decimal.RequireFromString("2.50")) {
		t.Errorf("Expected price 2.50, got %s", first.Price)
	}
	if first.Status != "active" {
		t.Errorf("Expected default status active, got %q", first.Status)
	}
	if first.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}

	second := medicines[1]
	if _, err := uuid.Parse(second.ID); err != nil {
		t.Errorf("Expected a generated uuid id, got %q", second.ID)
	}
	if !second.Price.Equal(decimal.RequireFromString("3.76")) {
		t.Errorf("Expected price rounded to 3.76, got %s", second.Price)
	}
}

func TestParseCatalogDerivesStableIDs(t *testing.T) {
	logging.InitLogger("")

	path := writeSeed(t, "medicines.json", []byte(`[
		{"name": "Aspirin 100mg", "dosage": "100mg", "category": "Pain Relief", "stock": 25, "price": "1.49"},
		{"name": "Aspirin 100mg", "dosage": "100mg", "manufacturer": "Bayer", "category": "Pain Relief", "stock": 10, "price": "1.99"},
		{"name": "Naproxen 220mg", "category": "Pain Relief", "stock": 5, "price": "2.10"}
	]`))

	first, err := ParseCatalog(path)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	reloaded, err := ParseCatalog(path)
	if err != nil {
		t.Fatalf("second ParseCatalog: %v", err)
	}

	if len(first) != 3 || len(reloaded) != 3 {
		t.Fatalf("Expected 3 medicines per load, got %d and %d", len(first), len(reloaded))
	}
	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != reloaded[i].ID {
			t.Errorf("%s changed id across reloads: %s then %s", first[i].Name, first[i].ID, reloaded[i].ID)
		}
		if _, err := uuid.Parse(first[i].ID); err != nil {
			t.Errorf("Expected a uuid id, got %q", first[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("Rows with different manufacturers share id %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestParseCatalogTSV(t *testing.T) {
	content := strings.Join([]string{
		"id\tname\tcategory\tdosage\tstock\tminStock\tprice\tindications",
		"m1\tAmoxicillin 250mg\tAntibiotic\t250mg\t32\t10\t8,90\tBacterial infections; Ear infections",
		"",
		"m2\tMetformin 500mg\tDiabetes\t500mg\tnone\t5\t12.50\t",
		"m3\tAspirin 100mg\tPain Relief\t100mg\t25\t10\t1.234,50\t",
	}, "\n")

	medicines, err := ParseCatalog(writeSeed(t, "medicines.tsv", []byte(content)))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if len(medicines) != 2 {
		t.Fatalf("Expected 2 medicines (one bad stock line skipped), got %d", len(medicines))
	}

	amox := medicines[0]
	if amox.Stock != 32 || amox.MinStock != 10 {
		t.Errorf("Unexpected stock %d/%d", amox.Stock, amox.MinStock)
	}
	if !amox.Price.Equal(decimal.RequireFromString("8.90")) {
		t.Errorf("Expected price 8.90, got %s", amox.Price)
	}
	if len(amox.Indications) != 2 || amox.Indications[1] != "Ear infections" {
		t.Errorf("Unexpected indications %v", amox.Indications)
	}

	if !medicines[1].Price.Equal(decimal.RequireFromString("1234.50")) {
		t.Errorf("Expected European price 1234.50, got %s", medicines[1].Price)
	}
}

func TestParseCatalogLatin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("name\tcategory\tstock\nParacétamol Biogaran\tPain Relief\t10\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	medicines, err := ParseCatalog(writeSeed(t, "latin1.txt", []byte(encoded)))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if medicines[0].Name != "Paracétamol Biogaran" {
		t.Errorf("Expected decoded accented name, got %q", medicines[0].Name)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unsupported extension", "medicines.csv", "name\nX", "unsupported catalog format"},
		{"malformed json", "medicines.json", "[{", "failed to parse"},
		{"no valid records", "medicines.json", `[{"name": ""}]`, "no valid medicines"},
		{"missing name column", "medicines.tsv", "id\tstock\n1\t2", "no name column"},
		{"empty tsv", "medicines.tsv", "", "empty TSV file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog(writeSeed(t, tc.file, []byte(tc.content)))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}

	if _, err := ParseCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestParseSeedCatalog(t *testing.T) {
	medicines, err := NewMedicinesParser().ParseCatalog("../seed/medicines.json")
	if err != nil {
		t.Fatalf("ParseCatalog seed: %v", err)
	}

	ids := make(map[string]entities.Medicine, len(medicines))
	for _, m := range medicines {
		ids[m.ID] = m
	}
	if len(ids) != len(medicines) {
		t.Error("Seed catalog should have unique ids")
	}
	if m, ok := ids["med-1"]; !ok || m.Name != "Paracetamol 500mg" {
		t.Errorf("Expected med-1 Paracetamol 500mg in seed, got %+v", m)
	}
}
