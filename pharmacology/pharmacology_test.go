package pharmacology

import (
	"slices"
	"testing"
)

func TestExtractActiveIngredients(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single", "Paracetamol 500mg", []string{"paracetamol"}},
		{"combination", "Codeine + Paracetamol 30/500", []string{"codeine", "paracetamol"}},
		{"accented", "Paracétamol Biogaran", []string{"paracetamol"}},
		{"unknown", "Vitamin C 1000mg", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractActiveIngredients(tt.input)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("ExtractActiveIngredients(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		category string
		expected string
	}{
		{"Pain Relief", "analgesic painkiller"},
		{"Antibiotic", "antibacterial antimicrobial"},
		{"Vitamins", "vitamins"},
		{"Allergy & Cold", "allergy & cold"},
	}

	for _, tt := range tests {
		if got := Classify(tt.category); got != tt.expected {
			t.Errorf("Classify(%q) = %q, want %q", tt.category, got, tt.expected)
		}
	}
}

func TestClassifyNeverEmptyForNonEmptyCategory(t *testing.T) {
	for _, category := range []string{"X", "General", "Pain Relief", "unknown thing"} {
		if Classify(category) == "" {
			t.Errorf("Classify(%q) returned an empty tag", category)
		}
	}
}

func TestIngredientsMatch(t *testing.T) {
	if !IngredientsMatch([]string{"paracetamol"}, []string{"codeine", "paracetamol"}) {
		t.Error("expected shared ingredient to match")
	}
	if IngredientsMatch([]string{"ibuprofen"}, []string{"aspirin"}) {
		t.Error("expected distinct ingredients not to match")
	}
	if IngredientsMatch(nil, []string{"aspirin"}) {
		t.Error("expected empty ingredient list not to match")
	}
}

func TestClassesMatch(t *testing.T) {
	if !ClassesMatch("analgesic painkiller", "analgesic painkiller") {
		t.Error("expected equal classes to match")
	}
	if !ClassesMatch("analgesic", "analgesic painkiller") {
		t.Error("expected contained class to match")
	}
	if ClassesMatch("analgesic painkiller", "heart blood pressure") {
		t.Error("expected different classes not to match")
	}
	if ClassesMatch("", "analgesic") {
		t.Error("expected empty class not to match")
	}
}

func TestKnownCategory(t *testing.T) {
	if !KnownCategory("Pain Relief") {
		t.Error("Pain Relief should be a known category")
	}
	if KnownCategory("pain relief") {
		t.Error("category lookup is exact and should not match different casing")
	}
}
