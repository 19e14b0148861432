// Package pharmacology maps medicine names to known active ingredients and
// catalog categories to therapeutic-class tags. Both mappings are static
// lookup tables; extending them is a data change.
package pharmacology

import (
	"slices"
	"strings"

	"github.com/giygas/pharmacy-api/similarity"
)

// commonIngredients is the active-ingredient vocabulary detected in names.
var commonIngredients = []string{
	"paracetamol", "acetaminophen", "ibuprofen", "aspirin", "metformin",
	"lisinopril", "amlodipine", "atorvastatin", "omeprazole", "metoprolol",
	"losartan", "hydrochlorothiazide", "sertraline", "fluoxetine", "tramadol",
	"codeine", "morphine", "fentanyl", "diazepam", "lorazepam",
}

// therapeuticClasses maps a catalog category to its class description.
var therapeuticClasses = map[string]string{
	"Pain Relief":      "analgesic painkiller",
	"Antibiotic":       "antibacterial antimicrobial",
	"Cardiovascular":   "heart blood pressure",
	"Diabetes":         "antidiabetic glucose",
	"Respiratory":      "bronchodilator asthma",
	"Gastrointestinal": "antacid digestive",
	"Mental Health":    "antidepressant anxiolytic",
	"Dermatology":      "topical skin",
	"Neurology":        "neurological brain",
	"Oncology":         "anticancer chemotherapy",
}

// ExtractActiveIngredients returns the vocabulary ingredients found as
// substrings of name, sorted and without duplicates.
func ExtractActiveIngredients(name string) []string {
	lower := similarity.Normalize(name)
	found := []string{}
	for _, ingredient := range commonIngredients {
		if strings.Contains(lower, ingredient) {
			found = append(found, ingredient)
		}
	}
	slices.Sort(found)
	return slices.Compact(found)
}

// Classify returns the therapeutic-class tag for a category. Unknown
// categories fall back to the lower-cased category itself.
func Classify(category string) string {
	if class, ok := therapeuticClasses[category]; ok {
		return class
	}
	return strings.ToLower(category)
}

// IngredientsMatch reports whether any ingredient of a equals, contains or
// is contained by an ingredient of b.
func IngredientsMatch(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y || strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}

// ClassesMatch reports whether two class tags are equal or one contains the
// other. Empty tags never match.
func ClassesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// KnownCategory reports whether category has an explicit class mapping.
func KnownCategory(category string) bool {
	_, ok := therapeuticClasses[category]
	return ok
}
