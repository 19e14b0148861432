package entities

// LineItem is one requested medicine on a prescription.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// PrescriptionLine is a LineItem with the category hint used when looking
// for alternatives.
type PrescriptionLine struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Dosage   string `json:"dosage,omitempty"`
	Quantity int    `json:"quantity"`
}

// Item returns the line as a plain LineItem.
func (p PrescriptionLine) Item() LineItem {
	return LineItem{Name: p.Name, Quantity: p.Quantity}
}
