package domain

import "time"

type Variant struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
}

// Product is the mutable record whose variant list is rewritten as a whole
// by the inventory trigger.
type Product struct {
	ID        string
	Title     string
	Variants  []Variant
	UpdatedAt time.Time
}

// VariantIndex returns the position of the variant with the given id, or -1.
func (p *Product) VariantIndex(variantID string) int {
	for i, v := range p.Variants {
		if v.ID == variantID {
			return i
		}
	}
	return -1
}

// CloneVariants returns a copy of the variant list so staged changes never
// alias the product read from the store.
func (p *Product) CloneVariants() []Variant {
	out := make([]Variant, len(p.Variants))
	copy(out, p.Variants)
	return out
}
