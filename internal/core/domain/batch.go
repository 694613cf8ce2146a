package domain

// ProductPatch replaces the full variant list of one product.
type ProductPatch struct {
	ProductID string
	Variants  []Variant
}

// Batch is the list of staged updates committed together. Staging the same
// product twice replaces the earlier patch.
type Batch struct {
	Patches []ProductPatch
}

func (b *Batch) Stage(productID string, variants []Variant) {
	for i := range b.Patches {
		if b.Patches[i].ProductID == productID {
			b.Patches[i].Variants = variants
			return
		}
	}
	b.Patches = append(b.Patches, ProductPatch{ProductID: productID, Variants: variants})
}

func (b *Batch) Staged(productID string) ([]Variant, bool) {
	for _, p := range b.Patches {
		if p.ProductID == productID {
			return p.Variants, true
		}
	}
	return nil, false
}

func (b *Batch) Empty() bool {
	return len(b.Patches) == 0
}
