package domain

type ItemOutcome string

const (
	OutcomeApplied               ItemOutcome = "applied"
	OutcomeSkippedMissingProduct ItemOutcome = "skipped_missing_product"
	OutcomeSkippedMissingVariant ItemOutcome = "skipped_missing_variant"
)

type ItemResult struct {
	Item     LineItem
	Outcome  ItemOutcome
	NewStock int
}

type LowStockSignal struct {
	ProductID    string
	ProductTitle string
	VariantID    string
	Remaining    int
}

// AdjustmentReport describes what one inventory trigger invocation did.
type AdjustmentReport struct {
	OrderID   string
	Items     []ItemResult
	LowStock  []LowStockSignal
	Committed bool
}

// Count returns how many items ended with the given outcome.
func (r *AdjustmentReport) Count(outcome ItemOutcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == outcome {
			n++
		}
	}
	return n
}
