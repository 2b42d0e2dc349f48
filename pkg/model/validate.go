package model

import (
	"fmt"
	"strings"
)

// Validate checks the structural constraints of an RFQ envelope: non-empty
// BOM, positive quantities, a supported currency, and a deadline. Deadline
// freshness (future-or-present) is a buyer-side policy checked by the
// orchestrator, not here.
func (r SubmitRFQ) Validate() error {
	if len(r.BOM) == 0 {
		return fmt.Errorf("bom must contain at least one line item")
	}
	for i, item := range r.BOM {
		if strings.TrimSpace(item.PartNumber) == "" {
			return fmt.Errorf("bom[%d]: partNumber is required", i)
		}
		if item.Qty < 1 {
			return fmt.Errorf("bom[%d]: qty must be >= 1, got %d", i, item.Qty)
		}
	}
	if !r.Currency.Valid() {
		return fmt.Errorf("currency %q is not supported (USD, EUR, JPY)", r.Currency)
	}
	if r.Deadline.IsZero() {
		return fmt.Errorf("deadline is required")
	}
	return nil
}
