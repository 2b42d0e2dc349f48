package a2a

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/partsgrid/agents/pkg/model"
)

// priceTolerance absorbs representation noise in the supplier's totalPrice.
// Anything beyond a cent is a contract violation, not rounding.
var priceTolerance = decimal.NewFromFloat(0.01)

// quoteWire mirrors model.Quote with pointer fields so absent keys are
// distinguishable from zero values during contract checking.
type quoteWire struct {
	RFQID      *string          `json:"rfqId"`
	SupplierID *string          `json:"supplierId"`
	Items      []itemWire       `json:"items"`
	TotalPrice *decimal.Decimal `json:"totalPrice"`
	Currency   *model.Currency  `json:"currency"`
	ValidUntil *model.Date      `json:"validUntil"`
}

type itemWire struct {
	PartNumber   *string          `json:"partNumber"`
	Quantity     *int             `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	LeadTimeDays *int             `json:"leadTimeDays"`
}

// parseQuote decodes and contract-checks a supplier quote against the RFQ it
// answers. Every violation is reported as a plain error; the caller wraps it
// into the invalid-response failure class.
func parseQuote(raw json.RawMessage, rfq model.SubmitRFQ) (*model.Quote, error) {
	var w quoteWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("quote does not decode: %w", err)
	}

	switch {
	case w.RFQID == nil || *w.RFQID == "":
		return nil, fmt.Errorf("quote missing rfqId")
	case w.SupplierID == nil || *w.SupplierID == "":
		return nil, fmt.Errorf("quote missing supplierId")
	case w.TotalPrice == nil:
		return nil, fmt.Errorf("quote missing totalPrice")
	case w.Currency == nil:
		return nil, fmt.Errorf("quote missing currency")
	case w.ValidUntil == nil || w.ValidUntil.IsZero():
		return nil, fmt.Errorf("quote missing validUntil")
	}

	if len(w.Items) != len(rfq.BOM) {
		return nil, fmt.Errorf("quote has %d items for %d BOM lines", len(w.Items), len(rfq.BOM))
	}

	q := &model.Quote{
		RFQID:      *w.RFQID,
		SupplierID: *w.SupplierID,
		Items:      make([]model.QuotedItem, len(w.Items)),
		TotalPrice: *w.TotalPrice,
		Currency:   *w.Currency,
		ValidUntil: *w.ValidUntil,
	}

	for i, it := range w.Items {
		line := rfq.BOM[i]
		switch {
		case it.PartNumber == nil || *it.PartNumber == "":
			return nil, fmt.Errorf("items[%d] missing partNumber", i)
		case it.Quantity == nil:
			return nil, fmt.Errorf("items[%d] missing quantity", i)
		case it.UnitPrice == nil:
			return nil, fmt.Errorf("items[%d] missing unitPrice", i)
		case it.LeadTimeDays == nil:
			return nil, fmt.Errorf("items[%d] missing leadTimeDays", i)
		}
		if *it.PartNumber != line.PartNumber {
			return nil, fmt.Errorf("items[%d] is %q, expected %q", i, *it.PartNumber, line.PartNumber)
		}
		if *it.Quantity != line.Qty {
			return nil, fmt.Errorf("items[%d] quantity %d, requested %d", i, *it.Quantity, line.Qty)
		}
		if !it.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("items[%d] unitPrice %s is not positive", i, it.UnitPrice)
		}
		if *it.LeadTimeDays < 0 {
			return nil, fmt.Errorf("items[%d] leadTimeDays %d is negative", i, *it.LeadTimeDays)
		}
		q.Items[i] = model.QuotedItem{
			PartNumber:   *it.PartNumber,
			Quantity:     *it.Quantity,
			UnitPrice:    *it.UnitPrice,
			LeadTimeDays: *it.LeadTimeDays,
		}
	}

	if !q.TotalPrice.IsPositive() {
		return nil, fmt.Errorf("totalPrice %s is not positive", q.TotalPrice)
	}
	if q.Currency != rfq.Currency {
		return nil, fmt.Errorf("quote currency %s, RFQ requested %s", q.Currency, rfq.Currency)
	}
	if diff := q.TotalPrice.Sub(q.Sum()).Abs(); diff.GreaterThan(priceTolerance) {
		return nil, fmt.Errorf("totalPrice %s differs from line sum %s by %s", q.TotalPrice, q.Sum(), diff)
	}

	return q, nil
}
