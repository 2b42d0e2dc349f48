// Package model holds the wire and domain types shared by the buyer and
// supplier agents. The JSON shapes here are the A2A contract: renaming a
// field or tag is a breaking protocol change.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The A2A contract carries prices as plain JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Currency is the ISO code of a supported settlement currency.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, JPY:
		return true
	}
	return false
}

// Date is a calendar date serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a %q string", dateLayout)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// BOMItem is one line of a bill of materials. Immutable once part of an RFQ.
type BOMItem struct {
	PartNumber string `json:"partNumber"`
	Qty        int    `json:"qty"`
	Spec       string `json:"spec"`
}

// SubmitRFQ is the request-for-quotation envelope a buyer sends to a supplier.
type SubmitRFQ struct {
	BOM      []BOMItem `json:"bom"`
	Currency Currency  `json:"currency"`
	Deadline Date      `json:"deadline"`
}

// QuotedItem prices one BOM line. The supplier echoes every requested part
// back in request order, including parts it had to price at fallback rates.
type QuotedItem struct {
	PartNumber   string          `json:"partNumber"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LeadTimeDays int             `json:"leadTimeDays"`
}

// Quote is a supplier's binding, time-limited answer to an RFQ. It is created
// only by the supplier's pricing engine and never mutated afterwards; a
// re-quote is a new Quote.
type Quote struct {
	RFQID      string          `json:"rfqId"`
	SupplierID string          `json:"supplierId"`
	Items      []QuotedItem    `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Currency   Currency        `json:"currency"`
	ValidUntil Date            `json:"validUntil"`
}

// Sum returns the exact sum of unitPrice x quantity over all items.
func (q Quote) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, it := range q.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Outcome is the terminal classification of one RFQ's quoting attempt.
type Outcome string

const (
	OutcomeSuccess                 Outcome = "SUCCESS"
	OutcomeValidationFailed        Outcome = "VALIDATION_FAILED"
	OutcomeSupplierUnreachable     Outcome = "SUPPLIER_UNREACHABLE"
	OutcomeSupplierTimeout         Outcome = "SUPPLIER_TIMEOUT"
	OutcomeSupplierInvalidResponse Outcome = "SUPPLIER_INVALID_RESPONSE"
)

// Transient reports whether the outcome class is worth retrying.
// An invalid response signals a contract violation, not network flakiness.
func (o Outcome) Transient() bool {
	return o == OutcomeSupplierUnreachable || o == OutcomeSupplierTimeout
}

// RFQStatus is the persisted lifecycle state of an RFQ record.
type RFQStatus string

const (
	RFQPending    RFQStatus = "PENDING"
	RFQProcessing RFQStatus = "PROCESSING"
	RFQQuoted     RFQStatus = "QUOTED"
	RFQFailed     RFQStatus = "FAILED"
)
