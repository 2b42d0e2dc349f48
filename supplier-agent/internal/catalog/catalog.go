// Package catalog maps part numbers to unit prices and lead times.
//
// Lookups never fail: an unknown part resolves to a fallback entry priced at
// the configured defaults, so the pricing engine can always echo back every
// requested line.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Entry is one catalog row, keyed by part number.
type Entry struct {
	PartNumber   string          `json:"partNumber"`
	Description  string          `json:"description,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LeadTimeDays int             `json:"leadTimeDays"`

	// Fallback marks an entry synthesized from Defaults rather than read
	// from the catalog. Not persisted.
	Fallback bool `json:"-"`
}

// Defaults is the fallback pricing policy for parts not in the catalog.
type Defaults struct {
	UnitPrice    decimal.Decimal
	LeadTimeDays int
}

// Fallback builds the entry returned for an unknown part number.
func (d Defaults) Fallback(partNumber string) Entry {
	return Entry{
		PartNumber:   partNumber,
		UnitPrice:    d.UnitPrice,
		LeadTimeDays: d.LeadTimeDays,
		Fallback:     true,
	}
}

// Catalog resolves part numbers to entries. Resolve must be side-effect free
// and safe for unlimited concurrent use.
type Catalog interface {
	Resolve(ctx context.Context, partNumber string) Entry
}

// Static is an in-memory catalog backed by a fixed map. Used for tests and
// demo deployments.
type Static struct {
	entries  map[string]Entry
	defaults Defaults
}

// NewStatic builds a Static catalog from entries; lookups missing from the
// map resolve via defaults.
func NewStatic(entries []Entry, defaults Defaults) *Static {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.PartNumber] = e
	}
	return &Static{entries: m, defaults: defaults}
}

// Resolve returns the entry for partNumber, or the fallback entry.
func (s *Static) Resolve(_ context.Context, partNumber string) Entry {
	if e, ok := s.entries[partNumber]; ok {
		return e
	}
	return s.defaults.Fallback(partNumber)
}

// Seed returns the default demo catalog.
func Seed() []Entry {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return []Entry{
		{PartNumber: "PN-001", Description: "Standard Widget", UnitPrice: price("10.50"), LeadTimeDays: 3},
		{PartNumber: "PN-002", Description: "Premium Widget", UnitPrice: price("25.75"), LeadTimeDays: 5},
		{PartNumber: "PN-003", Description: "Basic Bolt", UnitPrice: price("0.50"), LeadTimeDays: 1},
		{PartNumber: "PN-004", Description: "Advanced Gear", UnitPrice: price("75.00"), LeadTimeDays: 10},
		{PartNumber: "PN-005", Description: "Simple Bracket", UnitPrice: price("5.25"), LeadTimeDays: 2},
		{PartNumber: "WIDGET-SPECIAL", Description: "Custom Widget Assembly", UnitPrice: price("150.00"), LeadTimeDays: 15},
	}
}
