package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := SubmitRFQ{
		BOM:      []BOMItem{{PartNumber: "PN-001", Qty: 1}},
		Currency: USD,
		Deadline: DateOf(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*SubmitRFQ)
	}{
		{"empty bom", func(r *SubmitRFQ) { r.BOM = nil }},
		{"blank part number", func(r *SubmitRFQ) { r.BOM[0].PartNumber = "  " }},
		{"zero qty", func(r *SubmitRFQ) { r.BOM[0].Qty = 0 }},
		{"negative qty", func(r *SubmitRFQ) { r.BOM[0].Qty = -2 }},
		{"unsupported currency", func(r *SubmitRFQ) { r.Currency = "GBP" }},
		{"missing deadline", func(r *SubmitRFQ) { r.Deadline = Date{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rfq := valid
			rfq.BOM = []BOMItem{valid.BOM[0]}
			tc.mutate(&rfq)
			assert.Error(t, rfq.Validate())
		})
	}
}

func TestDateWireFormat(t *testing.T) {
	d := DateOf(time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC))
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-08"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d.Time))

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"08/06/2024"`), &bad))
}

func TestPricesMarshalAsNumbers(t *testing.T) {
	item := QuotedItem{PartNumber: "PN-001", Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")}
	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unitPrice":10.5`)
}

func TestQuoteSum(t *testing.T) {
	q := Quote{Items: []QuotedItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		{Quantity: 5, UnitPrice: decimal.RequireFromString("25.99")},
	}}
	assert.True(t, q.Sum().Equal(decimal.RequireFromString("150.95")))
}

func TestOutcomeTransient(t *testing.T) {
	assert.True(t, OutcomeSupplierUnreachable.Transient())
	assert.True(t, OutcomeSupplierTimeout.Transient())
	assert.False(t, OutcomeSupplierInvalidResponse.Transient())
	assert.False(t, OutcomeValidationFailed.Transient())
	assert.False(t, OutcomeSuccess.Transient())
}
