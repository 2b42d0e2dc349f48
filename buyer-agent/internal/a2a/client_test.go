package a2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partsgrid/agents/pkg/model"
)

type staticResolver struct {
	cfg SupplierConfig
	err error
}

func (r *staticResolver) Resolve(context.Context) (*SupplierConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &r.cfg, nil
}

func testRFQ() model.SubmitRFQ {
	return model.SubmitRFQ{
		BOM: []model.BOMItem{
			{PartNumber: "PN-001", Qty: 2},
			{PartNumber: "PN-005", Qty: 3},
		},
		Currency: model.USD,
		Deadline: model.DateOf(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
	}
}

// goodQuote answers rfq line for line with a consistent total.
func goodQuote(rfq model.SubmitRFQ) model.Quote {
	q := model.Quote{
		RFQID:      "SQ-RFQ-deadbeef",
		SupplierID: "supplier-quoter/partsgrid-v1",
		Currency:   rfq.Currency,
		ValidUntil: model.DateOf(time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)),
	}
	for _, line := range rfq.BOM {
		q.Items = append(q.Items, model.QuotedItem{
			PartNumber:   line.PartNumber,
			Quantity:     line.Qty,
			UnitPrice:    decimal.RequireFromString("10.50"),
			LeadTimeDays: 3,
		})
	}
	q.TotalPrice = q.Sum()
	return q
}

// rpcEcho serves a JSON-RPC result built by mutate from the good quote,
// echoing the caller's request id.
func rpcEcho(t *testing.T, rfq model.SubmitRFQ, mutate func(*model.Quote)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		q := goodQuote(rfq)
		if mutate != nil {
			mutate(&q)
		}
		resp, err := model.NewRPCResult(req.ID, q)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func newTestClient(url string) *Client {
	return NewClient(zap.NewNop(), &staticResolver{
		cfg: SupplierConfig{Endpoint: url, Token: "test-token"},
	}, 2*time.Second, nil)
}

func TestSendReturnsQuote(t *testing.T) {
	rfq := testRFQ()

	var gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req model.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMethod = req.Method
		resp, err := model.NewRPCResult(req.ID, goodQuote(rfq))
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	quote, err := newTestClient(srv.URL).Send(context.Background(), rfq)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, model.MethodSubmitRFQ, gotMethod)
	assert.Equal(t, "SQ-RFQ-deadbeef", quote.RFQID)
	assert.Len(t, quote.Items, 2)
	assert.Equal(t, "PN-001", quote.Items[0].PartNumber)
	assert.True(t, quote.TotalPrice.Equal(decimal.RequireFromString("52.50")))
}

func TestSendContractViolations(t *testing.T) {
	rfq := testRFQ()

	cases := []struct {
		name   string
		mutate func(*model.Quote)
	}{
		{"missing line", func(q *model.Quote) { q.Items = q.Items[:1] }},
		{"wrong part number", func(q *model.Quote) { q.Items[0].PartNumber = "PN-999" }},
		{"wrong quantity", func(q *model.Quote) { q.Items[1].Quantity = 99 }},
		{"zero unit price", func(q *model.Quote) { q.Items[0].UnitPrice = decimal.Zero }},
		{"negative lead time", func(q *model.Quote) { q.Items[0].LeadTimeDays = -1 }},
		{"currency mismatch", func(q *model.Quote) { q.Currency = model.EUR }},
		{"missing valid until", func(q *model.Quote) { q.ValidUntil = model.Date{} }},
		{"missing supplier id", func(q *model.Quote) { q.SupplierID = "" }},
		{"total off by more than a cent", func(q *model.Quote) {
			q.TotalPrice = q.TotalPrice.Add(decimal.RequireFromString("0.02"))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(rpcEcho(t, rfq, tc.mutate))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Send(context.Background(), rfq)
			require.Error(t, err)

			terr, ok := AsTransportError(err)
			require.True(t, ok)
			assert.Equal(t, model.OutcomeSupplierInvalidResponse, terr.Outcome)
			assert.False(t, IsTransient(err))
		})
	}
}

func TestSendToleratesSubCentTotalDrift(t *testing.T) {
	rfq := testRFQ()
	srv := httptest.NewServer(rpcEcho(t, rfq, func(q *model.Quote) {
		q.TotalPrice = q.TotalPrice.Add(decimal.RequireFromString("0.01"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), rfq)
	require.NoError(t, err)
}

func TestSendRPCErrorIsInvalidResponse(t *testing.T) {
	rfq := testRFQ()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := model.NewRPCError(req.ID, model.RPCInvalidParams, "bad params")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), rfq)
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierInvalidResponse, terr.Outcome)
}

func TestSendGarbageBodyIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), testRFQ())
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierInvalidResponse, terr.Outcome)
}

func TestSendServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), testRFQ())
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierUnreachable, terr.Outcome)
	assert.True(t, IsTransient(err))
}

func TestSendClientErrorIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), testRFQ())
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierInvalidResponse, terr.Outcome)
	assert.False(t, IsTransient(err))
}

func TestSendConnectionRefusedIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := newTestClient(srv.URL).Send(context.Background(), testRFQ())
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierUnreachable, terr.Outcome)
	assert.True(t, IsTransient(err))
}

func TestSendSlowSupplierIsTimeout(t *testing.T) {
	rfq := testRFQ()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop(), &staticResolver{
		cfg: SupplierConfig{Endpoint: srv.URL, Token: "test-token"},
	}, 50*time.Millisecond, nil)

	_, err := c.Send(context.Background(), rfq)
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierTimeout, terr.Outcome)
	assert.True(t, IsTransient(err))
}

func TestSendResolverFailureIsUnreachable(t *testing.T) {
	c := NewClient(zap.NewNop(), &staticResolver{err: assert.AnError}, time.Second, nil)

	_, err := c.Send(context.Background(), testRFQ())
	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSupplierUnreachable, terr.Outcome)
}

func TestSendMismatchedRPCIDStillAccepted(t *testing.T) {
	rfq := testRFQ()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := model.NewRPCResult("someone-elses-id", goodQuote(rfq))
		require.NoError(t, err)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	quote, err := newTestClient(srv.URL).Send(context.Background(), rfq)
	require.NoError(t, err)
	assert.Equal(t, "SQ-RFQ-deadbeef", quote.RFQID)
}
