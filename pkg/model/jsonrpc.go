package model

import "encoding/json"

// JSON-RPC 2.0 envelopes for the A2A call between agents.

const (
	JSONRPCVersion  = "2.0"
	MethodSubmitRFQ = "SubmitRFQ"
)

// Well-known JSON-RPC error codes used by the supplier agent.
const (
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInvalidParams  = -32602
	RPCServerError    = -32000
)

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope. Exactly one of Result and
// Error is set.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewRPCRequest wraps params into a request envelope for the given method.
func NewRPCRequest(id, method string, params any) (*RPCRequest, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &RPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  raw,
	}, nil
}

// NewRPCResult wraps result into a success envelope echoing the request id.
func NewRPCResult(id string, result any) (*RPCResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &RPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewRPCError builds an error envelope echoing the request id.
func NewRPCError(id string, code int, message string) *RPCResponse {
	return &RPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
