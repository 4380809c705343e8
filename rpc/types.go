package rpc

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// InvocationParams is the optional second parameter of a contract method:
// the calling account and the attached deposit. The bearer token holder
// attests both, standing in for the runtime of the host chain. Contracts
// served by the same node cannot be named as the caller.
type InvocationParams struct {
	Caller  types.AccountID `json:"caller"`
	Deposit *uint256.Int    `json:"deposit,omitempty"`
}

func (p InvocationParams) invocation() types.Invocation {
	return types.Invocation{Predecessor: p.Caller, Deposit: p.Deposit}
}

// ResolveRequest reports the outcome of a call executed outside the
// process. A non-empty Error marks failure.
type ResolveRequest struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

type ResolveResult struct {
	Resolved      string `json:"resolved"`
	Executed      int    `json:"executed"`
	CallbackError string `json:"callbackError,omitempty"`
}

type CallIDRequest struct {
	ID string `json:"id"`
}
