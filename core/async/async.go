// Package async models the host scheduler the contracts hand their outgoing
// calls to. An operation issues a Call together with a Callback; the callback
// later resumes the issuing contract with the call's Result.
package async

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

var (
	ErrUnknownCall     = errors.New("async: unknown call")
	ErrInvalidCall     = errors.New("async: invalid call")
	ErrUnknownMethod   = errors.New("async: unknown method")
	ErrInvalidArgs     = errors.New("async: invalid call arguments")
	ErrNoHandler       = errors.New("async: no handler for receiver")
	ErrAlreadyResolved = errors.New("async: call already resolved")
)

// Call is one outgoing cross-contract call.
type Call struct {
	ID       string          `json:"id"`
	Caller   types.AccountID `json:"caller"`
	Receiver types.AccountID `json:"receiver"`
	Method   string          `json:"method"`
	Args     any             `json:"args,omitempty"`
	Deposit  *uint256.Int    `json:"deposit,omitempty"`
}

// Validate checks that the call names a receiver and a method.
func (c Call) Validate() error {
	if c.Receiver.IsEmpty() || c.Method == "" {
		return fmt.Errorf("%w: receiver and method required", ErrInvalidCall)
	}
	return nil
}

// Result is what the receiver returned. A non-nil Err marks failure.
type Result struct {
	Value any
	Err   error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Callback resumes the issuing contract.
type Callback func(Result) error

// Scheduler accepts calls for later execution. It returns the call id.
type Scheduler interface {
	Schedule(call Call, cb Callback) (string, error)
}

// Handler executes calls addressed to one receiver.
type Handler interface {
	HandleCall(ctx context.Context, call Call) Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, call Call) Result

func (f HandlerFunc) HandleCall(ctx context.Context, call Call) Result { return f(ctx, call) }

// Failure builds a failed Result.
func Failure(err error) Result { return Result{Err: err} }

// Success builds a successful Result.
func Success(value any) Result { return Result{Value: value} }
