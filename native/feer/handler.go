package feer

import (
	"context"
	"fmt"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/native/external"
)

// HandleCall executes the token receiver hooks token contracts call on the
// fee collector.
func (c *Contract) HandleCall(_ context.Context, call async.Call) async.Result {
	inv := types.Invocation{Predecessor: call.Caller, Deposit: call.Deposit}
	switch call.Method {
	case external.MethodFTOnTransfer:
		args, err := external.Decode[external.FTOnTransferArgs](call.Args)
		if err != nil {
			return async.Failure(err)
		}
		refund, err := c.FTOnTransfer(inv, args)
		if err != nil {
			return async.Failure(err)
		}
		return async.Success(refund)
	case external.MethodNFTOnTransfer:
		args, err := external.Decode[external.NFTOnTransferArgs](call.Args)
		if err != nil {
			return async.Failure(err)
		}
		returned, err := c.NFTOnTransfer(inv, args)
		if err != nil {
			return async.Failure(err)
		}
		return async.Success(returned)
	default:
		return async.Failure(fmt.Errorf("%w: %s", async.ErrUnknownMethod, call.Method))
	}
}
