package bridge

import (
	"context"
	"fmt"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/native/external"
)

func invocationOf(call async.Call) types.Invocation {
	return types.Invocation{Predecessor: call.Caller, Deposit: call.Deposit}
}

// HandleCall executes calls other contracts address to the bridge.
func (c *Contract) HandleCall(ctx context.Context, call async.Call) async.Result {
	inv := invocationOf(call)
	switch call.Method {
	case external.MethodGetSigner:
		signer, err := c.Signer()
		if err != nil {
			return async.Failure(err)
		}
		return async.Success(signer)
	case external.MethodNativeDeposit:
		args, err := external.Decode[external.NativeDepositArgs](call.Args)
		if err != nil {
			return async.Failure(err)
		}
		if err := c.NativeDeposit(inv, args); err != nil {
			return async.Failure(err)
		}
		return async.Success(nil)
	case external.MethodFTOnTransfer:
		args, err := external.Decode[external.FTOnTransferArgs](call.Args)
		if err != nil {
			return async.Failure(err)
		}
		unused, err := c.FTOnTransfer(inv, args)
		if err != nil {
			return async.Failure(err)
		}
		return async.Success(unused)
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
	case external.MethodDeployContract:
		return c.deploy(ctx, call)
	default:
		return async.Failure(fmt.Errorf("%w: %s", async.ErrUnknownMethod, call.Method))
	}
}

// deploy replaces the bridge code and migrates state. Only the bridge may
// call it on itself.
func (c *Contract) deploy(ctx context.Context, call async.Call) async.Result {
	if call.Caller != c.account {
		return async.Failure(fmt.Errorf("bridge: deploy_contract is private, called by %s", call.Caller))
	}
	if c.deployer == nil {
		return async.Failure(ErrNoDeployer)
	}
	args, err := external.Decode[external.DeployContractArgs](call.Args)
	if err != nil {
		return async.Failure(err)
	}
	if err := c.deployer.Deploy(ctx, c.account, args.Code); err != nil {
		return async.Failure(fmt.Errorf("bridge: deploy: %w", err))
	}
	if err := c.Load(); err != nil {
		return async.Failure(fmt.Errorf("bridge: migrate: %w", err))
	}
	c.exec.Logger().Info("contract code updated")
	return async.Success(nil)
}
