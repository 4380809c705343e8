package feer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/native/external"
)

type ChargeNativeRequest struct {
	Deposit DepositLog `json:"deposit"`
}

type WithdrawRequest struct {
	Op       FeeManageOperation `json:"op"`
	Amount   *uint256.Int       `json:"amount"`
	Receiver types.AccountID    `json:"receiver"`
}

type ManageRequest struct {
	Op FeeManageOperation `json:"op"`
}

type StorageDepositRequest struct {
	AccountID *types.AccountID `json:"account_id"`
}

type StorageUnregisterRequest struct {
	Force bool `json:"force"`
}

type OwnerRequest struct {
	Owner types.AccountID `json:"owner"`
}

type FeeTokenRequest struct {
	TokenAddr types.AccountID `json:"token_addr"`
}

type OriginRequest struct {
	Origin types.Hash `json:"origin"`
}

func decode[T any](params json.RawMessage) (T, error) {
	var out T
	if len(params) == 0 {
		return out, fmt.Errorf("%w: missing params", async.ErrInvalidArgs)
	}
	return external.Decode[T](params)
}

// Invoke runs a method by name with JSON params. Token receiver hooks are
// accepted too, with inv.Predecessor as the token contract.
func (c *Contract) Invoke(ctx context.Context, inv types.Invocation, method string, params json.RawMessage) (any, error) {
	switch method {
	case "get_chain":
		return c.Chain()
	case "get_bridge":
		return c.Bridge()
	case "get_fee_tokens":
		return c.FeeTokens()
	case "get_fee_token":
		var req FeeTokenRequest
		if len(params) > 0 {
			parsed, err := external.Decode[FeeTokenRequest](params)
			if err != nil {
				return nil, err
			}
			req = parsed
		}
		return c.FeeToken(req.TokenAddr)
	case "get_deposit_op":
		req, err := decode[OwnerRequest](params)
		if err != nil {
			return nil, err
		}
		return c.DepositOperation(req.Owner)
	case "is_consumed":
		req, err := decode[OriginRequest](params)
		if err != nil {
			return nil, err
		}
		return c.IsConsumed(req.Origin)
	case "storage_deposit":
		var req StorageDepositRequest
		if len(params) > 0 {
			parsed, err := external.Decode[StorageDepositRequest](params)
			if err != nil {
				return nil, err
			}
			req = parsed
		}
		return c.Register(inv, req.AccountID)
	case "storage_unregister":
		var req StorageUnregisterRequest
		if len(params) > 0 {
			parsed, err := external.Decode[StorageUnregisterRequest](params)
			if err != nil {
				return nil, err
			}
			req = parsed
		}
		return c.Unregister(inv, req.Force)
	case "charge_native":
		req, err := decode[ChargeNativeRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.ChargeNative(inv, req.Deposit)
	case "add_fee_token":
		req, err := decode[ManageRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.AddFeeToken(req.Op)
	case "update_fee_token":
		req, err := decode[ManageRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.UpdateFeeToken(req.Op)
	case "remove_fee_token":
		req, err := decode[ManageRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.RemoveFeeToken(req.Op)
	case "withdraw":
		req, err := decode[WithdrawRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.Withdraw(req.Op, req.Amount, req.Receiver)
	case external.MethodFTOnTransfer, external.MethodNFTOnTransfer:
		res := c.HandleCall(ctx, async.Call{
			Caller:   inv.Predecessor,
			Receiver: c.account,
			Method:   method,
			Args:     params,
			Deposit:  inv.Deposit,
		})
		return res.Value, res.Err
	default:
		return nil, fmt.Errorf("%w: %s", async.ErrUnknownMethod, method)
	}
}
