package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/external"
)

type SetSignerRequest struct {
	Signer crypto.SignerPublicKey `json:"signer"`
	AdminAuth
}

type SetFeeContractRequest struct {
	FeeContract types.AccountID `json:"fee_contract"`
	AdminAuth
}

// UpdateContractRequest carries the new code base64 encoded.
type UpdateContractRequest struct {
	Code []byte `json:"code"`
	AdminAuth
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

// Invoke runs a method by name with JSON params the way the host dispatches
// a transaction. Unknown methods fail with async.ErrUnknownMethod and bad
// params with async.ErrInvalidArgs.
func (c *Contract) Invoke(ctx context.Context, inv types.Invocation, method string, params json.RawMessage) (any, error) {
	switch method {
	case "get_signer":
		return c.Signer()
	case "get_chain":
		return c.Chain()
	case "get_fee_contract":
		return c.FeeContract()
	case "get_nonce":
		return c.Nonce()
	case "is_paused":
		return c.Paused()
	case "is_consumed":
		req, err := decode[OriginRequest](params)
		if err != nil {
			return nil, err
		}
		return c.IsConsumed(req.Origin)
	case "set_signer":
		req, err := decode[SetSignerRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.SetSigner(req.Signer, req.AdminAuth)
	case "set_fee_contract":
		req, err := decode[SetFeeContractRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.SetFeeContract(req.FeeContract, req.AdminAuth)
	case "pause_bridge":
		req, err := decode[AdminAuth](params)
		if err != nil {
			return nil, err
		}
		return nil, c.PauseBridge(req)
	case "resume_bridge":
		req, err := decode[AdminAuth](params)
		if err != nil {
			return nil, err
		}
		return nil, c.ResumeBridge(req)
	case "update_contract":
		req, err := decode[UpdateContractRequest](params)
		if err != nil {
			return nil, err
		}
		return nil, c.UpdateContract(req.Code, req.AdminAuth)
	case "native_withdraw":
		req, err := decode[NativeWithdrawal](params)
		if err != nil {
			return nil, err
		}
		return nil, c.NativeWithdraw(inv, req)
	case "ft_withdraw":
		req, err := decode[FTWithdrawal](params)
		if err != nil {
			return nil, err
		}
		return nil, c.FTWithdraw(inv, req)
	case "nft_withdraw":
		req, err := decode[NFTWithdrawal](params)
		if err != nil {
			return nil, err
		}
		return nil, c.NFTWithdraw(inv, req)
	case external.MethodNativeDeposit, external.MethodFTOnTransfer, external.MethodNFTOnTransfer:
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
