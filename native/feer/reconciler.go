package feer

import (
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/native/external"
)

// receiveLeg merges one validated leg into the record of sender. When the
// leg completes the deposit, the record is forwarded to the bridge and reset
// within the same operation. It returns the forwarded kind, or nil while the
// deposit is still partial.
func (c *Contract) receiveLeg(sender types.AccountID, log DepositLog, amount *uint256.Int, tokenID *string) (*types.TokenKind, error) {
	op, err := c.loadOperation(sender)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, rejectLeg(ErrAccountNotFound, "%s", sender)
	}
	feeToken, err := c.FeeToken(log.feeTokenAddr())
	if err != nil {
		return nil, err
	}
	if feeToken == nil {
		return nil, rejectLeg(ErrFeeTokenNotFound, "%s", feeTokenLabel(log.feeTokenAddr()))
	}
	msg, err := log.transferLog(op.Owner).Encode()
	if err != nil {
		return nil, err
	}

	op.populate(log, msg, amount, tokenID)
	if op.Deposited || op.FeeCharged {
		if err := op.matches(log, msg); err != nil {
			return nil, rejectLeg(ErrOperationMismatch, "%v", err)
		}
	}

	switch log.TransferType {
	case TransferFee:
		if op.FeeCharged {
			return nil, rejectLeg(ErrFeeAlreadyCharged, "")
		}
		if amount == nil {
			return nil, rejectLeg(ErrFeeAmountRequired, "")
		}
		if fee := feeToken.FeeOrZero(); !amount.Eq(fee) {
			return nil, rejectLeg(ErrFeeAmountMismatch, "got %s, want %s", amount.Dec(), fee.Dec())
		}
		op.FeeCharged = true
		c.exec.Logger().Info("fee charged", slog.String("owner", sender.String()))
	case TransferDeposit:
		if op.Deposited {
			return nil, rejectLeg(ErrAlreadyDeposited, "")
		}
		op.Deposited = true
		c.exec.Logger().Info("deposited", slog.String("owner", sender.String()))
	}

	if !op.Complete() {
		return nil, c.saveOperation(*op)
	}
	kind, err := c.forward(*op)
	if err != nil {
		return nil, err
	}
	op.reset()
	if err := c.saveOperation(*op); err != nil {
		return nil, err
	}
	return &kind, nil
}

// forward schedules the single call that hands a completed deposit to the
// bridge.
func (c *Contract) forward(op DepositOperation) (types.TokenKind, error) {
	if op.Kind == nil || op.Msg == nil || op.Receiver == nil {
		return 0, fmt.Errorf("%w: token type, receiver or msg missing", ErrIncompleteDeposit)
	}
	bridge, err := c.Bridge()
	if err != nil {
		return 0, err
	}
	kind := *op.Kind
	var call async.Call
	switch kind {
	case types.TokenNative:
		if op.Amount == nil {
			return 0, fmt.Errorf("%w: amount missing", ErrIncompleteDeposit)
		}
		log, err := external.ParseTransferLog(*op.Msg)
		if err != nil {
			return 0, err
		}
		call = async.Call{
			Receiver: bridge,
			Method:   external.MethodNativeDeposit,
			Args: external.NativeDepositArgs{
				Sender:     op.Owner,
				ReceiverID: *op.Receiver,
				Chain:      log.ChainTo,
				BundleData: log.BundleData,
				BundleSalt: log.BundleSalt,
			},
			Deposit: new(uint256.Int).Set(op.Amount),
		}
	case types.TokenFT:
		if op.Token == nil || op.Amount == nil {
			return 0, fmt.Errorf("%w: token or amount missing", ErrIncompleteDeposit)
		}
		call = async.Call{
			Receiver: *op.Token,
			Method:   external.MethodFTTransferCall,
			Args: external.FTTransferCallArgs{
				ReceiverID: bridge,
				Amount:     new(uint256.Int).Set(op.Amount),
				Msg:        *op.Msg,
			},
			Deposit: external.OneYocto(),
		}
	case types.TokenNFT:
		if op.Token == nil || op.TokenID == nil {
			return 0, fmt.Errorf("%w: token or token id missing", ErrIncompleteDeposit)
		}
		call = async.Call{
			Receiver: *op.Token,
			Method:   external.MethodNFTTransferCall,
			Args: external.NFTTransferCallArgs{
				ReceiverID: bridge,
				TokenID:    *op.TokenID,
				Msg:        *op.Msg,
			},
			Deposit: external.OneYocto(),
		}
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedToken, kind)
	}

	owner := op.Owner
	err = c.exec.Schedule(call, func(res async.Result) error {
		if !res.OK() {
			c.exec.Logger().Error("deposit forward failed",
				slog.String("owner", owner.String()),
				slog.String("method", call.Method),
				slog.Any("error", res.Err))
		}
		return nil
	})
	return kind, err
}
