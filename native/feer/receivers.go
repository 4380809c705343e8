package feer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
	"bridgecore/native/external"
)

func (c *Contract) observeForward(kind *types.TokenKind) {
	if kind != nil {
		c.exec.Telemetry().IncForward(kind.String())
	}
}

func (c *Contract) softReject(receiver string, sender types.AccountID, err error) {
	c.exec.Telemetry().IncSoftReject(receiver)
	c.exec.Logger().Info("deposit leg refunded",
		slog.String("receiver", receiver),
		slog.String("sender", sender.String()),
		slog.Any("reason", err))
}

// ChargeNative takes one leg paid in native currency by inv.Predecessor; the
// attached deposit is the leg amount. Unlike token legs, a rejected native
// leg fails the whole call.
func (c *Contract) ChargeNative(inv types.Invocation, log DepositLog) error {
	var forwarded *types.TokenKind
	err := c.exec.Run("charge_native", func() error {
		if err := log.Validate(types.TokenNative, nil); err != nil {
			return err
		}
		kind, err := c.receiveLeg(inv.Predecessor, log, inv.AttachedDeposit(), nil)
		if errors.Is(err, ErrLegRejected) {
			return fmt.Errorf("%w: %w", ErrChargeNative, err)
		}
		forwarded = kind
		return err
	})
	if err == nil {
		c.observeForward(forwarded)
	}
	return err
}

// FTOnTransfer takes one leg paid in fungible tokens. inv.Predecessor is the
// token contract and args.SenderID the depositing account. It returns the
// amount to refund: all of it when the leg is rejected, zero otherwise.
func (c *Contract) FTOnTransfer(inv types.Invocation, args external.FTOnTransferArgs) (*uint256.Int, error) {
	if args.Amount == nil {
		return nil, ErrInvalidAmount
	}
	token := inv.Predecessor
	var forwarded *types.TokenKind
	err := c.exec.Run("ft_on_transfer", func() error {
		log, err := ParseDepositLog(args.Msg)
		if err != nil {
			return rejectLeg(err, "")
		}
		if err := log.Validate(types.TokenFT, &token); err != nil {
			return rejectLeg(err, "")
		}
		forwarded, err = c.receiveLeg(args.SenderID, log, args.Amount, nil)
		return err
	})
	if errors.Is(err, ErrLegRejected) {
		c.softReject(external.MethodFTOnTransfer, args.SenderID, err)
		return new(uint256.Int).Set(args.Amount), nil
	}
	if err != nil {
		return nil, err
	}
	c.observeForward(forwarded)
	return new(uint256.Int), nil
}

// NFTOnTransfer takes one leg paid with a non-fungible token. It returns
// whether the token goes back to the sender.
func (c *Contract) NFTOnTransfer(inv types.Invocation, args external.NFTOnTransferArgs) (bool, error) {
	token := inv.Predecessor
	tokenID := args.TokenID
	var forwarded *types.TokenKind
	err := c.exec.Run("nft_on_transfer", func() error {
		log, err := ParseDepositLog(args.Msg)
		if err != nil {
			return rejectLeg(err, "")
		}
		if err := log.Validate(types.TokenNFT, &token); err != nil {
			return rejectLeg(err, "")
		}
		forwarded, err = c.receiveLeg(args.SenderID, log, nil, &tokenID)
		return err
	})
	if errors.Is(err, ErrLegRejected) {
		c.softReject(external.MethodNFTOnTransfer, args.SenderID, err)
		return true, nil
	}
	if err != nil {
		return false, err
	}
	c.observeForward(forwarded)
	return false, nil
}
