package bridge

import (
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/types"
	"bridgecore/native/external"
)

func (c *Contract) requireFeeContract(sender types.AccountID) error {
	fee, err := c.FeeContract()
	if err != nil {
		return err
	}
	if sender != fee {
		return fmt.Errorf("%w: got %s", ErrNotFeeContract, sender)
	}
	return nil
}

// NativeDeposit accepts a completed native deposit forwarded by the fee
// collector. The deposited amount is the attached deposit.
func (c *Contract) NativeDeposit(inv types.Invocation, args external.NativeDepositArgs) error {
	return c.exec.Run("native_deposit", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if err := c.requireFeeContract(inv.Predecessor); err != nil {
			return err
		}
		amount := inv.AttachedDeposit()
		if amount.IsZero() {
			return ErrZeroDeposit
		}
		c.exec.Emit(events.NativeDeposited{
			Sender:     args.Sender,
			Receiver:   args.ReceiverID,
			ChainTo:    args.Chain,
			Amount:     amount.Dec(),
			BundleData: args.BundleData,
			BundleSalt: args.BundleSalt,
		})
		return nil
	})
}

// FTOnTransfer accepts fungible tokens sent by the fee collector. The calling
// token contract is inv.Predecessor. Wrapped tokens are burned. The returned
// amount is the unused part, always zero on success.
func (c *Contract) FTOnTransfer(inv types.Invocation, args external.FTOnTransferArgs) (*uint256.Int, error) {
	err := c.exec.Run("ft_on_transfer", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if err := c.requireFeeContract(args.SenderID); err != nil {
			return err
		}
		if args.Amount == nil {
			return ErrInvalidAmount
		}
		log, err := external.ParseTransferLog(args.Msg)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		if log.IsWrapped {
			burn := async.Call{
				Receiver: inv.Predecessor,
				Method:   external.MethodFTTransfer,
				Args:     external.FTTransferArgs{ReceiverID: external.BurnAccount, Amount: args.Amount},
				Deposit:  external.OneYocto(),
			}
			if err := c.exec.Schedule(burn, nil); err != nil {
				return err
			}
		}
		c.exec.Emit(events.FTDeposited{
			Token:      inv.Predecessor,
			Sender:     log.Sender,
			Receiver:   log.Receiver,
			ChainTo:    log.ChainTo,
			Amount:     args.Amount.Dec(),
			IsWrapped:  log.IsWrapped,
			BundleData: log.BundleData,
			BundleSalt: log.BundleSalt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return new(uint256.Int), nil
}

// NFTOnTransfer accepts a non-fungible token sent by the fee collector. It
// returns whether the token must go back to the sender, always false on
// success.
func (c *Contract) NFTOnTransfer(inv types.Invocation, args external.NFTOnTransferArgs) (bool, error) {
	err := c.exec.Run("nft_on_transfer", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if err := c.requireFeeContract(args.SenderID); err != nil {
			return err
		}
		log, err := external.ParseTransferLog(args.Msg)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		if log.IsWrapped {
			burn := async.Call{
				Receiver: inv.Predecessor,
				Method:   external.MethodNFTTransfer,
				Args:     external.NFTTransferArgs{ReceiverID: external.BurnAccount, TokenID: args.TokenID},
				Deposit:  external.OneYocto(),
			}
			if err := c.exec.Schedule(burn, nil); err != nil {
				return err
			}
		}
		c.exec.Emit(events.NFTDeposited{
			Token:      inv.Predecessor,
			TokenID:    args.TokenID,
			Sender:     log.Sender,
			Receiver:   log.Receiver,
			ChainTo:    log.ChainTo,
			IsWrapped:  log.IsWrapped,
			BundleData: log.BundleData,
			BundleSalt: log.BundleSalt,
		})
		return nil
	})
	return false, err
}
