package feer

import (
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/merkle"
	"bridgecore/core/operation"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/external"
)

// FeeManageOperation is a registry change signed by the bridge signer.
type FeeManageOperation struct {
	Token      types.FeeToken    `json:"token"`
	Origin     types.Hash        `json:"origin"`
	Path       []types.Hash      `json:"path"`
	Signature  crypto.Signature  `json:"signature"`
	RecoveryID crypto.RecoveryID `json:"recovery_id"`
}

// AddFeeToken registers op.Token once the bridge signer is confirmed.
func (c *Contract) AddFeeToken(op FeeManageOperation) error {
	return c.manage(operation.FeeAdd, op, nil, "")
}

// UpdateFeeToken changes the kind and fee of a registered entry.
func (c *Contract) UpdateFeeToken(op FeeManageOperation) error {
	return c.manage(operation.FeeUpdate, op, nil, "")
}

func (c *Contract) RemoveFeeToken(op FeeManageOperation) error {
	return c.manage(operation.FeeRemove, op, nil, "")
}

// Withdraw pays amount of collected op.Token to receiver.
func (c *Contract) Withdraw(op FeeManageOperation, amount *uint256.Int, receiver types.AccountID) error {
	if amount == nil {
		return ErrInvalidAmount
	}
	return c.manage(operation.FeeWithdraw, op, amount, receiver)
}

// manage asks the bridge for its current signer and applies the operation
// in the callback.
func (c *Contract) manage(kind operation.FeeKind, op FeeManageOperation, amount *uint256.Int, receiver types.AccountID) error {
	return c.exec.Run(kind.String(), func() error {
		if err := c.checkManagement(kind, op.Token); err != nil {
			return err
		}
		bridge, err := c.Bridge()
		if err != nil {
			return err
		}
		call := async.Call{Receiver: bridge, Method: external.MethodGetSigner}
		return c.exec.Schedule(call, func(res async.Result) error {
			return c.applyManagement(kind, op, amount, receiver, res)
		})
	})
}

func (c *Contract) applyManagement(kind operation.FeeKind, op FeeManageOperation, amount *uint256.Int, receiver types.AccountID, res async.Result) error {
	return c.exec.Run(kind.String()+"_callback", func() error {
		if !res.OK() {
			return fmt.Errorf("%w: %w", ErrSignerUnavailable, res.Err)
		}
		signer, err := external.Decode[crypto.SignerPublicKey](res.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSignerUnavailable, err)
		}
		if err := c.checkManagement(kind, op.Token); err != nil {
			return err
		}
		if err := c.verifyManagement(signer, kind, op, amount); err != nil {
			return err
		}
		switch kind {
		case operation.FeeAdd:
			return c.addFeeToken(op.Token)
		case operation.FeeUpdate:
			return c.updateFeeToken(op.Token)
		case operation.FeeRemove:
			return c.removeFeeToken(op.Token.Token)
		case operation.FeeWithdraw:
			return c.withdraw(op.Token, amount, receiver)
		default:
			return fmt.Errorf("feer: unknown management operation %s", kind)
		}
	})
}

// checkManagement refuses an operation that could not take effect, so its
// origin is never consumed by it.
func (c *Contract) checkManagement(kind operation.FeeKind, token types.FeeToken) error {
	if err := validateFeeToken(token); err != nil {
		return err
	}
	if kind != operation.FeeWithdraw {
		return nil
	}
	if token.Kind != types.TokenNative && token.Kind != types.TokenFT {
		return fmt.Errorf("%w: %s", ErrUnsupportedToken, token.Kind)
	}
	tokens, err := c.loadFeeTokens()
	if err != nil {
		return err
	}
	if i, ok := findFeeToken(tokens, token.Token); ok && tokens[i].Kind != token.Kind {
		return fmt.Errorf("feer: fee token %s: registered as %s", feeTokenLabel(token.Token), tokens[i].Kind)
	}
	return nil
}

func (c *Contract) verifyManagement(signer crypto.SignerPublicKey, kind operation.FeeKind, op FeeManageOperation, amount *uint256.Int) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	var receiver *types.AccountID
	if kind == operation.FeeWithdraw {
		self := c.account
		receiver = &self
	}
	data := operation.FeeManagement{Kind: kind, Token: op.Token, Amount: amount}.Encode()
	node := merkle.NewContentNode(op.Origin, types.AccountID(cfg.Bridge), cfg.Chain, data, receiver)
	root := merkle.RootOf(node, op.Path)
	if err := crypto.VerifySignature(signer, root, op.Signature, op.RecoveryID); err != nil {
		return fmt.Errorf("feer: %w", err)
	}
	return c.hashes.CheckAndSet(op.Origin)
}

func (c *Contract) withdraw(token types.FeeToken, amount *uint256.Int, receiver types.AccountID) error {
	if err := receiver.Validate(); err != nil {
		return fmt.Errorf("feer: receiver: %w", err)
	}
	var call async.Call
	switch token.Kind {
	case types.TokenNative:
		call = async.Call{
			Receiver: receiver,
			Method:   external.MethodNativeTransfer,
			Deposit:  new(uint256.Int).Set(amount),
		}
	case types.TokenFT:
		call = async.Call{
			Receiver: token.Token,
			Method:   external.MethodFTTransfer,
			Args: external.FTTransferArgs{
				ReceiverID: receiver,
				Amount:     new(uint256.Int).Set(amount),
			},
			Deposit: external.OneYocto(),
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedToken, token.Kind)
	}
	c.exec.Logger().Info("collected fees withdrawn",
		slog.String("token", feeTokenLabel(token.Token)),
		slog.String("receiver", receiver.String()),
		slog.String("amount", amount.Dec()))
	return c.exec.Schedule(call, nil)
}
