package bridge

import (
	"encoding/base64"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/merkle"
	"bridgecore/core/operation"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/external"
)

// Proof authorises one inbound operation: the signer signed the Merkle root
// reached from the operation's content hash along Path.
type Proof struct {
	Origin     types.Hash        `json:"origin"`
	Path       []types.Hash      `json:"path"`
	Signature  crypto.Signature  `json:"signature"`
	RecoveryID crypto.RecoveryID `json:"recovery_id"`
}

type NativeWithdrawal struct {
	Receiver types.AccountID `json:"receiver_id"`
	Amount   *uint256.Int    `json:"amount"`
	Proof
}

type FTWithdrawal struct {
	Token     types.AccountID `json:"token"`
	Amount    *uint256.Int    `json:"amount"`
	Receiver  types.AccountID `json:"receiver_id"`
	IsWrapped bool            `json:"is_wrapped"`
	Proof
}

// NFTMetadata is the metadata supplied for a wrapped token mint.
type NFTMetadata struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Media       *string `json:"media"`
	MediaHash   []byte  `json:"media_hash"`
}

type NFTWithdrawal struct {
	Token     types.AccountID `json:"token"`
	TokenID   string          `json:"token_id"`
	Receiver  types.AccountID `json:"receiver_id"`
	Metadata  *NFTMetadata    `json:"token_metadata,omitempty"`
	IsWrapped bool            `json:"is_wrapped"`
	Proof
}

// verifyInbound checks p over the operation data addressed to receiver and
// consumes the origin hash.
func (c *Contract) verifyInbound(data []byte, receiver types.AccountID, p Proof) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	node := merkle.NewContentNode(p.Origin, c.account, cfg.Chain, data, &receiver)
	root := merkle.RootOf(node, p.Path)
	if err := crypto.VerifySignature(crypto.SignerPublicKey(cfg.Signer), root, p.Signature, p.RecoveryID); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	return c.hashes.CheckAndSet(p.Origin)
}

func (c *Contract) hashCallback(origin types.Hash) async.Callback {
	return func(res async.Result) error {
		return c.HandleHashCallback(origin, res)
	}
}

// HandleHashCallback releases origin when the effect it authorised failed,
// so the same proof can be submitted again.
func (c *Contract) HandleHashCallback(origin types.Hash, res async.Result) error {
	if res.OK() {
		return nil
	}
	err := c.exec.Run("handle_hash_callback", func() error {
		return c.hashes.Rollback(origin)
	})
	if err == nil {
		c.exec.Telemetry().IncRollback(ModuleName)
	}
	return err
}

// NativeWithdraw releases native currency to the receiver.
func (c *Contract) NativeWithdraw(inv types.Invocation, w NativeWithdrawal) error {
	return c.exec.Run("native_withdraw", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if err := requireOneYocto(inv); err != nil {
			return err
		}
		if w.Amount == nil {
			return ErrInvalidAmount
		}
		if err := w.Receiver.Validate(); err != nil {
			return fmt.Errorf("bridge: receiver: %w", err)
		}
		op := operation.NewNativeTransfer(w.Amount)
		if err := c.verifyInbound(op.Encode(), w.Receiver, w.Proof); err != nil {
			return err
		}
		call := async.Call{
			Receiver: w.Receiver,
			Method:   external.MethodNativeTransfer,
			Deposit:  new(uint256.Int).Set(w.Amount),
		}
		if err := c.exec.Schedule(call, c.hashCallback(w.Origin)); err != nil {
			return err
		}
		c.exec.Emit(events.NativeWithdrawn{
			Sender:     inv.Predecessor,
			Receiver:   w.Receiver,
			Amount:     w.Amount.Dec(),
			Origin:     w.Origin.Hex(),
			Signature:  w.Signature.Hex(),
			Path:       types.HashesToStrings(w.Path),
			RecoveryID: uint8(w.RecoveryID),
		})
		return nil
	})
}

// FTWithdraw mints wrapped fungible tokens or transfers custodied ones.
func (c *Contract) FTWithdraw(inv types.Invocation, w FTWithdrawal) error {
	return c.exec.Run("ft_withdraw", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if !w.IsWrapped {
			if err := requireOneYocto(inv); err != nil {
				return err
			}
		}
		if w.Amount == nil {
			return ErrInvalidAmount
		}
		if err := w.Token.Validate(); err != nil {
			return fmt.Errorf("bridge: token: %w", err)
		}
		if err := w.Receiver.Validate(); err != nil {
			return fmt.Errorf("bridge: receiver: %w", err)
		}
		op := operation.NewFTTransfer(w.Token, w.Amount)
		if err := c.verifyInbound(op.Encode(), w.Receiver, w.Proof); err != nil {
			return err
		}
		call := async.Call{Receiver: w.Token, Deposit: inv.AttachedDeposit()}
		if w.IsWrapped {
			call.Method = external.MethodFTMint
			call.Args = external.FTMintArgs{ReceiverID: w.Receiver, Amount: w.Amount}
		} else {
			call.Method = external.MethodFTTransfer
			call.Args = external.FTTransferArgs{ReceiverID: w.Receiver, Amount: w.Amount}
		}
		if err := c.exec.Schedule(call, c.hashCallback(w.Origin)); err != nil {
			return err
		}
		c.exec.Emit(events.FTWithdrawn{
			Token:      w.Token,
			Sender:     inv.Predecessor,
			Receiver:   w.Receiver,
			Origin:     w.Origin.Hex(),
			Signature:  w.Signature.Hex(),
			Amount:     w.Amount.Dec(),
			Path:       types.HashesToStrings(w.Path),
			RecoveryID: uint8(w.RecoveryID),
			IsWrapped:  w.IsWrapped,
		})
		return nil
	})
}

// NFTWithdraw mints a wrapped token from the supplied metadata, or for a
// custodied token first asks the token contract for its metadata and resumes
// in NFTTokenCallback.
func (c *Contract) NFTWithdraw(inv types.Invocation, w NFTWithdrawal) error {
	return c.exec.Run("nft_withdraw", func() error {
		if err := c.requireUnpaused(); err != nil {
			return err
		}
		if err := w.Token.Validate(); err != nil {
			return fmt.Errorf("bridge: token: %w", err)
		}
		if err := w.Receiver.Validate(); err != nil {
			return fmt.Errorf("bridge: receiver: %w", err)
		}
		if w.IsWrapped {
			if w.Metadata == nil {
				return ErrMetadataRequired
			}
			copies := uint64(1)
			return c.withdrawNFT(inv, w, external.TokenMetadata{
				Title:       w.Metadata.Title,
				Description: w.Metadata.Description,
				Media:       w.Metadata.Media,
				MediaHash:   w.Metadata.MediaHash,
				Copies:      &copies,
			})
		}
		if err := requireOneYocto(inv); err != nil {
			return err
		}
		call := async.Call{
			Receiver: w.Token,
			Method:   external.MethodNFTToken,
			Args:     external.NFTTokenArgs{TokenID: w.TokenID},
		}
		return c.exec.Schedule(call, func(res async.Result) error {
			return c.NFTTokenCallback(inv, w, res)
		})
	})
}

// NFTTokenCallback continues a custodied NFT withdrawal with the nft_token
// answer.
func (c *Contract) NFTTokenCallback(inv types.Invocation, w NFTWithdrawal, res async.Result) error {
	return c.exec.Run("nft_get_callback", func() error {
		if !res.OK() {
			return fmt.Errorf("%w: %v", ErrMetadataFetch, res.Err)
		}
		token, err := external.DecodeOptional[external.Token](res.Value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMetadataFetch, err)
		}
		if token == nil {
			return ErrTokenNotFound
		}
		if token.Metadata == nil {
			return ErrMetadataNotFound
		}
		if err := token.Metadata.Validate(); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		return c.withdrawNFT(inv, w, *token.Metadata)
	})
}

func (c *Contract) withdrawNFT(inv types.Invocation, w NFTWithdrawal, meta external.TokenMetadata) error {
	if meta.Title == nil || meta.Media == nil || meta.MediaHash == nil {
		return ErrIncompleteMetadata
	}
	token := w.Token
	op, err := operation.NewNFTTransfer(w.TokenID, &token, *meta.Title, *meta.Media, base64.StdEncoding.EncodeToString(meta.MediaHash))
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	if err := c.verifyInbound(op.Encode(), w.Receiver, w.Proof); err != nil {
		return err
	}
	call := async.Call{Receiver: w.Token, Deposit: inv.AttachedDeposit()}
	if w.IsWrapped {
		call.Method = external.MethodNFTMint
		call.Args = external.NFTMintArgs{TokenID: w.TokenID, ReceiverID: w.Receiver, TokenMetadata: meta}
	} else {
		call.Method = external.MethodNFTTransfer
		call.Args = external.NFTTransferArgs{ReceiverID: w.Receiver, TokenID: w.TokenID}
	}
	if err := c.exec.Schedule(call, c.hashCallback(w.Origin)); err != nil {
		return err
	}
	c.exec.Emit(events.NFTWithdrawn{
		Token:      w.Token,
		TokenID:    w.TokenID,
		Sender:     inv.Predecessor,
		Receiver:   w.Receiver,
		Origin:     w.Origin.Hex(),
		Signature:  w.Signature.Hex(),
		Path:       types.HashesToStrings(w.Path),
		RecoveryID: uint8(w.RecoveryID),
		IsWrapped:  w.IsWrapped,
	})
	return nil
}
