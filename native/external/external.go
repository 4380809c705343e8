// Package external describes the calls exchanged between the bridge, the fee
// collector and the token contracts that custody assets.
package external

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/types"
)

const (
	MethodFTTransfer      = "ft_transfer"
	MethodFTMint          = "ft_mint"
	MethodFTTransferCall  = "ft_transfer_call"
	MethodFTOnTransfer    = "ft_on_transfer"
	MethodNFTTransfer     = "nft_transfer"
	MethodNFTMint         = "nft_mint"
	MethodNFTToken        = "nft_token"
	MethodNFTTransferCall = "nft_transfer_call"
	MethodNFTOnTransfer   = "nft_on_transfer"
	MethodNativeTransfer  = "transfer"
	MethodGetSigner       = "get_signer"
	MethodNativeDeposit   = "native_deposit"
	MethodDeployContract  = "deploy_contract"
)

// BurnAccount receives wrapped assets deposited to the bridge.
const BurnAccount types.AccountID = "system"

// OneYocto is the smallest native amount, attached to token transfers.
func OneYocto() *uint256.Int { return uint256.NewInt(1) }

type FTTransferArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	Amount     *uint256.Int    `json:"amount"`
	Memo       *string         `json:"memo"`
}

type FTMintArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	Amount     *uint256.Int    `json:"amount"`
}

type FTTransferCallArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	Amount     *uint256.Int    `json:"amount"`
	Memo       *string         `json:"memo"`
	Msg        string          `json:"msg"`
}

type FTOnTransferArgs struct {
	SenderID types.AccountID `json:"sender_id"`
	Amount   *uint256.Int    `json:"amount"`
	Msg      string          `json:"msg"`
}

type NFTTransferArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	TokenID    string          `json:"token_id"`
	ApprovalID *uint64         `json:"approval_id"`
	Memo       *string         `json:"memo"`
}

type NFTMintArgs struct {
	TokenID       string          `json:"token_id"`
	ReceiverID    types.AccountID `json:"receiver_id"`
	TokenMetadata TokenMetadata   `json:"token_metadata"`
	Memo          *string         `json:"memo"`
}

type NFTTokenArgs struct {
	TokenID string `json:"token_id"`
}

type NFTTransferCallArgs struct {
	ReceiverID types.AccountID `json:"receiver_id"`
	TokenID    string          `json:"token_id"`
	ApprovalID *uint64         `json:"approval_id"`
	Memo       *string         `json:"memo"`
	Msg        string          `json:"msg"`
}

type NFTOnTransferArgs struct {
	SenderID        types.AccountID `json:"sender_id"`
	PreviousOwnerID types.AccountID `json:"previous_owner_id"`
	TokenID         string          `json:"token_id"`
	Msg             string          `json:"msg"`
}

// NativeDepositArgs is the fee collector's forward of a completed native
// deposit. The amount travels as the attached deposit.
type NativeDepositArgs struct {
	Sender     types.AccountID `json:"sender"`
	ReceiverID string          `json:"receiver_id"`
	Chain      string          `json:"chain"`
	BundleData *string         `json:"bundle_data"`
	BundleSalt *string         `json:"bundle_salt"`
}

// DeployContractArgs replaces the code of the receiving account and then
// migrates its state.
type DeployContractArgs struct {
	Code []byte `json:"code"`
}

// Token is the answer of nft_token.
type Token struct {
	TokenID  string          `json:"token_id"`
	OwnerID  types.AccountID `json:"owner_id"`
	Metadata *TokenMetadata  `json:"metadata,omitempty"`
}

// TokenMetadata is the NEP-177 token metadata. Byte fields travel as base64.
type TokenMetadata struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Media         *string `json:"media"`
	MediaHash     []byte  `json:"media_hash"`
	Copies        *uint64 `json:"copies"`
	IssuedAt      *string `json:"issued_at"`
	ExpiresAt     *string `json:"expires_at"`
	StartsAt      *string `json:"starts_at"`
	UpdatedAt     *string `json:"updated_at"`
	Extra         *string `json:"extra"`
	Reference     *string `json:"reference"`
	ReferenceHash []byte  `json:"reference_hash"`
}

var ErrInvalidMetadata = errors.New("external: invalid token metadata")

// Validate enforces the NEP-177 pairing of media/reference with their hashes.
func (m TokenMetadata) Validate() error {
	if (m.Media == nil) != (m.MediaHash == nil) {
		return fmt.Errorf("%w: media and media_hash must be set together", ErrInvalidMetadata)
	}
	if m.MediaHash != nil && len(m.MediaHash) != 32 {
		return fmt.Errorf("%w: media_hash must be 32 bytes", ErrInvalidMetadata)
	}
	if (m.Reference == nil) != (m.ReferenceHash == nil) {
		return fmt.Errorf("%w: reference and reference_hash must be set together", ErrInvalidMetadata)
	}
	if m.ReferenceHash != nil && len(m.ReferenceHash) != 32 {
		return fmt.Errorf("%w: reference_hash must be 32 bytes", ErrInvalidMetadata)
	}
	return nil
}

// Decode converts call arguments or a call result into T. Values arrive
// either as T itself when produced in-process or as raw JSON when delivered
// over RPC.
func Decode[T any](v any) (T, error) {
	var out T
	switch value := v.(type) {
	case nil:
		return out, fmt.Errorf("%w: missing value", async.ErrInvalidArgs)
	case T:
		return value, nil
	case *T:
		if value == nil {
			return out, fmt.Errorf("%w: missing value", async.ErrInvalidArgs)
		}
		return *value, nil
	case json.RawMessage:
		if err := json.Unmarshal(value, &out); err != nil {
			return out, fmt.Errorf("%w: %v", async.ErrInvalidArgs, err)
		}
		return out, nil
	case []byte:
		if err := json.Unmarshal(value, &out); err != nil {
			return out, fmt.Errorf("%w: %v", async.ErrInvalidArgs, err)
		}
		return out, nil
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return out, fmt.Errorf("%w: %v", async.ErrInvalidArgs, err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("%w: %v", async.ErrInvalidArgs, err)
		}
		return out, nil
	}
}

// DecodeOptional is Decode for results that may legitimately be null.
func DecodeOptional[T any](v any) (*T, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case *T:
		return value, nil
	case json.RawMessage:
		if len(bytes.TrimSpace(value)) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, nil
		}
	}
	out, err := Decode[T](v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
