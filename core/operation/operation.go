// Package operation builds the canonical byte payloads that the bridge signer
// signs. The layouts are shared with the remote chain, so field order and
// widths never change.
package operation

import (
	"encoding/base64"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

// WordLength is the width of every length prefix and numeric field.
const WordLength = 32

// Operation is a typed bridge operation with a deterministic encoding.
type Operation interface {
	Encode() []byte
	isOperation()
}

// NativeTransfer moves the native asset.
type NativeTransfer struct {
	Amount *uint256.Int
}

// NewNativeTransfer returns the operation for a native withdrawal.
func NewNativeTransfer(amount *uint256.Int) NativeTransfer {
	return NativeTransfer{Amount: amount}
}

func (NativeTransfer) isOperation() {}

// Encode returns the 32-byte big-endian amount.
func (op NativeTransfer) Encode() []byte {
	word := encodeWord(op.Amount)
	return word[:]
}

// FullMetaTransfer covers fungible and non-fungible transfers. Nil fields are
// absent and encode as a zero length prefix.
type FullMetaTransfer struct {
	Token     *string
	Title     *string
	TokenID   *string
	Amount    *uint256.Int
	MediaURL  *string
	MediaHash []byte
}

func (FullMetaTransfer) isOperation() {}

// NewFTTransfer returns the operation for a fungible token withdrawal.
func NewFTTransfer(token types.AccountID, amount *uint256.Int) FullMetaTransfer {
	if amount == nil {
		amount = new(uint256.Int)
	}
	return FullMetaTransfer{Token: stringPtr(token.String()), Amount: amount}
}

// NewNFTTransfer returns the operation for a non-fungible token withdrawal.
// mediaHash is the base64 form carried in token metadata; the decoded bytes
// are what gets signed.
func NewNFTTransfer(tokenID string, token *types.AccountID, title, mediaURL, mediaHash string) (FullMetaTransfer, error) {
	decoded, err := base64.StdEncoding.DecodeString(mediaHash)
	if err != nil {
		return FullMetaTransfer{}, fmt.Errorf("operation: media hash is not base64: %w", err)
	}
	op := FullMetaTransfer{
		Title:     stringPtr(title),
		TokenID:   stringPtr(tokenID),
		MediaURL:  stringPtr(mediaURL),
		MediaHash: decoded,
	}
	if token != nil {
		op.Token = stringPtr(token.String())
	}
	return op, nil
}

// Encode writes token, title, token id, amount, media url and media hash in
// that order, each behind a 32-byte length prefix.
func (op FullMetaTransfer) Encode() []byte {
	var out []byte
	out = appendOptional(out, optionalBytes(op.Token))
	out = appendOptional(out, optionalBytes(op.Title))
	if op.TokenID != nil {
		out = appendField(out, padTokenID([]byte(*op.TokenID)))
	} else {
		out = appendAbsent(out)
	}
	if op.Amount != nil {
		word := encodeWord(op.Amount)
		out = appendField(out, word[:])
	} else {
		out = appendAbsent(out)
	}
	out = appendOptional(out, optionalBytes(op.MediaURL))
	if op.MediaHash != nil {
		out = appendField(out, op.MediaHash)
	} else {
		out = appendAbsent(out)
	}
	return out
}

// padTokenID left-pads ids shorter than a word. Empty and over-long ids are
// kept as-is.
func padTokenID(id []byte) []byte {
	if len(id) == 0 || len(id) > WordLength {
		return append([]byte(nil), id...)
	}
	padded := make([]byte, WordLength)
	copy(padded[WordLength-len(id):], id)
	return padded
}

func appendOptional(out []byte, field []byte) []byte {
	if field == nil {
		return appendAbsent(out)
	}
	return appendField(out, field)
}

func appendField(out []byte, payload []byte) []byte {
	prefix := lengthWord(len(payload))
	out = append(out, prefix[:]...)
	return append(out, payload...)
}

func appendAbsent(out []byte) []byte {
	var zero [WordLength]byte
	return append(out, zero[:]...)
}

func lengthWord(n int) [WordLength]byte {
	return uint256.NewInt(uint64(n)).Bytes32()
}

func encodeWord(v *uint256.Int) [WordLength]byte {
	if v == nil {
		return [WordLength]byte{}
	}
	return v.Bytes32()
}

func optionalBytes(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}

func stringPtr(s string) *string { return &s }
