package types

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// TokenKind distinguishes the native asset from fungible and non-fungible
// token contracts.
type TokenKind uint8

const (
	TokenNative TokenKind = iota
	TokenFT
	TokenNFT
)

func (k TokenKind) String() string {
	switch k {
	case TokenNative:
		return "Native"
	case TokenFT:
		return "FT"
	case TokenNFT:
		return "NFT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k TokenKind) Valid() bool { return k <= TokenNFT }

func (k TokenKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("types: unknown token kind %d", uint8(k))
	}
	return json.Marshal(k.String())
}

func (k *TokenKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTokenKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseTokenKind accepts "Native", "FT" or "NFT".
func ParseTokenKind(s string) (TokenKind, error) {
	switch s {
	case "Native":
		return TokenNative, nil
	case "FT":
		return TokenFT, nil
	case "NFT":
		return TokenNFT, nil
	default:
		return 0, fmt.Errorf("types: unknown token kind %q", s)
	}
}

// FeeToken is one entry of the fee-token registry. An empty Token denotes the
// native asset.
type FeeToken struct {
	Token AccountID    `json:"token_addr,omitempty"`
	Kind  TokenKind    `json:"token_type"`
	Fee   *uint256.Int `json:"fee"`
}

// IsNative reports whether the entry is keyed by "no address".
func (t FeeToken) IsNative() bool { return t.Token.IsEmpty() }

// Copy returns a deep copy of the entry.
func (t FeeToken) Copy() FeeToken {
	out := t
	if t.Fee != nil {
		out.Fee = new(uint256.Int).Set(t.Fee)
	}
	return out
}

// FeeOrZero returns the configured fee, treating nil as zero.
func (t FeeToken) FeeOrZero() *uint256.Int {
	if t.Fee == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(t.Fee)
}
