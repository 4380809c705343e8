package types

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashLength is the byte length of every hash used by the bridge.
const HashLength = 32

// ErrInvalidHash is returned when a hash does not decode to exactly 32 bytes.
var ErrInvalidHash = errors.New("types: hash must be exactly 32 bytes")

// Hash is a keccak-256 digest. Its text form is 0x-prefixed lower-case hex.
type Hash [HashLength]byte

// BytesToHash converts b into a Hash. It fails unless len(b) is 32.
func BytesToHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, fmt.Errorf("%w: got %d", ErrInvalidHash, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ParseHash decodes a 0x-prefixed hex string.
func ParseHash(s string) (Hash, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return BytesToHash(raw)
}

// MustParseHash is ParseHash that panics. Intended for constants and tests.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether every byte is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp compares the hashes as big-endian unsigned 256-bit integers.
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashesToStrings renders a path for logs and events.
func HashesToStrings(hashes []Hash) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.Hex()
	}
	return out
}
