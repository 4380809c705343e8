package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"bridgecore/core/types"
)

const (
	// SignatureLength is the size of an (r, s) pair.
	SignatureLength = 64
	// PublicKeyLength is the size of an uncompressed secp256k1 key without
	// the 0x04 marker.
	PublicKeyLength = 64
)

var (
	ErrInvalidSigner     = errors.New("crypto: invalid signer public key")
	ErrInvalidSignature  = errors.New("crypto: invalid signature")
	ErrInvalidRecoveryID = errors.New("crypto: invalid recovery id")
	// ErrNoRecoveredKey is returned when recovery yields no public key.
	ErrNoRecoveredKey = errors.New("crypto: invalid signature, public recovered key is none")
	// ErrSignerMismatch is returned when the recovered key differs from the
	// trusted signer.
	ErrSignerMismatch = errors.New("crypto: invalid signature, public recovered key is not equal to signer public key")
)

// SignerPublicKey is the base58 encoding of a 64-byte uncompressed secp256k1
// public key.
type SignerPublicKey string

// SignerFromBytes encodes a raw 64-byte key.
func SignerFromBytes(raw []byte) SignerPublicKey {
	return SignerPublicKey(base58.Encode(raw))
}

// ParseSigner trims and validates s.
func ParseSigner(s string) (SignerPublicKey, error) {
	signer := SignerPublicKey(strings.TrimSpace(s))
	if err := signer.Validate(); err != nil {
		return "", err
	}
	return signer, nil
}

// Bytes returns the decoded key. The result is empty for malformed input.
func (s SignerPublicKey) Bytes() []byte {
	return base58.Decode(string(s))
}

// Validate checks that the key decodes to exactly 64 bytes that lie on the
// curve.
func (s SignerPublicKey) Validate() error {
	raw := s.Bytes()
	if len(raw) != PublicKeyLength {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidSigner, len(raw))
	}
	if _, err := secp256k1.ParsePubKey(append([]byte{0x04}, raw...)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSigner, err)
	}
	return nil
}

func (s SignerPublicKey) String() string { return string(s) }

// Signature is a 64-byte (r, s) secp256k1 signature.
type Signature [SignatureLength]byte

// ParseSignature decodes hex with or without a 0x prefix.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		trimmed = "0x" + trimmed
	}
	raw, err := hexutil.Decode(trimmed)
	if err != nil {
		return sig, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != SignatureLength {
		return sig, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}

func (s Signature) Hex() string { return hexutil.Encode(s[:]) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RecoveryID selects which of the candidate keys a signature recovers to.
type RecoveryID uint8

// Validate accepts 0 and 1 only.
func (r RecoveryID) Validate() error {
	if r > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRecoveryID, uint8(r))
	}
	return nil
}

func (r *RecoveryID) UnmarshalJSON(data []byte) error {
	var v uint8
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecoveryID, err)
	}
	*r = RecoveryID(v)
	return r.Validate()
}

// Recover returns the 64-byte public key that produced sig over msg.
// High-s signatures are rejected.
func Recover(msg types.Hash, sig Signature, rid RecoveryID) ([]byte, error) {
	if err := rid.Validate(); err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if !crypto.ValidateSignatureValues(byte(rid), r, s, true) {
		return nil, ErrNoRecoveredKey
	}
	full := make([]byte, SignatureLength+1)
	copy(full, sig[:])
	full[SignatureLength] = byte(rid)
	pub, err := crypto.Ecrecover(msg[:], full)
	if err != nil || len(pub) != PublicKeyLength+1 {
		return nil, ErrNoRecoveredKey
	}
	return pub[1:], nil
}

// VerifySignature checks that (sig, rid) over msg was produced by signer.
func VerifySignature(signer SignerPublicKey, msg types.Hash, sig Signature, rid RecoveryID) error {
	pub, err := Recover(msg, sig, rid)
	if err != nil {
		return err
	}
	if SignerFromBytes(pub) != signer {
		return ErrSignerMismatch
	}
	return nil
}
