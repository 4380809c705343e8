package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"bridgecore/core/types"
)

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Sign produces a recoverable signature over a 32-byte message hash. The
// signature is always in low-s form.
func (k *PrivateKey) Sign(msg types.Hash) (Signature, RecoveryID, error) {
	var sig Signature
	if k == nil || k.PrivateKey == nil {
		return sig, 0, errors.New("crypto: nil private key")
	}
	raw, err := crypto.Sign(msg[:], k.PrivateKey)
	if err != nil {
		return sig, 0, fmt.Errorf("crypto: sign: %w", err)
	}
	copy(sig[:], raw[:SignatureLength])
	return sig, RecoveryID(raw[SignatureLength]), nil
}

// Signer returns the base58 form of the key used as the bridge trust anchor.
func (k *PublicKey) Signer() SignerPublicKey {
	// FromECDSAPub prepends the 0x04 uncompressed marker.
	return SignerFromBytes(crypto.FromECDSAPub(k.PublicKey)[1:])
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromHex parses a hex encoded private key without 0x prefix.
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
