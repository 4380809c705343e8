package crypto

import (
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"bridgecore/core/types"
)

func mustKey(t *testing.T) *PrivateKey {
	t.Helper()
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestSignerValidate(t *testing.T) {
	key := mustKey(t)
	signer := key.PubKey().Signer()
	if err := signer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(signer.Bytes()) != PublicKeyLength {
		t.Fatalf("unexpected decoded length %d", len(signer.Bytes()))
	}

	short := SignerFromBytes(make([]byte, 33))
	if err := short.Validate(); !errors.Is(err, ErrInvalidSigner) {
		t.Fatalf("expected length rejection, got %v", err)
	}
	offCurve := make([]byte, PublicKeyLength)
	offCurve[63] = 1
	if err := SignerFromBytes(offCurve).Validate(); !errors.Is(err, ErrInvalidSigner) {
		t.Fatalf("expected curve rejection, got %v", err)
	}
	if err := SignerPublicKey("0OIl").Validate(); !errors.Is(err, ErrInvalidSigner) {
		t.Fatalf("expected base58 rejection, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	key := mustKey(t)
	signer := key.PubKey().Signer()
	msg := types.Hash(crypto.Keccak256Hash([]byte("payload")))

	sig, rid, err := key.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, VerifySignature(signer, msg, sig, rid))

	other := mustKey(t).PubKey().Signer()
	require.ErrorIs(t, VerifySignature(other, msg, sig, rid), ErrSignerMismatch)

	flipped := msg
	flipped[0] ^= 0x01
	require.Error(t, VerifySignature(signer, flipped, sig, rid))

	require.Error(t, VerifySignature(signer, msg, sig, rid^1))
	require.ErrorIs(t, VerifySignature(signer, msg, sig, 2), ErrInvalidRecoveryID)
}

func TestVerifyRejectsHighS(t *testing.T) {
	key := mustKey(t)
	msg := types.Hash(crypto.Keccak256Hash([]byte("malleable")))
	sig, rid, err := key.Sign(msg)
	require.NoError(t, err)

	// (r, n-s) with the flipped recovery id is the same signature in high-s form.
	s := new(big.Int).SetBytes(sig[32:])
	high := new(big.Int).Sub(crypto.S256().Params().N, s)
	var malleated Signature
	copy(malleated[:32], sig[:32])
	high.FillBytes(malleated[32:])

	require.ErrorIs(t, VerifySignature(key.PubKey().Signer(), msg, malleated, rid^1), ErrNoRecoveredKey)
}

func TestParseSignature(t *testing.T) {
	raw := strings.Repeat("11", SignatureLength)
	withPrefix, err := ParseSignature("0x" + raw)
	require.NoError(t, err)
	bare, err := ParseSignature(raw)
	require.NoError(t, err)
	require.Equal(t, withPrefix, bare)
	require.Equal(t, "0x"+raw, bare.Hex())

	_, err = ParseSignature("0x1234")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key := mustKey(t)
	path := filepath.Join(t.TempDir(), "keys", "signer.json")
	require.NoError(t, SaveToKeystore(path, key, "secret"))

	loaded, signer, err := LoadSigner(path, "secret")
	require.NoError(t, err)
	require.Equal(t, key.Bytes(), loaded.Bytes())
	require.Equal(t, key.PubKey().Signer(), signer)

	_, err = LoadFromKeystore(path, "wrong")
	require.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = LoadFromKeystore("", "secret")
	require.ErrorIs(t, err, ErrKeystorePath)
}
