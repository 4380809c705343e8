package bridge

import (
	"fmt"
	"log/slog"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"bridgecore/core/async"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/external"
)

const (
	pauseValue  = "pause"
	resumeValue = "resume"
)

// AdminAuth is the signature over AdminMessage for one admin operation.
type AdminAuth struct {
	Signature  crypto.Signature  `json:"signature"`
	RecoveryID crypto.RecoveryID `json:"recovery_id"`
}

// AdminMessage is the digest an admin operation signs: keccak256 of value,
// chain, the nonce as a 32-byte big-endian word and the bridge account.
func AdminMessage(value []byte, chain string, nonce uint64, account types.AccountID) types.Hash {
	word := uint256.NewInt(nonce).Bytes32()
	buf := make([]byte, 0, len(value)+len(chain)+len(word)+len(account))
	buf = append(buf, value...)
	buf = append(buf, chain...)
	buf = append(buf, word[:]...)
	buf = append(buf, account...)
	var h types.Hash
	copy(h[:], ethcrypto.Keccak256(buf))
	return h
}

// CodeDigest is the value an UpdateContract signature covers.
func CodeDigest(code []byte) []byte { return ethcrypto.Keccak256(code) }

// PauseValue and ResumeValue are the values signed to toggle the pause switch.
func PauseValue() []byte  { return []byte(pauseValue) }
func ResumeValue() []byte { return []byte(resumeValue) }

// authorize verifies auth over value at the current nonce and consumes the
// nonce.
func (c *Contract) authorize(value []byte, auth AdminAuth) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	nonce, err := c.nonce.Current()
	if err != nil {
		return err
	}
	msg := AdminMessage(value, cfg.Chain, nonce, c.account)
	if err := crypto.VerifySignature(crypto.SignerPublicKey(cfg.Signer), msg, auth.Signature, auth.RecoveryID); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	_, err = c.nonce.Increment()
	return err
}

func (c *Contract) updateConfig(fn func(*storedConfig)) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	fn(&cfg)
	return c.state.KVPut(keyConfig, cfg)
}

// SetFeeContract moves deposit acceptance to another fee collector.
func (c *Contract) SetFeeContract(feeContract types.AccountID, auth AdminAuth) error {
	return c.exec.Run("set_fee_contract", func() error {
		if err := feeContract.Validate(); err != nil {
			return fmt.Errorf("bridge: fee contract: %w", err)
		}
		if err := c.authorize([]byte(feeContract), auth); err != nil {
			return err
		}
		return c.updateConfig(func(cfg *storedConfig) { cfg.FeeContract = feeContract.String() })
	})
}

// SetSigner rotates the signing key. The current key signs the new one.
func (c *Contract) SetSigner(signer crypto.SignerPublicKey, auth AdminAuth) error {
	return c.exec.Run("set_signer", func() error {
		if err := signer.Validate(); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		if err := c.authorize([]byte(signer), auth); err != nil {
			return err
		}
		return c.updateConfig(func(cfg *storedConfig) { cfg.Signer = signer.String() })
	})
}

func (c *Contract) PauseBridge(auth AdminAuth) error {
	return c.exec.Run("pause_bridge", func() error {
		if err := c.authorize(PauseValue(), auth); err != nil {
			return err
		}
		return c.pause.Pause(ModuleName)
	})
}

func (c *Contract) ResumeBridge(auth AdminAuth) error {
	return c.exec.Run("resume_bridge", func() error {
		if err := c.authorize(ResumeValue(), auth); err != nil {
			return err
		}
		return c.pause.Resume(ModuleName)
	})
}

// UpdateContract schedules a deployment of code on the bridge account
// followed by a migration of its state.
func (c *Contract) UpdateContract(code []byte, auth AdminAuth) error {
	return c.exec.Run("update_contract", func() error {
		if len(code) == 0 {
			return fmt.Errorf("bridge: empty contract code")
		}
		if err := c.authorize(CodeDigest(code), auth); err != nil {
			return err
		}
		call := async.Call{
			Receiver: c.account,
			Method:   external.MethodDeployContract,
			Args:     external.DeployContractArgs{Code: code},
		}
		return c.exec.Schedule(call, func(res async.Result) error {
			if !res.OK() {
				c.exec.Logger().Warn("contract update failed", slog.Any("error", res.Err))
			}
			return nil
		})
	})
}
