// Package bridge is the bridge contract: it releases assets against signed
// Merkle proofs, accepts deposits forwarded by the fee collector and keeps
// the signer, chain and pause switch under nonce-protected admin control.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/replay"
	"bridgecore/core/state"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/common"
	"bridgecore/native/external"
	"bridgecore/storage"
)

// ModuleName labels the contract in pause keys, logs and metrics.
const ModuleName = "bridge"

var (
	ErrNotInitialized     = errors.New("bridge: not initialized")
	ErrAlreadyInitialized = errors.New("bridge: already initialized")
	ErrChainRequired      = errors.New("bridge: chain argument is required")
	ErrNotFeeContract     = errors.New("bridge: sender must be fee contract")
	ErrZeroDeposit        = errors.New("bridge: attached deposit must be greater than zero")
	ErrOneYocto           = errors.New("bridge: requires attached deposit of exactly 1 yoctoNEAR")
	ErrInvalidAmount      = errors.New("bridge: invalid amount")
	ErrMetadataRequired   = errors.New("bridge: token metadata required for wrapped withdrawal")
	ErrMetadataFetch      = errors.New("bridge: failed to get non fungible token metadata")
	ErrTokenNotFound      = errors.New("bridge: non fungible token not found")
	ErrMetadataNotFound   = errors.New("bridge: non fungible token metadata not found")
	ErrIncompleteMetadata = errors.New("bridge: token metadata lacks title, media or media hash")
	ErrNoDeployer         = errors.New("bridge: code deployment unavailable")
)

// Deployer replaces the code of an account. The host provides it.
type Deployer interface {
	Deploy(ctx context.Context, account types.AccountID, code []byte) error
}

type storedConfig struct {
	Signer      string
	Chain       string
	FeeContract string
}

var keyConfig = []byte("config")

// Contract is one bridge instance bound to its persisted state.
type Contract struct {
	account  types.AccountID
	state    *state.Manager
	hashes   *replay.Ledger
	nonce    *replay.Nonce
	pause    *common.PauseSwitch
	exec     *common.Executor
	deployer Deployer
}

// New binds a bridge deployed at account to db. Call Init on a fresh
// database or Load on an existing one before use.
func New(account types.AccountID, db storage.Database, scheduler async.Scheduler) *Contract {
	st := state.NewManager(db, account.String())
	return &Contract{
		account: account,
		state:   st,
		hashes:  replay.NewLedger(st),
		nonce:   replay.NewNonce(st),
		pause:   common.NewPauseSwitch(st),
		exec:    common.NewExecutor(ModuleName, account, st, scheduler),
	}
}

func (c *Contract) SetEmitter(emitter events.Emitter) { c.exec.SetEmitter(emitter) }
func (c *Contract) SetLogger(logger *slog.Logger)     { c.exec.SetLogger(logger) }
func (c *Contract) SetDeployer(d Deployer)            { c.deployer = d }

// Account returns the id the bridge is deployed at.
func (c *Contract) Account() types.AccountID { return c.account }

// Init stores the initial configuration.
func (c *Contract) Init(signer crypto.SignerPublicKey, feeContract types.AccountID, chain string) error {
	return c.exec.Run("new", func() error {
		exists, err := c.state.KVGet(keyConfig, nil)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		if chain == "" {
			return ErrChainRequired
		}
		if err := signer.Validate(); err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
		if err := feeContract.Validate(); err != nil {
			return fmt.Errorf("bridge: fee contract: %w", err)
		}
		return c.state.KVPut(keyConfig, storedConfig{
			Signer:      signer.String(),
			Chain:       chain,
			FeeContract: feeContract.String(),
		})
	})
}

// Load checks that a previous deployment left state behind. The layout is
// read back unchanged, which is all a code upgrade needs.
func (c *Contract) Load() error {
	_, err := c.config()
	return err
}

func (c *Contract) config() (storedConfig, error) {
	var cfg storedConfig
	ok, err := c.state.KVGet(keyConfig, &cfg)
	if err != nil {
		return storedConfig{}, fmt.Errorf("bridge: load config: %w", err)
	}
	if !ok {
		return storedConfig{}, ErrNotInitialized
	}
	return cfg, nil
}

// Signer returns the key that authorises withdrawals and admin operations.
func (c *Contract) Signer() (crypto.SignerPublicKey, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return crypto.SignerPublicKey(cfg.Signer), nil
}

func (c *Contract) Chain() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return cfg.Chain, nil
}

func (c *Contract) FeeContract() (types.AccountID, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return types.AccountID(cfg.FeeContract), nil
}

// Nonce returns the value the next admin operation must sign over.
func (c *Contract) Nonce() (uint64, error) { return c.nonce.Current() }

func (c *Contract) Paused() (bool, error) { return c.pause.IsPaused(ModuleName) }

// IsConsumed reports whether an inbound operation with this origin is live.
func (c *Contract) IsConsumed(origin types.Hash) (bool, error) { return c.hashes.IsConsumed(origin) }

func (c *Contract) requireUnpaused() error {
	return common.Guard(c.pause, ModuleName)
}

func requireOneYocto(inv types.Invocation) error {
	if !inv.AttachedDeposit().Eq(external.OneYocto()) {
		return ErrOneYocto
	}
	return nil
}
