// Package feer is the fee collector contract. A user deposits an asset and
// pays the bridge fee in two independent legs; once both legs of an account
// have arrived and agree, the deposit is forwarded to the bridge in one call.
package feer

import (
	"errors"
	"fmt"
	"log/slog"

	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/replay"
	"bridgecore/core/state"
	"bridgecore/core/types"
	"bridgecore/native/common"
	"bridgecore/storage"
)

// ModuleName labels the contract in logs and metrics.
const ModuleName = "feer"

var (
	ErrNotInitialized     = errors.New("feer: not initialized")
	ErrAlreadyInitialized = errors.New("feer: already initialized")
	ErrUnregisterPending  = errors.New("feer: can't unregister the account with the processing state without force")
	ErrTokenExists        = errors.New("feer: token already exists")
	ErrUnsupportedToken   = errors.New("feer: unsupported token type")
	ErrSignerUnavailable  = errors.New("feer: failed to get bridge signer public key")
	ErrInvalidDepositLog  = errors.New("feer: invalid deposit log")
	ErrChargeNative       = errors.New("feer: failed to charge native")
	ErrIncompleteDeposit  = errors.New("feer: deposit operation incomplete")
	ErrInvalidAmount      = errors.New("feer: invalid amount")
	ErrOneYocto           = errors.New("feer: requires attached deposit of exactly 1 yoctoNEAR")

	// ErrLegRejected wraps every reason a deposit leg is turned down.
	ErrLegRejected       = errors.New("feer: deposit leg rejected")
	ErrAccountNotFound   = errors.New("user not found")
	ErrFeeTokenNotFound  = errors.New("fee token not found")
	ErrOperationMismatch = errors.New("deposit operation is not equal to log")
	ErrFeeAlreadyCharged = errors.New("fee already charged")
	ErrFeeAmountRequired = errors.New("amount or token id is empty")
	ErrFeeAmountMismatch = errors.New("fee amount is not equal to fee token fee")
	ErrAlreadyDeposited  = errors.New("deposit already deposited")
)

func rejectLeg(reason error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrLegRejected, reason)
	}
	return fmt.Errorf("%w: %w: %s", ErrLegRejected, reason, fmt.Sprintf(format, args...))
}

type storedConfig struct {
	Chain  string
	Bridge string
}

var keyConfig = []byte("config")

// Contract is one fee collector instance bound to its persisted state.
type Contract struct {
	account types.AccountID
	state   *state.Manager
	hashes  *replay.Ledger
	exec    *common.Executor
}

// New binds a fee collector deployed at account to db.
func New(account types.AccountID, db storage.Database, scheduler async.Scheduler) *Contract {
	st := state.NewManager(db, account.String())
	return &Contract{
		account: account,
		state:   st,
		hashes:  replay.NewLedger(st),
		exec:    common.NewExecutor(ModuleName, account, st, scheduler),
	}
}

func (c *Contract) SetEmitter(emitter events.Emitter) { c.exec.SetEmitter(emitter) }
func (c *Contract) SetLogger(logger *slog.Logger)     { c.exec.SetLogger(logger) }

// Account returns the id the fee collector is deployed at.
func (c *Contract) Account() types.AccountID { return c.account }

// Init stores the chain, the bridge account and the initial fee tokens.
func (c *Contract) Init(chain string, bridge types.AccountID, tokens []types.FeeToken) error {
	return c.exec.Run("new", func() error {
		exists, err := c.state.KVGet(keyConfig, nil)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}
		if err := bridge.Validate(); err != nil {
			return fmt.Errorf("feer: bridge: %w", err)
		}
		registry := make([]types.FeeToken, 0, len(tokens))
		for _, token := range tokens {
			if err := validateFeeToken(token); err != nil {
				return err
			}
			if _, ok := findFeeToken(registry, token.Token); ok {
				return fmt.Errorf("%w: %s", ErrTokenExists, feeTokenLabel(token.Token))
			}
			registry = append(registry, token.Copy())
		}
		if err := c.saveFeeTokens(registry); err != nil {
			return err
		}
		return c.state.KVPut(keyConfig, storedConfig{Chain: chain, Bridge: bridge.String()})
	})
}

// Load checks that a previous deployment left state behind.
func (c *Contract) Load() error {
	_, err := c.config()
	return err
}

func (c *Contract) config() (storedConfig, error) {
	var cfg storedConfig
	ok, err := c.state.KVGet(keyConfig, &cfg)
	if err != nil {
		return storedConfig{}, fmt.Errorf("feer: load config: %w", err)
	}
	if !ok {
		return storedConfig{}, ErrNotInitialized
	}
	return cfg, nil
}

func (c *Contract) Chain() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return cfg.Chain, nil
}

// Bridge returns the account completed deposits are forwarded to.
func (c *Contract) Bridge() (types.AccountID, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return types.AccountID(cfg.Bridge), nil
}

// IsConsumed reports whether a registry operation with this origin ran.
func (c *Contract) IsConsumed(origin types.Hash) (bool, error) { return c.hashes.IsConsumed(origin) }
