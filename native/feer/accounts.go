package feer

import (
	"fmt"
	"log/slog"

	"bridgecore/core/types"
	"bridgecore/native/external"
)

// Register opens an empty deposit record for account, or for the caller
// when account is nil. It reports false when the account already had one.
func (c *Contract) Register(inv types.Invocation, account *types.AccountID) (bool, error) {
	owner := inv.Predecessor
	if account != nil {
		owner = *account
	}
	created := false
	err := c.exec.Run("storage_deposit", func() error {
		if err := owner.Validate(); err != nil {
			return fmt.Errorf("feer: account: %w", err)
		}
		existing, err := c.loadOperation(owner)
		if err != nil {
			return err
		}
		if existing != nil {
			c.exec.Logger().Info("account already registered", slog.String("owner", owner.String()))
			return nil
		}
		created = true
		return c.saveOperation(DepositOperation{Owner: owner})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// IsRegistered reports whether owner has a deposit record.
func (c *Contract) IsRegistered(owner types.AccountID) (bool, error) {
	op, err := c.loadOperation(owner)
	return op != nil, err
}

// Unregister drops the caller's record. A record with a leg already in
// refuses to go unless force is set, and the funds of that leg stay with
// the collector. It reports false when the caller was not registered.
func (c *Contract) Unregister(inv types.Invocation, force bool) (bool, error) {
	owner := inv.Predecessor
	deleted := false
	err := c.exec.Run("storage_unregister", func() error {
		if !inv.AttachedDeposit().Eq(external.OneYocto()) {
			return ErrOneYocto
		}
		op, err := c.loadOperation(owner)
		if err != nil {
			return err
		}
		if op == nil {
			c.exec.Logger().Info("account not registered", slog.String("owner", owner.String()))
			return nil
		}
		if (op.Deposited || op.FeeCharged) && !force {
			return ErrUnregisterPending
		}
		deleted = true
		return c.state.KVDelete(operationKey(owner))
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
