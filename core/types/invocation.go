package types

import "github.com/holiman/uint256"

// Invocation carries the host context of a contract operation: the account
// that called it and the native amount attached to the call.
type Invocation struct {
	Predecessor AccountID
	Deposit     *uint256.Int
}

// AttachedDeposit returns the deposit, treating nil as zero.
func (inv Invocation) AttachedDeposit() *uint256.Int {
	if inv.Deposit == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(inv.Deposit)
}
