// Package replay holds the two replay guards of the bridge: a one-shot hash
// ledger for inbound cross-chain operations and a monotonically increasing
// nonce for local admin operations.
package replay

import (
	"errors"
	"fmt"

	"bridgecore/core/types"
)

var (
	// ErrHashConsumed is returned by CheckAndSet for an already consumed hash.
	ErrHashConsumed = errors.New("replay: hash already exists")
	// ErrHashNotConsumed is returned by Rollback when there is nothing to undo.
	ErrHashNotConsumed = errors.New("replay: hash is not consumed")
)

// Storage is the subset of the state manager the guards persist through.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var hashPrefix = []byte("hashes/")

func hashKey(h types.Hash) []byte {
	buf := make([]byte, len(hashPrefix)+types.HashLength)
	copy(buf, hashPrefix)
	copy(buf[len(hashPrefix):], h[:])
	return buf
}

// Ledger maps origin hashes to a consumed flag. Entries are flipped, never
// deleted.
type Ledger struct {
	store Storage
}

// NewLedger returns a ledger persisted through store.
func NewLedger(store Storage) *Ledger {
	return &Ledger{store: store}
}

// IsConsumed reports the current flag of h.
func (l *Ledger) IsConsumed(h types.Hash) (bool, error) {
	var consumed bool
	ok, err := l.store.KVGet(hashKey(h), &consumed)
	if err != nil {
		return false, fmt.Errorf("replay: load %s: %w", h, err)
	}
	return ok && consumed, nil
}

// CheckAndSet fails if h is consumed and otherwise marks it consumed.
func (l *Ledger) CheckAndSet(h types.Hash) error {
	consumed, err := l.IsConsumed(h)
	if err != nil {
		return err
	}
	if consumed {
		return fmt.Errorf("%w: %s", ErrHashConsumed, h)
	}
	return l.store.KVPut(hashKey(h), true)
}

// Rollback returns a consumed hash to unconsumed. Callers invoke it only from
// the failure branch of an asynchronous effect.
func (l *Ledger) Rollback(h types.Hash) error {
	consumed, err := l.IsConsumed(h)
	if err != nil {
		return err
	}
	if !consumed {
		return fmt.Errorf("%w: %s", ErrHashNotConsumed, h)
	}
	return l.store.KVPut(hashKey(h), false)
}
