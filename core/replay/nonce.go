package replay

import (
	"fmt"
	"math"
)

var nonceKey = []byte("nonce")

// Nonce counts accepted admin operations.
type Nonce struct {
	store Storage
}

func NewNonce(store Storage) *Nonce {
	return &Nonce{store: store}
}

// Current returns the stored value; an unset nonce is zero.
func (n *Nonce) Current() (uint64, error) {
	var v uint64
	if _, err := n.store.KVGet(nonceKey, &v); err != nil {
		return 0, fmt.Errorf("replay: load nonce: %w", err)
	}
	return v, nil
}

// Increment adds exactly one and returns the new value.
func (n *Nonce) Increment() (uint64, error) {
	v, err := n.Current()
	if err != nil {
		return 0, err
	}
	if v == math.MaxUint64 {
		return 0, fmt.Errorf("replay: nonce overflow")
	}
	v++
	if err := n.store.KVPut(nonceKey, v); err != nil {
		return 0, err
	}
	return v, nil
}
