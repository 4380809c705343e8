// Package merkle binds an encoded operation to its cross-chain context and
// folds it into the root the bridge signer signs.
package merkle

import (
	"github.com/ethereum/go-ethereum/crypto"

	"bridgecore/core/types"
)

// ContentNode is the Merkle leaf of one bridged operation. It is built per
// verification attempt and never stored.
type ContentNode struct {
	Origin   types.Hash
	Chain    string
	Bridge   types.AccountID
	Receiver *types.AccountID
	Data     []byte
}

// NewContentNode assembles a leaf. receiver may be nil.
func NewContentNode(origin types.Hash, bridge types.AccountID, chain string, data []byte, receiver *types.AccountID) ContentNode {
	return ContentNode{Origin: origin, Chain: chain, Bridge: bridge, Receiver: receiver, Data: data}
}

// Hash returns keccak256(data ‖ origin ‖ chain ‖ receiver ‖ bridge). The
// receiver is skipped when nil.
func (n ContentNode) Hash() types.Hash {
	buf := make([]byte, 0, len(n.Data)+types.HashLength+len(n.Chain)+len(n.Bridge)+64)
	buf = append(buf, n.Data...)
	buf = append(buf, n.Origin[:]...)
	buf = append(buf, n.Chain...)
	if n.Receiver != nil {
		buf = append(buf, n.Receiver.Bytes()...)
	}
	buf = append(buf, n.Bridge.Bytes()...)
	return types.Hash(crypto.Keccak256Hash(buf))
}

// Root folds path into leaf using sorted-pair hashing: each step hashes the
// smaller of (accumulator, sibling) followed by the larger. An empty path
// returns leaf.
func Root(leaf types.Hash, path []types.Hash) types.Hash {
	acc := leaf
	for _, sibling := range path {
		acc = hashPair(acc, sibling)
	}
	return acc
}

// RootOf is Root over the node's hash.
func RootOf(node ContentNode, path []types.Hash) types.Hash {
	return Root(node.Hash(), path)
}

func hashPair(a, b types.Hash) types.Hash {
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	return types.Hash(crypto.Keccak256Hash(a[:], b[:]))
}

// Tree is an in-memory sorted-pair tree used to issue proofs for a batch of
// leaves. An odd node at any level is promoted unchanged.
type Tree struct {
	levels [][]types.Hash
}

// NewTree builds the tree bottom-up. It returns nil for no leaves.
func NewTree(leaves []types.Hash) *Tree {
	if len(leaves) == 0 {
		return nil
	}
	level := append([]types.Hash(nil), leaves...)
	t := &Tree{levels: [][]types.Hash{level}}
	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t
}

// Root returns the tree root.
func (t *Tree) Root() types.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Proof returns the sibling path for the leaf at index, or false when index
// is out of range.
func (t *Tree) Proof(index int) ([]types.Hash, bool) {
	if t == nil || index < 0 || index >= len(t.levels[0]) {
		return nil, false
	}
	var path []types.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			path = append(path, level[sibling])
		}
		index /= 2
	}
	return path, true
}
