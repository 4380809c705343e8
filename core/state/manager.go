package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"bridgecore/storage"
)

// Manager is the persisted state aggregate of one contract. Writes land in an
// overlay until Commit; Revert drops them, so an aborted operation leaves the
// database untouched.
type Manager struct {
	db        storage.Database
	namespace []byte
	overlay   map[string]overlayEntry
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

// NewManager binds a manager to db. namespace separates contracts sharing one
// database and is usually the contract account id.
func NewManager(db storage.Database, namespace string) *Manager {
	return &Manager{
		db:        db,
		namespace: []byte(namespace),
		overlay:   make(map[string]overlayEntry),
	}
}

func (m *Manager) kvKey(key []byte) []byte {
	buf := make([]byte, 0, len(m.namespace)+1+len(key))
	buf = append(buf, m.namespace...)
	buf = append(buf, '/')
	buf = append(buf, key...)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) get(hashed []byte) ([]byte, error) {
	if entry, ok := m.overlay[string(hashed)]; ok {
		if entry.deleted {
			return nil, nil
		}
		return entry.value, nil
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (m *Manager) put(hashed, value []byte) {
	m.overlay[string(hashed)] = overlayEntry{value: append([]byte(nil), value...)}
}

// KVPut encodes value with RLP and stages it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(m.kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(m.kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete stages the removal of key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.overlay[string(m.kvKey(key))] = overlayEntry{deleted: true}
	return nil
}

// Dirty reports whether uncommitted writes are staged.
func (m *Manager) Dirty() bool { return len(m.overlay) > 0 }

// Commit flushes staged writes in one atomic batch.
func (m *Manager) Commit() error {
	if len(m.overlay) == 0 {
		return nil
	}
	batch := new(storage.Batch)
	for key, entry := range m.overlay {
		if entry.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), entry.value)
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.overlay = make(map[string]overlayEntry)
	return nil
}

// Revert discards staged writes.
func (m *Manager) Revert() {
	m.overlay = make(map[string]overlayEntry)
}
