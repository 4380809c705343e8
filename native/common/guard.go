package common

import (
	"errors"
	"fmt"
)

var (
	ErrModulePaused   = errors.New("module paused")
	ErrModuleUnpaused = errors.New("module not paused")
)

type PauseView interface {
	IsPaused(module string) (bool, error)
}

// Guard fails with ErrModulePaused while module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	paused, err := p.IsPaused(module)
	if err != nil {
		return err
	}
	if paused {
		return fmt.Errorf("%s: %w", module, ErrModulePaused)
	}
	return nil
}

// Storage is the persistence used by PauseSwitch.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// PauseSwitch is a persisted pause flag per module. Pausing a paused module
// or resuming a running one is an error.
type PauseSwitch struct {
	store Storage
}

func NewPauseSwitch(store Storage) *PauseSwitch {
	return &PauseSwitch{store: store}
}

func pauseKey(module string) []byte {
	return []byte("paused/" + module)
}

func (p *PauseSwitch) IsPaused(module string) (bool, error) {
	var paused bool
	if _, err := p.store.KVGet(pauseKey(module), &paused); err != nil {
		return false, err
	}
	return paused, nil
}

func (p *PauseSwitch) Pause(module string) error {
	if err := Guard(p, module); err != nil {
		return err
	}
	return p.store.KVPut(pauseKey(module), true)
}

func (p *PauseSwitch) Resume(module string) error {
	paused, err := p.IsPaused(module)
	if err != nil {
		return err
	}
	if !paused {
		return fmt.Errorf("%s: %w", module, ErrModuleUnpaused)
	}
	return p.store.KVPut(pauseKey(module), false)
}
