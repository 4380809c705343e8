package common

import (
	"errors"
	"testing"

	"bridgecore/core/state"
	"bridgecore/storage"
)

func TestPauseSwitch(t *testing.T) {
	sw := NewPauseSwitch(state.NewManager(storage.NewMemDB(), "bridge.near"))

	if err := Guard(sw, "bridge"); err != nil {
		t.Fatalf("fresh module must be running: %v", err)
	}
	if err := sw.Resume("bridge"); !errors.Is(err, ErrModuleUnpaused) {
		t.Fatalf("expected ErrModuleUnpaused, got %v", err)
	}
	if err := sw.Pause("bridge"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := Guard(sw, "bridge"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := sw.Pause("bridge"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("double pause must fail, got %v", err)
	}
	if err := Guard(sw, "other"); err != nil {
		t.Fatalf("pause must be per module: %v", err)
	}
	if err := sw.Resume("bridge"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := Guard(sw, "bridge"); err != nil {
		t.Fatalf("expected running after resume: %v", err)
	}
	if err := Guard(nil, "bridge"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
}
