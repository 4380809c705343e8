package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
	"bridgecore/crypto"
)

func testSigner(t *testing.T) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.PubKey().Signer().String()
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.toml")
	signer := testSigner(t)
	writeFile(t, path, `DataDir = "`+filepath.ToSlash(dir)+`"

[bridge]
Account = "bridge.near"
Chain = "Near"
Signer = "`+signer+`"

[feer]
Account = "feer.near"

[[feer.FeeTokens]]
Kind = "Native"
Fee = "1250000000000000000000"

[[feer.FeeTokens]]
Token = "usdc.near"
Kind = "FT"
Fee = "5"

[storage]
Backend = "bolt"

[rpc]
ListenAddress = "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Bridge.Signer != signer || cfg.Feer.Chain != "Near" {
		t.Fatalf("unexpected bridge section %+v / %+v", cfg.Bridge, cfg.Feer)
	}
	if cfg.Storage.Path != filepath.Join(dir, "state.db") {
		t.Fatalf("unexpected storage path %q", cfg.Storage.Path)
	}
	if cfg.RPC.ListenAddress != "127.0.0.1:9000" || cfg.RPC.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected rpc section %+v", cfg.RPC)
	}
	native, err := cfg.Feer.FeeTokens[0].Parse()
	if err != nil {
		t.Fatalf("parse native fee: %v", err)
	}
	if !native.IsNative() || native.Fee.Cmp(uint256.MustFromDecimal("1250000000000000000000")) != 0 {
		t.Fatalf("unexpected native entry %+v", native)
	}
	ft, err := cfg.Feer.FeeTokens[1].Parse()
	if err != nil {
		t.Fatalf("parse ft fee: %v", err)
	}
	if ft.Token != types.AccountID("usdc.near") || ft.Kind != types.TokenFT || ft.Fee.Uint64() != 5 {
		t.Fatalf("unexpected ft entry %+v", ft)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	writeFile(t, path, "[bridge]\nAccount = \"bridge.near\"\nValidatorKey = \"x\"\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	signer := testSigner(t)
	writeFile(t, path, `bridge:
  account: bridge.near
  chain: Near
  signer: `+signer+`
feer:
  account: feer.near
  fee_tokens:
    - kind: Native
      fee: "10"
storage:
  backend: memory
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Storage.Path != "" {
		t.Fatalf("memory backend must not get a path, got %q", cfg.Storage.Path)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil || level.String() != "DEBUG" {
		t.Fatalf("unexpected level %v (%v)", level, err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{
		Bridge: BridgeConfig{Account: "bridge.near", Signer: "nope"},
		Feer: FeerConfig{
			Account: "bridge.near",
			FeeTokens: []FeeTokenConfig{
				{Token: "usdc.near", Kind: "Native"},
				{Kind: "Native", Fee: "-1"},
				{Kind: "Native"},
				{Kind: "Native"},
			},
		},
		Storage: StorageConfig{Backend: "sqlite"},
		Log:     LogConfig{Level: "loud"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	if !errors.Is(err, crypto.ErrInvalidSigner) {
		t.Fatalf("expected invalid signer in %v", err)
	}
	for _, want := range []string{"chain required", "must differ", "does not match address", "fee token 1", "duplicate address", "unknown backend", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestCreateDefaultWritesKeystore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("create default: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not persisted: %v", err)
	}

	// The persisted file resolves to the same signer through the keystore.
	cfg.Bridge.Signer = ""
	if err := persist(path, cfg); err != nil {
		t.Fatalf("persist: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	_, signer, err := crypto.LoadSigner(filepath.Join(dir, "signer.keystore"), "")
	if err != nil {
		t.Fatalf("load signer: %v", err)
	}
	if reloaded.Bridge.Signer != signer.String() {
		t.Fatalf("signer mismatch: %s vs %s", reloaded.Bridge.Signer, signer)
	}
}
