package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

// BridgeConfig describes the bridge contract instance.
type BridgeConfig struct {
	Account string `toml:"Account" yaml:"account"`
	Chain   string `toml:"Chain" yaml:"chain"`
	// Signer is the base58 public key. When empty it is read from the
	// keystore at SignerKeystorePath.
	Signer              string `toml:"Signer" yaml:"signer"`
	SignerKeystorePath  string `toml:"SignerKeystorePath" yaml:"signer_keystore_path"`
	SignerPassphraseEnv string `toml:"SignerPassphraseEnv" yaml:"signer_passphrase_env"`
	CodeDir             string `toml:"CodeDir" yaml:"code_dir"`
}

// FeeTokenConfig is one registry entry as written in the config file. Fee
// is a decimal string so amounts beyond 64 bits survive TOML.
type FeeTokenConfig struct {
	Token string `toml:"Token" yaml:"token"`
	Kind  string `toml:"Kind" yaml:"kind"`
	Fee   string `toml:"Fee" yaml:"fee"`
}

// Parse converts the entry into its registry form.
func (f FeeTokenConfig) Parse() (types.FeeToken, error) {
	kind, err := types.ParseTokenKind(strings.TrimSpace(f.Kind))
	if err != nil {
		return types.FeeToken{}, err
	}
	fee, err := parseUintAmount(f.Fee)
	if err != nil {
		return types.FeeToken{}, fmt.Errorf("fee: %w", err)
	}
	return types.FeeToken{Token: types.AccountID(strings.TrimSpace(f.Token)), Kind: kind, Fee: fee}, nil
}

func parseUintAmount(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(trimmed)
}

// FeerConfig describes the fee collector instance.
type FeerConfig struct {
	Account   string           `toml:"Account" yaml:"account"`
	Chain     string           `toml:"Chain" yaml:"chain"`
	FeeTokens []FeeTokenConfig `toml:"FeeTokens" yaml:"fee_tokens"`
}

// Storage backends.
const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

type StorageConfig struct {
	Backend string `toml:"Backend" yaml:"backend"`
	Path    string `toml:"Path" yaml:"path"`
}

// LogConfig controls the process logger. File enables rotation through
// lumberjack; stdout is used otherwise.
type LogConfig struct {
	Level      string `toml:"Level" yaml:"level"`
	Env        string `toml:"Env" yaml:"env"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
	Compress   bool   `toml:"Compress" yaml:"compress"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(l.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return level, nil
}

type RPCConfig struct {
	ListenAddress string `toml:"ListenAddress" yaml:"listen_address"`
	// AuthTokenEnv names the environment variable holding the bearer token
	// required for state-changing methods. Empty disables auth.
	AuthTokenEnv      string `toml:"AuthTokenEnv" yaml:"auth_token_env"`
	MaxBodyBytes      int64  `toml:"MaxBodyBytes" yaml:"max_body_bytes"`
	ReadHeaderTimeout int    `toml:"ReadHeaderTimeout" yaml:"read_header_timeout"`
	ShutdownTimeout   int    `toml:"ShutdownTimeout" yaml:"shutdown_timeout"`
}

type TelemetryConfig struct {
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	// Headers uses the OTEL_EXPORTER_OTLP_HEADERS form: k=v,k2=v2.
	Headers string `toml:"Headers" yaml:"headers"`
}
