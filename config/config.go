package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"bridgecore/crypto"
)

type Config struct {
	DataDir   string          `toml:"DataDir" yaml:"data_dir"`
	Bridge    BridgeConfig    `toml:"bridge" yaml:"bridge"`
	Feer      FeerConfig      `toml:"feer" yaml:"feer"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	RPC       RPCConfig       `toml:"rpc" yaml:"rpc"`
	Telemetry TelemetryConfig `toml:"telemetry" yaml:"telemetry"`
}

// Load reads the configuration at path, TOML unless the extension says YAML.
// A missing file is created with development defaults and a fresh signer
// keystore next to it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if isYAML(path) {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		meta, err := toml.Decode(string(raw), cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
		}
	}
	cfg.applyDefaults(path)
	if err := cfg.resolveSigner(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) applyDefaults(path string) {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = filepath.Join(filepath.Dir(path), "bridge-data")
	}
	if c.Feer.Chain == "" {
		c.Feer.Chain = c.Bridge.Chain
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendLevelDB
	}
	if c.Storage.Path == "" && c.Storage.Backend != BackendMemory {
		name := "state.db"
		if c.Storage.Backend == BackendLevelDB {
			name = "leveldb"
		}
		c.Storage.Path = filepath.Join(c.DataDir, name)
	}
	if c.Bridge.CodeDir == "" {
		c.Bridge.CodeDir = filepath.Join(c.DataDir, "code")
	}
	if c.RPC.ListenAddress == "" {
		c.RPC.ListenAddress = ":8545"
	}
	if c.RPC.MaxBodyBytes == 0 {
		c.RPC.MaxBodyBytes = 1 << 20
	}
	if c.RPC.ReadHeaderTimeout == 0 {
		c.RPC.ReadHeaderTimeout = 5
	}
	if c.RPC.ShutdownTimeout == 0 {
		c.RPC.ShutdownTimeout = 10
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
}

// resolveSigner fills Bridge.Signer from the keystore when only the keystore
// is configured.
func (c *Config) resolveSigner() error {
	if c.Bridge.Signer != "" || c.Bridge.SignerKeystorePath == "" {
		return nil
	}
	passphrase := ""
	if c.Bridge.SignerPassphraseEnv != "" {
		passphrase = os.Getenv(c.Bridge.SignerPassphraseEnv)
	}
	_, signer, err := crypto.LoadSigner(c.Bridge.SignerKeystorePath, passphrase)
	if err != nil {
		return fmt.Errorf("config: signer keystore %s: %w", c.Bridge.SignerKeystorePath, err)
	}
	c.Bridge.Signer = signer.String()
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		Bridge: BridgeConfig{
			Account:            "bridge.near",
			Chain:              "Near",
			Signer:             key.PubKey().Signer().String(),
			SignerKeystorePath: keystorePath,
		},
		Feer: FeerConfig{
			Account: "feer.near",
			FeeTokens: []FeeTokenConfig{
				{Kind: "Native", Fee: "1000000000000000000000"},
			},
		},
		Storage: StorageConfig{Backend: BackendLevelDB},
		Log:     LogConfig{Level: "info", Env: "local"},
	}
	cfg.applyDefaults(path)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func defaultKeystorePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "signer.keystore")
}
