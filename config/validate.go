package config

import (
	"errors"
	"fmt"
	"strings"

	"bridgecore/core/types"
	"bridgecore/crypto"
)

// Validate checks the configuration before any contract is opened.
func (c *Config) Validate() error {
	var errs []error
	if err := types.AccountID(c.Bridge.Account).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bridge: account: %w", err))
	}
	if strings.TrimSpace(c.Bridge.Chain) == "" {
		errs = append(errs, errors.New("bridge: chain required"))
	}
	if err := crypto.SignerPublicKey(c.Bridge.Signer).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bridge: signer: %w", err))
	}
	if err := types.AccountID(c.Feer.Account).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("feer: account: %w", err))
	}
	if c.Feer.Account == c.Bridge.Account {
		errs = append(errs, errors.New("feer: account must differ from the bridge account"))
	}
	seen := make(map[string]struct{}, len(c.Feer.FeeTokens))
	for i, entry := range c.Feer.FeeTokens {
		token, err := entry.Parse()
		if err != nil {
			errs = append(errs, fmt.Errorf("feer: fee token %d: %w", i, err))
			continue
		}
		if token.IsNative() != (token.Kind == types.TokenNative) {
			errs = append(errs, fmt.Errorf("feer: fee token %d: kind %s does not match address %q", i, token.Kind, token.Token))
		}
		if _, dup := seen[token.Token.String()]; dup {
			errs = append(errs, fmt.Errorf("feer: fee token %d: duplicate address %q", i, token.Token))
		}
		seen[token.Token.String()] = struct{}{}
	}
	switch c.Storage.Backend {
	case BackendLevelDB, BackendBolt:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, fmt.Errorf("storage: path required for %s", c.Storage.Backend))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.RPC.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("rpc: max body bytes must not be negative"))
	}
	return errors.Join(errs...)
}
