package feer

import (
	"fmt"
	"log/slog"

	"bridgecore/core/types"
)

var keyFeeTokens = []byte("fee_tokens")

func feeTokenLabel(token types.AccountID) string {
	if token.IsEmpty() {
		return "native"
	}
	return token.String()
}

func validateFeeToken(token types.FeeToken) error {
	if !token.Kind.Valid() {
		return fmt.Errorf("feer: fee token %s: unknown kind %d", feeTokenLabel(token.Token), token.Kind)
	}
	if token.IsNative() != (token.Kind == types.TokenNative) {
		return fmt.Errorf("feer: fee token %s: kind %s does not match address", feeTokenLabel(token.Token), token.Kind)
	}
	if !token.IsNative() {
		if err := token.Token.Validate(); err != nil {
			return fmt.Errorf("feer: fee token: %w", err)
		}
	}
	return nil
}

func findFeeToken(tokens []types.FeeToken, addr types.AccountID) (int, bool) {
	for i, token := range tokens {
		if token.Token == addr {
			return i, true
		}
	}
	return -1, false
}

func (c *Contract) loadFeeTokens() ([]types.FeeToken, error) {
	var tokens []types.FeeToken
	if _, err := c.state.KVGet(keyFeeTokens, &tokens); err != nil {
		return nil, fmt.Errorf("feer: load fee tokens: %w", err)
	}
	return tokens, nil
}

func (c *Contract) saveFeeTokens(tokens []types.FeeToken) error {
	if tokens == nil {
		tokens = []types.FeeToken{}
	}
	return c.state.KVPut(keyFeeTokens, tokens)
}

// FeeTokens lists the registry in insertion order.
func (c *Contract) FeeTokens() ([]types.FeeToken, error) {
	return c.loadFeeTokens()
}

// FeeToken looks up the entry for addr. The empty id is the native token.
func (c *Contract) FeeToken(addr types.AccountID) (*types.FeeToken, error) {
	tokens, err := c.loadFeeTokens()
	if err != nil {
		return nil, err
	}
	i, ok := findFeeToken(tokens, addr)
	if !ok {
		return nil, nil
	}
	token := tokens[i].Copy()
	return &token, nil
}

func (c *Contract) addFeeToken(token types.FeeToken) error {
	if err := validateFeeToken(token); err != nil {
		return err
	}
	tokens, err := c.loadFeeTokens()
	if err != nil {
		return err
	}
	if _, ok := findFeeToken(tokens, token.Token); ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, feeTokenLabel(token.Token))
	}
	return c.saveFeeTokens(append(tokens, token.Copy()))
}

// updateFeeToken changes kind and fee of an existing entry. An unknown
// address leaves the registry unchanged.
func (c *Contract) updateFeeToken(token types.FeeToken) error {
	if err := validateFeeToken(token); err != nil {
		return err
	}
	tokens, err := c.loadFeeTokens()
	if err != nil {
		return err
	}
	i, ok := findFeeToken(tokens, token.Token)
	if !ok {
		c.exec.Logger().Info("fee token not registered, nothing to update", slog.String("token", feeTokenLabel(token.Token)))
		return nil
	}
	updated := token.Copy()
	tokens[i].Kind = updated.Kind
	tokens[i].Fee = updated.Fee
	return c.saveFeeTokens(tokens)
}

func (c *Contract) removeFeeToken(addr types.AccountID) error {
	tokens, err := c.loadFeeTokens()
	if err != nil {
		return err
	}
	kept := tokens[:0]
	for _, token := range tokens {
		if token.Token != addr {
			kept = append(kept, token)
		}
	}
	return c.saveFeeTokens(kept)
}
