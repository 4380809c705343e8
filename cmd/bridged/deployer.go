package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bridgecore/core/types"
	"bridgecore/native/bridge"
)

// FileDeployer stores upgraded contract code under Dir, one file per account.
// The operator's deployment tooling picks the file up from there.
type FileDeployer struct {
	Dir    string
	Logger *slog.Logger
}

func (d *FileDeployer) path(account types.AccountID) string {
	return filepath.Join(d.Dir, account.String()+".wasm")
}

func (d *FileDeployer) Deploy(ctx context.Context, account types.AccountID, code []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("deploy %s: %w", account, err)
	}
	tmp, err := os.CreateTemp(d.Dir, account.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("deploy %s: %w", account, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(code); err != nil {
		tmp.Close()
		return fmt.Errorf("deploy %s: %w", account, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("deploy %s: %w", account, err)
	}
	if err := os.Rename(tmp.Name(), d.path(account)); err != nil {
		return fmt.Errorf("deploy %s: %w", account, err)
	}
	if d.Logger != nil {
		d.Logger.Info("contract code staged",
			slog.String("contract", account.String()),
			slog.String("digest", hex.EncodeToString(bridge.CodeDigest(code))),
			slog.Int("bytes", len(code)))
	}
	return nil
}
