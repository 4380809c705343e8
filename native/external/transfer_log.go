package external

import (
	"encoding/json"
	"errors"
	"fmt"

	"bridgecore/core/types"
)

var ErrInvalidTransferLog = errors.New("external: invalid transfer log")

// TransferLog is the msg the fee collector attaches when it forwards a
// completed deposit to the bridge. Absent bundle fields encode as null so the
// rendering is canonical.
type TransferLog struct {
	Sender     types.AccountID `json:"sender"`
	Receiver   string          `json:"receiver"`
	ChainTo    string          `json:"chain_to"`
	IsWrapped  bool            `json:"is_wrapped"`
	BundleData *string         `json:"bundle_data"`
	BundleSalt *string         `json:"bundle_salt"`
}

// Encode renders the log as compact JSON.
func (l TransferLog) Encode() (string, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTransferLog, err)
	}
	return string(raw), nil
}

// ParseTransferLog decodes msg and validates the sender account.
func ParseTransferLog(msg string) (TransferLog, error) {
	var log TransferLog
	if err := json.Unmarshal([]byte(msg), &log); err != nil {
		return TransferLog{}, fmt.Errorf("%w: %v", ErrInvalidTransferLog, err)
	}
	if err := log.Sender.Validate(); err != nil {
		return TransferLog{}, fmt.Errorf("%w: sender: %v", ErrInvalidTransferLog, err)
	}
	return log, nil
}
