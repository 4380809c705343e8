package feer

import (
	"encoding/json"
	"fmt"

	"bridgecore/core/types"
	"bridgecore/native/external"
)

// TransferType tells which leg of a deposit a transfer is.
type TransferType uint8

const (
	TransferFee TransferType = iota
	TransferDeposit
)

func (t TransferType) String() string {
	switch t {
	case TransferFee:
		return "Fee"
	case TransferDeposit:
		return "Deposit"
	default:
		return fmt.Sprintf("TransferType(%d)", uint8(t))
	}
}

func (t TransferType) MarshalJSON() ([]byte, error) {
	if t > TransferDeposit {
		return nil, fmt.Errorf("feer: unknown transfer type %d", uint8(t))
	}
	return json.Marshal(t.String())
}

func (t *TransferType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Fee":
		*t = TransferFee
	case "Deposit":
		*t = TransferDeposit
	default:
		return fmt.Errorf("feer: unknown transfer type %q", s)
	}
	return nil
}

// DepositLog is the msg a user attaches to each leg. Both legs of one
// deposit carry the same log apart from TransferType.
type DepositLog struct {
	FeeToken     *types.AccountID `json:"fee_token_addr"`
	Token        *types.AccountID `json:"token_addr"`
	Kind         types.TokenKind  `json:"token_type"`
	TransferType TransferType     `json:"transfer_type"`
	Receiver     string           `json:"receiver"`
	ChainTo      string           `json:"chain_to"`
	IsWrapped    bool             `json:"is_wrapped"`
	BundleData   *string          `json:"bundle_data"`
	BundleSalt   *string          `json:"bundle_salt"`
}

// ParseDepositLog decodes a transfer msg.
func ParseDepositLog(msg string) (DepositLog, error) {
	var log DepositLog
	if err := json.Unmarshal([]byte(msg), &log); err != nil {
		return DepositLog{}, fmt.Errorf("%w: %v", ErrInvalidDepositLog, err)
	}
	return log, nil
}

// Validate checks the log against the transfer that carried it: kind is the
// kind of asset received and received is the token contract, nil for native
// currency.
func (l DepositLog) Validate(kind types.TokenKind, received *types.AccountID) error {
	switch l.TransferType {
	case TransferFee:
		if (received == nil) != (l.FeeToken == nil) {
			return fmt.Errorf("%w: some of the fee token addresses are empty", ErrInvalidDepositLog)
		}
		if received != nil && *received != *l.FeeToken {
			return fmt.Errorf("%w: fee token address is not equal to the received token address", ErrInvalidDepositLog)
		}
	case TransferDeposit:
		if l.Kind != kind {
			return fmt.Errorf("%w: deposit token type is not equal to the expected token type", ErrInvalidDepositLog)
		}
		native := kind == types.TokenNative
		if native && l.Token != nil {
			return fmt.Errorf("%w: deposit token address cannot be set for the native token", ErrInvalidDepositLog)
		}
		if !native && l.Token == nil {
			return fmt.Errorf("%w: deposit token address cannot be empty for the non-native token", ErrInvalidDepositLog)
		}
		if !native && (received == nil || *l.Token != *received) {
			return fmt.Errorf("%w: deposit token address is not equal to the received token address", ErrInvalidDepositLog)
		}
	default:
		return fmt.Errorf("%w: unknown transfer type", ErrInvalidDepositLog)
	}
	if l.Receiver == "" {
		return fmt.Errorf("%w: receiver is empty", ErrInvalidDepositLog)
	}
	if l.ChainTo == "" {
		return fmt.Errorf("%w: chain to is empty", ErrInvalidDepositLog)
	}
	return nil
}

// feeTokenAddr maps the optional fee token to its registry key.
func (l DepositLog) feeTokenAddr() types.AccountID {
	if l.FeeToken == nil {
		return ""
	}
	return *l.FeeToken
}

// transferLog is the msg forwarded to the bridge for owner's deposit.
func (l DepositLog) transferLog(owner types.AccountID) external.TransferLog {
	return external.TransferLog{
		Sender:     owner,
		Receiver:   l.Receiver,
		ChainTo:    l.ChainTo,
		IsWrapped:  l.IsWrapped,
		BundleData: l.BundleData,
		BundleSalt: l.BundleSalt,
	}
}
