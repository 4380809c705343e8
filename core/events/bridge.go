package events

import (
	"encoding/json"
	"fmt"

	"bridgecore/core/types"
)

const (
	StandardNFT    = "nep171"
	StandardFT     = "nep141"
	StandardNative = "native"

	// EventVersion is the version tag carried by every bridge event.
	EventVersion = "1.0.0"

	eventLogPrefix = "EVENT_JSON:"
)

const (
	TypeNativeDeposited = "native_deposited"
	TypeFTDeposited     = "ft_deposited"
	TypeNFTDeposited    = "nft_deposited"
	TypeNativeWithdrawn = "native_withdrawn"
	TypeFTWithdrawn     = "ft_withdrawn"
	TypeNFTWithdrawn    = "nft_withdrawn"
)

// StandardEvent is an event with a NEP-297 envelope.
type StandardEvent interface {
	Event
	Standard() string
}

type envelope struct {
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     []any  `json:"data"`
}

// LogLine renders evt as `EVENT_JSON:{...}`.
func LogLine(evt StandardEvent) (string, error) {
	encoded, err := json.Marshal(envelope{
		Standard: evt.Standard(),
		Version:  EventVersion,
		Event:    evt.EventType(),
		Data:     []any{evt},
	})
	if err != nil {
		return "", fmt.Errorf("events: encode %s: %w", evt.EventType(), err)
	}
	return eventLogPrefix + string(encoded), nil
}

// NativeDeposited is emitted when the fee collector forwards a native deposit.
type NativeDeposited struct {
	Sender     types.AccountID `json:"sender"`
	Receiver   string          `json:"receiver"`
	ChainTo    string          `json:"chain_to"`
	Amount     string          `json:"amount"`
	BundleData *string         `json:"bundle_data,omitempty"`
	BundleSalt *string         `json:"bundle_salt,omitempty"`
}

func (NativeDeposited) EventType() string { return TypeNativeDeposited }
func (NativeDeposited) Standard() string  { return StandardNative }

func (e NativeDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeNativeDeposited,
		Attributes: withBundle(map[string]string{
			"sender":   e.Sender.String(),
			"receiver": e.Receiver,
			"chainTo":  e.ChainTo,
			"amount":   e.Amount,
		}, e.BundleData, e.BundleSalt),
	}
}

// FTDeposited is emitted when fungible tokens reach the bridge.
type FTDeposited struct {
	Token      types.AccountID `json:"token"`
	Sender     types.AccountID `json:"sender"`
	Receiver   string          `json:"receiver"`
	ChainTo    string          `json:"chain_to"`
	Amount     string          `json:"amount"`
	IsWrapped  bool            `json:"is_wrapped"`
	BundleData *string         `json:"bundle_data,omitempty"`
	BundleSalt *string         `json:"bundle_salt,omitempty"`
}

func (FTDeposited) EventType() string { return TypeFTDeposited }
func (FTDeposited) Standard() string  { return StandardFT }

func (e FTDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeFTDeposited,
		Attributes: withBundle(map[string]string{
			"token":     e.Token.String(),
			"sender":    e.Sender.String(),
			"receiver":  e.Receiver,
			"chainTo":   e.ChainTo,
			"amount":    e.Amount,
			"isWrapped": fmt.Sprintf("%t", e.IsWrapped),
		}, e.BundleData, e.BundleSalt),
	}
}

// NFTDeposited is emitted when a non-fungible token reaches the bridge.
type NFTDeposited struct {
	Token      types.AccountID `json:"token"`
	TokenID    string          `json:"token_id"`
	Sender     types.AccountID `json:"sender"`
	Receiver   string          `json:"receiver"`
	ChainTo    string          `json:"chain_to"`
	IsWrapped  bool            `json:"is_wrapped"`
	BundleData *string         `json:"bundle_data,omitempty"`
	BundleSalt *string         `json:"bundle_salt,omitempty"`
}

func (NFTDeposited) EventType() string { return TypeNFTDeposited }
func (NFTDeposited) Standard() string  { return StandardNFT }

func (e NFTDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTDeposited,
		Attributes: withBundle(map[string]string{
			"token":     e.Token.String(),
			"tokenId":   e.TokenID,
			"sender":    e.Sender.String(),
			"receiver":  e.Receiver,
			"chainTo":   e.ChainTo,
			"isWrapped": fmt.Sprintf("%t", e.IsWrapped),
		}, e.BundleData, e.BundleSalt),
	}
}

// NativeWithdrawn is emitted when a native withdrawal passes verification.
type NativeWithdrawn struct {
	Sender     types.AccountID `json:"sender"`
	Receiver   types.AccountID `json:"receiver"`
	Amount     string          `json:"amount"`
	Origin     string          `json:"origin"`
	Signature  string          `json:"signature"`
	Path       []string        `json:"path"`
	RecoveryID uint8           `json:"recovery_id"`
}

func (NativeWithdrawn) EventType() string { return TypeNativeWithdrawn }
func (NativeWithdrawn) Standard() string  { return StandardNative }

// FTWithdrawn is emitted when a fungible withdrawal passes verification.
type FTWithdrawn struct {
	Token      types.AccountID `json:"token"`
	Sender     types.AccountID `json:"sender"`
	Receiver   types.AccountID `json:"receiver"`
	Origin     string          `json:"origin"`
	Signature  string          `json:"signature"`
	Amount     string          `json:"amount"`
	Path       []string        `json:"path"`
	RecoveryID uint8           `json:"recovery_id"`
	IsWrapped  bool            `json:"is_wrapped"`
}

func (FTWithdrawn) EventType() string { return TypeFTWithdrawn }
func (FTWithdrawn) Standard() string  { return StandardFT }

// NFTWithdrawn is emitted when a non-fungible withdrawal passes verification.
type NFTWithdrawn struct {
	Token      types.AccountID `json:"token"`
	TokenID    string          `json:"token_id"`
	Sender     types.AccountID `json:"sender"`
	Receiver   types.AccountID `json:"receiver"`
	Origin     string          `json:"origin"`
	Signature  string          `json:"signature"`
	Path       []string        `json:"path"`
	RecoveryID uint8           `json:"recovery_id"`
	IsWrapped  bool            `json:"is_wrapped"`
}

func (NFTWithdrawn) EventType() string { return TypeNFTWithdrawn }
func (NFTWithdrawn) Standard() string  { return StandardNFT }

func withBundle(attrs map[string]string, data, salt *string) map[string]string {
	if data != nil {
		attrs["bundleData"] = *data
	}
	if salt != nil {
		attrs["bundleSalt"] = *salt
	}
	return attrs
}
