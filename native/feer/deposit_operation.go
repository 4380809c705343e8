package feer

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

// DepositOperation is the per-account record the two legs of a deposit are
// merged into. Optional fields are nil until a leg supplies them.
type DepositOperation struct {
	Owner      types.AccountID  `json:"owner"`
	Deposited  bool             `json:"deposited"`
	FeeCharged bool             `json:"fee_charged"`
	Token      *types.AccountID `json:"token_addr"`
	Kind       *types.TokenKind `json:"token_type"`
	FeeToken   *types.AccountID `json:"fee_token_addr"`
	Receiver   *string          `json:"receiver"`
	Msg        *string          `json:"msg"`
	Amount     *uint256.Int     `json:"amount"`
	TokenID    *string          `json:"token_id"`
}

// Complete reports whether both legs have arrived.
func (op DepositOperation) Complete() bool { return op.Deposited && op.FeeCharged }

// populate fills unset fields from log. A deposit leg always records its
// amount.
func (op *DepositOperation) populate(log DepositLog, msg string, amount *uint256.Int, tokenID *string) {
	if op.Token == nil && log.Token != nil {
		token := *log.Token
		op.Token = &token
	}
	if op.Kind == nil {
		kind := log.Kind
		op.Kind = &kind
	}
	if op.FeeToken == nil && log.FeeToken != nil {
		fee := *log.FeeToken
		op.FeeToken = &fee
	}
	if op.Receiver == nil {
		receiver := log.Receiver
		op.Receiver = &receiver
	}
	if op.Msg == nil {
		op.Msg = &msg
	}
	if log.TransferType == TransferDeposit && amount != nil {
		op.Amount = new(uint256.Int).Set(amount)
	}
	if op.TokenID == nil && tokenID != nil {
		id := *tokenID
		op.TokenID = &id
	}
}

// matches checks that log describes the same deposit as the legs already
// recorded.
func (op DepositOperation) matches(log DepositLog, msg string) error {
	if op.Token != nil && (log.Token == nil || *op.Token != *log.Token) {
		return errors.New("token address differs")
	}
	if (op.FeeToken == nil) != (log.FeeToken == nil) {
		return errors.New("fee token address differs")
	}
	if op.FeeToken != nil && *op.FeeToken != *log.FeeToken {
		return errors.New("fee token address differs")
	}
	if op.Receiver != nil && *op.Receiver != log.Receiver {
		return errors.New("receiver differs")
	}
	if op.Msg != nil && *op.Msg != msg {
		return errors.New("msg differs")
	}
	if op.Kind != nil && *op.Kind != log.Kind {
		return errors.New("token type differs")
	}
	return nil
}

// reset returns the record to its empty state, keeping the owner.
func (op *DepositOperation) reset() {
	*op = DepositOperation{Owner: op.Owner}
}

// storedOperation is the persisted form. Kind and Amount carry explicit
// presence flags because their zero values are meaningful.
type storedOperation struct {
	Owner      string
	Deposited  bool
	FeeCharged bool
	Token      *string `rlp:"nil"`
	HasKind    bool
	Kind       uint8
	FeeToken   *string `rlp:"nil"`
	Receiver   *string `rlp:"nil"`
	Msg        *string `rlp:"nil"`
	HasAmount  bool
	Amount     *uint256.Int
	TokenID    *string `rlp:"nil"`
}

func accountPtr(s *string) *types.AccountID {
	if s == nil {
		return nil
	}
	id := types.AccountID(*s)
	return &id
}

func stringPtr(a *types.AccountID) *string {
	if a == nil {
		return nil
	}
	s := a.String()
	return &s
}

func (op DepositOperation) stored() storedOperation {
	out := storedOperation{
		Owner:      op.Owner.String(),
		Deposited:  op.Deposited,
		FeeCharged: op.FeeCharged,
		Token:      stringPtr(op.Token),
		FeeToken:   stringPtr(op.FeeToken),
		Receiver:   op.Receiver,
		Msg:        op.Msg,
		TokenID:    op.TokenID,
		Amount:     new(uint256.Int),
	}
	if op.Kind != nil {
		out.HasKind = true
		out.Kind = uint8(*op.Kind)
	}
	if op.Amount != nil {
		out.HasAmount = true
		out.Amount.Set(op.Amount)
	}
	return out
}

func (s storedOperation) operation() DepositOperation {
	op := DepositOperation{
		Owner:      types.AccountID(s.Owner),
		Deposited:  s.Deposited,
		FeeCharged: s.FeeCharged,
		Token:      accountPtr(s.Token),
		FeeToken:   accountPtr(s.FeeToken),
		Receiver:   s.Receiver,
		Msg:        s.Msg,
		TokenID:    s.TokenID,
	}
	if s.HasKind {
		kind := types.TokenKind(s.Kind)
		op.Kind = &kind
	}
	if s.HasAmount && s.Amount != nil {
		op.Amount = new(uint256.Int).Set(s.Amount)
	}
	return op
}

func operationKey(owner types.AccountID) []byte {
	return append([]byte("deposit_operations/"), owner...)
}

func (c *Contract) loadOperation(owner types.AccountID) (*DepositOperation, error) {
	var stored storedOperation
	ok, err := c.state.KVGet(operationKey(owner), &stored)
	if err != nil {
		return nil, fmt.Errorf("feer: load deposit operation %s: %w", owner, err)
	}
	if !ok {
		return nil, nil
	}
	op := stored.operation()
	return &op, nil
}

func (c *Contract) saveOperation(op DepositOperation) error {
	return c.state.KVPut(operationKey(op.Owner), op.stored())
}

// DepositOperation returns the record of owner, or nil when the account is
// not registered.
func (c *Contract) DepositOperation(owner types.AccountID) (*DepositOperation, error) {
	return c.loadOperation(owner)
}
