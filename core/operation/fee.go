package operation

import (
	"fmt"

	"github.com/holiman/uint256"

	"bridgecore/core/types"
)

// FeeKind tags a fee-registry management operation.
type FeeKind uint8

const (
	FeeAdd      FeeKind = 1
	FeeRemove   FeeKind = 2
	FeeUpdate   FeeKind = 3
	FeeWithdraw FeeKind = 4
)

func (k FeeKind) String() string {
	switch k {
	case FeeAdd:
		return "add_fee_token"
	case FeeRemove:
		return "remove_fee_token"
	case FeeUpdate:
		return "update_fee_token"
	case FeeWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("FeeKind(%d)", uint8(k))
	}
}

// FeeManagement is a signed change to the fee-token registry or a withdrawal
// of collected fees. Amount overrides the entry's fee when set.
type FeeManagement struct {
	Kind   FeeKind
	Token  types.FeeToken
	Amount *uint256.Int
}

func (FeeManagement) isOperation() {}

// Encode returns tag ‖ token bytes ‖ 32-byte amount. Native entries carry no
// token bytes.
func (op FeeManagement) Encode() []byte {
	out := []byte{byte(op.Kind)}
	if op.Token.Kind != types.TokenNative {
		out = append(out, op.Token.Token.Bytes()...)
	}
	amount := op.Amount
	if amount == nil {
		amount = op.Token.Fee
	}
	word := encodeWord(amount)
	return append(out, word[:]...)
}
