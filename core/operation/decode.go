package operation

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var ErrMalformedPayload = errors.New("operation: malformed payload")

// fullMetaFields is the number of length-prefixed fields in a FullMeta
// payload.
const fullMetaFields = 6

// DecodeFullMeta parses a FullMetaTransfer payload. Zero-length fields decode
// as absent. A padded token id is returned with its leading zero bytes
// stripped.
func DecodeFullMeta(data []byte) (FullMetaTransfer, error) {
	var fields [fullMetaFields][]byte
	rest := data
	for i := 0; i < fullMetaFields; i++ {
		if len(rest) < WordLength {
			return FullMetaTransfer{}, fmt.Errorf("%w: field %d truncated prefix", ErrMalformedPayload, i)
		}
		var length uint256.Int
		length.SetBytes(rest[:WordLength])
		rest = rest[WordLength:]
		if !length.IsUint64() || length.Uint64() > uint64(len(rest)) {
			return FullMetaTransfer{}, fmt.Errorf("%w: field %d length %s exceeds payload", ErrMalformedPayload, i, length.Dec())
		}
		n := int(length.Uint64())
		if n > 0 {
			fields[i] = append([]byte(nil), rest[:n]...)
		}
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return FullMetaTransfer{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedPayload, len(rest))
	}

	var op FullMetaTransfer
	op.Token = bytesToString(fields[0])
	op.Title = bytesToString(fields[1])
	if fields[2] != nil {
		op.TokenID = bytesToString(unpadTokenID(fields[2]))
	}
	if fields[3] != nil {
		if len(fields[3]) != WordLength {
			return FullMetaTransfer{}, fmt.Errorf("%w: amount length %d", ErrMalformedPayload, len(fields[3]))
		}
		op.Amount = new(uint256.Int).SetBytes(fields[3])
	}
	op.MediaURL = bytesToString(fields[4])
	op.MediaHash = fields[5]
	return op, nil
}

func unpadTokenID(field []byte) []byte {
	if len(field) != WordLength {
		return field
	}
	i := 0
	for i < len(field) && field[i] == 0 {
		i++
	}
	return field[i:]
}

func bytesToString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
