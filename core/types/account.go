package types

import (
	"errors"
	"fmt"
)

const (
	minAccountIDLength = 2
	maxAccountIDLength = 64
)

var ErrInvalidAccountID = errors.New("types: invalid account id")

// AccountID names a contract or user account. Valid ids are 2 to 64
// characters of lower-case letters, digits and the separators '-', '_' and
// '.', where separators never start, end or repeat.
type AccountID string

// ParseAccountID validates s and returns it as an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	id := AccountID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks the account id grammar.
func (a AccountID) Validate() error {
	n := len(a)
	if n < minAccountIDLength || n > maxAccountIDLength {
		return fmt.Errorf("%w: %q length %d", ErrInvalidAccountID, string(a), n)
	}
	lastSeparator := true
	for i := 0; i < n; i++ {
		c := a[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			lastSeparator = false
		case c == '-' || c == '_' || c == '.':
			if lastSeparator {
				return fmt.Errorf("%w: %q misplaced separator", ErrInvalidAccountID, string(a))
			}
			lastSeparator = true
		default:
			return fmt.Errorf("%w: %q invalid character %q", ErrInvalidAccountID, string(a), c)
		}
	}
	if lastSeparator {
		return fmt.Errorf("%w: %q trailing separator", ErrInvalidAccountID, string(a))
	}
	return nil
}

func (a AccountID) String() string { return string(a) }

func (a AccountID) Bytes() []byte { return []byte(a) }

// IsEmpty reports whether the id is unset.
func (a AccountID) IsEmpty() bool { return a == "" }
