// Package passphrase resolves the signer keystore passphrase for the
// command line tools.
package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source resolves a keystore passphrase from an environment variable, falling
// back to a terminal prompt. The first result is cached.
type Source struct {
	envVar string
	prompt func() (string, error)

	once  sync.Once
	value string
	err   error
}

// NewSource checks envVar before prompting on the controlling terminal.
func NewSource(envVar string) *Source {
	return &Source{envVar: strings.TrimSpace(envVar), prompt: promptTerminal}
}

// Get returns the passphrase. A set variable is used verbatim; whitespace-only
// values are rejected so keystores are never left unprotected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}
		if s.prompt == nil {
			s.err = s.missing()
			return
		}
		value, err := s.prompt()
		if err != nil {
			if errors.Is(err, errNoTerminal) {
				err = s.missing()
			}
			s.err = err
			return
		}
		if strings.TrimSpace(value) == "" {
			s.err = errors.New("signer keystore passphrase cannot be empty")
			return
		}
		s.value = value
	})
	return s.value, s.err
}

func (s *Source) missing() error {
	if s.envVar != "" {
		return fmt.Errorf("signer keystore passphrase required; set %s or run interactively", s.envVar)
	}
	return errors.New("signer keystore passphrase required and no terminal available")
}

var errNoTerminal = errors.New("no terminal")

func promptTerminal() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	return readHidden(os.Stderr, fd)
}

func readHidden(w io.Writer, fd int) (string, error) {
	fmt.Fprint(w, "Enter signer keystore passphrase: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(raw), nil
}
