// Command bridgesign produces the signatures the bridge accepts for admin
// operations and Merkle roots, from a signer keystore.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"bridgecore/cmd/internal/passphrase"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/bridge"
)

const defaultPassEnv = "BRIDGE_SIGNER_PASS"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bridgesign <command> [flags]")
	fmt.Fprintln(w, "  keygen -keystore <path>                 create a signer keystore and print its key")
	fmt.Fprintln(w, "  admin  -keystore <path> -op <op> ...    sign an admin operation")
	fmt.Fprintln(w, "  root   -keystore <path> -root <0xhash>  sign a Merkle root")
	fmt.Fprintln(w, "Admin ops: pause, resume, set_signer, set_fee_contract, update_contract")
}

var errUsage = errors.New("bridgesign: invalid usage")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		printUsage(out)
		return errUsage
	}
	switch args[0] {
	case "keygen":
		return keygen(args[1:], out)
	case "admin":
		return signAdmin(args[1:], out)
	case "root":
		return signRoot(args[1:], out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

type keyFlags struct {
	keystore string
	passEnv  string
}

func (k *keyFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&k.keystore, "keystore", "signer.keystore", "Path to the signer keystore")
	fs.StringVar(&k.passEnv, "pass-env", defaultPassEnv, "Environment variable holding the keystore passphrase")
}

func (k *keyFlags) load() (*crypto.PrivateKey, error) {
	pass, err := passphrase.NewSource(k.passEnv).Get()
	if err != nil {
		return nil, err
	}
	key, _, err := crypto.LoadSigner(k.keystore, pass)
	return key, err
}

func keygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	var kf keyFlags
	kf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(kf.keystore); err == nil {
		return fmt.Errorf("keystore %s already exists", kf.keystore)
	}
	pass, err := passphrase.NewSource(kf.passEnv).Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(kf.keystore, key, pass); err != nil {
		return err
	}
	fmt.Fprintln(out, key.PubKey().Signer())
	return nil
}

type signature struct {
	Signature  crypto.Signature  `json:"signature"`
	RecoveryID crypto.RecoveryID `json:"recovery_id"`
	Message    types.Hash        `json:"message"`
}

func writeSignature(out io.Writer, key *crypto.PrivateKey, msg types.Hash) error {
	sig, rid, err := key.Sign(msg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(signature{Signature: sig, RecoveryID: rid, Message: msg})
}

// adminValue returns the bytes an admin operation signs.
func adminValue(op, value, codePath string) ([]byte, error) {
	switch op {
	case "pause":
		return bridge.PauseValue(), nil
	case "resume":
		return bridge.ResumeValue(), nil
	case "set_signer":
		signer, err := crypto.ParseSigner(value)
		if err != nil {
			return nil, err
		}
		return []byte(signer), nil
	case "set_fee_contract":
		account, err := types.ParseAccountID(value)
		if err != nil {
			return nil, err
		}
		return []byte(account), nil
	case "update_contract":
		if codePath == "" {
			return nil, fmt.Errorf("%w: update_contract needs -code", errUsage)
		}
		code, err := os.ReadFile(codePath)
		if err != nil {
			return nil, err
		}
		return bridge.CodeDigest(code), nil
	default:
		return nil, fmt.Errorf("%w: unknown admin op %q", errUsage, op)
	}
}

func signAdmin(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	var kf keyFlags
	kf.register(fs)
	op := fs.String("op", "", "Admin operation to authorise")
	value := fs.String("value", "", "New signer key or fee contract account")
	codePath := fs.String("code", "", "Contract code file for update_contract")
	chain := fs.String("chain", "", "Chain the bridge is configured with")
	account := fs.String("account", "", "Bridge account")
	nonce := fs.Uint64("nonce", 0, "Current admin nonce of the bridge")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chain == "" {
		return fmt.Errorf("%w: -chain is required", errUsage)
	}
	bridgeAccount, err := types.ParseAccountID(*account)
	if err != nil {
		return err
	}
	raw, err := adminValue(*op, *value, *codePath)
	if err != nil {
		return err
	}
	key, err := kf.load()
	if err != nil {
		return err
	}
	return writeSignature(out, key, bridge.AdminMessage(raw, *chain, *nonce, bridgeAccount))
}

func signRoot(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("root", flag.ContinueOnError)
	var kf keyFlags
	kf.register(fs)
	rawRoot := fs.String("root", "", "Merkle root to sign (0x-prefixed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	root, err := types.ParseHash(*rawRoot)
	if err != nil {
		return err
	}
	key, err := kf.load()
	if err != nil {
		return err
	}
	return writeSignature(out, key, root)
}
