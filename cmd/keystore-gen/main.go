// Creates a new encrypted keystore for the keystore wallet provider.
// Usage: go run ./cmd/keystore-gen [path.cwt]   (defaults to KEYSTORE_PATH)
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/AlexZinkM/belpy-mint/internal/config"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
	"github.com/AlexZinkM/belpy-mint/solana"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "keystore-gen: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}

	path := config.Get().KeystorePath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		return fmt.Errorf("keystore path required: pass it as an argument or set KEYSTORE_PATH")
	}

	ctx := context.Background()
	pass, err := wallet.TerminalPassphrase{Prompt: "New passphrase: "}.Passphrase(ctx)
	if err != nil {
		return err
	}
	defer clear(pass)

	again, err := wallet.TerminalPassphrase{Prompt: "Repeat passphrase: "}.Passphrase(ctx)
	if err != nil {
		return err
	}
	defer clear(again)

	if !bytes.Equal(pass, again) {
		return fmt.Errorf("passphrases do not match")
	}

	address, err := solana.GenerateKeystore(path, pass)
	if err != nil {
		return err
	}
	fmt.Printf("keystore written to %s\naddress: %s\n", path, address)
	return nil
}
