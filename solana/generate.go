// Package solana holds use cases that act on local Solana key material.
package solana

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"

	"github.com/AlexZinkM/belpy-mint/internal/crypto"
	"github.com/AlexZinkM/belpy-mint/internal/model"
)

const networkSolana = "solana"

// GenerateKeystore creates a new Solana keypair and stores it in an
// encrypted .cwt file for the keystore wallet provider. It returns the
// public address. An existing non-empty file yields an error wrapping
// os.ErrExist.
// passphrase must be []byte so the caller can zero it after use.
func GenerateKeystore(filePath string, passphrase []byte, opts ...crypto.EncryptOption) (address string, err error) {
	if len(passphrase) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}

	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	address = wallet.PublicKey().String()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	walletData := &model.WalletData{
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if err := crypto.EncryptWallet(filePath, networkSolana, address, qrCode, walletData, passphrase, opts...); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}
	return address, nil
}

// generateQRCode renders address as a base64 PNG
func generateQRCode(address string) (string, error) {
	png, err := qrcode.Encode(address, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
