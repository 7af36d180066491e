package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/AlexZinkM/belpy-mint/internal/model"
)

var (
	// ErrKeystoreNotFound is returned when the keystore file is missing or empty.
	ErrKeystoreNotFound = errors.New("keystore not found")
	// ErrInvalidPassphrase is returned when the ciphertext cannot be opened.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
)

// DecryptWallet reads and decrypts a .cwt file.
// passphrase must be []byte so the caller can zero it after use.
func DecryptWallet(filePath string, passphrase []byte) (*model.CWTFile, *model.WalletData, error) {
	cwt, err := readCWT(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(cwt.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(cwt.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(cwt.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	n := cwt.ScryptN
	if n == 0 {
		n = DefaultScryptN
	}
	aead, err := newAEAD(passphrase, salt, n)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassphrase
	}
	defer clear(plaintext)

	var data model.WalletData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	return cwt, &data, nil
}

// ReadWalletAddress reads the public address from a .cwt file without decrypting it.
func ReadWalletAddress(filePath string) (string, error) {
	cwt, err := readCWT(filePath)
	if err != nil {
		return "", err
	}
	return cwt.Address, nil
}

func readCWT(filePath string) (*model.CWTFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrKeystoreNotFound, filePath)
	}

	var cwt model.CWTFile
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &cwt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}
	return &cwt, nil
}
