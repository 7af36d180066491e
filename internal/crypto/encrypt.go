// Package crypto reads and writes the encrypted .cwt keystore used by the
// keystore wallet provider.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/scrypt"

	"github.com/AlexZinkM/belpy-mint/internal/model"
)

// KeystoreExt is the required extension of keystore files.
const KeystoreExt = ".cwt"

const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// DefaultScryptN is the scrypt cost parameter. 2^18 needs ~256MB of RAM and
// keeps brute force expensive while still running on small machines.
const DefaultScryptN = 1 << 18

type encryptOptions struct {
	scryptN int
}

// EncryptOption configures EncryptWallet.
type EncryptOption func(*encryptOptions)

// WithScryptCost overrides the scrypt cost parameter. It is stored in the
// file so DecryptWallet can derive the same key.
func WithScryptCost(n int) EncryptOption {
	return func(o *encryptOptions) {
		o.scryptN = n
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncryptWallet encrypts walletData with passphrase and writes it to a new
// .cwt file. An existing non-empty file is never overwritten.
// passphrase must be []byte so the caller can zero it after use.
func EncryptWallet(filePath, network, address, qrCode string, walletData *model.WalletData, passphrase []byte, opts ...EncryptOption) error {
	o := encryptOptions{scryptN: DefaultScryptN}
	for _, opt := range opts {
		opt(&o)
	}

	if filepath.Ext(filePath) != KeystoreExt {
		return fmt.Errorf("file must have %s extension", KeystoreExt)
	}
	if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
		return fmt.Errorf("file is not empty: %w", os.ErrExist)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newAEAD(passphrase, salt, o.scryptN)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext)

	cwt := model.CWTFile{
		Network:    network,
		Address:    address,
		QR:         qrCode,
		ScryptN:    o.scryptN,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plaintext, nil)),
	}

	data, err := json.MarshalIndent(cwt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cwt file: %w", err)
	}

	// BOM keeps the file readable in Windows editors
	if err := os.WriteFile(filePath, append(append([]byte{}, utf8BOM...), data...), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// newAEAD derives the AES-256-GCM key for passphrase and salt
func newAEAD(passphrase, salt []byte, n int) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, n, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
