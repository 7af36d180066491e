package model

// CWTFile represents .cwt keystore file structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	ScryptN    int    `json:"scryptN,omitempty"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted wallet data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // 64 bytes (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// ConnectRequest represents request for POST /api/session/connect
type ConnectRequest struct {
	Type string `json:"type"`
}
