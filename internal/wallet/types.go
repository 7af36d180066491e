// Package wallet owns the connect/disconnect state machine for the single
// wallet session served by this process.
package wallet

import "strings"

// Type identifies a wallet provider.
type Type string

const (
	// TypeKeystore is an encrypted .cwt key file unlocked with a passphrase.
	TypeKeystore Type = "keystore"
	// TypeKeypair is a Solana CLI JSON keypair file.
	TypeKeypair Type = "keypair"
	// TypeWatch is a read-only address that cannot sign.
	TypeWatch Type = "watch"
)

// ParseType returns the provider type named by s.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, d := range catalog {
		if d.Type == t {
			return t, true
		}
	}
	return "", false
}

// Descriptor describes a supported wallet provider.
type Descriptor struct {
	Type        Type   `json:"type"`
	DisplayName string `json:"displayName"`
}

var catalog = []Descriptor{
	{Type: TypeKeystore, DisplayName: "Encrypted keystore"},
	{Type: TypeKeypair, DisplayName: "Solana CLI keypair"},
	{Type: TypeWatch, DisplayName: "Watch-only address"},
}

// Catalog returns every supported provider, detected or not.
func Catalog() []Descriptor {
	return append([]Descriptor(nil), catalog...)
}

// State is the session state.
type State int

const (
	StateIdle State = iota
	StateDisconnected
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Snapshot is the read model of the session. Every field always has a value.
type Snapshot struct {
	Address          string       `json:"address"`
	Wallet           Type         `json:"wallet"`
	Balance          string       `json:"balance"`
	Lamports         uint64       `json:"lamports"`
	IsConnected      bool         `json:"isConnected"`
	IsReady          bool         `json:"isReady"`
	State            string       `json:"state"`
	AvailableWallets []Descriptor `json:"availableWallets"`
}
