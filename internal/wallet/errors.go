package wallet

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure so callers can branch on it.
type Kind string

const (
	KindWalletUnavailable Kind = "WALLET_UNAVAILABLE"
	KindUserRejected      Kind = "USER_REJECTED"
	KindProviderError     Kind = "PROVIDER_ERROR"
	KindSessionBusy       Kind = "SESSION_BUSY"
	KindAlreadyConnected  Kind = "ALREADY_CONNECTED"
)

// SessionError is returned by session operations.
type SessionError struct {
	Kind    Kind
	Message string
	Wallet  Type
	Cause   error
}

func (e *SessionError) Error() string {
	msg := e.Message
	if e.Wallet != "" {
		msg = fmt.Sprintf("%s (wallet: %s)", msg, e.Wallet)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is matches any SessionError of the same kind.
func (e *SessionError) Is(target error) bool {
	var t *SessionError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel errors for errors.Is.
var (
	ErrWalletUnavailable = &SessionError{Kind: KindWalletUnavailable, Message: "wallet not available"}
	ErrUserRejected      = &SessionError{Kind: KindUserRejected, Message: "request rejected by user"}
	ErrProviderError     = &SessionError{Kind: KindProviderError, Message: "wallet provider failed"}
	ErrSessionBusy       = &SessionError{Kind: KindSessionBusy, Message: "session is busy"}
	ErrAlreadyConnected  = &SessionError{Kind: KindAlreadyConnected, Message: "wallet already connected"}
)

func newError(sentinel *SessionError, t Type, cause error) *SessionError {
	return &SessionError{Kind: sentinel.Kind, Message: sentinel.Message, Wallet: t, Cause: cause}
}

// classify turns a provider failure into a SessionError, keeping its kind if it has one.
func classify(t Type, err error) error {
	var se *SessionError
	if errors.As(err, &se) {
		if se.Wallet == "" {
			return &SessionError{Kind: se.Kind, Message: se.Message, Wallet: t, Cause: se.Cause}
		}
		return se
	}
	return newError(ErrProviderError, t, err)
}
