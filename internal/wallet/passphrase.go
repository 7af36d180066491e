package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrPassphraseDeclined is returned when no passphrase was given.
var ErrPassphraseDeclined = errors.New("passphrase declined")

// PassphraseSource supplies the keystore passphrase. Callers zero the result.
type PassphraseSource interface {
	Passphrase(ctx context.Context) ([]byte, error)
}

// StaticPassphrase is a passphrase taken from configuration.
type StaticPassphrase []byte

func (p StaticPassphrase) Passphrase(context.Context) ([]byte, error) {
	if len(p) == 0 {
		return nil, ErrPassphraseDeclined
	}
	return append([]byte(nil), p...), nil
}

// TerminalPassphrase prompts on the controlling terminal.
type TerminalPassphrase struct {
	Prompt string
}

func (p TerminalPassphrase) Passphrase(ctx context.Context) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("%w: stdin is not a terminal", ErrPassphraseDeclined)
	}

	prompt := p.Prompt
	if prompt == "" {
		prompt = "Keystore passphrase: "
	}

	pass, err := stdinReader.ReadLine(ctx, func() { fmt.Fprint(os.Stderr, prompt) })
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	fmt.Fprintln(os.Stderr)
	if len(pass) == 0 {
		return nil, ErrPassphraseDeclined
	}
	return pass, nil
}

var stdinReader = &lineReader{read: func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}}

type readResult struct {
	line []byte
	err  error
}

// lineReader serializes blocking reads of one input. A read abandoned by a
// canceled caller keeps running; the next caller waits for it and discards
// its line before prompting again.
type lineReader struct {
	mu      sync.Mutex
	pending chan readResult
	read    func() ([]byte, error)
}

func (r *lineReader) ReadLine(ctx context.Context, prompt func()) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil {
		select {
		case stale := <-r.pending:
			clear(stale.line)
			r.pending = nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if prompt != nil {
		prompt()
	}
	ch := make(chan readResult, 1)
	go func() {
		line, err := r.read()
		ch <- readResult{line, err}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		r.pending = ch
		return nil, ctx.Err()
	}
}
