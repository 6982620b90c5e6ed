// Package llm is the text-completion gateway: one interface over the remote
// and local model backends, with typed failures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Request is a single completion call.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer turns a prompt into generated text or a typed *Error.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Backend is a configured provider.
type Backend interface {
	Completer
	// Name returns the provider display name, e.g. "OpenAI".
	Name() string
	// Probe checks that the provider is reachable and usable with the
	// current settings and returns a human-readable status.
	Probe(ctx context.Context) (string, error)
}

type Kind int

const (
	KindBackend Kind = iota
	KindAuth
	KindRateLimited
	KindTransport
	KindDisabled
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	case KindDisabled:
		return "disabled"
	default:
		return "backend"
	}
}

type kindError Kind

func (k kindError) Error() string { return "llm: " + Kind(k).String() }

// Sentinels for errors.Is against an *Error of the matching kind.
var (
	ErrAuth        error = kindError(KindAuth)
	ErrRateLimited error = kindError(KindRateLimited)
	ErrTransport   error = kindError(KindTransport)
	ErrDisabled    error = kindError(KindDisabled)
	ErrBackend     error = kindError(KindBackend)
)

// Error is the failure returned by every backend.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Timeout  bool
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s error", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Timeout {
		msg += ": timed out"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && Kind(k) == e.Kind
}

// transportError wraps a failed round trip, flagging deadline expiry.
func transportError(provider string, err error) *Error {
	return &Error{
		Kind:     KindTransport,
		Provider: provider,
		Timeout:  isTimeout(err),
		Err:      err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// statusError maps a non-200 HTTP status to an *Error.
func statusError(provider string, status int, body string) *Error {
	e := &Error{Kind: KindBackend, Provider: provider, Status: status}
	switch {
	case status == 401 || status == 403:
		e.Kind = KindAuth
	case status == 429:
		e.Kind = KindRateLimited
	}
	if body != "" {
		e.Err = errors.New(truncate(body, 300))
	}
	return e
}

// Message renders err as the user-visible text shown instead of a fill. It
// always starts with "Error:".
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Error: " + err.Error()
	}
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("Error: Invalid %s API Key.", e.Provider)
	case KindRateLimited:
		return fmt.Sprintf("Error: %s rate limit exceeded. Please try again later.", e.Provider)
	case KindDisabled:
		return "Error: LLM is disabled."
	case KindTransport:
		if e.Timeout {
			return fmt.Sprintf("Error: %s request timed out.", e.Provider)
		}
		return fmt.Sprintf("Error: could not connect to %s: %v", e.Provider, e.Err)
	default:
		return "Error: generating text failed: " + e.Error()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
