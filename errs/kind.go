// Package errs classifies core failures by kind so the CLI layer can
// react appropriately (exit code, recovery-key hint) without parsing
// error strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure. It is not a substitute for the
// underlying error, which is always chained in via %w.
type Kind int

const (
	// InputValidation covers mutually exclusive flags, missing
	// required flags, and invalid address/id/satpoint parses.
	InputValidation Kind = iota

	// StateConflict covers reinscription conflicts, locked/rune
	// UTXOs, and parent/child mismatches.
	StateConflict

	// Construction covers dust outputs, oversize runestones, and
	// reveal transactions exceeding the standard weight limit.
	Construction

	// Cryptographic covers a tweaked-pubkey mismatch against the
	// persisted commit address.
	Cryptographic

	// Transport covers RPC failures against the Bitcoin node.
	Transport

	// Persistence covers missing keys and deserialization failures
	// in the reveal-state store.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case InputValidation:
		return "input validation"
	case StateConflict:
		return "state conflict"
	case Construction:
		return "construction"
	case Cryptographic:
		return "cryptographic"
	case Transport:
		return "transport"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind for classification
// purposes, preserving the chain via Unwrap.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind. If err is nil, Wrap returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf formats a message, wraps it with err via %w, and tags the
// result with kind.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: fmt.Errorf(format+": %w", append(args, err)...)}
}

// As reports whether err (or anything in its chain) is an *Error and,
// if so, returns its Kind.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
