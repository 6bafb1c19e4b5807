// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import "errors"

var (
	// ErrInvalidArgument reports a nil input, a closed message reused without
	// closing, or another programmer error detected at a call boundary.
	ErrInvalidArgument = errors.New("zmtp: invalid argument")

	// ErrTooLarge reports that a decoded frame's size header exceeds the
	// configured MaxMsgSize or the platform's addressable length.
	ErrTooLarge = errors.New("zmtp: message too large")

	// ErrOutOfMemory reports that allocating an owned message payload failed.
	ErrOutOfMemory = errors.New("zmtp: out of memory")

	// ErrWouldBlock is returned by the PLAIN mechanism when asked to produce
	// a handshake command while it has none pending.
	ErrWouldBlock = errors.New("zmtp: would block")
)

// ErrorKind enumerates the handshake failure kinds reported to a session
// via ReportHandshakeFailure. It does not cover decoder errors, which are
// the sentinel errors above.
type ErrorKind uint8

const (
	// ErrUnexpectedCommand means a command name arrived that is not valid
	// for the mechanism's current state.
	ErrUnexpectedCommand ErrorKind = iota + 1
	// ErrMalformedWelcome means a WELCOME command's total length was not 8.
	ErrMalformedWelcome
	// ErrMalformedError means an ERROR command's body failed its length checks.
	ErrMalformedError
	// ErrInvalidMetadata means a READY command's metadata property list did
	// not parse.
	ErrInvalidMetadata
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnexpectedCommand:
		return "unexpected-command"
	case ErrMalformedWelcome:
		return "malformed-welcome"
	case ErrMalformedError:
		return "malformed-error"
	case ErrInvalidMetadata:
		return "invalid-metadata"
	default:
		return "unknown"
	}
}

// HandshakeError is the concrete error type returned from
// Mechanism.ProcessHandshakeCommand. Its Endpoint and Kind are the values
// the mechanism also passes to the session's ReportHandshakeFailure sink.
type HandshakeError struct {
	Endpoint string
	Kind     ErrorKind
	// Reason is an optional free-text reason. The PLAIN mechanism leaves
	// it empty: a well-formed ERROR command is not returned as a
	// HandshakeError, and its reason is available from
	// Mechanism.LastError.
	Reason string
	// Err, when set, is the underlying wire-level check that failed
	// (e.g. a github.com/pkg/errors-wrapped description of which length
	// invariant was violated). Callers can retrieve it with errors.As /
	// errors.Unwrap.
	Err error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return "zmtp: handshake failed (" + e.Kind.String() + "): " + e.Err.Error()
	}
	if e.Reason != "" {
		return "zmtp: handshake failed (" + e.Kind.String() + "): " + e.Reason
	}
	return "zmtp: handshake failed (" + e.Kind.String() + ")"
}

// Unwrap exposes Err to errors.Is/errors.As chains.
func (e *HandshakeError) Unwrap() error { return e.Err }
