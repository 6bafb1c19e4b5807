// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package plain implements the client side of the ZMTP PLAIN security
// mechanism handshake: HELLO -> WELCOME -> INITIATE -> READY/ERROR. The
// server side, and every other mechanism (NULL, CURVE), are out of scope
// per spec.md §1.
package plain

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"code.hybscloud.com/zmtp"
	"code.hybscloud.com/zmtp/internal/metadata"
)

var (
	errWelcomeLength  = errors.New("plain: WELCOME command has wrong total length")
	errErrorBodyShape = errors.New("plain: ERROR command body fails length checks")
)

// State is the PLAIN client's handshake state (spec.md §3).
type State uint8

const (
	SendingHello State = iota
	AwaitingWelcome
	SendingInitiate
	AwaitingReady
	Ready
	ErrorReceived
)

func (s State) String() string {
	switch s {
	case SendingHello:
		return "sending-hello"
	case AwaitingWelcome:
		return "awaiting-welcome"
	case SendingInitiate:
		return "sending-initiate"
	case AwaitingReady:
		return "awaiting-ready"
	case Ready:
		return "ready"
	case ErrorReceived:
		return "error-received"
	default:
		return "unknown"
	}
}

// Status is the coarse status surfaced to the session, per spec.md §4.3.
type Status uint8

const (
	Handshaking Status = iota
	StatusReady
	StatusError
)

// FailureReporter is the narrow event sink a session implements to learn
// about handshake failures, per spec.md §4.3 and §6.
type FailureReporter interface {
	ReportHandshakeFailure(endpoint string, kind zmtp.ErrorKind)
}

// noopReporter is used when no FailureReporter is configured.
type noopReporter struct{}

func (noopReporter) ReportHandshakeFailure(string, zmtp.ErrorKind) {}

// maxCredentialLen is the exclusive upper bound on username/password
// length: spec.md §4.3 requires len < 256, since the wire length prefix is
// a single byte.
const maxCredentialLen = 256

// Mechanism drives the PLAIN client handshake. It is not safe for
// concurrent use; like the Decoder it is intended for a single reactor
// goroutine per spec.md §5.
type Mechanism struct {
	username string
	password string

	state    State
	reporter FailureReporter
	endpoint string
	logger   zmtp.Logger

	// lastError is set when the peer sends a well-formed ERROR command,
	// so callers can surface the peer's stated reason.
	lastError string
}

// MechanismOption configures a Mechanism at construction time.
type MechanismOption func(*Mechanism)

// WithFailureReporter attaches the session's failure-reporting sink.
func WithFailureReporter(r FailureReporter) MechanismOption {
	return func(m *Mechanism) {
		if r != nil {
			m.reporter = r
		}
	}
}

// WithEndpoint sets the endpoint string passed to ReportHandshakeFailure.
func WithEndpoint(endpoint string) MechanismOption {
	return func(m *Mechanism) { m.endpoint = endpoint }
}

// WithLogger attaches a diagnostic Logger.
func WithLogger(l zmtp.Logger) MechanismOption {
	return func(m *Mechanism) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMechanism constructs a PLAIN client Mechanism for the given
// credentials. username and password must each be shorter than 256 bytes;
// violating that is a programmer error and panics, matching spec.md §4.3's
// "violations are programmer errors" with the restored-assertion posture
// spec.md §9 recommends over a silent early return.
func NewMechanism(username, password string, opts ...MechanismOption) *Mechanism {
	if len(username) >= maxCredentialLen || len(password) >= maxCredentialLen {
		panic("plain: username/password must be shorter than 256 bytes")
	}
	m := &Mechanism{
		username: username,
		password: password,
		state:    SendingHello,
		reporter: noopReporter{},
		logger:   discardLogger{},
	}
	for _, fn := range opts {
		fn(m)
	}
	return m
}

// discardLogger mirrors zmtp's default no-op Logger without importing an
// unexported type across the package boundary.
type discardLogger struct{}

func (discardLogger) Debug(string, map[string]any) {}
func (discardLogger) Warn(string, map[string]any)  {}

// State returns the current handshake state.
func (m *Mechanism) State() State { return m.state }

// Status summarizes State into the three-way status spec.md §4.3 defines.
func (m *Mechanism) Status() Status {
	switch m.state {
	case Ready:
		return StatusReady
	case ErrorReceived:
		return StatusError
	default:
		return Handshaking
	}
}

// LastError returns the peer-supplied ERROR reason, if the handshake ended
// in ErrorReceived because of a well-formed ERROR command.
func (m *Mechanism) LastError() string { return m.lastError }

// NextHandshakeCommand produces the next outbound command into out, which
// must be uninitialized (a zero Message, or one that has been Closed); an
// initialized out, including an empty one, yields ErrInvalidArgument.
// Per spec.md §4.3:
//   - SendingHello: writes HELLO, transitions to AwaitingWelcome.
//   - SendingInitiate: writes INITIATE, transitions to AwaitingReady.
//   - any other state: ErrWouldBlock.
func (m *Mechanism) NextHandshakeCommand(out *zmtp.Message) error {
	if out.Initialized() {
		return zmtp.ErrInvalidArgument
	}
	switch m.state {
	case SendingHello:
		cmd := buildCommand(nameHello, encodeHello(m.username, m.password))
		*out = *cmd
		m.state = AwaitingWelcome
		m.logger.Debug("plain: sent HELLO", map[string]any{"endpoint": m.endpoint})
		return nil
	case SendingInitiate:
		cmd := buildCommand(nameInitiate, metadata.Encode(nil))
		*out = *cmd
		m.state = AwaitingReady
		m.logger.Debug("plain: sent INITIATE", map[string]any{"endpoint": m.endpoint})
		return nil
	default:
		return zmtp.ErrWouldBlock
	}
}

// ProcessHandshakeCommand dispatches an inbound command by name. On
// success it closes and re-initializes in so the session can reuse it, per
// spec.md §4.3. On failure it reports the failure via the configured
// FailureReporter and returns a *zmtp.HandshakeError.
func (m *Mechanism) ProcessHandshakeCommand(in *zmtp.Message) error {
	name, body, ok := parseCommand(in)
	if !ok {
		return m.fail(zmtp.ErrUnexpectedCommand, "")
	}

	var err error
	switch m.state {
	case AwaitingWelcome:
		switch name {
		case nameWelcome:
			err = m.handleWelcome(in)
		case nameError:
			err = m.handleError(in, body)
		default:
			err = m.fail(zmtp.ErrUnexpectedCommand, "")
		}
	case AwaitingReady:
		switch name {
		case nameReady:
			err = m.handleReady(body)
		case nameError:
			err = m.handleError(in, body)
		default:
			err = m.fail(zmtp.ErrUnexpectedCommand, "")
		}
	default:
		err = m.fail(zmtp.ErrUnexpectedCommand, "")
	}
	if err != nil {
		return err
	}

	_ = in.Close()
	_ = in.Init()
	return nil
}

func (m *Mechanism) handleWelcome(in *zmtp.Message) error {
	if in.Size() != welcomeTotalLen {
		cause := pkgerrors.Wrapf(errWelcomeLength, "got %d bytes, want %d", in.Size(), welcomeTotalLen)
		return m.failWithCause(zmtp.ErrMalformedWelcome, cause)
	}
	m.state = SendingInitiate
	m.logger.Debug("plain: received WELCOME", map[string]any{"endpoint": m.endpoint})
	return nil
}

func (m *Mechanism) handleReady(body []byte) error {
	if _, err := metadata.Decode(body); err != nil {
		return m.failWithCause(zmtp.ErrInvalidMetadata, pkgerrors.Wrap(err, "READY metadata"))
	}
	m.state = Ready
	m.logger.Debug("plain: received READY", map[string]any{"endpoint": m.endpoint})
	return nil
}

func (m *Mechanism) handleError(in *zmtp.Message, body []byte) error {
	reason, ok := decodeError(body, in.Size())
	if !ok {
		cause := pkgerrors.Wrapf(errErrorBodyShape, "data_size=%d", in.Size())
		return m.failWithCause(zmtp.ErrMalformedError, cause)
	}
	m.lastError = reason
	m.state = ErrorReceived
	m.logger.Warn("plain: received ERROR", map[string]any{"endpoint": m.endpoint, "reason": reason})
	return nil
}

// fail transitions into a terminal error posture (without changing State,
// since a malformed/unexpected command does not itself define a next
// state in spec.md §4.3's table), reports the failure to the session, and
// returns the error the caller should propagate.
func (m *Mechanism) fail(kind zmtp.ErrorKind, reason string) error {
	m.reporter.ReportHandshakeFailure(m.endpoint, kind)
	m.logger.Warn("plain: handshake failure", map[string]any{
		"endpoint": m.endpoint,
		"kind":     kind.String(),
	})
	return &zmtp.HandshakeError{Endpoint: m.endpoint, Kind: kind, Reason: reason}
}

// failWithCause is fail's counterpart for checks that have a concrete
// wire-level cause worth preserving in the returned error chain.
func (m *Mechanism) failWithCause(kind zmtp.ErrorKind, cause error) error {
	m.reporter.ReportHandshakeFailure(m.endpoint, kind)
	m.logger.Warn("plain: handshake failure", map[string]any{
		"endpoint": m.endpoint,
		"kind":     kind.String(),
		"cause":    cause.Error(),
	})
	return &zmtp.HandshakeError{Endpoint: m.endpoint, Kind: kind, Err: cause}
}
