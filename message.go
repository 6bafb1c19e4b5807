// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package zmtp implements the core of a ZMTP (ZeroMQ Message Transport
// Protocol) engine: a v2 framing decoder and the PLAIN security mechanism
// client handshake. The socket/session layer, the byte-stream transport,
// and the generic metadata parser shared across mechanisms are external
// collaborators referenced only through the contracts in this package.
package zmtp

// Flags is a bitset carried by every frame.
type Flags uint8

const (
	// FlagMore indicates further frames of the same logical message follow.
	FlagMore Flags = 0x01
	// FlagLarge selects the 8-byte size header on the wire. It is never set
	// on a completed Message; it only ever appears in the wire header.
	FlagLarge Flags = 0x02
	// FlagCommand marks a frame as a protocol command rather than
	// application data.
	FlagCommand Flags = 0x04
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// state is the Message lifecycle state described in spec.md §3.
type state uint8

const (
	stateUninitialized state = iota
	stateEmpty
	stateOwned
	stateShared
)

// Message is the in-memory representation of one frame: its flags plus a
// payload that is either an exclusive allocation (owned) or a view into a
// refcounted Arena (shared).
//
// A Message must be closed with Close before being reused; re-initializing
// a Message that is not in the uninitialized or empty state is a
// programmer error, reported as ErrInvalidArgument rather than panicking,
// per spec.md §9's note on converting assertions to returned errors.
type Message struct {
	st    state
	flags Flags

	// owned payload storage.
	owned []byte

	// shared payload storage: a view into arena[offset : offset+size].
	arena  *Arena
	offset int
	size   int
}

// Init transitions the Message to the empty state with a zero-length
// payload and no flags.
func (m *Message) Init() error {
	if m.st != stateUninitialized && m.st != stateEmpty {
		return ErrInvalidArgument
	}
	*m = Message{st: stateEmpty}
	return nil
}

// InitSize transitions the Message to the owned state with an exclusive
// allocation of exactly n bytes.
func (m *Message) InitSize(n int) error {
	if m.st != stateUninitialized && m.st != stateEmpty {
		return ErrInvalidArgument
	}
	if n < 0 {
		return ErrInvalidArgument
	}
	buf := make([]byte, n)
	*m = Message{st: stateOwned, owned: buf}
	return nil
}

// InitFromArena transitions the Message to the shared state, referencing
// arena[offset:offset+n] and taking one reference on arena. The caller must
// ensure offset+n does not exceed the arena's readable window.
func (m *Message) InitFromArena(offset, n int, arena *Arena) error {
	if m.st != stateUninitialized && m.st != stateEmpty {
		return ErrInvalidArgument
	}
	if arena == nil || offset < 0 || n < 0 || offset+n > len(arena.buf) {
		return ErrInvalidArgument
	}
	arena.incRef()
	*m = Message{st: stateShared, arena: arena, offset: offset, size: n}
	return nil
}

// Close releases any shared reference and returns the Message to the
// uninitialized state. Close on an already-uninitialized Message is a
// no-op.
func (m *Message) Close() error {
	if m.st == stateShared && m.arena != nil {
		m.arena.decRef()
	}
	*m = Message{}
	return nil
}

// SetFlags applies f to the Message, as the decoder does on completion
// using the flags byte accumulated while parsing the header.
func (m *Message) SetFlags(f Flags) { m.flags = f }

// Flags returns the Message's flag bits.
func (m *Message) Flags() Flags { return m.flags }

// More reports whether FlagMore is set.
func (m *Message) More() bool { return m.flags.has(FlagMore) }

// Command reports whether FlagCommand is set.
func (m *Message) Command() bool { return m.flags.has(FlagCommand) }

// Size returns the payload length.
func (m *Message) Size() int {
	switch m.st {
	case stateOwned:
		return len(m.owned)
	case stateShared:
		return m.size
	default:
		return 0
	}
}

// Data returns the payload bytes. For a shared Message this is a view into
// the backing Arena and must not be retained past the Message's Close.
func (m *Message) Data() []byte {
	switch m.st {
	case stateOwned:
		return m.owned
	case stateShared:
		return m.arena.buf[m.offset : m.offset+m.size]
	default:
		return nil
	}
}

// Shared reports whether the payload is a zero-copy view into an Arena
// rather than an owned allocation.
func (m *Message) Shared() bool { return m.st == stateShared }

// Initialized reports whether Init/InitSize/InitFromArena has been called
// without an intervening Close. Callers handing a Message to NextHandshake
// producers as an out-parameter should pass one for which this is false,
// to avoid silently leaking a prior shared reference.
func (m *Message) Initialized() bool { return m.st != stateUninitialized }
