// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import "go.uber.org/atomic"

// ownedSentinel is the refcount value meaning "this arena's backing buffer
// is owned exclusively by the decoder; no message currently shares it".
// It is distinct from any valid counted value because inc_ref transitions
// away from it atomically via CompareAndSwap, never by incrementing through
// it.
const ownedSentinel int32 = -1

// Arena is a refcounted byte buffer that a transport reads into and that
// zero-copy messages borrow from. The decoder holds a logical reference to
// it at all times; that reference is "upgraded" to a counted reference
// (leaving ownedSentinel) the first time a message shares the buffer
// instead of copying out of it. The arena releases its backing memory when
// the last counted reference is dropped.
//
// Reference release (Message.Close on a shared message) is safe from any
// goroutine; everything else is
// expected to be driven from the single reactor goroutine that owns the
// decoder, per spec.md §5.
type Arena struct {
	buf  []byte
	end  int // bytes currently readable (advance_content watermark)
	refs atomic.Int32
}

// NewArena allocates an arena with the given writable capacity.
func NewArena(capacity int) *Arena {
	a := &Arena{buf: make([]byte, capacity)}
	a.refs.Store(ownedSentinel)
	return a
}

// Buffer returns the writable region a transport should read into, i.e.
// buf[end:len(buf)].
func (a *Arena) Buffer() []byte {
	return a.buf[a.end:]
}

// Len returns the number of bytes currently marked readable.
func (a *Arena) Len() int { return a.end }

// Cap returns the arena's total backing capacity.
func (a *Arena) Cap() int { return len(a.buf) }

// Bytes returns the readable region buf[:end].
func (a *Arena) Bytes() []byte { return a.buf[:a.end] }

// AdvanceContent marks n more bytes, just written by the transport, as
// readable.
func (a *Arena) AdvanceContent(n int) {
	a.end += n
}

// Compact discards the first n readable bytes, shifting the remainder (and
// the read watermark) to the front of the buffer. Callers must not compact
// while any shared-payload message still references this arena's current
// layout; doing so would silently move bytes out from under a zero-copy
// view. This mirrors the teacher's reuse-the-scratch-buffer discipline
// (internal.go's fr.rbuf/fr.wbuf) extended with an explicit shift instead
// of a fresh allocation.
func (a *Arena) Compact(n int) {
	if n <= 0 {
		return
	}
	copy(a.buf, a.buf[n:a.end])
	a.end -= n
}

// IsShared reports whether any message currently holds a counted reference
// into this arena.
func (a *Arena) IsShared() bool {
	return a.refs.Load() != ownedSentinel
}

// incRef takes one counted reference, transitioning out of ownedSentinel on
// the first call.
func (a *Arena) incRef() {
	for {
		cur := a.refs.Load()
		if cur == ownedSentinel {
			if a.refs.CompareAndSwap(ownedSentinel, 1) {
				return
			}
			continue
		}
		if a.refs.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// decRef releases one counted reference. The backing buffer is dropped
// (its slice header cleared) when the last counted reference goes away,
// returning the refcount to ownedSentinel so the arena can be reused or
// garbage collected independently of any message that once shared it.
func (a *Arena) decRef() {
	for {
		cur := a.refs.Load()
		if cur <= 0 {
			// Not currently shared; nothing to release.
			return
		}
		next := cur - 1
		if next == 0 {
			next = ownedSentinel
		}
		if a.refs.CompareAndSwap(cur, next) {
			if next == ownedSentinel {
				a.release()
			}
			return
		}
	}
}

func (a *Arena) release() {
	a.buf = nil
	a.end = 0
}

// Reset rewinds the arena to an empty, unshared state so a transport can
// recycle its backing buffer, the way the teacher recycles fr.rbuf across
// messages. It is a programmer error to Reset an arena that is still
// shared by an outstanding message.
func (a *Arena) Reset(capacity int) {
	if a.buf == nil || cap(a.buf) < capacity {
		a.buf = make([]byte, capacity)
	} else {
		a.buf = a.buf[:capacity]
	}
	a.end = 0
	a.refs.Store(ownedSentinel)
}
