// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import (
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

const defaultArenaCapacity = 64 * 1024

// StreamDecoder is the session-facing glue spec.md §6 implies but does
// not itself specify: it owns an Arena, pulls bytes from a transport, and
// exposes one Message at a time via Next. This is additive plumbing, not
// protocol semantics — Decoder alone implements everything spec.md §4.1
// requires.
//
// Modeled after the teacher's Reader, which wraps a bare framer state
// machine in an io.Reader-shaped retry loop (internal.go's
// readOnce/waitOnceOnWouldBlock); StreamDecoder does the same around
// Decoder instead.
type StreamDecoder struct {
	r     io.Reader
	dec   *Decoder
	arena *Arena

	readPos int // bytes already handed to Decoder from arena.Bytes()

	retryDelay time.Duration
}

// NewStreamDecoder constructs a StreamDecoder reading framed ZMTP v2
// messages from r.
func NewStreamDecoder(r io.Reader, opts ...Option) *StreamDecoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &StreamDecoder{
		r:          r,
		dec:        NewDecoder(opts...),
		arena:      NewArena(defaultArenaCapacity),
		retryDelay: o.RetryDelay,
	}
}

// Next returns the next decoded Message, blocking (per the configured
// RetryDelay policy) until one is available, the transport is exhausted
// (io.EOF), or a decode error occurs.
func (s *StreamDecoder) Next() (*Message, error) {
	for {
		data := s.arena.Bytes()[s.readPos:]
		consumed, msg, err := s.dec.Decode(data, s.arena, s.readPos)
		s.readPos += consumed
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}

		if s.readPos == s.arena.Len() && !s.arena.IsShared() {
			s.arena.Compact(s.readPos)
			s.readPos = 0
		}
		if len(s.arena.Buffer()) == 0 {
			s.growArena()
		}

		n, rerr := s.readOnce(s.arena.Buffer())
		s.arena.AdvanceContent(n)
		if rerr != nil {
			if rerr == io.EOF && n > 0 {
				// Some readers report (n>0, io.EOF) on the final read;
				// let the next Decode call consume what arrived before
				// surfacing EOF on a subsequent empty read.
				continue
			}
			return nil, rerr
		}
	}
}

// growArena doubles the arena's capacity, preserving already-buffered
// bytes, mirroring the teacher's single-allocation-then-reuse discipline
// but allowing growth for messages larger than the initial window.
func (s *StreamDecoder) growArena() {
	grown := NewArena(s.arena.Cap() * 2)
	copy(grown.Buffer(), s.arena.Bytes())
	grown.AdvanceContent(s.arena.Len())
	s.arena = grown
}

func (s *StreamDecoder) readOnce(p []byte) (int, error) {
	for {
		n, err := s.r.Read(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 {
			return n, err
		}
		if err != iox.ErrWouldBlock {
			return n, err
		}
		if !s.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

func (s *StreamDecoder) waitOnceOnWouldBlock() bool {
	if s.retryDelay < 0 {
		return false
	}
	if s.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(s.retryDelay)
	return true
}
