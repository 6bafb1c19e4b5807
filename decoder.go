// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import "math"

// stage is the framing decoder's state, dispatched in a single switch
// rather than via the source's re-entrant function-pointer callbacks —
// equally cheap, auditable, and free of indirect calls on the hot path
// (spec.md §9).
type stage uint8

const (
	stageAwaitFlags stage = iota
	stageAwaitSize1
	stageAwaitSize8
	stageAwaitPayload
)

// Decoder turns a ZMTP v2 byte stream into discrete Messages. It is driven
// by repeated calls to Decode and is not safe for concurrent use; spec.md
// §5 places it on a single reactor goroutine.
type Decoder struct {
	opts Options

	st stage

	pendingFlags Flags
	large        bool

	scratch       [8]byte
	scratchFilled int

	msgSize int64

	inProgress    Message
	payloadFilled int
}

// NewDecoder constructs a Decoder. Defaults: unlimited MaxMsgSize,
// zero-copy enabled, a discard Logger.
func NewDecoder(opts ...Option) *Decoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Decoder{opts: o}
}

// Decode consumes bytes from data and drives the framing state machine.
//
//   - If arena is non-nil, data must be exactly arena.Bytes()[baseOffset:]
//     for the arena currently backing the transport's read buffer — i.e.
//     baseOffset is data's offset within arena, and data's end coincides
//     with the arena's readable watermark. This is what makes zero-copy
//     eligibility checkable: a payload that fits entirely within data is,
//     by construction, a payload that fits within the arena's current
//     window (spec.md §9's "must not zero-copy across arena refills").
//   - If arena is nil, data is treated as an ordinary byte slice and every
//     completed message is an owned copy.
//
// Return values follow spec.md §4.1's three-way status:
//   - msg == nil, err == nil: NeedMore. All of data that could be consumed
//     was consumed (consumed <= len(data)); call again with more bytes.
//   - msg != nil: MessageReady. The caller must eventually Close msg.
//   - err != nil: Error. The current frame is abandoned; inProgress is
//     guaranteed to be left empty.
func (d *Decoder) Decode(data []byte, arena *Arena, baseOffset int) (consumed int, msg *Message, err error) {
	i := 0
	for {
		switch d.st {
		case stageAwaitFlags:
			if i >= len(data) {
				return i, nil, nil
			}
			b := data[i]
			i++
			d.pendingFlags = 0
			if b&byte(FlagMore) != 0 {
				d.pendingFlags |= FlagMore
			}
			if b&byte(FlagCommand) != 0 {
				d.pendingFlags |= FlagCommand
			}
			d.large = b&byte(FlagLarge) != 0
			d.scratchFilled = 0
			if d.large {
				d.st = stageAwaitSize8
			} else {
				d.st = stageAwaitSize1
			}
			continue

		case stageAwaitSize1:
			if i >= len(data) {
				return i, nil, nil
			}
			d.msgSize = int64(data[i])
			i++

		case stageAwaitSize8:
			need := 8 - d.scratchFilled
			avail := len(data) - i
			if avail < need {
				copy(d.scratch[d.scratchFilled:], data[i:])
				d.scratchFilled += avail
				i += avail
				return i, nil, nil
			}
			copy(d.scratch[d.scratchFilled:8], data[i:i+need])
			i += need
			var u64 uint64
			for _, b := range d.scratch[:8] {
				u64 = u64<<8 | uint64(b)
			}
			if u64 > math.MaxInt64 {
				// Beyond any Go length; sizeReady rejects negative sizes
				// with ErrTooLarge.
				d.msgSize = -1
			} else {
				d.msgSize = int64(u64)
			}

		case stageAwaitPayload:
			need := int(d.msgSize) - d.payloadFilled
			avail := len(data) - i
			if avail < need {
				if avail > 0 {
					copy(d.inProgress.owned[d.payloadFilled:], data[i:])
					d.payloadFilled += avail
					i += avail
				}
				return i, nil, nil
			}
			if need > 0 {
				copy(d.inProgress.owned[d.payloadFilled:], data[i:i+need])
				i += need
			}
			d.payloadFilled = 0
			out := d.inProgress
			d.inProgress = Message{}
			d.st = stageAwaitFlags
			return i, &out, nil
		}

		// Reaching here means a size header (1 or 8 byte form) just became
		// available; this is spec.md §4.1's SizeReady internal transition.
		ready, rerr := d.sizeReady(data, arena, baseOffset, i)
		if rerr != nil {
			return i, nil, rerr
		}
		if ready != nil {
			// Shared payload: the bytes were already resident in the
			// arena, so the whole frame completes in this call.
			i += int(d.msgSize)
			d.st = stageAwaitFlags
			return i, ready, nil
		}
		// Owned payload: move to AwaitPayload and keep consuming data in
		// the same call if more is available.
	}
}

// sizeReady implements spec.md §4.1 step 3. It returns a completed Message
// when the payload is eligible for zero-copy and already fully present in
// data; otherwise it allocates an owned Message, arms stageAwaitPayload,
// and returns (nil, nil) so the caller's loop proceeds to copy bytes in.
func (d *Decoder) sizeReady(data []byte, arena *Arena, baseOffset, pos int) (*Message, error) {
	if d.msgSize < 0 || d.msgSize > math.MaxInt {
		d.opts.Logger.Warn("decode: size header exceeds platform range", map[string]any{"msg_size": d.msgSize})
		return nil, ErrTooLarge
	}
	if d.opts.MaxMsgSize >= 0 && d.msgSize > d.opts.MaxMsgSize {
		d.opts.Logger.Warn("decode: message exceeds max_msg_size", map[string]any{
			"msg_size": d.msgSize, "max_msg_size": d.opts.MaxMsgSize,
		})
		return nil, ErrTooLarge
	}

	// Close any prior in-progress message defensively; normally none
	// exists here since a completed message is reset before this point.
	_ = d.inProgress.Close()

	remaining := len(data) - pos
	if d.opts.ZeroCopyEnabled && arena != nil && int64(remaining) >= d.msgSize {
		if err := d.inProgress.InitFromArena(baseOffset+pos, int(d.msgSize), arena); err != nil {
			return nil, ErrOutOfMemory
		}
		d.inProgress.SetFlags(d.pendingFlags)
		out := d.inProgress
		d.inProgress = Message{}
		d.opts.Logger.Debug("decode: message ready (zero-copy)", map[string]any{"size": d.msgSize})
		return &out, nil
	}

	if err := d.inProgress.InitSize(int(d.msgSize)); err != nil {
		d.inProgress = Message{}
		return nil, ErrOutOfMemory
	}
	d.inProgress.SetFlags(d.pendingFlags)
	d.payloadFilled = 0
	d.st = stageAwaitPayload
	return nil, nil
}
