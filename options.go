// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import "time"

// MaxMsgSizeUnlimited is the sentinel MaxMsgSize value meaning "no limit".
const MaxMsgSizeUnlimited int64 = -1

// Options configures a Decoder.
type Options struct {
	// MaxMsgSize caps the decoded payload size in bytes. MaxMsgSizeUnlimited
	// (the default) disables the check beyond the platform's addressable
	// length.
	MaxMsgSize int64

	// ZeroCopyEnabled controls whether payloads that fit inside the
	// transport-supplied arena window are referenced rather than copied.
	// Defaults to true.
	ZeroCopyEnabled bool

	// Logger receives diagnostic events. Defaults to a discard logger.
	Logger Logger

	// RetryDelay controls how StreamDecoder handles ErrWouldBlock from the
	// underlying transport, mirroring the same three-way policy used
	// throughout this codebase's non-blocking I/O helpers:
	//   - negative: nonblock, return the transport's ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration
}

var defaultOptions = Options{
	MaxMsgSize:      MaxMsgSizeUnlimited,
	ZeroCopyEnabled: true,
	Logger:          discardLogger{},
	RetryDelay:      -1,
}

// Option configures a Decoder or a StreamDecoder at construction time.
type Option func(*Options)

// WithMaxMsgSize caps the decoded payload size. A negative limit means
// unlimited.
func WithMaxMsgSize(limit int64) Option {
	return func(o *Options) { o.MaxMsgSize = limit }
}

// WithZeroCopy toggles zero-copy payload sharing with the input arena.
func WithZeroCopy(enabled bool) Option {
	return func(o *Options) { o.ZeroCopyEnabled = enabled }
}

// WithLogger attaches a diagnostic Logger.
func WithLogger(l Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithRetryDelay sets the retry/wait policy used when the underlying
// transport returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return the transport's
// ErrWouldBlock immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}
