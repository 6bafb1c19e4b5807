// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp

import "go.uber.org/zap"

// Logger receives diagnostic-only events from the decoder and the PLAIN
// mechanism. It is never on the hot path's critical section: callers that
// do not configure one get discardLogger, which costs a single interface
// call per event and nothing else.
type Logger interface {
	Debug(event string, fields map[string]any)
	Warn(event string, fields map[string]any)
}

type discardLogger struct{}

func (discardLogger) Debug(string, map[string]any) {}
func (discardLogger) Warn(string, map[string]any)  {}

// zapAdapter wires a *zap.SugaredLogger into the Logger interface, the way
// the pack's ws.Conn carries a *zap.SugaredLogger field: one structured
// event per line, fields attached as alternating key/value pairs rather
// than interpolated into the message.
type zapAdapter struct {
	l *zap.SugaredLogger
}

// NewZapLogger adapts l to the Logger interface used by Decoder and the
// PLAIN Mechanism.
func NewZapLogger(l *zap.SugaredLogger) Logger {
	return &zapAdapter{l: l}
}

func (z *zapAdapter) Debug(event string, fields map[string]any) {
	z.l.Debugw(event, flatten(fields)...)
}

func (z *zapAdapter) Warn(event string, fields map[string]any) {
	z.l.Warnw(event, flatten(fields)...)
}

func flatten(fields map[string]any) []any {
	out := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
