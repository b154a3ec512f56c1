package stacktrace

import (
	"github.com/cockroachdb/errors/errbase"
)

// StackTrace is the type of the data for a call stack.
// This mirrors the type of the same name in [github.com/cockroachdb/errors/errbase.StackTrace].
type StackTrace errbase.StackTrace

// TraceFrames returns the trace line frames of the stack trace.
func (s StackTrace) TraceFrames() []TraceFrame {
	return TraceLines(s)
}

// TraceFramesStrings returns the frames formatted as "function file:line".
func (s StackTrace) TraceFramesStrings() []string {
	traceLines := s.TraceFrames()
	t := make([]string, len(traceLines))
	for i, tl := range traceLines {
		t[i] = tl.String()
	}
	return t
}
