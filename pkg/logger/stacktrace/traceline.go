package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

type TraceFrame struct {
	PC       uintptr
	Function string
	File     string
	Line     int
}

// TraceLines resolves the frames of s, innermost first, dropping the runtime
// frames at the bottom of the stack.
func TraceLines(s StackTrace) []TraceFrame {
	traceLines := make([]TraceFrame, 0, len(s))

	skipping := true
	for i := len(s) - 1; i >= 0; i-- {
		pc := uintptr(s[i]) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			traceLines = append(traceLines, TraceFrame{pc, "unknown", "", 0})
			skipping = false
			continue
		}

		name := fn.Name()
		if skipping && strings.HasPrefix(name, "runtime.") {
			continue
		}
		skipping = false

		filename, line := fn.FileLine(pc)
		traceLines = append(traceLines, TraceFrame{pc, name, filename, line})
	}

	// frames were collected outermost first
	for l, r := 0, len(traceLines)-1; l < r; l, r = l+1, r-1 {
		traceLines[l], traceLines[r] = traceLines[r], traceLines[l]
	}
	return traceLines
}

func (f TraceFrame) String() string {
	return fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line)
}
