// Package stacktrace trims panic stacks down to frames inside this module.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxFrames = 32

// Internal returns "internal/<pkg>/<file>.go:<line>" entries for the frames of
// the calling goroutine that belong to internal packages. skip counts frames
// above the caller of Internal.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	paths := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if idx := strings.Index(frame.File, "/internal/"); idx != -1 {
			paths = append(paths, frame.File[idx+1:]+":"+strconv.Itoa(frame.Line))
		}
		if !more {
			break
		}
	}

	return paths
}
