package stacktrace

import (
	"strings"
	"testing"
)

func TestInternal(t *testing.T) {
	var paths []string
	func() {
		defer func() {
			if recover() != nil {
				paths = Internal(0)
			}
		}()
		panic("boom")
	}()

	if len(paths) == 0 {
		t.Fatalf("expected internal frames")
	}
	if !strings.HasPrefix(paths[0], "internal/pkg/stacktrace/stacktrace_test.go:") {
		t.Fatalf("unexpected first frame: %v", paths)
	}
}
