package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into the regular 500 envelope.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", stacktrace.Internal(2))

			encodeError(r.Context(), w, goerror.NewServer(fmt.Errorf("panic: %v", rvr)))
		}()

		next.ServeHTTP(w, r)
	})
}
