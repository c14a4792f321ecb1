package middleware

import (
	"net/http"
	"runtime/debug"

	"qrgate/internal/apierror"
	"qrgate/pkg/logging/logging"

	"go.uber.org/zap"
)

// Recoverer logs a panic with its stack and answers with a JSON 500.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logging.L(r.Context()).Error("panic recovered",
					zap.Any("error", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				apierror.Internal(w, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
