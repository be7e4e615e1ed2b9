package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
	"github.com/zhouzirui/core-companion/backend/pkg/utils"
)

// Recoverer turns a handler panic into the generic JSON error body with status 500.
// Upgraded connections are left alone since their response has been hijacked.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			observability.LoggerFromContext(r.Context()).Error("panic while serving request",
				"panic", rec,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if r.Header.Get("Connection") != "Upgrade" {
				utils.RespondError(w, http.StatusInternalServerError, chat.GenericErrorMessage, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
