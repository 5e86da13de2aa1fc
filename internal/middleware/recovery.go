package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"trade-backend/pkg/utils"
)

// PanicRecovery keeps a panicking handler from taking the server down.
// The stack goes to the log; the client gets a generic 500.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
