package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"todo-tasks/app/response"

	"github.com/gorilla/mux"
)

// VersionHeader carries the client app's integer build number.
const VersionHeader = "Version-Code"

// VersionGate rejects requests whose Version-Code is below minVersion with
// a 503 envelope. A missing or non-numeric header counts as version 0.
func VersionGate(minVersion int) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if clientVersion(r) < minVersion {
				response.UpdateRequired(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientVersion(r *http.Request) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.Header.Get(VersionHeader)))
	if err != nil {
		return 0
	}
	return v
}
