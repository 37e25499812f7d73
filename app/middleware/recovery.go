package middleware

import (
	"net/http"
	"runtime/debug"

	"todo-tasks/app/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into the 500 envelope.
func Recovery(log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.WithFields(logrus.Fields{
						"panic": p,
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("recovered from panic")
					response.ServerError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
