package routes

import (
	"net/http"

	"todo-tasks/app/controllers"
	"todo-tasks/app/middleware"
	"todo-tasks/app/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// APIPrefix is the path prefix of every versioned route.
const APIPrefix = "/api/v1"

// NewRouter builds the application router with logging and panic recovery
// on every matched route.
func NewRouter(taskController *controllers.TaskController, log logrus.FieldLogger, minVersionCode int) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Write(w, response.Envelope{Code: http.StatusNotFound, Message: "Not Found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Write(w, response.Envelope{Code: http.StatusMethodNotAllowed, Message: "Method Not Allowed"})
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, "ok", nil)
	}).Methods(http.MethodGet)

	RegisterRoutes(router, taskController, minVersionCode)
	return router
}

// RegisterRoutes sets up the task routes behind the version gate.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController, minVersionCode int) {
	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(middleware.VersionGate(minVersionCode))

	api.HandleFunc("/task/store", taskController.Store).Methods(http.MethodPost)
	api.HandleFunc("/task/index", taskController.Index).Methods(http.MethodPost)
	api.HandleFunc("/task/markComplete", taskController.MarkComplete).Methods(http.MethodPost)
	api.HandleFunc("/task/{task}", taskController.Show).Methods(http.MethodGet)
	api.HandleFunc("/task/{task}", taskController.Destroy).Methods(http.MethodDelete)
}
