package controllers

import (
	"net/http"

	"todo-tasks/app/models"
	"todo-tasks/app/response"
	"todo-tasks/app/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
	Log     logrus.FieldLogger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, log logrus.FieldLogger) *TaskController {
	return &TaskController{Service: service, Log: log}
}

// TaskResource is the wire shape of a task in API responses.
type TaskResource struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	DueDate  string         `json:"due_date"`
	SubTasks []TaskResource `json:"subTasks"`
}

// NewTaskResource renders t and its loaded subtasks.
func NewTaskResource(t *models.Task) TaskResource {
	return TaskResource{
		ID:       t.ID,
		Title:    t.Title,
		DueDate:  t.DueDate.Format(models.DateLayout),
		SubTasks: taskCollection(t.SubTasks),
	}
}

func taskCollection(tasks []*models.Task) []TaskResource {
	out := make([]TaskResource, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResource(t))
	}
	return out
}

// Store handles POST /task/store.
func (c *TaskController) Store(w http.ResponseWriter, r *http.Request) {
	p := c.params(r)
	res, err := c.Service.CreateTask(r.Context(), services.CreateTaskInput{
		Title:    p.get("title"),
		DueDate:  p.get("due_date"),
		Status:   p.get("status"),
		ParentID: p.get("parent_id"),
	})
	c.respond(w, r, res, err)
}

// Index handles POST /task/index.
func (c *TaskController) Index(w http.ResponseWriter, r *http.Request) {
	p := c.params(r)
	res, err := c.Service.ListTasks(r.Context(), services.ListTasksInput{
		Title:       p.get("title"),
		DueDate:     p.get("due_date"),
		DueDateType: p.get("due_date_type"),
	})
	c.respond(w, r, res, err)
}

// MarkComplete handles POST /task/markComplete.
func (c *TaskController) MarkComplete(w http.ResponseWriter, r *http.Request) {
	res, err := c.Service.CompleteTask(r.Context(), c.params(r).get("task_id"))
	c.respond(w, r, res, err)
}

// Destroy handles DELETE /task/{task}.
func (c *TaskController) Destroy(w http.ResponseWriter, r *http.Request) {
	res, err := c.Service.RemoveTask(r.Context(), mux.Vars(r)["task"])
	c.respond(w, r, res, err)
}

// Show handles GET /task/{task}.
func (c *TaskController) Show(w http.ResponseWriter, r *http.Request) {
	res, err := c.Service.GetTask(r.Context(), mux.Vars(r)["task"])
	c.respond(w, r, res, err)
}

func (c *TaskController) params(r *http.Request) params {
	p, err := readParams(r)
	if err != nil {
		c.Log.WithError(err).WithField("path", r.URL.Path).Warn("unreadable request body")
	}
	return p
}

// respond writes a service result as an envelope. Unexpected errors are
// logged and answered with a bare 500.
func (c *TaskController) respond(w http.ResponseWriter, r *http.Request, res services.Result, err error) {
	if err != nil {
		c.Log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("task operation failed")
		response.ServerError(w)
		return
	}
	if !res.OK() {
		response.Fail(w, res.Message)
		return
	}

	switch data := res.Data.(type) {
	case *models.Task:
		response.Success(w, res.Message, NewTaskResource(data))
	case []*models.Task:
		response.Success(w, res.Message, taskCollection(data))
	default:
		response.Success(w, res.Message, data)
	}
}
