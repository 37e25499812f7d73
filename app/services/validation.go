package services

import (
	"github.com/go-playground/validator/v10"
)

// Validation reasons, reported in this order by CreateTask.
const (
	ReasonTitleRequired   = "title required"
	ReasonTitleTooLong    = "title too long"
	ReasonTitleExists     = "title exists"
	ReasonDueDateRequired = "due_date required"
	ReasonDueDateInvalid  = "due_date invalid"
	ReasonStatusInvalid   = "status invalid"
	ReasonParentInvalid   = "parent invalid"
	ReasonTaskIDRequired  = "task id required"

	ReasonNotFound     = "not found"
	ReasonDeleteFailed = "delete failed"
)

const maxTitleLength = 100

var validationMessages = map[string]string{
	ReasonTitleRequired:   "Please provide task title.",
	ReasonTitleTooLong:    "Title should not be more than 100 characters",
	ReasonTitleExists:     "Title already exists. Please send different title.",
	ReasonDueDateRequired: "Please provide task due date.",
	ReasonDueDateInvalid:  "Please send valid due date.",
	ReasonStatusInvalid:   "Please provide status either Pending or Completed.",
	ReasonParentInvalid:   "Please provide a valid parent task.",
	ReasonTaskIDRequired:  "Please provide task id.",
}

var validate = validator.New()

// fieldRule is one validator tag checked against one value.
type fieldRule struct {
	value  any
	tag    string
	reason string
}

// firstViolation runs rules in order and returns the reason of the first
// one that fails.
func firstViolation(rules ...fieldRule) (string, bool) {
	for _, r := range rules {
		if err := validate.Var(r.value, r.tag); err != nil {
			return r.reason, true
		}
	}
	return "", false
}
