package services

// Outcome classifies how a service operation ended. Unexpected faults are
// not an outcome: they come back as a non-nil error instead.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalid
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the typed outcome of a task operation.
type Result struct {
	Outcome Outcome
	// Reason is a stable machine-readable code for non-success outcomes,
	// e.g. "title exists".
	Reason  string
	Message string
	Data    any
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func success(message string, data any) Result {
	return Result{Outcome: OutcomeSuccess, Message: message, Data: data}
}

func invalid(reason string) Result {
	return Result{Outcome: OutcomeInvalid, Reason: reason, Message: validationMessages[reason]}
}

func notFound() Result {
	return Result{Outcome: OutcomeNotFound, Reason: ReasonNotFound, Message: MsgTaskNotFound}
}

func failed(reason, message string) Result {
	return Result{Outcome: OutcomeFailed, Reason: reason, Message: message}
}
