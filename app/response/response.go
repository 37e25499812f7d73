// Package response writes the uniform JSON envelope every API route answers
// with:
//
//	{
//	  "status": true,             // operation outcome
//	  "code": 200,                // mirrors the HTTP status
//	  "message": "All tasks found.",
//	  "data": [...]               // payload, {} when there is none
//	}
//
// Business failures (validation, not found) are reported with status false
// and code 200. Only the version gate and unexpected faults use other codes.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	MsgServerError    = "Server Error"
	MsgUpdateRequired = "Please update app version"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  bool   `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type empty struct{}

// Success writes a successful envelope with HTTP 200.
func Success(w http.ResponseWriter, message string, data any) {
	Write(w, Envelope{Status: true, Code: http.StatusOK, Message: message, Data: data})
}

// Fail writes a business failure: status false, HTTP 200.
func Fail(w http.ResponseWriter, message string) {
	Write(w, Envelope{Status: false, Code: http.StatusOK, Message: message})
}

// ServerError writes the generic 500 envelope. The cause is never exposed.
func ServerError(w http.ResponseWriter) {
	Write(w, Envelope{Status: false, Code: http.StatusInternalServerError, Message: MsgServerError})
}

// UpdateRequired writes the 503 envelope of the version gate.
func UpdateRequired(w http.ResponseWriter) {
	Write(w, Envelope{Status: false, Code: http.StatusServiceUnavailable, Message: MsgUpdateRequired})
}

// Write encodes e using e.Code as the HTTP status.
func Write(w http.ResponseWriter, e Envelope) {
	if e.Code == 0 {
		e.Code = http.StatusOK
	}
	if e.Data == nil {
		e.Data = empty{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
