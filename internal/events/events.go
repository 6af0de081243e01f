// Package events defines the values published on the event bus while a
// request is served. Every event is published with the request context,
// which carries the request id.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the handler receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published after the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published before one operation of a request executes.
// OperationType is empty when the operation cannot be selected.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published after the operation executed. Errors holds
// the located field errors of the result.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
