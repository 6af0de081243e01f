// Package errlog routes resolver failures to a logger without changing how
// resolvers behave.
//
// Decorate wraps a single resolver; DecorateMap applies it to every field
// of a schema. A decorated resolver logs each failure exactly once, whether
// it was returned synchronously, raised as a panic, or reached through the
// rejection of a deferred value, and then lets the failure reach the caller
// exactly as it would have without decoration.
package errlog

import (
	"context"
	"fmt"
	"io"
)

// BaseMessage prefixes every logged resolver error.
const BaseMessage = "Error in resolver"

// Logger receives annotated resolver errors. Implementations must be safe
// for concurrent use; the decorator does not serialize calls.
type Logger interface {
	Log(ctx context.Context, err error)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ctx context.Context, err error)

func (f LoggerFunc) Log(ctx context.Context, err error) { f(ctx, err) }

// Tee fans every error out to each logger in order.
func Tee(loggers ...Logger) Logger {
	return LoggerFunc(func(ctx context.Context, err error) {
		for _, l := range loggers {
			l.Log(ctx, err)
		}
	})
}

// Error is the annotated error handed to a Logger. It keeps the original
// failure as its cause.
type Error struct {
	msg   string
	hint  string
	cause error
}

// Wrap annotates cause with BaseMessage and, when non-empty, the hint.
func Wrap(cause error, hint string) *Error {
	msg := BaseMessage
	if hint != "" {
		msg = msg + " " + hint
	}
	return &Error{msg: msg, hint: hint, cause: cause}
}

// Message returns the annotation without the cause, e.g.
// "Error in resolver Query.user".
func (e *Error) Message() string { return e.msg }

// Hint returns the hint the error was annotated with.
func (e *Error) Hint() string { return e.hint }

func (e *Error) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

// Cause returns the original failure. It makes errors.Cause from
// github.com/pkg/errors walk through the annotation.
func (e *Error) Cause() error { return e.cause }

func (e *Error) Unwrap() error { return e.cause }

// Format prints the cause chain with stack traces for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.cause != nil {
			fmt.Fprintf(s, "%+v\n", e.cause)
			io.WriteString(s, e.msg)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
